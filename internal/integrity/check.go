// Package integrity verifies the binary checksum at startup. An
// emergency guardian is a prime tampering target: a swapped binary that
// silently skips the authorization checks must not get to run.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExpectedHash is set at build time via:
//
//	-ldflags "-X github.com/ppiankov/lineguard/internal/integrity.ExpectedHash=<sha256hex>"
//
// When empty (dev builds), verification falls back to a checksum file.
var ExpectedHash string

// ChecksumPaths are checked in order for a hex-encoded SHA-256 digest of
// the installed binary. Override for testing.
var ChecksumPaths = []string{
	"/etc/lineguard/binary.sha256",
	"$HOME/.lineguard/binary.sha256",
}

// TamperLogPath receives tamper events. Override for testing.
var TamperLogPath = "/var/log/lineguard/tamper.jsonl"

// TamperEvent records a binary integrity violation.
type TamperEvent struct {
	Timestamp    string `json:"timestamp"`
	Binary       string `json:"binary"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
	Hostname     string `json:"hostname"`
}

// Verify checks the running binary against the expected hash. With no
// hash available it passes with a dev-build warning. On mismatch it logs
// a tamper event and returns an error; the caller refuses to start.
func Verify() error {
	expected := ExpectedHash
	if expected == "" {
		expected = checksumFromFile()
	}
	if expected == "" {
		fmt.Fprintln(os.Stderr, "integrity: no expected hash available, skipping check (dev build)")
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("integrity: resolve executable: %w", err)
	}
	actual, err := hashFile(exe)
	if err != nil {
		return fmt.Errorf("integrity: hash binary: %w", err)
	}
	if actual == expected {
		return nil
	}

	event := TamperEvent{
		Timestamp:    time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Binary:       exe,
		ExpectedHash: expected,
		ActualHash:   actual,
	}
	event.Hostname, _ = os.Hostname()
	logTamper(event)

	return fmt.Errorf("integrity: binary checksum mismatch (expected %s, got %s)", expected, actual)
}

// HashSelf returns the SHA-256 hex digest of the running binary, for
// writing the checksum file after install.
func HashSelf() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("integrity: resolve executable: %w", err)
	}
	return hashFile(exe)
}

func checksumFromFile() string {
	for _, p := range ChecksumPaths {
		data, err := os.ReadFile(os.ExpandEnv(p))
		if err != nil {
			continue
		}
		digest := strings.TrimSpace(string(data))
		if len(digest) == 64 && isHex(digest) {
			return digest
		}
	}
	return ""
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// logTamper appends the event to the tamper log and mirrors it to
// stderr. Best-effort: the mismatch error is what stops the process.
func logTamper(event TamperEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(os.Stderr, "TAMPER ALERT: %s\n", line)

	if err := os.MkdirAll(filepath.Dir(TamperLogPath), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(TamperLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	f.Write(append(line, '\n'))
	f.Sync()
}
