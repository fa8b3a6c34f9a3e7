package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult is the outcome of a hash chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Entries   int    `json:"entries"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify reads a JSONL audit log and walks its hash chain. It reports
// Valid=true for an intact chain, or the first broken link otherwise.
// An empty or missing file is an error: there is nothing to attest.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	var (
		lineNum int
		prev    []byte
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return VerifyResult{
				Entries:   lineNum - 1,
				Error:     fmt.Sprintf("parse error: %v", err),
				ErrorLine: lineNum,
			}
		}

		want := Genesis
		if lineNum > 1 {
			want = hashLine(prev)
		}
		if e.PrevHash != want {
			return VerifyResult{
				Entries:   lineNum - 1,
				Error:     fmt.Sprintf("prev_hash mismatch: got %q, want %q", e.PrevHash, want),
				ErrorLine: lineNum,
			}
		}
		prev = line
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{Entries: lineNum, Error: fmt.Sprintf("scan: %v", err)}
	}
	if lineNum == 0 {
		return VerifyResult{Error: "log is empty"}
	}

	return VerifyResult{Valid: true, Entries: lineNum}
}
