package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Tail returns the last n entries of the log, oldest first.
// n <= 0 returns every entry.
func Tail(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit: parse line %d: %w", len(entries)+1, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// FormatText renders entries as aligned one-line summaries for the CLI.
func FormatText(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		ilk := e.Ilk
		if ilk == "" {
			ilk = "-"
		}
		reason := e.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(&b, "%s  %-5s %-14s %-10s %-20s %s\n",
			e.Timestamp, e.Decision, e.Op, ilk, e.Caller, reason)
	}
	return b.String()
}
