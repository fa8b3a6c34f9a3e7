package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log, path
}

func TestRecordAndVerify(t *testing.T) {
	log, path := openTestLog(t)

	entries := []Entry{
		{Caller: "deployer", Op: "add-ilk", Ilk: "ETH-A", Decision: DecisionOK},
		{Caller: "keeper", Op: "wipe", Ilk: "ETH-A", Decision: DecisionOK},
		{Caller: "mallory", Op: "wipe", Ilk: "ETH-A", Decision: DecisionDeny, Reason: "caller is not authorized"},
	}
	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	res := Verify(path)
	if !res.Valid {
		t.Fatalf("expected valid chain, got error %q at line %d", res.Error, res.ErrorLine)
	}
	if res.Entries != 3 {
		t.Errorf("expected 3 entries, got %d", res.Entries)
	}
}

func TestChainContinuesAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := log.Record(Entry{Caller: "deployer", Op: "set-owner", Decision: DecisionOK}); err != nil {
		t.Fatalf("record: %v", err)
	}
	log.Close()

	log, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := log.Record(Entry{Caller: "deployer", Op: "add-ilk", Ilk: "ETH-A", Decision: DecisionOK}); err != nil {
		t.Fatalf("record after reopen: %v", err)
	}
	log.Close()

	res := Verify(path)
	if !res.Valid {
		t.Fatalf("expected valid chain after reopen, got %q at line %d", res.Error, res.ErrorLine)
	}
	if res.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", res.Entries)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	log, path := openTestLog(t)
	for _, op := range []string{"add-ilk", "wipe", "del-ilk"} {
		if err := log.Record(Entry{Caller: "deployer", Op: op, Ilk: "ETH-A", Decision: DecisionOK}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tampered := strings.Replace(string(data), `"op":"wipe"`, `"op":"noop"`, 1)
	if tampered == string(data) {
		t.Fatal("tamper substitution did not apply")
	}
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	res := Verify(path)
	if res.Valid {
		t.Fatal("expected tampered chain to fail verification")
	}
	if res.ErrorLine != 3 {
		t.Errorf("expected break at line 3, got line %d (%s)", res.ErrorLine, res.Error)
	}
}

func TestVerifyEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if res := Verify(path); res.Valid {
		t.Error("expected empty log to fail verification")
	}
}

func TestVerifyRejectsWrongGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	line := `{"ts":"2026-01-01T00:00:00.000Z","caller":"x","op":"wipe","decision":"ok","prev_hash":"sha256:ffff"}`
	if err := os.WriteFile(path, []byte(line+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := Verify(path)
	if res.Valid {
		t.Fatal("expected non-genesis first entry to fail")
	}
	if res.ErrorLine != 1 {
		t.Errorf("expected break at line 1, got %d", res.ErrorLine)
	}
}

func TestTail(t *testing.T) {
	log, path := openTestLog(t)
	for i, ilk := range []string{"ETH-A", "ETH-B", "WBTC-A", "WBTC-B"} {
		if err := log.Record(Entry{Caller: "deployer", Op: "add-ilk", Ilk: ilk, Decision: DecisionOK}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Ilk != "WBTC-A" || entries[1].Ilk != "WBTC-B" {
		t.Errorf("unexpected tail order: %s, %s", entries[0].Ilk, entries[1].Ilk)
	}

	all, err := Tail(path, 0)
	if err != nil {
		t.Fatalf("tail all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 entries, got %d", len(all))
	}
}
