package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/lineguard/internal/ledger"
	"github.com/ppiankov/lineguard/internal/model"
	"github.com/ppiankov/lineguard/internal/state"
)

// initDir seeds a config directory with one wipeable ilk and a keeper
// delegate.
func initDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	ledgerPath := filepath.Join(dir, state.FileLedger)
	l, err := ledger.Open(ledgerPath, "mom")
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	ethA := model.MustIlk("ETH-A")
	if err := l.Vat().File(ctx, "mom", ethA, "line", 100); err != nil {
		t.Fatalf("seed vat: %v", err)
	}
	if err := l.AutoLine().SetIlk(ctx, "mom", ethA, 1000, 100, 60); err != nil {
		t.Fatalf("seed autoline: %v", err)
	}
	l.Close()

	rulesPath := filepath.Join(dir, state.FileRules)
	rules := "delegates:\n  - caller: keeper\n    actions: [wipe]\n"
	if err := os.WriteFile(rulesPath, []byte(rules), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	st := &state.State{
		Guardian:      "mom",
		Owner:         "deployer",
		RulesPath:     rulesPath,
		AutoLineWired: true,
		Ilks:          []string{"ETH-A"},
		LedgerPath:    ledgerPath,
	}
	if err := state.Save(filepath.Join(dir, state.FileState), st); err != nil {
		t.Fatalf("save state: %v", err)
	}
	return dir
}

func newTestServer(t *testing.T, caller string) *Server {
	t.Helper()
	s, err := New(Config{Dir: initDir(t), Caller: caller})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewRejectsInvalidCaller(t *testing.T) {
	if _, err := New(Config{Dir: initDir(t), Caller: "bad caller"}); err == nil {
		t.Error("expected error for invalid caller")
	}
}

func TestHandleWipeAsDelegate(t *testing.T) {
	s := newTestServer(t, "keeper")
	ctx := context.Background()

	_, out, err := s.handleWipe(ctx, nil, WipeInput{Ilk: "ETH-A"})
	if err != nil {
		t.Fatalf("handle wipe: %v", err)
	}
	if !out.Wiped {
		t.Fatalf("expected wipe to succeed, reason: %s", out.Reason)
	}

	line, _ := s.guard.Ledger.Vat().Line(ctx, model.MustIlk("ETH-A"))
	if line != 0 {
		t.Errorf("expected vat line 0, got %d", line)
	}
}

func TestHandleWipeRefusesStranger(t *testing.T) {
	s := newTestServer(t, "mallory")
	ctx := context.Background()

	_, out, err := s.handleWipe(ctx, nil, WipeInput{Ilk: "ETH-A"})
	if err != nil {
		t.Fatalf("handle wipe: %v", err)
	}
	if out.Wiped {
		t.Fatal("expected refusal")
	}
	if out.Reason == "" {
		t.Error("expected refusal reason")
	}

	line, _ := s.guard.Ledger.Vat().Line(ctx, model.MustIlk("ETH-A"))
	if line != 100 {
		t.Errorf("registries mutated by refused wipe: %d", line)
	}
}

func TestHandleWipeRejectsMalformedIlk(t *testing.T) {
	s := newTestServer(t, "keeper")
	if _, _, err := s.handleWipe(context.Background(), nil, WipeInput{Ilk: "not an ilk"}); err == nil {
		t.Error("expected error for malformed ilk")
	}
}

func TestHandleCheck(t *testing.T) {
	s := newTestServer(t, "keeper")
	ctx := context.Background()

	_, out, err := s.handleCheck(ctx, nil, CheckInput{Ilk: "ETH-A"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !out.Authorized || !out.Allowlisted || !out.WouldWipe {
		t.Errorf("expected clean dry-run, got %+v", out)
	}

	_, out, err = s.handleCheck(ctx, nil, CheckInput{Ilk: "WBTC-A"})
	if err != nil {
		t.Fatalf("check non-member: %v", err)
	}
	if out.WouldWipe || out.Reason == "" {
		t.Errorf("expected non-member refusal, got %+v", out)
	}

	// Dry-run never mutates.
	line, _ := s.guard.Ledger.Vat().Line(ctx, model.MustIlk("ETH-A"))
	if line != 100 {
		t.Errorf("check mutated registry: %d", line)
	}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, "keeper")

	_, out, err := s.handleStatus(context.Background(), nil, StatusInput{})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out.Guardian != "mom" || out.Owner != "deployer" || out.OwnerRevoked {
		t.Errorf("unexpected identities: %+v", out)
	}
	if !out.AuthoritySet || out.RulesHash == "" {
		t.Error("expected authority with rules hash")
	}
	if len(out.Vat) != 1 || out.Vat[0].Line != 100 {
		t.Errorf("unexpected vat listing: %+v", out.Vat)
	}
	if len(out.AutoLine) != 1 || out.AutoLine[0].TTL != 60 {
		t.Errorf("unexpected autoline listing: %+v", out.AutoLine)
	}
}

func TestHandleIlks(t *testing.T) {
	s := newTestServer(t, "keeper")

	_, out, err := s.handleIlks(context.Background(), nil, IlksInput{})
	if err != nil {
		t.Fatalf("ilks: %v", err)
	}
	if len(out.Ilks) != 1 || out.Ilks[0] != "ETH-A" {
		t.Errorf("unexpected ilks %v", out.Ilks)
	}
}
