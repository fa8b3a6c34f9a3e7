package lineguard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/lineguard/internal/ledger"
	"github.com/ppiankov/lineguard/internal/model"
	"github.com/ppiankov/lineguard/internal/state"
)

const rulesYAML = `delegates:
  - caller: keeper
    actions: [wipe]
`

// initDir builds an initialized config directory with one seeded ilk
// and one delegate.
func initDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	ledgerPath := filepath.Join(dir, state.FileLedger)
	l, err := ledger.Open(ledgerPath, "mom")
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := l.Vat().File(ctx, "mom", model.MustIlk("ETH-A"), "line", 500); err != nil {
		t.Fatalf("seed vat: %v", err)
	}
	if err := l.AutoLine().SetIlk(ctx, "mom", model.MustIlk("ETH-A"), 5000, 500, 3600); err != nil {
		t.Fatalf("seed autoline: %v", err)
	}
	l.Close()

	rulesPath := filepath.Join(dir, state.FileRules)
	if err := os.WriteFile(rulesPath, []byte(rulesYAML), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	st := &state.State{
		Guardian:      "mom",
		Owner:         "deployer",
		RulesPath:     rulesPath,
		AutoLineWired: true,
		Ilks:          []string{"ETH-A"},
		LedgerPath:    ledgerPath,
		AuditPath:     filepath.Join(dir, state.FileAudit),
	}
	if err := state.Save(filepath.Join(dir, state.FileState), st); err != nil {
		t.Fatalf("save state: %v", err)
	}
	return dir
}

func newTestClient(t *testing.T, caller string) *Client {
	t.Helper()
	c, err := New(WithDir(initDir(t)), WithCaller(caller))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewRequiresCaller(t *testing.T) {
	if _, err := New(WithDir(t.TempDir())); err == nil {
		t.Error("expected error for missing caller")
	}
}

func TestDelegatedWipe(t *testing.T) {
	c := newTestClient(t, "keeper")
	ctx := context.Background()

	if err := c.Wipe(ctx, "ETH-A"); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	line, err := c.Line(ctx, "ETH-A")
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	if line != 0 {
		t.Errorf("expected line 0 after wipe, got %d", line)
	}
}

func TestStrangerWipeRefused(t *testing.T) {
	c := newTestClient(t, "mallory")
	ctx := context.Background()

	err := c.Wipe(ctx, "ETH-A")
	var refused *RefusedError
	if !errors.As(err, &refused) {
		t.Fatalf("expected *RefusedError, got %T: %v", err, err)
	}
	if refused.Ilk != "ETH-A" {
		t.Errorf("unexpected ilk in refusal: %q", refused.Ilk)
	}

	line, _ := c.Line(ctx, "ETH-A")
	if line != 500 {
		t.Errorf("refused wipe mutated the vat: line=%d", line)
	}
}

func TestWipeOutsideManagedSetRefused(t *testing.T) {
	c := newTestClient(t, "keeper")

	err := c.Wipe(context.Background(), "WBTC-A")
	var refused *RefusedError
	if !errors.As(err, &refused) {
		t.Fatalf("expected *RefusedError, got %T: %v", err, err)
	}
}

func TestCheckDryRun(t *testing.T) {
	c := newTestClient(t, "keeper")

	res, err := c.Check("ETH-A")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.WouldWipe() {
		t.Errorf("expected keeper/ETH-A to pass the dry run: %+v", res)
	}

	res, err = c.Check("WBTC-A")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.WouldWipe() || res.Reason == "" {
		t.Errorf("expected unmanaged ilk to fail the dry run with a reason: %+v", res)
	}

	// The dry run itself must not touch the registries.
	line, _ := c.Line(context.Background(), "ETH-A")
	if line != 500 {
		t.Errorf("check mutated the vat: line=%d", line)
	}
}

func TestIlksListing(t *testing.T) {
	c := newTestClient(t, "keeper")

	ilks := c.Ilks()
	if len(ilks) != 1 || ilks[0] != "ETH-A" {
		t.Errorf("unexpected ilk list: %v", ilks)
	}
}
