package guard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/lineguard/internal/audit"
	"github.com/ppiankov/lineguard/internal/ledger"
	"github.com/ppiankov/lineguard/internal/model"
	"github.com/ppiankov/lineguard/internal/mom"
	"github.com/ppiankov/lineguard/internal/state"
)

const rulesYAML = `delegates:
  - caller: keeper
    actions: [wipe]
`

var ethA = model.MustIlk("ETH-A")

// initDir builds a fully initialized config directory: seeded ledger,
// delegation rules, audit log path, and state file.
func initDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	ledgerPath := filepath.Join(dir, state.FileLedger)
	l, err := ledger.Open(ledgerPath, "mom")
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := l.Vat().File(ctx, "mom", ethA, "line", 100); err != nil {
		t.Fatalf("seed vat: %v", err)
	}
	if err := l.AutoLine().SetIlk(ctx, "mom", ethA, 1000, 100, 60); err != nil {
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

func TestOpenRequiresInit(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error for uninitialized directory")
	}
}

func TestWipeScenarioEndToEnd(t *testing.T) {
	dir := initDir(t)
	ctx := context.Background()

	g, err := Open(dir)
	if err != nil {
		t.Fatalf("open guard: %v", err)
	}
	defer g.Close()

	if err := g.Mom.Wipe(ctx, "keeper", ethA); err != nil {
		t.Fatalf("delegated wipe: %v", err)
	}

	line, err := g.Ledger.Vat().Line(ctx, ethA)
	if err != nil {
		t.Fatalf("line: %v", err)
	}
	if line != 0 {
		t.Errorf("expected vat line 0, got %d", line)
	}
	if _, ok, _ := g.Ledger.AutoLine().Get(ctx, ethA); ok {
		t.Error("expected autoline record cleared")
	}

	// The decision landed in the audit log with an intact chain.
	res := audit.Verify(g.State.AuditPath)
	if !res.Valid {
		t.Errorf("expected valid audit chain, got %q", res.Error)
	}
	entries, err := audit.Tail(g.State.AuditPath, 1)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if entries[0].Op != "wipe" || entries[0].Decision != audit.DecisionOK {
		t.Errorf("unexpected audit tail %+v", entries[0])
	}
	if entries[0].RulesHash == "" {
		t.Error("expected audit entry to carry the rules hash")
	}
}

func TestWipeByStrangerLeavesRegistriesUntouched(t *testing.T) {
	dir := initDir(t)
	ctx := context.Background()

	g, err := Open(dir)
	if err != nil {
		t.Fatalf("open guard: %v", err)
	}
	defer g.Close()

	if err := g.Mom.Wipe(ctx, "mallory", ethA); !errors.Is(err, mom.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	line, _ := g.Ledger.Vat().Line(ctx, ethA)
	if line != 100 {
		t.Errorf("vat line mutated: %d", line)
	}
	rec, ok, _ := g.Ledger.AutoLine().Get(ctx, ethA)
	if !ok || rec.Line != 1000 || rec.Gap != 100 || rec.TTL != 60 {
		t.Errorf("autoline record mutated: %+v ok=%v", rec, ok)
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	dir := initDir(t)

	g, err := Open(dir)
	if err != nil {
		t.Fatalf("open guard: %v", err)
	}
	if err := g.Mom.AddIlk("deployer", model.MustIlk("WBTC-A")); err != nil {
		t.Fatalf("add ilk: %v", err)
	}
	if err := g.SaveState(); err != nil {
		t.Fatalf("save state: %v", err)
	}
	g.Close()

	g, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen guard: %v", err)
	}
	defer g.Close()

	if !g.Mom.Ilks(model.MustIlk("WBTC-A")) {
		t.Error("expected WBTC-A to survive reopen")
	}
	if !g.Mom.Ilks(ethA) {
		t.Error("expected ETH-A to survive reopen")
	}
}

func TestOwnerRevocationPersists(t *testing.T) {
	dir := initDir(t)

	g, err := Open(dir)
	if err != nil {
		t.Fatalf("open guard: %v", err)
	}
	if err := g.Mom.SetOwner("deployer", nil); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := g.SaveState(); err != nil {
		t.Fatalf("save state: %v", err)
	}
	g.Close()

	g, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer g.Close()

	if g.Mom.Owner() != nil {
		t.Error("expected revocation to persist")
	}
	if err := g.Mom.AddIlk("deployer", ethA); !errors.Is(err, mom.ErrNotOwner) {
		t.Errorf("expected lockout after reopen, got %v", err)
	}
	// Delegated wipe still works.
	if err := g.Mom.Wipe(context.Background(), "keeper", ethA); err != nil {
		t.Errorf("expected delegated wipe to survive revocation, got %v", err)
	}
}
