// Package guard assembles a working guardian from its on-disk pieces:
// state file, ledger, delegation rules, and audit log. The CLI and the
// MCP server both open the same assembly instead of wiring the parts
// themselves.
package guard

import (
	"path/filepath"

	"github.com/ppiankov/lineguard/internal/audit"
	"github.com/ppiankov/lineguard/internal/authority"
	"github.com/ppiankov/lineguard/internal/ledger"
	"github.com/ppiankov/lineguard/internal/model"
	"github.com/ppiankov/lineguard/internal/mom"
	"github.com/ppiankov/lineguard/internal/state"
)

// Guard bundles a live guardian with the resources behind it.
type Guard struct {
	Mom      *mom.Mom
	Ledger   *ledger.Ledger
	Resolver *authority.Resolver
	State    *state.State

	statePath string
	auditLog  *audit.Log
}

// Open loads the config directory and builds the guardian. The directory
// must have been initialized (`lineguard init`) first.
func Open(dir string) (*Guard, error) {
	if dir == "" {
		dir = state.DefaultDir()
	}
	statePath := filepath.Join(dir, state.FileState)

	st, err := state.Load(statePath)
	if err != nil {
		return nil, err
	}

	l, err := ledger.Open(st.LedgerPath, model.Address(st.Guardian))
	if err != nil {
		return nil, err
	}

	var auditLog *audit.Log
	if st.AuditPath != "" {
		auditLog, err = audit.Open(st.AuditPath)
		if err != nil {
			l.Close()
			return nil, err
		}
	}

	var resolver *authority.Resolver
	if st.RulesPath != "" {
		rules, err := authority.Load(st.RulesPath)
		if err != nil {
			closeAll(l, auditLog)
			return nil, err
		}
		resolver = authority.NewResolver(rules)
	}

	cfg := mom.Config{
		Identity: model.Address(st.Guardian),
		Owner:    st.OwnerAddress(),
		Vat:      l.Vat(),
		Store:    l,
		Audit:    auditLog,
	}
	if resolver != nil {
		cfg.Authority = resolver
	}
	if st.AutoLineWired {
		cfg.AutoLine = l.AutoLine()
	}
	cfg.Ilks, err = st.IlkList()
	if err != nil {
		closeAll(l, auditLog)
		return nil, err
	}

	m, err := mom.New(cfg)
	if err != nil {
		closeAll(l, auditLog)
		return nil, err
	}

	return &Guard{
		Mom:       m,
		Ledger:    l,
		Resolver:  resolver,
		State:     st,
		statePath: statePath,
		auditLog:  auditLog,
	}, nil
}

// SaveState writes the guardian's current configuration back to disk.
// Call after any owner-gated mutation.
func (g *Guard) SaveState() error {
	owner := g.Mom.Owner()
	if owner == nil {
		g.State.Owner = ""
	} else {
		g.State.Owner = string(*owner)
	}

	ilks := g.Mom.IlkList()
	names := make([]string, len(ilks))
	for i, ilk := range ilks {
		names[i] = ilk.String()
	}
	g.State.Ilks = names

	return state.Save(g.statePath, g.State)
}

// RulesPath returns the delegation rules path, empty if none.
func (g *Guard) RulesPath() string {
	return g.State.RulesPath
}

// Close releases the ledger and audit log.
func (g *Guard) Close() error {
	err := g.Ledger.Close()
	if g.auditLog != nil {
		if cerr := g.auditLog.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func closeAll(l *ledger.Ledger, auditLog *audit.Log) {
	l.Close()
	if auditLog != nil {
		auditLog.Close()
	}
}
