// Package mom implements the ceiling guardian: a narrowly-scoped
// emergency actor that can zero one collateral type's debt ceiling across
// the vat and autoline registries in a single atomic step.
//
// Two permission tiers apply. Configuration (owner transfer, authority
// swap, registry wiring, allow-list membership) is owner-only. The wipe
// action itself is open to the owner or to any caller the delegated
// authority resolver affirms for it.
package mom

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/lineguard/internal/audit"
	"github.com/ppiankov/lineguard/internal/model"
)

// ActionWipe is the action identifier presented to the authority resolver.
const ActionWipe = "wipe"

// ParamAutoLine is the one recognized File parameter.
const ParamAutoLine = "autoLine"

var (
	// ErrNotOwner rejects configuration calls from anyone but the owner.
	ErrNotOwner = errors.New("mom: caller is not the owner")
	// ErrNotAuthorized rejects a wipe from a caller that is neither the
	// owner nor affirmed by the authority resolver.
	ErrNotAuthorized = errors.New("mom: caller is not authorized to wipe")
	// ErrNotAllowlisted rejects a wipe of an ilk outside the managed set.
	ErrNotAllowlisted = errors.New("mom: ilk is not in the managed set")
	// ErrUnrecognizedParam rejects File calls with an unknown parameter.
	ErrUnrecognizedParam = errors.New("mom: unrecognized file parameter")
	// ErrAutoLineNotSet rejects a wipe while no autoline registry is
	// wired. A half-wipe of the vat alone is never acceptable.
	ErrAutoLineNotSet = errors.New("mom: autoline registry is not configured")
)

// Authority answers the delegated capability query. Implementations must
// be pure with respect to guardian state: the guardian only consumes the
// boolean.
type Authority interface {
	CanCall(caller, target model.Address, action string) bool
}

// Vat is the ceiling registry write surface the guardian needs. The
// registry applies its own ward check against the caller.
type Vat interface {
	File(ctx context.Context, caller model.Address, ilk model.Ilk, what string, value uint64) error
}

// AutoLine is the auto-adjust registry write surface the guardian needs.
type AutoLine interface {
	RemIlk(ctx context.Context, caller model.Address, ilk model.Ilk) error
}

// Atomic runs fn so that every registry write inside it commits together
// or not at all. The ledger backs this with one SQL transaction; tests
// back it with snapshot/rollback mocks.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config assembles a guardian.
type Config struct {
	// Identity is the guardian's own address: the caller it presents to
	// the registries and the target of authority capability queries.
	Identity model.Address
	// Owner is the initial owner, normally the deploying identity.
	// nil constructs a guardian already in owner lockout.
	Owner *model.Address
	// Vat is fixed for the guardian's lifetime.
	Vat Vat
	// AutoLine may be nil and wired later via File.
	AutoLine AutoLine
	// Authority may be nil: no delegated caller is ever authorized.
	Authority Authority
	// Store provides cross-registry atomicity for Wipe.
	Store Atomic
	// Audit, when set, receives one entry per operation, denials included.
	Audit *audit.Log
	// Ilks preloads the allow-list, e.g. from persisted state.
	Ilks []model.Ilk
}

// Mom is the guardian. All operations are serialized by an internal
// mutex: each invocation runs to completion before the next observes
// state.
type Mom struct {
	mu        sync.Mutex
	identity  model.Address
	owner     *model.Address
	authority Authority
	vat       Vat
	autoline  AutoLine
	store     Atomic
	ilks      map[model.Ilk]bool
	auditLog  *audit.Log
}

// New validates the config and constructs a guardian.
func New(cfg Config) (*Mom, error) {
	if cfg.Identity == "" {
		return nil, fmt.Errorf("mom: identity is required")
	}
	if cfg.Vat == nil {
		return nil, fmt.Errorf("mom: vat registry is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("mom: atomic store is required")
	}

	m := &Mom{
		identity:  cfg.Identity,
		authority: cfg.Authority,
		vat:       cfg.Vat,
		autoline:  cfg.AutoLine,
		store:     cfg.Store,
		ilks:      make(map[model.Ilk]bool, len(cfg.Ilks)),
		auditLog:  cfg.Audit,
	}
	if cfg.Owner != nil {
		owner := *cfg.Owner
		m.owner = &owner
	}
	for _, ilk := range cfg.Ilks {
		m.ilks[ilk] = true
	}
	return m, nil
}

// SetOwner replaces the owner. Passing nil revokes ownership permanently:
// no identity can pass the owner check afterwards.
func (m *Mom) SetOwner(caller model.Address, newOwner *model.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOwner(caller) {
		m.record(caller, "set-owner", "", audit.DecisionDeny, ErrNotOwner.Error())
		return ErrNotOwner
	}
	if newOwner == nil {
		m.owner = nil
	} else {
		owner := *newOwner
		m.owner = &owner
	}
	m.record(caller, "set-owner", "", audit.DecisionOK, "")
	return nil
}

// SetAuthority replaces the delegated-authority resolver. nil disables
// delegation entirely.
func (m *Mom) SetAuthority(caller model.Address, authority Authority) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOwner(caller) {
		m.record(caller, "set-authority", "", audit.DecisionDeny, ErrNotOwner.Error())
		return ErrNotOwner
	}
	m.authority = authority
	m.record(caller, "set-authority", "", audit.DecisionOK, "")
	return nil
}

// File updates a wirable reference. The only recognized parameter is
// "autoLine"; the vat is deliberately not reconfigurable after
// construction.
func (m *Mom) File(caller model.Address, what string, autoline AutoLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOwner(caller) {
		m.record(caller, "file", "", audit.DecisionDeny, ErrNotOwner.Error())
		return ErrNotOwner
	}
	if what != ParamAutoLine {
		m.record(caller, "file", "", audit.DecisionDeny, fmt.Sprintf("unrecognized parameter %q", what))
		return fmt.Errorf("%w: %q", ErrUnrecognizedParam, what)
	}
	m.autoline = autoline
	m.record(caller, "file", "", audit.DecisionOK, "")
	return nil
}

// AddIlk marks an ilk eligible for wiping. Idempotent.
func (m *Mom) AddIlk(caller model.Address, ilk model.Ilk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOwner(caller) {
		m.record(caller, "add-ilk", ilk.String(), audit.DecisionDeny, ErrNotOwner.Error())
		return ErrNotOwner
	}
	m.ilks[ilk] = true
	m.record(caller, "add-ilk", ilk.String(), audit.DecisionOK, "")
	return nil
}

// DelIlk removes an ilk from the managed set. Idempotent.
func (m *Mom) DelIlk(caller model.Address, ilk model.Ilk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isOwner(caller) {
		m.record(caller, "del-ilk", ilk.String(), audit.DecisionDeny, ErrNotOwner.Error())
		return ErrNotOwner
	}
	delete(m.ilks, ilk)
	m.record(caller, "del-ilk", ilk.String(), audit.DecisionOK, "")
	return nil
}

// Wipe zeroes the vat ceiling for ilk and removes its autoline record,
// atomically. Both registries reflect the cleared state or neither does;
// a downstream failure propagates unchanged.
func (m *Mom) Wipe(ctx context.Context, caller model.Address, ilk model.Ilk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canWipe(caller) {
		m.record(caller, "wipe", ilk.String(), audit.DecisionDeny, ErrNotAuthorized.Error())
		return ErrNotAuthorized
	}
	if !m.ilks[ilk] {
		m.record(caller, "wipe", ilk.String(), audit.DecisionDeny, ErrNotAllowlisted.Error())
		return ErrNotAllowlisted
	}
	if m.autoline == nil {
		m.record(caller, "wipe", ilk.String(), audit.DecisionDeny, ErrAutoLineNotSet.Error())
		return ErrAutoLineNotSet
	}

	err := m.store.RunAtomic(ctx, func(ctx context.Context) error {
		if err := m.vat.File(ctx, m.identity, ilk, "line", 0); err != nil {
			return fmt.Errorf("vat file: %w", err)
		}
		if err := m.autoline.RemIlk(ctx, m.identity, ilk); err != nil {
			return fmt.Errorf("autoline rem: %w", err)
		}
		return nil
	})
	if err != nil {
		m.record(caller, "wipe", ilk.String(), audit.DecisionDeny, err.Error())
		return err
	}

	m.record(caller, "wipe", ilk.String(), audit.DecisionOK, "")
	return nil
}

// Identity returns the guardian's own address.
func (m *Mom) Identity() model.Address {
	return m.identity
}

// Owner returns a copy of the current owner, or nil after revocation.
func (m *Mom) Owner() *model.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner == nil {
		return nil
	}
	owner := *m.owner
	return &owner
}

// HasAuthority reports whether a delegated-authority resolver is set.
func (m *Mom) HasAuthority() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authority != nil
}

// Ilks reports allow-list membership for one ilk.
func (m *Mom) Ilks(ilk model.Ilk) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ilks[ilk]
}

// IlkList returns the managed set sorted by name.
func (m *Mom) IlkList() []model.Ilk {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Ilk, 0, len(m.ilks))
	for ilk := range m.ilks {
		out = append(out, ilk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// CanWipe answers the wipe authorization predicate for a caller without
// performing anything. Used by dry-run surfaces.
func (m *Mom) CanWipe(caller model.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canWipe(caller)
}

// isOwner must be called with mu held.
func (m *Mom) isOwner(caller model.Address) bool {
	return m.owner != nil && *m.owner == caller
}

// canWipe must be called with mu held. Owner always qualifies; otherwise
// the capability query (caller, guardian, "wipe") decides.
func (m *Mom) canWipe(caller model.Address) bool {
	if m.isOwner(caller) {
		return true
	}
	if m.authority == nil {
		return false
	}
	return m.authority.CanCall(caller, m.identity, ActionWipe)
}

// record appends an audit entry when a log is attached. The log is an
// account of decisions, not a gate on them, so a write failure never
// blocks the operation.
func (m *Mom) record(caller model.Address, op, ilk string, decision audit.Decision, reason string) {
	if m.auditLog == nil {
		return
	}
	entry := audit.Entry{
		Caller:   string(caller),
		Op:       op,
		Ilk:      ilk,
		Decision: decision,
		Reason:   reason,
	}
	if h, ok := m.authority.(interface{ Hash() string }); ok {
		entry.RulesHash = h.Hash()
	}
	_ = m.auditLog.Record(entry)
}
