package authority

import (
	"sync"

	"github.com/ppiankov/lineguard/internal/model"
)

// Resolver wraps a Rules revision behind a swappable reference, so the
// guardian keeps one stable authority while the policy underneath is
// hot-reloaded.
type Resolver struct {
	mu    sync.RWMutex
	rules *Rules
}

// NewResolver wraps an initial rules revision. nil means deny-all.
func NewResolver(rules *Rules) *Resolver {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Resolver{rules: rules}
}

// CanCall delegates to the current rules revision.
func (r *Resolver) CanCall(caller, target model.Address, action string) bool {
	r.mu.RLock()
	rules := r.rules
	r.mu.RUnlock()
	return rules.CanCall(caller, target, action)
}

// Hash returns the current revision's file hash.
func (r *Resolver) Hash() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules.Hash()
}

// Swap installs a new rules revision.
func (r *Resolver) Swap(rules *Rules) {
	if rules == nil {
		rules = DefaultRules()
	}
	r.mu.Lock()
	r.rules = rules
	r.mu.Unlock()
}
