package lineguard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/model"
	"github.com/ppiankov/lineguard/internal/mom"
)

// RefusedError is returned when the guardian refuses a wipe: the caller
// is not authorized, the ilk is not in the managed set, or the autoline
// registry is not wired. Downstream registry failures are returned as
// plain errors, not RefusedError.
type RefusedError struct {
	Ilk    string
	Reason string
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("lineguard refused wipe of %s: %s", e.Ilk, e.Reason)
}

// CheckResult reports what a wipe attempt would decide, without
// touching the registries.
type CheckResult struct {
	Authorized  bool
	Allowlisted bool
	Reason      string
}

// WouldWipe reports whether a real wipe call would proceed to the
// registries.
func (r CheckResult) WouldWipe() bool {
	return r.Authorized && r.Allowlisted
}

// Client is an in-process handle on a guardian, acting as one fixed
// identity. Safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	guard  *guard.Guard
	caller model.Address
}

// New opens the guardian from an initialized config directory.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	caller, err := model.ParseAddress(cfg.caller)
	if err != nil {
		return nil, fmt.Errorf("lineguard: caller: %w", err)
	}

	g, err := guard.Open(cfg.dir)
	if err != nil {
		return nil, err
	}
	return &Client{guard: g, caller: caller}, nil
}

// Wipe zeroes the ilk's vat ceiling and removes its autoline record
// atomically. Guardian refusals come back as *RefusedError.
func (c *Client) Wipe(ctx context.Context, name string) error {
	ilk, err := model.NewIlk(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.guard.Mom.Wipe(ctx, c.caller, ilk)
	switch {
	case err == nil:
		return nil
	case isRefusal(err):
		return &RefusedError{Ilk: ilk.String(), Reason: err.Error()}
	default:
		return err
	}
}

// Check dry-runs a wipe of the ilk for the client's identity.
func (c *Client) Check(name string) (CheckResult, error) {
	ilk, err := model.NewIlk(name)
	if err != nil {
		return CheckResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := CheckResult{
		Authorized:  c.guard.Mom.CanWipe(c.caller),
		Allowlisted: c.guard.Mom.Ilks(ilk),
	}
	switch {
	case !res.Authorized:
		res.Reason = "caller is not authorized to wipe"
	case !res.Allowlisted:
		res.Reason = "ilk is not in the managed set"
	}
	return res, nil
}

// Ilks lists the collateral types eligible for wiping, sorted by name.
func (c *Client) Ilks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ilks := c.guard.Mom.IlkList()
	out := make([]string, len(ilks))
	for i, ilk := range ilks {
		out[i] = ilk.String()
	}
	return out
}

// Line reads the ilk's current vat ceiling. An absent ilk reads as zero.
func (c *Client) Line(ctx context.Context, name string) (uint64, error) {
	ilk, err := model.NewIlk(name)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guard.Ledger.Vat().Line(ctx, ilk)
}

// Close releases the guardian's resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guard.Close()
}

func isRefusal(err error) bool {
	for _, sentinel := range []error{
		mom.ErrNotAuthorized,
		mom.ErrNotAllowlisted,
		mom.ErrAutoLineNotSet,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
