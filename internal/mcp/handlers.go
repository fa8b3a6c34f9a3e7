package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/lineguard/internal/ledger"
	"github.com/ppiankov/lineguard/internal/model"
)

// --- Input/Output types ---

// WipeInput defines parameters for the lineguard_wipe tool.
type WipeInput struct {
	Ilk string `json:"ilk" jsonschema:"collateral type to wipe, e.g. ETH-A"`
}

// WipeOutput reports the wipe outcome or the refusal reason.
type WipeOutput struct {
	Ilk    string `json:"ilk"`
	Wiped  bool   `json:"wiped"`
	Reason string `json:"reason,omitempty"`
}

// CheckInput defines parameters for the lineguard_check tool.
type CheckInput struct {
	Ilk string `json:"ilk" jsonschema:"collateral type to check, e.g. ETH-A"`
}

// CheckOutput reports what a wipe attempt would decide.
type CheckOutput struct {
	Ilk         string `json:"ilk"`
	Authorized  bool   `json:"authorized"`
	Allowlisted bool   `json:"allowlisted"`
	WouldWipe   bool   `json:"would_wipe"`
	Reason      string `json:"reason,omitempty"`
}

// StatusInput defines parameters for the lineguard_status tool.
type StatusInput struct{}

// StatusOutput is the guardian and registry state snapshot.
type StatusOutput struct {
	Guardian     string               `json:"guardian"`
	Owner        string               `json:"owner,omitempty"`
	OwnerRevoked bool                 `json:"owner_revoked"`
	AuthoritySet bool                 `json:"authority_set"`
	RulesHash    string               `json:"rules_hash,omitempty"`
	Ilks         []string             `json:"ilks"`
	Vat          []ledger.LineEntry   `json:"vat"`
	AutoLine     []ledger.RecordEntry `json:"autoline"`
}

// IlksInput defines parameters for the lineguard_ilks tool.
type IlksInput struct{}

// IlksOutput lists the managed set.
type IlksOutput struct {
	Ilks []string `json:"ilks"`
}

// --- Handlers ---

func (s *Server) handleWipe(ctx context.Context, req *mcpsdk.CallToolRequest, input WipeInput) (*mcpsdk.CallToolResult, WipeOutput, error) {
	ilk, err := model.NewIlk(input.Ilk)
	if err != nil {
		return nil, WipeOutput{}, fmt.Errorf("invalid ilk: %w", err)
	}

	if err := s.guard.Mom.Wipe(ctx, s.caller, ilk); err != nil {
		return nil, WipeOutput{Ilk: ilk.String(), Reason: err.Error()}, nil
	}
	return nil, WipeOutput{Ilk: ilk.String(), Wiped: true}, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	ilk, err := model.NewIlk(input.Ilk)
	if err != nil {
		return nil, CheckOutput{}, fmt.Errorf("invalid ilk: %w", err)
	}

	out := CheckOutput{
		Ilk:         ilk.String(),
		Authorized:  s.guard.Mom.CanWipe(s.caller),
		Allowlisted: s.guard.Mom.Ilks(ilk),
	}
	switch {
	case !out.Authorized:
		out.Reason = "caller is not authorized to wipe"
	case !out.Allowlisted:
		out.Reason = "ilk is not in the managed set"
	default:
		out.WouldWipe = true
	}
	return nil, out, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	out := StatusOutput{
		Guardian:     string(s.guard.Mom.Identity()),
		AuthoritySet: s.guard.Mom.HasAuthority(),
	}
	if owner := s.guard.Mom.Owner(); owner != nil {
		out.Owner = string(*owner)
	} else {
		out.OwnerRevoked = true
	}
	if s.guard.Resolver != nil {
		out.RulesHash = s.guard.Resolver.Hash()
	}
	for _, ilk := range s.guard.Mom.IlkList() {
		out.Ilks = append(out.Ilks, ilk.String())
	}

	vat, err := s.guard.Ledger.Vat().List(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	out.Vat = vat

	autoline, err := s.guard.Ledger.AutoLine().List(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	out.AutoLine = autoline

	return nil, out, nil
}

func (s *Server) handleIlks(ctx context.Context, req *mcpsdk.CallToolRequest, input IlksInput) (*mcpsdk.CallToolResult, IlksOutput, error) {
	var out IlksOutput
	for _, ilk := range s.guard.Mom.IlkList() {
		out.Ilks = append(out.Ilks, ilk.String())
	}
	return nil, out, nil
}
