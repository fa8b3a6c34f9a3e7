// Package state persists the guardian's configuration between
// invocations: owner, authority rules path, and allow-list. One JSON
// file, written atomically via tmp+rename.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/lineguard/internal/model"
)

// State is the on-disk guardian configuration.
type State struct {
	// Guardian is the guardian's own identity.
	Guardian string `json:"guardian"`
	// Owner is the current owner identity. Empty means revoked: the
	// distinction from "never configured" does not exist on disk because
	// init always writes an owner.
	Owner string `json:"owner,omitempty"`
	// RulesPath points at the delegation rules YAML. Empty disables
	// delegation.
	RulesPath string `json:"rules_path,omitempty"`
	// AutoLineWired records whether the owner has filed the autoline
	// registry reference.
	AutoLineWired bool `json:"autoline_wired"`
	// Ilks is the allow-list, sorted.
	Ilks []string `json:"ilks"`
	// LedgerPath points at the registry database.
	LedgerPath string `json:"ledger_path"`
	// AuditPath points at the audit log. Empty disables auditing.
	AuditPath string `json:"audit_path,omitempty"`
}

// OwnerAddress returns the owner as the guardian core models it:
// nil when revoked.
func (s *State) OwnerAddress() *model.Address {
	if s.Owner == "" {
		return nil
	}
	addr := model.Address(s.Owner)
	return &addr
}

// IlkList parses the persisted allow-list.
func (s *State) IlkList() ([]model.Ilk, error) {
	out := make([]model.Ilk, 0, len(s.Ilks))
	for _, name := range s.Ilks {
		ilk, err := model.NewIlk(name)
		if err != nil {
			return nil, fmt.Errorf("state: ilk %q: %w", name, err)
		}
		out = append(out, ilk)
	}
	return out, nil
}

// Load reads and validates a state file.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("state: read %s: %w", path, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", path, err)
	}
	if s.Guardian == "" {
		return nil, fmt.Errorf("state: %s has no guardian identity", path)
	}
	if s.LedgerPath == "" {
		return nil, fmt.Errorf("state: %s has no ledger path", path)
	}
	if _, err := model.ParseAddress(s.Guardian); err != nil {
		return nil, fmt.Errorf("state: guardian: %w", err)
	}
	if s.Owner != "" {
		if _, err := model.ParseAddress(s.Owner); err != nil {
			return nil, fmt.Errorf("state: owner: %w", err)
		}
	}
	if _, err := s.IlkList(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the state file atomically.
func Save(path string, s *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("state: create directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("state: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("state: rename: %w", err)
	}
	return nil
}

// DefaultDir returns the default lineguard config directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lineguard")
	}
	return filepath.Join(home, ".lineguard")
}

// Default file names inside the config directory.
const (
	FileState  = "state.json"
	FileRules  = "rules.yaml"
	FileLedger = "ledger.db"
	FileAudit  = "audit.jsonl"
)
