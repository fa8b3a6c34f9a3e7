package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/authority"
	"github.com/ppiankov/lineguard/internal/ledger"
	"github.com/ppiankov/lineguard/internal/model"
	"github.com/ppiankov/lineguard/internal/state"
)

var (
	initGuardian string
	initOwner    string
	initDemo     bool
	initForce    bool
)

func init() {
	initCmd.Flags().StringVar(&initGuardian, "guardian", "mom", "Guardian identity")
	initCmd.Flags().StringVar(&initOwner, "owner", "", "Initial owner identity (required)")
	initCmd.Flags().BoolVar(&initDemo, "demo", false, "Seed demo registry rows and allow-list ETH-A")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing state file")
	initCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the lineguard config directory",
	Long: "Creates the config directory with a state file, delegation rules\n" +
		"template, registry ledger, and audit log path. The registries start with\n" +
		"both the guardian and the owner warded.\n\n" +
		"With --demo: seeds ETH-A with ceiling 100 and autoline (1000, 100, 60),\n" +
		"and allow-lists it, so a wipe can be exercised immediately.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	guardian, err := model.ParseAddress(initGuardian)
	if err != nil {
		return fmt.Errorf("guardian: %w", err)
	}
	owner, err := model.ParseAddress(initOwner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}

	dir := flagDir
	if dir == "" {
		dir = state.DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	statePath := filepath.Join(dir, state.FileState)
	if _, err := os.Stat(statePath); err == nil && !initForce {
		return fmt.Errorf("%s exists, pass --force to overwrite", statePath)
	}

	var created []string

	// Delegation rules template, kept if already present.
	rulesPath := filepath.Join(dir, state.FileRules)
	if _, err := os.Stat(rulesPath); os.IsNotExist(err) {
		if err := os.WriteFile(rulesPath, []byte(authority.DefaultRulesYAML()), 0o600); err != nil {
			return fmt.Errorf("write rules template: %w", err)
		}
		created = append(created, rulesPath)
	}

	// Ledger, warded for the guardian (bootstrap admin) and the owner.
	ledgerPath := filepath.Join(dir, state.FileLedger)
	l, err := ledger.Open(ledgerPath, guardian)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()
	if err := l.Vat().Rely(ctx, guardian, owner); err != nil {
		return err
	}
	if err := l.AutoLine().Rely(ctx, guardian, owner); err != nil {
		return err
	}
	created = append(created, ledgerPath)

	st := &state.State{
		Guardian:      string(guardian),
		Owner:         string(owner),
		RulesPath:     rulesPath,
		AutoLineWired: false,
		Ilks:          []string{},
		LedgerPath:    ledgerPath,
		AuditPath:     filepath.Join(dir, state.FileAudit),
	}

	if initDemo {
		ethA := model.MustIlk("ETH-A")
		if err := l.Vat().File(ctx, guardian, ethA, "line", 100); err != nil {
			return err
		}
		if err := l.AutoLine().SetIlk(ctx, guardian, ethA, 1000, 100, 60); err != nil {
			return err
		}
		st.AutoLineWired = true
		st.Ilks = []string{"ETH-A"}
	}

	if err := state.Save(statePath, st); err != nil {
		return err
	}
	created = append(created, statePath)

	for _, path := range created {
		fmt.Printf("created %s\n", path)
	}
	fmt.Printf("guardian %s initialized, owner %s\n", guardian, owner)
	return nil
}
