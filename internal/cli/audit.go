package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/audit"
	"github.com/ppiankov/lineguard/internal/state"
)

var (
	auditTailN    int
	auditTailJSON bool
)

func init() {
	auditTailCmd.Flags().IntVarP(&auditTailN, "lines", "n", 20, "Number of entries to show (0 = all)")
	auditTailCmd.Flags().BoolVar(&auditTailJSON, "json", false, "Emit raw JSONL entries")
	auditCmd.AddCommand(auditVerifyCmd, auditTailCmd)
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hash-chained decision log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Walk the audit log's hash chain and report the first break",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := auditPath()
		if err != nil {
			return err
		}
		res := audit.Verify(path)
		if !res.Valid {
			if res.ErrorLine > 0 {
				return fmt.Errorf("audit chain broken at line %d after %d good entries: %s",
					res.ErrorLine, res.Entries, res.Error)
			}
			return fmt.Errorf("audit chain not verifiable: %s", res.Error)
		}
		fmt.Printf("audit chain intact: %d entries\n", res.Entries)
		return nil
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent audit entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := auditPath()
		if err != nil {
			return err
		}
		entries, err := audit.Tail(path, auditTailN)
		if err != nil {
			return err
		}
		if auditTailJSON {
			enc := json.NewEncoder(os.Stdout)
			for _, e := range entries {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		}
		fmt.Print(audit.FormatText(entries))
		return nil
	},
}

// auditPath resolves the log location from the state file without
// opening the ledger: audit inspection must work even when the other
// pieces are unhealthy.
func auditPath() (string, error) {
	dir := flagDir
	if dir == "" {
		dir = state.DefaultDir()
	}
	st, err := state.Load(filepath.Join(dir, state.FileState))
	if err != nil {
		return "", err
	}
	if st.AuditPath == "" {
		return "", fmt.Errorf("no audit log configured")
	}
	return st.AuditPath, nil
}
