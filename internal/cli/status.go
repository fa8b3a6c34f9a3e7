package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/ledger"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit machine-readable JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Guardian  string               `json:"guardian"`
	Owner     string               `json:"owner,omitempty"`
	Revoked   bool                 `json:"owner_revoked"`
	Authority string               `json:"authority,omitempty"`
	RulesHash string               `json:"rules_hash,omitempty"`
	AutoLine  bool                 `json:"autoline_wired"`
	Ilks      []string             `json:"ilks"`
	Vat       []ledger.LineEntry   `json:"vat"`
	Records   []ledger.RecordEntry `json:"autoline"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the guardian's configuration and both registries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := guard.Open(flagDir)
		if err != nil {
			return err
		}
		defer g.Close()

		ctx := cmd.Context()
		rep := statusReport{
			Guardian: string(g.Mom.Identity()),
			AutoLine: g.State.AutoLineWired,
			Ilks:     []string{},
		}
		if owner := g.Mom.Owner(); owner != nil {
			rep.Owner = string(*owner)
		} else {
			rep.Revoked = true
		}
		if g.Resolver != nil {
			rep.Authority = g.State.RulesPath
			rep.RulesHash = g.Resolver.Hash()
		}
		for _, ilk := range g.Mom.IlkList() {
			rep.Ilks = append(rep.Ilks, ilk.String())
		}
		if rep.Vat, err = g.Ledger.Vat().List(ctx); err != nil {
			return err
		}
		if rep.Records, err = g.Ledger.AutoLine().List(ctx); err != nil {
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		fmt.Printf("guardian:  %s\n", rep.Guardian)
		if rep.Revoked {
			fmt.Println("owner:     (revoked — configuration is frozen)")
		} else {
			fmt.Printf("owner:     %s\n", rep.Owner)
		}
		if rep.Authority != "" {
			fmt.Printf("authority: %s (%s)\n", rep.Authority, rep.RulesHash)
		} else {
			fmt.Println("authority: (none — owner only)")
		}
		fmt.Printf("autoline:  wired=%v\n", rep.AutoLine)

		fmt.Printf("\nallow-list (%d):\n", len(rep.Ilks))
		for _, ilk := range rep.Ilks {
			fmt.Printf("  %s\n", ilk)
		}

		fmt.Printf("\nvat (%d):\n", len(rep.Vat))
		for _, e := range rep.Vat {
			fmt.Printf("  %-16s line=%d\n", e.Ilk, e.Line)
		}

		fmt.Printf("\nautoline (%d):\n", len(rep.Records))
		for _, e := range rep.Records {
			fmt.Printf("  %-16s line=%d gap=%d ttl=%d\n", e.Ilk, e.Line, e.Gap, e.TTL)
		}
		return nil
	},
}
