package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/authority"
	"github.com/ppiankov/lineguard/internal/guard"
)

var authorityNone bool

func init() {
	setAuthorityCmd.Flags().BoolVar(&authorityNone, "none", false, "Disable delegation entirely")
	rootCmd.AddCommand(setAuthorityCmd)
}

var setAuthorityCmd = &cobra.Command{
	Use:   "set-authority [rules-file]",
	Short: "Replace the delegated-authority rules",
	Long: "Points the guardian at a delegation rules YAML, or disables delegation\n" +
		"with --none. The file is validated before it is installed.",
	Args: cobra.MaximumNArgs(1),
	RunE: runSetAuthority,
}

func runSetAuthority(cmd *cobra.Command, args []string) error {
	if authorityNone == (len(args) == 1) {
		return fmt.Errorf("pass exactly one of <rules-file> or --none")
	}

	actor, err := caller()
	if err != nil {
		return err
	}

	g, err := guard.Open(flagDir)
	if err != nil {
		return err
	}
	defer g.Close()

	if authorityNone {
		if err := g.Mom.SetAuthority(actor, nil); err != nil {
			return err
		}
		g.State.RulesPath = ""
		if err := g.SaveState(); err != nil {
			return err
		}
		fmt.Println("authority disabled; only the owner can wipe")
		return nil
	}

	rulesPath := args[0]
	rules, err := authority.Load(rulesPath)
	if err != nil {
		return err
	}
	if err := g.Mom.SetAuthority(actor, authority.NewResolver(rules)); err != nil {
		return err
	}
	g.State.RulesPath = rulesPath
	if err := g.SaveState(); err != nil {
		return err
	}

	fmt.Printf("authority rules set to %s (%s)\n", rulesPath, rules.Hash())
	return nil
}
