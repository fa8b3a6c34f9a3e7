package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/model"
)

func init() {
	rootCmd.AddCommand(wipeCmd)
}

var wipeCmd = &cobra.Command{
	Use:   "wipe <ilk>",
	Short: "Zero a collateral type's debt ceiling and drop its autoline record",
	Long: "Sets the vat debt ceiling for the given collateral type to zero and\n" +
		"deletes its autoline configuration in one atomic step. Open to the\n" +
		"owner and to any delegate the authority rules affirm.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ilk, err := model.NewIlk(args[0])
		if err != nil {
			return err
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

		if err := g.Mom.Wipe(cmd.Context(), actor, ilk); err != nil {
			return err
		}
		fmt.Printf("%s wiped: vat line zeroed, autoline record removed\n", ilk)
		return nil
	},
}
