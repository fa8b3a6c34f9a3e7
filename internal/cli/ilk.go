package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/model"
)

func init() {
	ilkCmd.AddCommand(ilkAddCmd, ilkDelCmd, ilkListCmd)
	rootCmd.AddCommand(ilkCmd)
}

var ilkCmd = &cobra.Command{
	Use:   "ilk",
	Short: "Manage the wipeable collateral-type allow-list",
}

var ilkAddCmd = &cobra.Command{
	Use:   "add <ilk>",
	Short: "Add a collateral type to the allow-list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateIlk(args[0], true)
	},
}

var ilkDelCmd = &cobra.Command{
	Use:   "del <ilk>",
	Short: "Remove a collateral type from the allow-list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateIlk(args[0], false)
	},
}

var ilkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the allow-listed collateral types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := guard.Open(flagDir)
		if err != nil {
			return err
		}
		defer g.Close()

		ilks := g.Mom.IlkList()
		if len(ilks) == 0 {
			fmt.Println("(no ilks allow-listed)")
			return nil
		}
		for _, ilk := range ilks {
			fmt.Println(ilk.String())
		}
		return nil
	},
}

func mutateIlk(name string, add bool) error {
	ilk, err := model.NewIlk(name)
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

	if add {
		err = g.Mom.AddIlk(actor, ilk)
	} else {
		err = g.Mom.DelIlk(actor, ilk)
	}
	if err != nil {
		return err
	}
	if err := g.SaveState(); err != nil {
		return err
	}

	if add {
		fmt.Printf("%s added to the allow-list\n", ilk)
	} else {
		fmt.Printf("%s removed from the allow-list\n", ilk)
	}
	return nil
}
