package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/model"
)

var ownerRevoke bool

func init() {
	setOwnerCmd.Flags().BoolVar(&ownerRevoke, "revoke", false, "Set the owner to none, permanently locking configuration")
	rootCmd.AddCommand(setOwnerCmd)
}

var setOwnerCmd = &cobra.Command{
	Use:   "set-owner [new-owner]",
	Short: "Transfer or revoke ownership of the guardian",
	Long: "Replaces the owner identity. With --revoke the owner becomes none:\n" +
		"no identity can reconfigure the guardian afterwards. Revocation is\n" +
		"irreversible. Delegated wipes keep working while authority rules are set.",
	Args: cobra.MaximumNArgs(1),
	RunE: runSetOwner,
}

func runSetOwner(cmd *cobra.Command, args []string) error {
	if ownerRevoke == (len(args) == 1) {
		return fmt.Errorf("pass exactly one of <new-owner> or --revoke")
	}

	actor, err := caller()
	if err != nil {
		return err
	}

	var newOwner *model.Address
	if !ownerRevoke {
		addr, err := model.ParseAddress(args[0])
		if err != nil {
			return fmt.Errorf("new owner: %w", err)
		}
		newOwner = addr.Ptr()
	}

	g, err := guard.Open(flagDir)
	if err != nil {
		return err
	}
	defer g.Close()

	if err := g.Mom.SetOwner(actor, newOwner); err != nil {
		return err
	}
	if err := g.SaveState(); err != nil {
		return err
	}

	if newOwner == nil {
		fmt.Println("owner revoked; configuration is now locked")
	} else {
		fmt.Printf("owner set to %s\n", *newOwner)
	}
	return nil
}
