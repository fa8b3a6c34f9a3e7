package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/model"
)

func init() {
	registryCmd.AddCommand(registryFileCmd, registrySetCmd, registryRelyCmd, registryDenyCmd)
	rootCmd.AddCommand(registryCmd)
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Administer the vat and autoline registries directly",
	Long: "Ward-gated registry maintenance: set ceilings, wire auto-adjust\n" +
		"records, and manage write rights. These paths bypass the guardian;\n" +
		"every write still requires the --as identity to be relied on the\n" +
		"target registry.",
}

var registryFileCmd = &cobra.Command{
	Use:   "file <ilk> <line>",
	Short: "Set an ilk's vat debt ceiling",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ilk, err := model.NewIlk(args[0])
		if err != nil {
			return err
		}
		line, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("line must be a non-negative integer: %w", err)
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

		if err := g.Ledger.Vat().File(cmd.Context(), actor, ilk, "line", line); err != nil {
			return err
		}
		fmt.Printf("vat: %s line=%d\n", ilk, line)
		return nil
	},
}

var registrySetCmd = &cobra.Command{
	Use:   "set <ilk> <line> <gap> <ttl>",
	Short: "Create or replace an ilk's autoline record",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ilk, err := model.NewIlk(args[0])
		if err != nil {
			return err
		}
		vals := make([]uint64, 3)
		for i, name := range []string{"line", "gap", "ttl"} {
			vals[i], err = strconv.ParseUint(args[i+1], 10, 64)
			if err != nil {
				return fmt.Errorf("%s must be a non-negative integer: %w", name, err)
			}
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

		if err := g.Ledger.AutoLine().SetIlk(cmd.Context(), actor, ilk, vals[0], vals[1], vals[2]); err != nil {
			return err
		}
		fmt.Printf("autoline: %s line=%d gap=%d ttl=%d\n", ilk, vals[0], vals[1], vals[2])
		return nil
	},
}

var registryRelyCmd = &cobra.Command{
	Use:   "rely <vat|autoline> <identity>",
	Short: "Grant an identity write rights on a registry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateWard(cmd, args, true)
	},
}

var registryDenyCmd = &cobra.Command{
	Use:   "deny <vat|autoline> <identity>",
	Short: "Remove an identity's write rights on a registry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutateWard(cmd, args, false)
	},
}

func mutateWard(cmd *cobra.Command, args []string, grant bool) error {
	usr, err := model.ParseAddress(args[1])
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

	ctx := cmd.Context()
	switch args[0] {
	case "vat":
		if grant {
			err = g.Ledger.Vat().Rely(ctx, actor, usr)
		} else {
			err = g.Ledger.Vat().Deny(ctx, actor, usr)
		}
	case "autoline":
		if grant {
			err = g.Ledger.AutoLine().Rely(ctx, actor, usr)
		} else {
			err = g.Ledger.AutoLine().Deny(ctx, actor, usr)
		}
	default:
		return fmt.Errorf("unknown registry %q (want vat or autoline)", args[0])
	}
	if err != nil {
		return err
	}

	verb := "relied on"
	if !grant {
		verb = "denied on"
	}
	fmt.Printf("%s %s %s\n", usr, verb, args[0])
	return nil
}
