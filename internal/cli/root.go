// Package cli implements the lineguard command set.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/integrity"
	"github.com/ppiankov/lineguard/internal/model"
)

var (
	flagDir string
	flagAs  string
)

var rootCmd = &cobra.Command{
	Use:   "lineguard",
	Short: "Emergency guardian for per-collateral debt ceilings",
	Long: "Lets a narrowly-scoped guardian zero one collateral type's debt ceiling\n" +
		"across the vat and autoline registries in a single atomic step.\n" +
		"Configuration is owner-only; the wipe itself is open to delegates the\n" +
		"authority rules affirm.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Config directory (default ~/.lineguard)")
	rootCmd.PersistentFlags().StringVar(&flagAs, "as", "", "Identity to act as")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// caller resolves the acting identity from --as.
func caller() (model.Address, error) {
	if flagAs == "" {
		return "", fmt.Errorf("an acting identity is required: pass --as <identity>")
	}
	return model.ParseAddress(flagAs)
}
