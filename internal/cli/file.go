package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/mom"
)

func init() {
	rootCmd.AddCommand(fileCmd)
}

var fileCmd = &cobra.Command{
	Use:   "file <param> <on|off>",
	Short: "Wire or unwire a guardian reference",
	Long: "Updates one of the guardian's wirable references. The only recognized\n" +
		"parameter is \"autoLine\"; the vat reference is fixed at initialization.\n" +
		"A wipe refuses to run while autoLine is unwired.",
	Args: cobra.ExactArgs(2),
	RunE: runFile,
}

func runFile(cmd *cobra.Command, args []string) error {
	what := args[0]

	var wired bool
	switch args[1] {
	case "on":
		wired = true
	case "off":
		wired = false
	default:
		return fmt.Errorf("second argument must be on or off, got %q", args[1])
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

	var autoline mom.AutoLine
	if wired {
		autoline = g.Ledger.AutoLine()
	}
	if err := g.Mom.File(actor, what, autoline); err != nil {
		return err
	}
	g.State.AutoLineWired = wired
	if err := g.SaveState(); err != nil {
		return err
	}

	if wired {
		fmt.Println("autoLine registry wired")
	} else {
		fmt.Println("autoLine registry unwired; wipes will refuse to run")
	}
	return nil
}
