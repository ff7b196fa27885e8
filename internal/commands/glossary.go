package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartbud-dev/smartbud/internal/glossary"
)

func newGlossaryCommand() *cobra.Command {
	glossaryCmd := &cobra.Command{
		Use:   "glossary",
		Short: "Glossary file operations",
	}
	glossaryCmd.AddCommand(newGlossaryCheckCommand())
	return glossaryCmd
}

func newGlossaryCheckCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a glossary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := glossary.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if list {
				for _, k := range g.Keys() {
					fmt.Fprintf(out, "%s -> %s\n", k, g[k])
				}
			}
			fmt.Fprintf(out, "%s: %d entries\n", args[0], len(g))
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "print every entry")

	return cmd
}
