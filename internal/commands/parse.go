package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smartbud-dev/smartbud/internal/importer"
)

func newParseCommand() *cobra.Command {
	var (
		bank   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a bank statement CSV and print its line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := importer.CheckFileType(filepath.Base(path), ""); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening statement: %w", err)
			}
			defer f.Close()

			items, err := importer.ParseStatement(importer.DefaultRegistry(), bank, f)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return printLineItems(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank format (see 'smartbud banks')")
	_ = cmd.MarkFlagRequired("bank")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}
