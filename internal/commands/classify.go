package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smartbud-dev/smartbud/internal/classifier"
	"github.com/smartbud-dev/smartbud/internal/glossary"
	"github.com/smartbud-dev/smartbud/internal/session"
	"github.com/smartbud-dev/smartbud/internal/summary"
)

type classifyOptions struct {
	bank        string
	glossaryIn  string
	glossaryOut string
	sumsOut     string
	categories  []string
	offline     bool
	asJSON      bool
}

func newClassifyCommand(global *globalOptions) *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Categorize a statement and total it by category",
		Long: `Parse a statement, tag items already in the glossary, ask the
classification service for the rest, and print the categorized items
and per-category sums.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.bank, "bank", "", "bank format (see 'smartbud banks')")
	_ = cmd.MarkFlagRequired("bank")
	cmd.Flags().StringVar(&opts.glossaryIn, "glossary", "", "glossary file to load first")
	cmd.Flags().StringVar(&opts.glossaryOut, "save-glossary", "", "write the updated glossary to this file")
	cmd.Flags().StringVar(&opts.sumsOut, "sums", "", "write category sums CSV to this file")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "desired category (repeatable; overrides config)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "only use the glossary; do not call the classifier")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of tables")

	return cmd
}

func runClassify(cmd *cobra.Command, global *globalOptions, opts *classifyOptions, path string) error {
	cfg, logger, err := global.setup(cmd)
	if err != nil {
		return err
	}

	desired := cfg.Categories.Desired
	if len(opts.categories) > 0 {
		desired = opts.categories
	}
	sessOpts := session.Options{Logger: logger, DesiredCategories: desired}
	if !opts.offline {
		sessOpts.Classifier = classifier.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout, logger)
	}
	sess := session.New(sessOpts)

	if opts.glossaryIn != "" {
		f, err := os.Open(opts.glossaryIn)
		if err != nil {
			return fmt.Errorf("opening glossary: %w", err)
		}
		_, err = sess.ImportGlossary(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading glossary %s: %w", opts.glossaryIn, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening statement: %w", err)
	}
	_, err = sess.Upload(filepath.Base(path), "", opts.bank, f)
	f.Close()
	if err != nil {
		return err
	}

	if !opts.offline {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Classifier.Timeout)
		defer cancel()
		if _, err := sess.Classify(ctx); err != nil {
			return err
		}
	}

	st := sess.Snapshot()

	if opts.glossaryOut != "" {
		if err := glossary.Save(opts.glossaryOut, st.Glossary); err != nil {
			return err
		}
	}
	if opts.sumsOut != "" {
		if err := os.WriteFile(opts.sumsOut, []byte(summary.Marshal(st.Sums)), 0o644); err != nil {
			return fmt.Errorf("writing sums: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, struct {
			Categorized any `json:"categorized"`
			Sums        any `json:"sums"`
		}{st.Categorized, st.Sums})
	}
	if err := printCategorized(out, st.Categorized); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return printSums(out, st.Sums)
}
