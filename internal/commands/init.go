package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smartbud-dev/smartbud/internal/config"
)

func newInitCommand() *cobra.Command {
	var (
		classifierURL string
		categories    []string
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default smartbud.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default()
			if classifierURL != "" {
				cfg.Classifier.BaseURL = classifierURL
			}
			if len(categories) > 0 {
				cfg.Categories.Desired = categories
			}
			path, err := runInit(absDir, cfg, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&classifierURL, "classifier-url", "", "classification service base URL")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "desired category (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(dir string, cfg *config.Config, force bool) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, config.FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}

	if err := config.Save(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}
