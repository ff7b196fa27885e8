package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartbud-dev/smartbud/internal/buildinfo"
	"github.com/smartbud-dev/smartbud/internal/config"
	"github.com/smartbud-dev/smartbud/internal/log"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "smartbud",
		Short:   "Categorize bank statements and total spending by category",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.FileName, "path to config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(
		newInitCommand(),
		newBanksCommand(),
		newParseCommand(),
		newClassifyCommand(opts),
		newGlossaryCommand(),
		newServeCommand(opts),
	)

	return rootCmd
}

// setup loads configuration (file, .env, environment, then flags) and builds
// a logger writing to the command's stderr.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	config.LoadDotEnv()

	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyEnv()
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cmd.ErrOrStderr()
	return cfg, log.New(logCfg), nil
}
