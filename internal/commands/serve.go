package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartbud-dev/smartbud/internal/classifier"
	"github.com/smartbud-dev/smartbud/internal/log"
	"github.com/smartbud-dev/smartbud/internal/server"
	"github.com/smartbud-dev/smartbud/internal/session"
)

func newServeCommand(global *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.setup(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.ListenAddr = addr
			}
			log.SetDefault(logger)

			client := classifier.NewClient(cfg.Classifier.BaseURL, cfg.Classifier.Timeout, logger)
			sess := session.New(session.Options{
				Classifier:        client,
				Logger:            logger,
				DesiredCategories: cfg.Categories.Desired,
			})
			srv := server.New(sess, server.Options{
				BodyLimit:        cfg.Server.MaxUploadMiB << 20,
				ClassifyTimeout:  cfg.Classifier.Timeout,
				GlossaryFileName: cfg.Export.GlossaryFile,
				SumsFileName:     cfg.Export.SumsFile,
				ClassifierPinger: client,
				Logger:           logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, cfg.Server.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
