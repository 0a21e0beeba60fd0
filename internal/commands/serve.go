package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invjournal/invjournal/internal/logger"
	"github.com/invjournal/invjournal/internal/web"
)

type serveOptions struct {
	host string
	port int
}

func runServe(cmd *cobra.Command, dir string, opts serveOptions) error {
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = opts.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := openStore(cfg, log)
	if err != nil {
		log.Error("journal could not be opened", zap.String("path", cfg.Journal.File), zap.Error(err))
		return err
	}

	srv, err := web.NewServer(store, cfg.Journal.Title, log.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.Journal.Title, cfg.Addr())
	return srv.ListenAndServe(ctx, cfg.Addr())
}
