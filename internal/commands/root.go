package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/invjournal/invjournal/internal/activitylog"
	"github.com/invjournal/invjournal/internal/buildinfo"
	"github.com/invjournal/invjournal/internal/config"
	"github.com/invjournal/invjournal/internal/gitops"
	"github.com/invjournal/invjournal/internal/journal"
	"github.com/invjournal/invjournal/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
// Run without a subcommand it serves the journal.
func NewRootCommand() *cobra.Command {
	var dir string
	var serve serveOptions

	rootCmd := &cobra.Command{
		Use:     "invjournal",
		Short:   "Personal investment journal served as a local web app",
		Version: buildinfo.String(),
		Args:    cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(".env")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, dir, serve)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "journal directory")
	rootCmd.Flags().StringVar(&serve.host, "host", "", "listen host (overrides config)")
	rootCmd.Flags().IntVar(&serve.port, "port", 0, "listen port (overrides config)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newListCommand(&dir))
	rootCmd.AddCommand(newExportCommand(&dir))
	rootCmd.AddCommand(newImportCommand(&dir))

	return rootCmd
}

// loadDotEnv loads path into the environment when it exists. Variables that
// are already set win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadConfig reads the config of the journal in dir.
func loadConfig(dir string) (*config.Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return config.LoadDir(absDir)
}

// openStore opens the backing file and wires the activity log and git
// history as configured.
func openStore(cfg *config.Config, log *logger.Logger) (*journal.Store, error) {
	store, err := journal.Open(cfg.Journal.File, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	journalDir := filepath.Dir(cfg.Journal.File)
	if cfg.Journal.ActivityLog {
		store.Observe(activitylog.NewRecorder(journalDir))
	}
	if cfg.Git.AutoCommit {
		store.Observe(&gitops.Committer{
			Dir:         journalDir,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
		})
	}
	return store, nil
}
