package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invjournal/invjournal/internal/config"
	"github.com/invjournal/invjournal/internal/gitops"
	"github.com/invjournal/invjournal/internal/journal"
)

func newInitCommand() *cobra.Command {
	var title string
	var withGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new journal directory",
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

			return runInit(cmd.OutOrStdout(), absDir, title, withGit)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "journal title shown in the page header")
	cmd.Flags().BoolVar(&withGit, "git", false, "create a git repository and commit every change")

	return cmd
}

func runInit(out io.Writer, dir, title string, withGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating directory logs: %w", err)
	}

	// Write invjournal.yaml.
	cfg := config.Default()
	if title != "" {
		cfg.Journal.Title = title
	}
	cfg.Git.AutoCommit = withGit
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an empty journal unless one is already there.
	journalPath := filepath.Join(dir, cfg.Journal.File)
	if _, err := os.Stat(journalPath); errors.Is(err, fs.ErrNotExist) {
		if err := journal.Save(journalPath, nil); err != nil {
			return fmt.Errorf("writing journal: %w", err)
		}
	}

	// Write .gitignore.
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".env\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !withGit {
		fmt.Fprintf(out, "Initialized journal at %s\n", dir)
		return nil
	}

	// Initialize git and create initial commit.
	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	hash, err := gitops.CommitAll(dir, "init: Initialize "+cfg.Journal.Title, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized journal at %s (%s)\n", dir, hash)
	return nil
}
