package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invjournal/invjournal/internal/importer"
	"github.com/invjournal/invjournal/internal/journal"
	"github.com/invjournal/invjournal/internal/logger"
)

func newExportCommand(dir *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all entries as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			entries, err := journal.Load(cfg.Journal.File)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err := journal.WriteEntries(w, entries); err != nil {
				return fmt.Errorf("exporting entries: %w", err)
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}

func newImportCommand(dir *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append entries from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(registry.Formats(), ", "))
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			entries, err := parser.Parse(f)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger.Nop())
			if err != nil {
				return err
			}

			if _, err := store.AddAll(entries); err != nil {
				return fmt.Errorf("importing %s (nothing imported): %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries into %s\n", len(entries), store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "journal", "input format: journal (export CSV) or trades (broker trades CSV)")

	return cmd
}
