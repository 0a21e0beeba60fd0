package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/invjournal/invjournal/internal/filter"
	"github.com/invjournal/invjournal/internal/journal"
	"github.com/invjournal/invjournal/internal/model"
)

const listWrap = 80

func newListCommand(dir *string) *cobra.Command {
	var category, year, tags string
	var raw bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print journal entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filter.ParseCriteria(category, year, tags)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*dir)
			if err != nil {
				return err
			}
			all, err := journal.Load(cfg.Journal.File)
			if err != nil {
				return err
			}

			entries := filter.Filter(all, criteria)
			filter.SortByDateDesc(entries)

			doc := listMarkdown(entries)
			if !raw {
				r, err := glamour.NewTermRenderer(
					glamour.WithStandardStyle("notty"),
					glamour.WithWordWrap(listWrap),
				)
				if err != nil {
					return fmt.Errorf("creating renderer: %w", err)
				}
				if doc, err = r.Render(doc); err != nil {
					return fmt.Errorf("rendering entries: %w", err)
				}
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only entries of this category")
	cmd.Flags().StringVar(&year, "year", "", "only entries of this year")
	cmd.Flags().StringVar(&tags, "tags", "", "only entries with any of these comma-separated tags")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")

	return cmd
}

// listMarkdown lays entries out as one markdown section per entry.
func listMarkdown(entries []model.Entry) string {
	if len(entries) == 0 {
		return "No entries match the current filter.\n"
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		heading := string(e.Category)
		if e.Title != "" {
			heading += " - " + e.Title
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		fmt.Fprintf(&b, "%s · %s · `%s`\n\n", e.Date.Format(model.DateFormat), e.Trade(), e.ID)
		if note := strings.TrimSpace(e.Note); note != "" {
			b.WriteString(note)
			b.WriteString("\n\n")
		}
		if len(e.Tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(e.Tags, ", "))
		}
	}
	return b.String()
}
