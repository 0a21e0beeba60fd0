// Package importer turns CSV files from other tools into journal entries.
package importer

import (
	"io"
	"slices"
	"strings"

	"github.com/invjournal/invjournal/internal/journal"
	"github.com/invjournal/invjournal/internal/model"
)

// Parser converts a CSV file into journal entries.
type Parser interface {
	Parse(r io.Reader) ([]model.Entry, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(JournalParser{})
	r.Register(&TradesParser{})
	return r
}

// JournalParser reads the CSV written by the export command.
type JournalParser struct{}

// Format returns the parser name.
func (JournalParser) Format() string { return "journal" }

// Parse reads a journal CSV export.
func (JournalParser) Parse(r io.Reader) ([]model.Entry, error) {
	return journal.ReadEntries(r)
}
