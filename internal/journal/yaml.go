package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/invjournal/invjournal/internal/id"
	"github.com/invjournal/invjournal/internal/model"
)

// document is the on-disk layout of journal.yaml.
type document struct {
	Entries []record `yaml:"entries"`
}

// record is one entry as written to journal.yaml.
type record struct {
	ID       string   `yaml:"id"`
	Date     string   `yaml:"date"`
	Category string   `yaml:"category"`
	Type     string   `yaml:"type,omitempty"` // older files name the category "type"
	Title    string   `yaml:"title,omitempty"`
	Price    string   `yaml:"price,omitempty"`
	Amount   string   `yaml:"amount,omitempty"`
	Tags     []string `yaml:"tags"`
	Note     string   `yaml:"note"`
}

// MarshalEntries encodes entries as a journal.yaml document.
func MarshalEntries(entries []model.Entry) ([]byte, error) {
	doc := document{Entries: make([]record, 0, len(entries))}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, marshalRecord(e))
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling journal: %w", err)
	}
	return data, nil
}

// UnmarshalEntries decodes a journal.yaml document. An empty document yields
// no entries. IDs must be present and unique.
func UnmarshalEntries(data []byte) ([]model.Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing journal YAML: %w", err)
	}

	entries := make([]model.Entry, 0, len(doc.Entries))
	seen := make(map[string]bool, len(doc.Entries))
	for i, rec := range doc.Entries {
		e, err := unmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("entry %d: %w: %s", i+1, ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}
	return entries, nil
}

func marshalRecord(e model.Entry) record {
	rec := record{
		ID:       e.ID,
		Date:     e.Date.Format(model.DateFormat),
		Category: string(e.Category),
		Title:    e.Title,
		Tags:     e.Tags,
		Note:     e.Note,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if !e.Price.IsZero() {
		rec.Price = e.Price.String()
	}
	if !e.Amount.IsZero() {
		rec.Amount = e.Amount.String()
	}
	return rec
}

func unmarshalRecord(rec record) (model.Entry, error) {
	if err := id.Check(rec.ID); err != nil {
		return model.Entry{}, err
	}

	date, err := time.Parse(model.DateFormat, rec.Date)
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing date %q: %w", rec.Date, err)
	}

	label := rec.Category
	if label == "" {
		label = rec.Type
	}
	category, err := model.ParseCategory(label)
	if err != nil {
		return model.Entry{}, err
	}

	price, err := parseDecimal("price", rec.Price)
	if err != nil {
		return model.Entry{}, err
	}
	amount, err := parseDecimal("amount", rec.Amount)
	if err != nil {
		return model.Entry{}, err
	}

	return model.Entry{
		ID:       rec.ID,
		Date:     date,
		Category: category,
		Title:    rec.Title,
		Price:    price,
		Amount:   amount,
		Tags:     model.NormalizeTags(rec.Tags),
		Note:     rec.Note,
	}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
