package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/invjournal/invjournal/internal/model"
)

// Header is the CSV header used by export and import.
const Header = "id,date,category,title,price,amount,tags,note"

const (
	numFields = 8
	colID     = 0
	colDate   = 1
	colCat    = 2
	colTitle  = 3
	colPrice  = 4
	colAmount = 5
	colTags   = 6
	colNote   = 7

	tagSep = ";"
)

// ReadEntries reads entries from a CSV reader. The first row must be the header.
// Rows with an empty id are returned with an empty ID so the caller can assign one.
func ReadEntries(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entries CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected CSV header %q", got)
	}

	var entries []model.Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteEntries writes entries to a CSV writer (including header).
func WriteEntries(w io.Writer, entries []model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalRow(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts an Entry to a CSV row.
func MarshalRow(e model.Entry) []string {
	row := make([]string, numFields)
	row[colID] = e.ID
	row[colDate] = e.Date.Format(model.DateFormat)
	row[colCat] = string(e.Category)
	row[colTitle] = e.Title
	if !e.Price.IsZero() {
		row[colPrice] = e.Price.String()
	}
	if !e.Amount.IsZero() {
		row[colAmount] = e.Amount.String()
	}
	row[colTags] = strings.Join(e.Tags, tagSep)
	row[colNote] = e.Note
	return row
}

// UnmarshalRow converts a CSV row to an Entry.
func UnmarshalRow(record []string) (model.Entry, error) {
	if len(record) != numFields {
		return model.Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	category, err := model.ParseCategory(record[colCat])
	if err != nil {
		return model.Entry{}, err
	}

	price, err := parseDecimal("price", record[colPrice])
	if err != nil {
		return model.Entry{}, err
	}
	amount, err := parseDecimal("amount", record[colAmount])
	if err != nil {
		return model.Entry{}, err
	}

	var tags []string
	if record[colTags] != "" {
		tags = model.NormalizeTags(strings.Split(record[colTags], tagSep))
	}

	return model.Entry{
		ID:       strings.TrimSpace(record[colID]),
		Date:     date,
		Category: category,
		Title:    record[colTitle],
		Price:    price,
		Amount:   amount,
		Tags:     tags,
		Note:     record[colNote],
	}, nil
}
