package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invjournal/invjournal/internal/model"
)

// TradesParser parses broker trade exports with a header row naming at least
// the date, side, symbol, quantity and price columns. Optional note and tags
// columns are carried over. Column order does not matter.
type TradesParser struct{}

// Dates are accepted in ISO form or as US broker exports write them.
var tradeDateFormats = []string{model.DateFormat, "01/02/2006"}

var requiredTradeColumns = []string{"date", "side", "symbol", "quantity", "price"}

// Format returns the parser name.
func (p *TradesParser) Format() string { return "trades" }

// Parse reads a trades CSV and returns one Buy or Sell entry per row.
func (p *TradesParser) Parse(r io.Reader) ([]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trades CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredTradeColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("trades CSV is missing column %q", name)
		}
	}

	var entries []model.Entry
	for i, rec := range records[1:] {
		e, err := parseTradeRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		e.ID = makeTradeRef(e, i+2)
		entries = append(entries, e)
	}
	return entries, nil
}

func parseTradeRow(rec []string, cols map[string]int) (model.Entry, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := parseTradeDate(field("date"))
	if err != nil {
		return model.Entry{}, err
	}

	var category model.Category
	switch strings.ToLower(field("side")) {
	case "buy", "b":
		category = model.CategoryBuy
	case "sell", "s":
		category = model.CategorySell
	default:
		return model.Entry{}, fmt.Errorf("unknown side %q", field("side"))
	}

	symbol := field("symbol")
	if symbol == "" {
		return model.Entry{}, fmt.Errorf("missing symbol")
	}

	quantity, err := decimal.NewFromString(field("quantity"))
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing quantity %q: %w", field("quantity"), err)
	}
	price, err := decimal.NewFromString(field("price"))
	if err != nil {
		return model.Entry{}, fmt.Errorf("parsing price %q: %w", field("price"), err)
	}

	note := field("note")
	if note == "" {
		note = fmt.Sprintf("%s %s %s at %s.", category, quantity.Abs(), symbol, price.Abs().StringFixed(2))
	}

	return model.Entry{
		Date:     date,
		Category: category,
		Title:    symbol,
		Price:    price.Abs(),
		Amount:   quantity.Abs(),
		Tags:     model.SplitTags(strings.ReplaceAll(field("tags"), ";", ",")),
		Note:     note,
	}, nil
}

func parseTradeDate(s string) (time.Time, error) {
	for _, layout := range tradeDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q", s)
}

// makeTradeRef creates a stable ID like trade_20250103_buy_ACME_2 so that
// importing the same file twice is rejected as a duplicate.
func makeTradeRef(e model.Entry, row int) string {
	symbol := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, e.Title)
	if len(symbol) > 10 {
		symbol = symbol[:10]
	}
	return fmt.Sprintf("trade_%s_%s_%s_%d", e.Date.Format("20060102"), strings.ToLower(string(e.Category)), symbol, row)
}
