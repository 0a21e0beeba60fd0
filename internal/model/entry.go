package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used for entries everywhere.
const DateFormat = "2006-01-02"

// Entry is one journal record.
type Entry struct {
	ID       string
	Date     time.Time
	Category Category
	Title    string          // asset or short title, optional
	Price    decimal.Decimal // zero if not a trade
	Amount   decimal.Decimal // zero if not a trade
	Tags     []string
	Note     string // raw markdown
}

// Year returns the calendar year of the entry date.
func (e Entry) Year() int {
	return e.Date.Year()
}

// HasTrade reports whether both price and amount are set.
func (e Entry) HasTrade() bool {
	return !e.Price.IsZero() && !e.Amount.IsZero()
}

// Cost returns price × amount, or zero when the entry is not a trade.
func (e Entry) Cost() decimal.Decimal {
	if !e.HasTrade() {
		return decimal.Zero
	}
	return e.Price.Mul(e.Amount)
}

// Trade formats the trade as "cost€ (amount x price€)", or "-" when the
// entry is not a trade.
func (e Entry) Trade() string {
	if !e.HasTrade() {
		return "-"
	}
	return e.Cost().StringFixed(2) + "€ (" + e.Amount.String() + " x " + e.Price.StringFixed(2) + "€)"
}

// HasTag reports whether the entry carries tag, ignoring case.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with e.
func (e Entry) Clone() Entry {
	c := e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	return c
}

// NormalizeTags trims tags, drops empty ones and case-insensitive duplicates,
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag list.
// "growth, Tech,,growth" -> ["growth", "Tech"]
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}
