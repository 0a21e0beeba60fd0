package filter

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invjournal/invjournal/internal/model"
)

// CategoryCount is the number of entries in one category.
type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

// Summary aggregates a list of entries.
type Summary struct {
	Total      int             `json:"total"`
	Categories []CategoryCount `json:"categories"` // every category, in display order
	Years      []int           `json:"years"`      // distinct, newest first
	Tags       []string        `json:"tags"`       // distinct, lower-cased, sorted
	Invested   decimal.Decimal `json:"invested"`   // cost of Buy entries
	Divested   decimal.Decimal `json:"divested"`   // cost of Sell entries
}

// Summarize aggregates entries into a Summary.
func Summarize(entries []model.Entry) Summary {
	s := Summary{
		Total:    len(entries),
		Invested: decimal.Zero,
		Divested: decimal.Zero,
	}

	counts := make(map[model.Category]int)
	years := make(map[int]bool)
	tags := make(map[string]bool)
	for _, e := range entries {
		counts[e.Category]++
		years[e.Year()] = true
		for _, t := range e.Tags {
			tags[strings.ToLower(t)] = true
		}
		switch e.Category {
		case model.CategoryBuy:
			s.Invested = s.Invested.Add(e.Cost())
		case model.CategorySell:
			s.Divested = s.Divested.Add(e.Cost())
		}
	}

	for _, c := range model.Categories {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: counts[c]})
	}
	for y := range years {
		s.Years = append(s.Years, y)
	}
	slices.SortFunc(s.Years, func(a, b int) int { return b - a })
	for t := range tags {
		s.Tags = append(s.Tags, t)
	}
	slices.Sort(s.Tags)
	return s
}

// Count returns the number of entries in category c.
func (s Summary) Count(c model.Category) int {
	for _, cc := range s.Categories {
		if cc.Category == c {
			return cc.Count
		}
	}
	return 0
}
