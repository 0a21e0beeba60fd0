// Package filter selects and orders journal entries for display.
package filter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/invjournal/invjournal/internal/model"
)

// All is the criteria value that disables a filter.
const All = "all"

// Criteria are the active filter selections. A zero field matches everything.
type Criteria struct {
	Category model.Category
	Year     int
	Tags     []string // match entries carrying any of these, ignoring case
}

// IsZero reports whether c matches every entry.
func (c Criteria) IsZero() bool {
	return c.Category == "" && c.Year == 0 && len(c.Tags) == 0
}

// Match reports whether e satisfies c.
func (c Criteria) Match(e model.Entry) bool {
	if c.Category != "" && e.Category != c.Category {
		return false
	}
	if c.Year != 0 && e.Year() != c.Year {
		return false
	}
	if len(c.Tags) > 0 && !slices.ContainsFunc(c.Tags, e.HasTag) {
		return false
	}
	return true
}

// Filter returns the entries matching c, in input order. The input is not modified.
func Filter(entries []model.Entry, c Criteria) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if c.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortByDateDesc sorts entries newest first. Entries on the same date keep
// their relative (insertion) order.
func SortByDateDesc(entries []model.Entry) {
	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		return b.Date.Compare(a.Date)
	})
}

// ParseCriteria builds Criteria from raw user input. Empty values and "all"
// (any case) disable a filter. On an invalid category or year the returned
// Criteria leaves that field unset and the error describes every problem.
func ParseCriteria(category, year, tags string) (Criteria, error) {
	var c Criteria
	var problems []string

	if category = strings.TrimSpace(category); category != "" && !strings.EqualFold(category, All) {
		cat, err := model.ParseCategory(category)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			c.Category = cat
		}
	}

	if year = strings.TrimSpace(year); year != "" && !strings.EqualFold(year, All) {
		y, err := parseYear(year)
		if err != nil {
			problems = append(problems, err.Error())
		} else {
			c.Year = y
		}
	}

	if !strings.EqualFold(strings.TrimSpace(tags), All) {
		c.Tags = model.SplitTags(tags)
	}

	if len(problems) > 0 {
		return c, fmt.Errorf("invalid filter: %s", strings.Join(problems, "; "))
	}
	return c, nil
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("year %q must have four digits", s)
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 {
		return 0, fmt.Errorf("year %q is not a number", s)
	}
	return y, nil
}
