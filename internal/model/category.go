package model

import (
	"fmt"
	"strings"
)

// Category classifies a journal entry. The string value is the label stored
// in the backing file.
type Category string

const (
	CategoryBuy           Category = "Buy"
	CategorySell          Category = "Sell"
	CategoryMarketStory   Category = "Market Stories"
	CategoryLessonLearned Category = "Lessons Learned"
	CategorySuccessStory  Category = "Success Stories"
	CategoryStrategy      Category = "Strategy"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBuy,
	CategorySell,
	CategoryMarketStory,
	CategoryLessonLearned,
	CategorySuccessStory,
	CategoryStrategy,
}

// DefaultColor is the card color for anything outside the category table.
const DefaultColor = "#e9ecef"

var categoryColors = map[Category]string{
	CategoryBuy:           "lightgreen",
	CategorySell:          "wheat",
	CategoryMarketStory:   "skyblue",
	CategoryLessonLearned: "#ff6666",
	CategorySuccessStory:  "#fff166",
	CategoryStrategy:      "#da66ff",
}

var categoryKeys = map[Category]string{
	CategoryBuy:           "Buy",
	CategorySell:          "Sell",
	CategoryMarketStory:   "MarketStory",
	CategoryLessonLearned: "LessonLearned",
	CategorySuccessStory:  "SuccessStory",
	CategoryStrategy:      "Strategy",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryColors[c]
	return ok
}

// Color returns the display color for c.
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return DefaultColor
}

// Key returns the identifier form of c, e.g. "MarketStory".
func (c Category) Key() string {
	return categoryKeys[c]
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts either the stored label ("Market Stories") or the
// identifier form ("MarketStory"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Key()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
