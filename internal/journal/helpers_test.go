package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/invjournal/invjournal/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func assertEntryEqual(t *testing.T, want, got model.Entry) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Date.Equal(got.Date), "date: want %s, got %s", want.Date, got.Date)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Title, got.Title)
	assert.True(t, want.Price.Equal(got.Price), "price: want %s, got %s", want.Price, got.Price)
	assert.True(t, want.Amount.Equal(got.Amount), "amount: want %s, got %s", want.Amount, got.Amount)
	assert.Equal(t, want.Tags, got.Tags)
	assert.Equal(t, want.Note, got.Note)
}

func sampleEntries() []model.Entry {
	return []model.Entry{
		{
			ID:       "1",
			Date:     date(2022, 5, 10),
			Category: model.CategoryBuy,
			Title:    "ACME Corp",
			Price:    dec("12.50"),
			Amount:   dec("40"),
			Tags:     []string{"tech", "growth"},
			Note:     "Bought after **earnings** beat.\n\n- cheap\n- growing",
		},
		{
			ID:       "2",
			Date:     date(2023, 2, 1),
			Category: model.CategorySell,
			Title:    "ACME Corp",
			Tags:     []string{"tech"},
			Note:     "Took profits.",
		},
	}
}
