package web

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/invjournal/invjournal/internal/filter"
	"github.com/invjournal/invjournal/internal/model"
)

// card is the display form of one entry.
type card struct {
	ID       string
	Delete   template.URL
	Heading  string
	Date     string
	Trade    string
	Color    string
	NoteHTML template.HTML
	Tags     string
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type filterValues struct {
	Category string
	Year     string
	Tags     string
}

// query encodes the active filters, omitting empty ones.
func (f filterValues) query() string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Year != "" {
		q.Set("year", f.Year)
	}
	if f.Tags != "" {
		q.Set("tags", f.Tags)
	}
	return q.Encode()
}

type pageData struct {
	Title        string
	Filter       filterValues
	AddAction    template.URL
	FilterError  string
	FilterOpts   []option
	FormOpts     []option
	Cards        []card
	Summary      filter.Summary
	Form         EntryForm
	FormErrors   []FieldError
	StoreError   string
	TotalEntries int
}

func readFilterValues(q url.Values) filterValues {
	return filterValues{
		Category: strings.TrimSpace(q.Get("category")),
		Year:     strings.TrimSpace(q.Get("year")),
		Tags:     strings.TrimSpace(q.Get("tags")),
	}
}

func categoryOptions(selected string, withAll bool) []option {
	var opts []option
	if withAll {
		opts = append(opts, option{Value: filter.All, Label: "All", Selected: selected == "" || strings.EqualFold(selected, filter.All)})
	}
	sel, _ := model.ParseCategory(selected)
	for _, c := range model.Categories {
		opts = append(opts, option{Value: c.Key(), Label: string(c), Selected: c == sel})
	}
	return opts
}

// withQuery appends the encoded filter query to path.
func withQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

func newCard(e model.Entry, md *Markdown, query string) card {
	heading := string(e.Category)
	if e.Title != "" {
		heading += " - " + e.Title
	}
	return card{
		ID:       e.ID,
		Delete:   template.URL(withQuery("/entries/"+url.PathEscape(e.ID)+"/delete", query)),
		Heading:  heading,
		Date:     e.Date.Format(model.DateFormat),
		Trade:    e.Trade(),
		Color:    e.Category.Color(),
		NoteHTML: md.Render(e.Note),
		Tags:     strings.Join(e.Tags, ", "),
	}
}
