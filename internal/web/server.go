// Package web serves the journal as a local HTML application with a small JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/invjournal/invjournal/internal/filter"
	"github.com/invjournal/invjournal/internal/journal"
	"github.com/invjournal/invjournal/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// Server renders the journal and turns form submissions into store calls.
type Server struct {
	store    *journal.Store
	logger   *zap.Logger
	title    string
	md       *Markdown
	validate *validator.Validate
	tmpl     *template.Template
}

// NewServer returns a Server over store. A nil logger discards logs.
func NewServer(store *journal.Store, title string, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Server{
		store:    store,
		logger:   logger,
		title:    title,
		md:       NewMarkdown(),
		validate: NewValidator(),
		tmpl:     tmpl,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	// Match on the escaped path so IDs containing "/" stay one segment.
	r := mux.NewRouter().UseEncodedPath()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/entries", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/entries/{id}/delete", s.handleDelete).Methods(http.MethodPost)
	r.HandleFunc("/api/entries", s.handleAPIEntries).Methods(http.MethodGet)
	r.HandleFunc("/api/summary", s.handleAPISummary).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

// ListenAndServe binds addr and serves until ctx is cancelled, then shuts
// down gracefully. A bind failure is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving journal", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.page(readFilterValues(r.URL.Query()))
	data.Form = EntryForm{Category: string(model.CategoryBuy)}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	fv := readFilterValues(r.URL.Query())
	form := ParseEntryForm(r)

	if err := form.Validate(s.validate); err != nil {
		data := s.page(fv)
		data.Form = form
		var ve *ValidationError
		if errors.As(err, &ve) {
			data.FormErrors = ve.Fields
		} else {
			data.StoreError = err.Error()
		}
		s.render(w, http.StatusUnprocessableEntity, data)
		return
	}

	entry, err := form.Entry()
	if err == nil {
		entry, err = s.store.Add(entry)
	}
	if err != nil {
		s.logger.Error("adding entry failed", zap.Error(err))
		data := s.page(fv)
		data.Form = form
		data.StoreError = "Entry was not saved: " + err.Error()
		s.render(w, http.StatusInternalServerError, data)
		return
	}

	s.redirect(w, r, fv)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	fv := readFilterValues(r.URL.Query())
	entryID, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}

	if _, err := s.store.Delete(entryID); err != nil {
		s.logger.Error("deleting entry failed", zap.String("id", entryID), zap.Error(err))
		data := s.page(fv)
		data.Form = EntryForm{Category: string(model.CategoryBuy)}
		data.StoreError = "Entry was not deleted: " + err.Error()
		s.render(w, http.StatusInternalServerError, data)
		return
	}

	s.redirect(w, r, fv)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, fv filterValues) {
	http.Redirect(w, r, withQuery("/", fv.query()), http.StatusSeeOther)
}

// page builds the view of the filtered journal, newest first.
func (s *Server) page(fv filterValues) pageData {
	all := s.store.Entries()
	criteria, err := filter.ParseCriteria(fv.Category, fv.Year, fv.Tags)

	entries := filter.Filter(all, criteria)
	filter.SortByDateDesc(entries)

	query := fv.query()
	data := pageData{
		Title:        s.title,
		Filter:       fv,
		AddAction:    template.URL(withQuery("/entries", query)),
		FilterOpts:   categoryOptions(fv.Category, true),
		Summary:      filter.Summarize(entries),
		TotalEntries: len(all),
	}
	if err != nil {
		data.FilterError = err.Error()
	}
	for _, e := range entries {
		data.Cards = append(data.Cards, newCard(e, s.md, query))
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	data.FormOpts = categoryOptions(data.Form.Category, false)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("rendering page failed", zap.Error(err))
	}
}

// entryJSON is the API form of an entry.
type entryJSON struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Category string   `json:"category"`
	Title    string   `json:"title,omitempty"`
	Price    string   `json:"price,omitempty"`
	Amount   string   `json:"amount,omitempty"`
	Cost     string   `json:"cost,omitempty"`
	Tags     []string `json:"tags"`
	Note     string   `json:"note"`
}

func toJSON(e model.Entry) entryJSON {
	out := entryJSON{
		ID:       e.ID,
		Date:     e.Date.Format(model.DateFormat),
		Category: string(e.Category),
		Title:    e.Title,
		Tags:     e.Tags,
		Note:     e.Note,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if !e.Price.IsZero() {
		out.Price = e.Price.String()
	}
	if !e.Amount.IsZero() {
		out.Amount = e.Amount.String()
	}
	if e.HasTrade() {
		out.Cost = e.Cost().String()
	}
	return out
}

// apiEntries filters and sorts the store by the request query. Invalid
// criteria are reported as 400.
func (s *Server) apiEntries(w http.ResponseWriter, r *http.Request) ([]model.Entry, bool) {
	fv := readFilterValues(r.URL.Query())
	criteria, err := filter.ParseCriteria(fv.Category, fv.Year, fv.Tags)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	entries := filter.Filter(s.store.Entries(), criteria)
	if r.URL.Query().Get("sort") != "insertion" {
		filter.SortByDateDesc(entries)
	}
	return entries, true
}

func (s *Server) handleAPIEntries(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.apiEntries(w, r)
	if !ok {
		return
	}
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	entries, ok := s.apiEntries(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, filter.Summarize(entries))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
