package activitylog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/invjournal/invjournal/internal/journal"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Action    string
	EntryID   string
	Category  string
	Details   string
}

// Header is the CSV header for activity-log.csv.
const Header = "timestamp,action,entry_id,category,details"

const (
	numFields    = 5
	logDir       = "logs"
	logFile      = "logs/activity-log.csv"
	colTimestamp = 0
	colAction    = 1
	colEntryID   = 2
	colCategory  = 3
	colDetails   = 4

	maxDetails = 80
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colEntryID] = e.EntryID
	row[colCategory] = e.Category
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		Action:    record[colAction],
		EntryID:   record[colEntryID],
		Category:  record[colCategory],
		Details:   record[colDetails],
	}, nil
}

// Path returns the activity log path under dir.
func Path(dir string) string {
	return filepath.Join(dir, logFile)
}

// Append writes entries to <dir>/logs/activity-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(dir)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/logs/activity-log.csv.
// Returns nil if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder appends a row for every saved journal change. It implements
// journal.Observer.
type Recorder struct {
	dir string
	now func() time.Time
}

// NewRecorder returns a Recorder logging under dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir, now: time.Now}
}

// Changed implements journal.Observer.
func (r *Recorder) Changed(c journal.Change) error {
	return r.ChangedAll([]journal.Change{c})
}

// ChangedAll implements journal.BatchObserver with a single append.
func (r *Recorder) ChangedAll(changes []journal.Change) error {
	ts := r.now().UTC()
	entries := make([]Entry, len(changes))
	for i, c := range changes {
		entries[i] = Entry{
			Timestamp: ts,
			Action:    string(c.Action),
			EntryID:   c.Entry.ID,
			Category:  string(c.Entry.Category),
			Details:   summarize(c.Entry.Title, c.Entry.Note),
		}
	}
	return Append(r.dir, entries)
}

// summarize returns the title, or the first line of the note, cut to maxDetails runes.
func summarize(title, note string) string {
	s := strings.TrimSpace(title)
	if s == "" {
		s, _, _ = strings.Cut(strings.TrimSpace(note), "\n")
	}
	if r := []rune(s); len(r) > maxDetails {
		s = string(r[:maxDetails-1]) + "…"
	}
	return s
}
