package journal

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invjournal/invjournal/internal/model"
)

type recordingObserver struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (o *recordingObserver) Changed(c Change) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, c)
	return o.err
}

func openStore(t *testing.T, entries ...model.Entry) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.yaml")
	if len(entries) > 0 {
		require.NoError(t, Save(path, entries))
	}
	s, err := Open(path, nil)
	require.NoError(t, err)
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	want := sampleEntries()

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assertEntryEqual(t, want[i], got[i])
	}
}

func TestSaveLoad_SingleEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	e := model.Entry{
		ID:       "01JGZ8K3N4XW5V6Q7R8S9T0ABC",
		Date:     date(2024, 12, 31),
		Category: model.CategoryLessonLearned,
		Tags:     []string{"risk"},
		Note:     "Never average down on a broken thesis: \"hope\" is not a plan.",
	}

	require.NoError(t, Save(path, []model.Entry{e}))
	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assertEntryEqual(t, e, got[0])
}

func TestLoad_Missing(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "journal.yaml"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := map[string]string{
		"invalid yaml":     "entries: [\n  - id: 1\n",
		"unknown category": "entries:\n  - id: \"1\"\n    date: \"2024-01-01\"\n    category: Hold\n    note: x\n",
		"bad date":         "entries:\n  - id: \"1\"\n    date: \"01/02/2024\"\n    category: Buy\n    note: x\n",
		"missing id":       "entries:\n  - date: \"2024-01-01\"\n    category: Buy\n    note: x\n",
		"duplicate id": "entries:\n" +
			"  - id: \"1\"\n    date: \"2024-01-01\"\n    category: Buy\n    note: x\n" +
			"  - id: \"1\"\n    date: \"2024-01-02\"\n    category: Sell\n    note: y\n",
		"bad price": "entries:\n  - id: \"1\"\n    date: \"2024-01-01\"\n    category: Buy\n    price: abc\n    note: x\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "journal.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptStore)

			var cse *CorruptStoreError
			require.True(t, errors.As(err, &cse))
			assert.Equal(t, path, cse.Path)
		})
	}
}

func TestLoad_LegacyFormat(t *testing.T) {
	content := `entries:
- amount: 10
  date: '2024-03-15'
  id: 9b2f0f0e-6a43-4b8e-9a57-4a3c2b1d0e9f
  note: First position.
  price: 101.25
  tags:
  - etf
  - core
  title: MSCI World
  type: Buy
- amount: null
  date: '2024-04-01'
  id: 3c1d2e4f-0000-4b8e-9a57-4a3c2b1d0e9f
  note: Rates story.
  price: null
  tags: []
  title: ''
  type: Market Stories
`
	path := filepath.Join(t.TempDir(), "journal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.CategoryBuy, got[0].Category)
	assert.Equal(t, "MSCI World", got[0].Title)
	assert.True(t, got[0].Price.Equal(dec("101.25")))
	assert.True(t, got[0].Cost().Equal(dec("1012.5")))
	assert.Equal(t, []string{"etf", "core"}, got[0].Tags)

	assert.Equal(t, model.CategoryMarketStory, got[1].Category)
	assert.False(t, got[1].HasTrade())
	assert.Empty(t, got[1].Tags)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "journal.yaml")
	require.NoError(t, Save(path, sampleEntries()))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSave_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.yaml")
	require.NoError(t, Save(path, sampleEntries()))
	require.NoError(t, Save(path, sampleEntries()[:1]))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "journal.yaml", files[0].Name())
}

func TestSave_Failure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.yaml")
	// A non-empty directory at the target path makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))

	err := Save(path, sampleEntries())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "rename", we.Op)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1, "temp file must be discarded")
}

func TestStore_Add(t *testing.T) {
	s := openStore(t)
	obs := &recordingObserver{}
	s.Observe(obs)

	added, err := s.Add(model.Entry{
		Date:     date(2025, 1, 3),
		Category: model.CategoryStrategy,
		Tags:     []string{"dca"},
		Note:     "Monthly savings plan.",
	})
	require.NoError(t, err)
	assert.Len(t, added.ID, 26, "a ULID is assigned")

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get(added.ID)
	require.True(t, ok)
	assertEntryEqual(t, added, got)

	// Persisted.
	loaded, err := Load(s.Path())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assertEntryEqual(t, added, loaded[0])

	require.Len(t, obs.changes, 1)
	assert.Equal(t, ActionAdd, obs.changes[0].Action)
	assert.Equal(t, added.ID, obs.changes[0].Entry.ID)
}

func TestStore_AddKeepsInsertionOrder(t *testing.T) {
	s := openStore(t)
	for _, note := range []string{"first", "second", "third"} {
		_, err := s.Add(model.Entry{Date: date(2025, 1, 1), Category: model.CategoryBuy, Note: note})
		require.NoError(t, err)
	}

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Note)
	assert.Equal(t, "second", entries[1].Note)
	assert.Equal(t, "third", entries[2].Note)
}

func TestStore_AddDuplicateID(t *testing.T) {
	s := openStore(t, sampleEntries()...)

	_, err := s.Add(model.Entry{ID: "1", Date: date(2025, 1, 1), Category: model.CategoryBuy, Note: "dup"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 2, s.Len())
}

func TestStore_AddInvalidCategory(t *testing.T) {
	s := openStore(t)

	_, err := s.Add(model.Entry{Date: date(2025, 1, 1), Category: "Hold", Note: "x"})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_AddWriteFailureLeavesMemoryUnchanged(t *testing.T) {
	s := openStore(t, sampleEntries()...)
	obs := &recordingObserver{}
	s.Observe(obs)

	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.MkdirAll(filepath.Join(s.Path(), "blocker"), 0o755))

	_, err := s.Add(model.Entry{Date: date(2025, 1, 1), Category: model.CategoryBuy, Note: "lost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, 2, s.Len())
	assert.Empty(t, obs.changes)
}

func TestStore_Delete(t *testing.T) {
	s := openStore(t, sampleEntries()...)
	obs := &recordingObserver{}
	s.Observe(obs)

	ok, err := s.Delete("1")
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, err := Load(s.Path())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "2", loaded[0].ID)

	require.Len(t, obs.changes, 1)
	assert.Equal(t, ActionDelete, obs.changes[0].Action)
	assert.Equal(t, model.CategoryBuy, obs.changes[0].Entry.Category)
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	s := openStore(t, sampleEntries()...)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	obs := &recordingObserver{}
	s.Observe(obs)

	ok, err := s.Delete("does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, obs.changes)
}

func TestStore_DeleteWriteFailureLeavesMemoryUnchanged(t *testing.T) {
	s := openStore(t, sampleEntries()...)

	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.MkdirAll(filepath.Join(s.Path(), "blocker"), 0o755))

	ok, err := s.Delete("1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.False(t, ok)
	_, found := s.Get("1")
	assert.True(t, found)
}

func TestStore_ObserverErrorDoesNotFailMutation(t *testing.T) {
	s := openStore(t)
	s.Observe(&recordingObserver{err: errors.New("boom")})

	_, err := s.Add(model.Entry{Date: date(2025, 1, 1), Category: model.CategoryBuy, Note: "kept"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestStore_EntriesIsACopy(t *testing.T) {
	s := openStore(t, sampleEntries()...)

	entries := s.Entries()
	entries[0].Note = "changed"
	entries[0].Tags[0] = "changed"

	got, ok := s.Get("1")
	require.True(t, ok)
	assert.NotEqual(t, "changed", got.Note)
	assert.Equal(t, "tech", got.Tags[0])
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: {not: [a list"), 0o644))

	_, err := Open(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptStore)
}

func TestScenario_FilterThenDelete(t *testing.T) {
	s := openStore(t,
		model.Entry{ID: "1", Date: date(2022, 6, 1), Category: model.CategoryBuy, Note: "A"},
		model.Entry{ID: "2", Date: date(2023, 6, 1), Category: model.CategorySell, Note: "B"},
	)

	_, err := s.Delete("1")
	require.NoError(t, err)

	loaded, err := Load(s.Path())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "2", loaded[0].ID)
	assert.Equal(t, "B", loaded[0].Note)
}

func TestStore_AddAssignsToday(t *testing.T) {
	s := openStore(t)
	s.now = func() time.Time { return time.Date(2025, 3, 9, 23, 15, 0, 0, time.Local) }

	added, err := s.Add(model.Entry{Category: model.CategoryBuy, Note: "dated today"})
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 9), added.Date)
}

func TestStore_AddNormalizesLikeTheFile(t *testing.T) {
	s := openStore(t)

	added, err := s.Add(model.Entry{
		Date:     time.Date(2024, 3, 1, 15, 30, 0, 0, time.FixedZone("CET", 3600)),
		Category: model.CategoryBuy,
		Tags:     []string{" tech", "Tech", ""},
		Note:     "messy input",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tech"}, added.Tags)
	assert.Equal(t, date(2024, 3, 1), added.Date)

	loaded, err := Load(s.Path())
	require.NoError(t, err)
	inMemory := s.Entries()
	require.Len(t, loaded, 1)
	require.Len(t, inMemory, 1)
	assertEntryEqual(t, loaded[0], inMemory[0])
	assert.Equal(t, loaded[0].Date, inMemory[0].Date)
}

type batchObserver struct {
	recordingObserver
	batches [][]Change
}

func (o *batchObserver) ChangedAll(changes []Change) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, changes)
	return nil
}

func TestStore_AddAll(t *testing.T) {
	s := openStore(t, sampleEntries()...)
	plain := &recordingObserver{}
	batch := &batchObserver{}
	s.Observe(plain)
	s.Observe(batch)

	added, err := s.AddAll([]model.Entry{
		{ID: "3", Date: date(2024, 1, 1), Category: model.CategoryBuy, Note: "a"},
		{Date: date(2024, 1, 2), Category: model.CategorySell, Note: "b"},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "3", added[0].ID)
	assert.NotEmpty(t, added[1].ID)

	loaded, err := Load(s.Path())
	require.NoError(t, err)
	assert.Len(t, loaded, 4)

	assert.Len(t, plain.changes, 2, "plain observers see each change")
	require.Len(t, batch.batches, 1, "batch observers see the save once")
	assert.Len(t, batch.batches[0], 2)
	assert.Empty(t, batch.changes)
}

func TestStore_AddAllIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name    string
		entries []model.Entry
	}{
		{
			name: "duplicate of stored entry after a new one",
			entries: []model.Entry{
				{ID: "new1", Date: date(2024, 1, 1), Category: model.CategoryBuy, Note: "new"},
				{ID: "1", Date: date(2024, 1, 1), Category: model.CategoryBuy, Note: "dup"},
			},
		},
		{
			name: "duplicate within the batch",
			entries: []model.Entry{
				{ID: "new1", Date: date(2024, 1, 1), Category: model.CategoryBuy, Note: "a"},
				{ID: "new1", Date: date(2024, 1, 2), Category: model.CategoryBuy, Note: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t, sampleEntries()...)
			before, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			obs := &recordingObserver{}
			s.Observe(obs)

			_, err = s.AddAll(tt.entries)
			require.ErrorIs(t, err, ErrDuplicateID)
			assert.Contains(t, err.Error(), "entry 2 of 2")

			assert.Equal(t, 2, s.Len())
			after, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Empty(t, obs.changes)
		})
	}
}

func TestStore_AddAllInvalidEntry(t *testing.T) {
	s := openStore(t)

	_, err := s.AddAll([]model.Entry{
		{Date: date(2024, 1, 1), Category: model.CategoryBuy, Note: "ok"},
		{Date: date(2024, 1, 1), Category: "Hold", Note: "bad"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())

	_, err = os.Stat(s.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist), "nothing was written")
}
