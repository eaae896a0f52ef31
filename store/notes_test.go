package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinizap/studydock/domain"
	"github.com/vinizap/studydock/kv"
)

func TestNoteLoadMissingInitializesStorage(t *testing.T) {
	mem := kv.NewMemory()
	_, notes := stores(t, mem)

	assert.False(t, notes.Loading())
	assert.Empty(t, notes.Err())
	assert.Empty(t, notes.List())
	assert.Empty(t, persistedNotes(t, mem))
}

func TestNoteLoadFailureReportsError(t *testing.T) {
	backend := newFlakyStore()
	backend.failGet.Store(true)
	_, notes := stores(t, backend)

	assert.False(t, notes.Loading())
	assert.Equal(t, loadNotesFailed, notes.Err())
	assert.Empty(t, notes.List())
}

func TestNoteLoadExisting(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, NotesKey, []byte(`[{"id":"n1","title":"Plan","content":"x","folderId":"f1","updatedAt":"2026-01-02T03:04:05Z"}]`)))

	_, notes := stores(t, mem)

	require.Len(t, notes.List(), 1)
	n, ok := notes.Get("n1")
	require.True(t, ok)
	assert.Equal(t, "Plan", n.Title)
	assert.Equal(t, "f1", n.FolderID)
}

func TestAddNoteToExplicitFolderAdjustsCount(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	folders, notes := stores(t, mem)

	work := folders.Add(ctx, "Work")
	n := notes.Add(ctx, "Plan", "draft text", work.ID)

	assert.Equal(t, work.ID, n.FolderID)
	got, _ := folders.Get(work.ID)
	assert.Equal(t, 1, got.NoteCount)
	assert.Equal(t, notes.List(), persistedNotes(t, mem))
	assert.Equal(t, folders.List(), persistedFolders(t, mem))

	require.NoError(t, notes.Delete(ctx, n.ID))
	got, _ = folders.Get(work.ID)
	assert.Equal(t, 0, got.NoteCount)
	assert.Empty(t, notes.List())
	assert.Empty(t, persistedNotes(t, mem))
	assert.Equal(t, 0, persistedFolders(t, mem)[0].NoteCount)
}

func TestAddNoteWithoutFolderCreatesDefault(t *testing.T) {
	ctx := context.Background()
	folders, notes := stores(t, kv.NewMemory())

	n := notes.Add(ctx, "Quick thought", "", "")

	list := folders.List()
	require.Len(t, list, 1)
	assert.Equal(t, DefaultFolderName, list[0].Name)
	assert.Equal(t, list[0].ID, n.FolderID)
	assert.Equal(t, 1, list[0].NoteCount)
	assert.Equal(t, "Quick thought", n.Title)
	assert.Empty(t, n.Content)

	second := notes.Add(ctx, "Another", "body", "")
	list = folders.List()
	require.Len(t, list, 1)
	assert.Equal(t, list[0].ID, second.FolderID)
	assert.Equal(t, 2, list[0].NoteCount)
}

func TestAddNoteReusesExistingDefaultFolder(t *testing.T) {
	ctx := context.Background()
	folders, notes := stores(t, kv.NewMemory())
	existing := folders.Add(ctx, DefaultFolderName)

	n := notes.Add(ctx, "t", "c", "")

	assert.Equal(t, existing.ID, n.FolderID)
	assert.Len(t, folders.List(), 1)
}

func TestConcurrentAddsCreateOneDefaultFolder(t *testing.T) {
	ctx := context.Background()
	folders, notes := stores(t, kv.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notes.Add(ctx, "note", "", "")
		}()
	}
	wg.Wait()

	list := folders.List()
	require.Len(t, list, 1)
	assert.Equal(t, 16, list[0].NoteCount)
	for _, n := range notes.List() {
		assert.Equal(t, list[0].ID, n.FolderID)
	}
}

// invisibleFolders never shows the folders it creates, as happens when a
// concurrent writer replaces the collection.
type invisibleFolders struct {
	added []string
}

func (f *invisibleFolders) Add(_ context.Context, name string) domain.Folder {
	f.added = append(f.added, name)
	return domain.Folder{ID: "ignored", Name: name}
}

func (f *invisibleFolders) FindByName(string) (domain.Folder, bool) { return domain.Folder{}, false }

func (f *invisibleFolders) AdjustNoteCount(context.Context, string, int) bool { return false }

func (f *invisibleFolders) OnDelete(FolderDeleteHook) {}

func TestAddNoteFallsBackWhenDefaultFolderInvisible(t *testing.T) {
	folders := &invisibleFolders{}
	notes := NewNoteStore(newItems(kv.NewMemory()), folders, zerolog.Nop())

	n := notes.Add(context.Background(), "t", "", "")

	assert.Equal(t, FallbackFolderID, n.FolderID)
	assert.Equal(t, []string{DefaultFolderName}, folders.added)
}

func TestAddNoteTitleFallbackAndTrim(t *testing.T) {
	ctx := context.Background()
	_, notes := stores(t, kv.NewMemory())

	n := notes.Add(ctx, "   ", "  body  ", "f")
	assert.Equal(t, UntitledNote, n.Title)
	assert.Equal(t, "body", n.Content)

	n = notes.Add(ctx, "  Title ", "", "f")
	assert.Equal(t, "Title", n.Title)
}

func TestAddNotePrepends(t *testing.T) {
	ctx := context.Background()
	_, notes := stores(t, kv.NewMemory())

	first := notes.Add(ctx, "first", "", "f")
	second := notes.Add(ctx, "second", "", "f")

	list := notes.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAddNoteToUnknownFolderLeavesCountersAlone(t *testing.T) {
	ctx := context.Background()
	folders, notes := stores(t, kv.NewMemory())
	work := folders.Add(ctx, "Work")

	n := notes.Add(ctx, "t", "", "ghost")

	assert.Equal(t, "ghost", n.FolderID)
	got, _ := folders.Get(work.ID)
	assert.Equal(t, 0, got.NoteCount)
}

func TestUpdateNote(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	items := newItems(mem)
	folders := NewFolderStore(items, zerolog.Nop())
	current := fixedClock()
	notes := NewNoteStore(items, folders, zerolog.Nop(), WithNoteClock(func() time.Time { return current }))

	n := notes.Add(ctx, "Plan", "draft", "f")
	current = current.Add(time.Hour)

	updated, err := notes.Update(ctx, n.ID, " Final ", " done ")
	require.NoError(t, err)
	assert.Equal(t, n.ID, updated.ID)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "done", updated.Content)
	assert.Equal(t, "f", updated.FolderID)
	assert.Equal(t, current, updated.UpdatedAt)
	assert.Equal(t, notes.List(), persistedNotes(t, mem))
}

func TestUpdateAndDeleteMissingNote(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	_, notes := stores(t, mem)
	notes.Add(ctx, "keep", "", "f")
	before := notes.List()

	_, err := notes.Update(ctx, "missing", "x", "y")
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, before, notes.List())

	err = notes.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, before, notes.List())
	assert.Equal(t, before, persistedNotes(t, mem))
}

func TestDeleteNoteCountFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	folders, notes := stores(t, kv.NewMemory())
	work := folders.Add(ctx, "Work")
	n := notes.Add(ctx, "t", "", work.ID)
	folders.AdjustNoteCount(ctx, work.ID, -1)

	require.NoError(t, notes.Delete(ctx, n.ID))

	got, _ := folders.Get(work.ID)
	assert.Equal(t, 0, got.NoteCount)
}

func TestNoteSaveFailureSetsError(t *testing.T) {
	backend := newFlakyStore()
	ctx := context.Background()
	_, notes := stores(t, backend)

	backend.failSet.Store(true)
	n := notes.Add(ctx, "offline", "", "f")

	assert.Equal(t, saveNotesFailed, notes.Err())
	_, ok := notes.Get(n.ID)
	assert.True(t, ok)
	assert.Empty(t, persistedNotes(t, backend))
}

func TestNoteSaveErrorClearsAfterRecovery(t *testing.T) {
	backend := newFlakyStore()
	ctx := context.Background()
	_, notes := stores(t, backend)

	backend.failSet.Store(true)
	notes.Add(ctx, "offline", "", "f")
	require.Equal(t, saveNotesFailed, notes.Err())

	backend.failSet.Store(false)
	notes.Add(ctx, "back online", "", "f")

	assert.Empty(t, notes.Err())
	assert.Len(t, persistedNotes(t, backend), 2)
}

func TestNoteLoadErrorSurvivesSave(t *testing.T) {
	backend := newFlakyStore()
	ctx := context.Background()
	backend.failGet.Store(true)
	_, notes := stores(t, backend)
	require.Equal(t, loadNotesFailed, notes.Err())

	backend.failGet.Store(false)
	notes.Add(ctx, "after", "", "f")

	assert.Equal(t, loadNotesFailed, notes.Err())
}

func TestOrphanPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("leave", func(t *testing.T) {
		folders, notes := stores(t, kv.NewMemory())
		work := folders.Add(ctx, "Work")
		n := notes.Add(ctx, "t", "", work.ID)

		folders.Delete(ctx, work.ID)

		got, ok := notes.Get(n.ID)
		require.True(t, ok)
		assert.Equal(t, work.ID, got.FolderID)
	})

	t.Run("cascade", func(t *testing.T) {
		mem := kv.NewMemory()
		folders, notes := stores(t, mem, WithOrphanPolicy(OrphanCascade))
		work := folders.Add(ctx, "Work")
		home := folders.Add(ctx, "Home")
		notes.Add(ctx, "a", "", work.ID)
		notes.Add(ctx, "b", "", work.ID)
		kept := notes.Add(ctx, "c", "", home.ID)

		folders.Delete(ctx, work.ID)

		assert.Equal(t, []domain.Note{kept}, notes.List())
		assert.Equal(t, notes.List(), persistedNotes(t, mem))
	})

	t.Run("reassign", func(t *testing.T) {
		mem := kv.NewMemory()
		folders, notes := stores(t, mem, WithOrphanPolicy(OrphanReassign))
		work := folders.Add(ctx, "Work")
		notes.Add(ctx, "a", "", work.ID)
		notes.Add(ctx, "b", "", work.ID)

		folders.Delete(ctx, work.ID)

		def, ok := folders.FindByName(DefaultFolderName)
		require.True(t, ok)
		assert.Equal(t, 2, def.NoteCount)
		for _, n := range notes.List() {
			assert.Equal(t, def.ID, n.FolderID)
		}
		assert.Equal(t, notes.List(), persistedNotes(t, mem))
		assert.Equal(t, folders.List(), persistedFolders(t, mem))
	})
}

func TestParseOptions(t *testing.T) {
	p, err := ParseOrphanPolicy("Cascade")
	require.NoError(t, err)
	assert.Equal(t, OrphanCascade, p)

	p, err = ParseOrphanPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OrphanLeave, p)

	_, err = ParseOrphanPolicy("shred")
	assert.Error(t, err)

	pos, err := ParseInsertPosition("prepend")
	require.NoError(t, err)
	assert.Equal(t, InsertPrepend, pos)

	_, err = ParseInsertPosition("middle")
	assert.Error(t, err)
}
