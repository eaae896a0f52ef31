package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vinizap/studydock/domain"
	"github.com/vinizap/studydock/kv"
	"golang.org/x/sync/singleflight"
)

var ErrNoteNotFound = errors.New("note not found")

const (
	loadNotesFailed = "Could not load notes. Please try again."
	saveNotesFailed = "Could not save notes. Changes may not be saved offline."
)

// Folders is what the note store needs from the folder store.
type Folders interface {
	Add(ctx context.Context, name string) domain.Folder
	FindByName(name string) (domain.Folder, bool)
	AdjustNoteCount(ctx context.Context, folderID string, delta int) bool
	OnDelete(hook FolderDeleteHook)
}

type NoteOption func(*NoteStore)

func WithOrphanPolicy(p OrphanPolicy) NoteOption {
	return func(s *NoteStore) { s.orphans = p }
}

func WithNoteClock(clock func() time.Time) NoteOption {
	return func(s *NoteStore) { s.now = clock }
}

// NoteStore owns the note collection. Folder counters are kept in step
// through Folders.AdjustNoteCount.
type NoteStore struct {
	items   *kv.Items
	folders Folders
	log     zerolog.Logger
	orphans OrphanPolicy
	now     func() time.Time

	// defaultFolder collapses concurrent creations of the default folder.
	defaultFolder singleflight.Group

	mu          sync.RWMutex
	notes       []domain.Note
	loading     bool
	errMsg      string
	initialized bool

	saveMu sync.Mutex
}

func NewNoteStore(items *kv.Items, folders Folders, log zerolog.Logger, opts ...NoteOption) *NoteStore {
	s := &NoteStore{
		items:   items,
		folders: folders,
		log:     log.With().Str("store", "notes").Logger(),
		orphans: OrphanLeave,
		now:     now,
		notes:   []domain.Note{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.orphans != OrphanLeave {
		folders.OnDelete(s.folderDeleted)
	}
	return s
}

// Load reads the collection from storage on the first call only.
func (s *NoteStore) Load(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.loading = true
	s.mu.Unlock()

	s.log.Debug().Msg("loading notes")
	var stored []domain.Note
	found, err := s.items.Load(ctx, NotesKey, &stored)
	switch {
	case err != nil:
		s.log.Error().Err(err).Msg("failed to load notes")
		s.mu.Lock()
		s.notes = []domain.Note{}
		s.errMsg = loadNotesFailed
		s.mu.Unlock()
	case !found || stored == nil:
		s.mu.Lock()
		s.notes = []domain.Note{}
		s.errMsg = ""
		s.mu.Unlock()
		s.save(ctx)
		s.log.Debug().Msg("initialized empty notes collection")
	default:
		s.mu.Lock()
		s.notes = stored
		s.errMsg = ""
		s.mu.Unlock()
		s.log.Debug().Int("count", len(stored)).Msg("loaded notes")
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *NoteStore) save(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.List()
	if err := s.items.Save(ctx, NotesKey, snapshot); err != nil {
		s.log.Error().Err(err).Msg("failed to save notes")
		s.mu.Lock()
		s.errMsg = saveNotesFailed
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	if s.errMsg == saveNotesFailed {
		s.errMsg = ""
	}
	s.mu.Unlock()
	s.log.Debug().Int("count", len(snapshot)).Msg("saved notes")
}

// Loading is true while Load is reading storage.
func (s *NoteStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the user-facing persistence error, or "". A save error
// clears once a later save succeeds; a load error stays.
func (s *NoteStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Add creates a note at the front of the collection. An empty folderID
// puts it in the default folder, creating that folder if needed.
func (s *NoteStore) Add(ctx context.Context, title, content, folderID string) domain.Note {
	if folderID == "" {
		folderID = s.defaultFolderID(ctx)
	}

	n := domain.Note{
		ID:        newID(),
		Title:     normalizeTitle(title),
		Content:   strings.TrimSpace(content),
		FolderID:  folderID,
		UpdatedAt: s.now(),
	}

	s.mu.Lock()
	s.notes = slices.Insert(s.notes, 0, n)
	s.mu.Unlock()

	s.save(ctx)
	s.folders.AdjustNoteCount(ctx, folderID, 1)
	s.log.Info().Str("id", n.ID).Str("title", n.Title).Str("folder", folderID).Msg("added note")
	return n
}

func (s *NoteStore) defaultFolderID(ctx context.Context) string {
	if f, ok := s.folders.FindByName(DefaultFolderName); ok {
		return f.ID
	}
	id, _, _ := s.defaultFolder.Do(DefaultFolderName, func() (any, error) {
		if f, ok := s.folders.FindByName(DefaultFolderName); ok {
			return f.ID, nil
		}
		s.folders.Add(ctx, DefaultFolderName)
		if f, ok := s.folders.FindByName(DefaultFolderName); ok {
			return f.ID, nil
		}
		s.log.Warn().Msg("default folder not visible after creation")
		return FallbackFolderID, nil
	})
	return id.(string)
}

// Update rewrites a note's title and content in place.
func (s *NoteStore) Update(ctx context.Context, id, title, content string) (domain.Note, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	s.notes[i].Title = normalizeTitle(title)
	s.notes[i].Content = strings.TrimSpace(content)
	s.notes[i].UpdatedAt = s.now()
	updated := s.notes[i]
	s.mu.Unlock()

	s.save(ctx)
	s.log.Info().Str("id", id).Str("title", updated.Title).Msg("updated note")
	return updated, nil
}

// Delete removes a note and decrements its folder's counter.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	n := s.notes[i]
	s.notes = slices.Delete(s.notes, i, i+1)
	s.mu.Unlock()

	s.save(ctx)
	s.folders.AdjustNoteCount(ctx, n.FolderID, -1)
	s.log.Info().Str("id", id).Str("title", n.Title).Msg("deleted note")
	return nil
}

func (s *NoteStore) folderDeleted(ctx context.Context, folderID string) {
	switch s.orphans {
	case OrphanCascade:
		s.mu.Lock()
		before := len(s.notes)
		s.notes = slices.DeleteFunc(s.notes, func(n domain.Note) bool { return n.FolderID == folderID })
		removed := before - len(s.notes)
		s.mu.Unlock()
		if removed > 0 {
			s.save(ctx)
			s.log.Info().Str("folder", folderID).Int("count", removed).Msg("deleted orphaned notes")
		}

	case OrphanReassign:
		if len(s.ByFolder(folderID)) == 0 {
			return
		}
		target := s.defaultFolderID(ctx)
		moved := 0
		s.mu.Lock()
		for i := range s.notes {
			if s.notes[i].FolderID == folderID {
				s.notes[i].FolderID = target
				moved++
			}
		}
		s.mu.Unlock()
		if moved > 0 {
			s.save(ctx)
			s.folders.AdjustNoteCount(ctx, target, moved)
			s.log.Info().Str("folder", folderID).Str("target", target).Int("count", moved).Msg("reassigned orphaned notes")
		}
	}
}

// indexOf must be called with mu held.
func (s *NoteStore) indexOf(id string) int {
	return slices.IndexFunc(s.notes, func(n domain.Note) bool { return n.ID == id })
}

// List returns a copy of the collection, newest first.
func (s *NoteStore) List() []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

func (s *NoteStore) Get(id string) (domain.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Note{}, false
	}
	return s.notes[i], true
}

// ByFolder returns the notes that reference folderID.
func (s *NoteStore) ByFolder(folderID string) []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notes := []domain.Note{}
	for _, n := range s.notes {
		if n.FolderID == folderID {
			notes = append(notes, n)
		}
	}
	return notes
}

func normalizeTitle(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return UntitledNote
}
