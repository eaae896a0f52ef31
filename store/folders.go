// Package store holds the folder and note collections in memory and
// mirrors every change to a kv store. The in-memory state is
// authoritative: a failed save is logged and the next successful save
// catches storage up.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vinizap/studydock/domain"
	"github.com/vinizap/studydock/kv"
)

// FolderDeleteHook runs after a folder has been removed and persisted.
type FolderDeleteHook func(ctx context.Context, folderID string)

type FolderOption func(*FolderStore)

// WithInsertPosition sets where Add places new folders.
func WithInsertPosition(p InsertPosition) FolderOption {
	return func(s *FolderStore) { s.insert = p }
}

// WithSeedFolders names folders created when storage holds no usable
// folder collection.
func WithSeedFolders(names ...string) FolderOption {
	return func(s *FolderStore) { s.seed = slices.Clone(names) }
}

func WithFolderClock(clock func() time.Time) FolderOption {
	return func(s *FolderStore) { s.now = clock }
}

// FolderStore owns the folder collection and the selected-folder pointer.
type FolderStore struct {
	items  *kv.Items
	log    zerolog.Logger
	insert InsertPosition
	seed   []string
	now    func() time.Time

	mu          sync.RWMutex
	folders     []domain.Folder
	selected    string
	loaded      bool
	initialized bool
	hooks       []FolderDeleteHook

	// saveMu orders writes so storage always ends on the newest snapshot.
	saveMu sync.Mutex
}

func NewFolderStore(items *kv.Items, log zerolog.Logger, opts ...FolderOption) *FolderStore {
	s := &FolderStore{
		items:   items,
		log:     log.With().Str("store", "folders").Logger(),
		now:     now,
		folders: []domain.Folder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the collection from storage. Only the first call does any
// work; use Reload to force a re-read.
func (s *FolderStore) Load(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	s.load(ctx)
}

func (s *FolderStore) Reload(ctx context.Context) {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.load(ctx)
}

func (s *FolderStore) load(ctx context.Context) {
	var stored []domain.Folder
	found, err := s.items.Load(ctx, FoldersKey, &stored)
	if err != nil {
		s.log.Error().Err(err).Msg("Could not load folders. Please reload the app.")
	}
	if err != nil || !found {
		fallback := s.seedFolders()
		s.mu.Lock()
		s.folders = fallback
		s.loaded = true
		s.mu.Unlock()
		s.save(ctx)
		return
	}

	if stored == nil {
		stored = []domain.Folder{}
	}
	s.mu.Lock()
	s.folders = stored
	s.loaded = true
	s.mu.Unlock()
	s.log.Debug().Int("count", len(stored)).Msg("loaded folders")
}

func (s *FolderStore) seedFolders() []domain.Folder {
	folders := make([]domain.Folder, 0, len(s.seed))
	for _, name := range s.seed {
		folders = append(folders, domain.Folder{ID: newID(), Name: name, UpdatedAt: s.now()})
	}
	return folders
}

func (s *FolderStore) save(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.List()
	if err := s.items.Save(ctx, FoldersKey, snapshot); err != nil {
		s.log.Error().Err(err).Msg("Could not save folders. Try again later.")
	}
}

// Loaded reports whether a Load has completed, successfully or not.
func (s *FolderStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Add creates a folder and returns once it has been persisted.
func (s *FolderStore) Add(ctx context.Context, name string) domain.Folder {
	f := domain.Folder{
		ID:        newID(),
		Name:      name,
		UpdatedAt: s.now(),
	}

	s.mu.Lock()
	if s.insert == InsertPrepend {
		s.folders = slices.Insert(s.folders, 0, f)
	} else {
		s.folders = append(s.folders, f)
	}
	s.mu.Unlock()

	s.save(ctx)
	s.log.Info().Str("id", f.ID).Str("name", name).Msg("added folder")
	return f
}

// Select points the selection at id; an empty id clears it. The id is not
// checked against the collection.
func (s *FolderStore) Select(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

func (s *FolderStore) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// Delete removes the folder with the given id and reports whether one was
// removed. Notes are left alone here; registered hooks apply the orphan
// policy.
func (s *FolderStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	before := len(s.folders)
	s.folders = slices.DeleteFunc(s.folders, func(f domain.Folder) bool { return f.ID == id })
	removed := len(s.folders) != before
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	s.save(ctx)
	if !removed {
		return false
	}
	s.log.Info().Str("id", id).Msg("deleted folder")
	for _, hook := range hooks {
		hook(ctx, id)
	}
	return true
}

// AdjustNoteCount adds delta to the folder's note counter, never going
// below zero, and persists. It reports false if no such folder is held.
func (s *FolderStore) AdjustNoteCount(ctx context.Context, folderID string, delta int) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.folders, func(f domain.Folder) bool { return f.ID == folderID })
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.folders[i].NoteCount = max(s.folders[i].NoteCount+delta, 0)
	s.mu.Unlock()

	s.save(ctx)
	return true
}

// OnDelete registers a hook run after every successful Delete.
func (s *FolderStore) OnDelete(hook FolderDeleteHook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, hook)
	s.mu.Unlock()
}

// List returns a copy of the collection in display order.
func (s *FolderStore) List() []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

func (s *FolderStore) Get(id string) (domain.Folder, bool) {
	return s.find(func(f domain.Folder) bool { return f.ID == id })
}

// FindByName returns the first folder with exactly the given name.
func (s *FolderStore) FindByName(name string) (domain.Folder, bool) {
	return s.find(func(f domain.Folder) bool { return f.Name == name })
}

func (s *FolderStore) find(match func(domain.Folder) bool) (domain.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.folders, match)
	if i < 0 {
		return domain.Folder{}, false
	}
	return s.folders[i], true
}
