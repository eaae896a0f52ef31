package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/vinizap/studydock/domain"
	"github.com/vinizap/studydock/kv"
)

var errInjected = errors.New("injected failure")

// flakyStore is a memory store whose reads and writes can be made to fail.
type flakyStore struct {
	*kv.Memory
	failGet atomic.Bool
	failSet atomic.Bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Memory: kv.NewMemory()}
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet.Load() {
		return nil, errInjected
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet.Load() {
		return errInjected
	}
	return f.Memory.Set(ctx, key, value)
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
}

func newItems(s kv.Store) *kv.Items {
	return kv.NewItems(s, kv.JSONCodec{}, zerolog.Nop(), nil)
}

func persisted[T any](t *testing.T, s kv.Store, key string) []T {
	t.Helper()
	data, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	var out []T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func persistedFolders(t *testing.T, s kv.Store) []domain.Folder {
	return persisted[domain.Folder](t, s, FoldersKey)
}

func persistedNotes(t *testing.T, s kv.Store) []domain.Note {
	return persisted[domain.Note](t, s, NotesKey)
}

// stores wires a loaded folder store and note store over one backend.
func stores(t *testing.T, backend kv.Store, noteOpts ...NoteOption) (*FolderStore, *NoteStore) {
	t.Helper()
	items := newItems(backend)
	folders := NewFolderStore(items, zerolog.Nop(), WithFolderClock(fixedClock))
	notes := NewNoteStore(items, folders, zerolog.Nop(), append([]NoteOption{WithNoteClock(fixedClock)}, noteOpts...)...)
	ctx := context.Background()
	folders.Load(ctx)
	notes.Load(ctx)
	return folders, notes
}
