package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	FoldersKey = "folders"
	NotesKey   = "studydock-notes"

	// DefaultFolderName names the folder notes land in when added without
	// an explicit folder.
	DefaultFolderName = "Notes"

	// FallbackFolderID is assigned when the default folder could not be
	// observed after creating it. It need not match any folder.
	FallbackFolderID = "default"

	UntitledNote = "Untitled Note"
)

// InsertPosition controls where FolderStore.Add places a new folder.
type InsertPosition int

const (
	InsertAppend InsertPosition = iota
	InsertPrepend
)

func ParseInsertPosition(s string) (InsertPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return InsertAppend, nil
	case "prepend":
		return InsertPrepend, nil
	default:
		return InsertAppend, fmt.Errorf("unknown insert position %q", s)
	}
}

// OrphanPolicy decides what happens to notes whose folder is deleted.
type OrphanPolicy string

const (
	// OrphanLeave keeps the notes with a dangling folder reference.
	OrphanLeave OrphanPolicy = "leave"
	// OrphanCascade deletes the notes together with their folder.
	OrphanCascade OrphanPolicy = "cascade"
	// OrphanReassign moves the notes into the default folder.
	OrphanReassign OrphanPolicy = "reassign"
)

func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch p := OrphanPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return OrphanLeave, nil
	case OrphanLeave, OrphanCascade, OrphanReassign:
		return p, nil
	default:
		return OrphanLeave, fmt.Errorf("unknown orphan policy %q", s)
	}
}

// newID returns a time-ordered UUID, falling back to a random one if the
// v7 generator fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// now is the default clock. Millisecond UTC timestamps survive every codec
// unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
