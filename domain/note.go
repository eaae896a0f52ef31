// domain/note.go
package domain

import "time"

type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"-"`
	FolderID  string    `json:"folderId" yaml:"folder_id"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Folder.NoteCount is maintained incrementally by the note store and is
// never recomputed from the note collection.
type Folder struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	NoteCount int       `json:"noteCount" yaml:"note_count"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}
