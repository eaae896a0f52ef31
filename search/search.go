// Package search filters notes and folders by a case-insensitive
// substring and debounces the query that drives the filter.
package search

import (
	"strings"

	"github.com/vinizap/studydock/domain"
)

// FilterNotes returns the notes whose title or content contains query,
// ignoring case. An empty query matches nothing.
func FilterNotes(notes []domain.Note, query string) []domain.Note {
	out := []domain.Note{}
	if query == "" {
		return out
	}
	term := strings.ToLower(query)
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Content), term) {
			out = append(out, n)
		}
	}
	return out
}

// FilterFolders returns the folders whose name contains query, ignoring
// case. An empty query matches nothing.
func FilterFolders(folders []domain.Folder, query string) []domain.Folder {
	out := []domain.Folder{}
	if query == "" {
		return out
	}
	term := strings.ToLower(query)
	for _, f := range folders {
		if strings.Contains(strings.ToLower(f.Name), term) {
			out = append(out, f)
		}
	}
	return out
}

type Results struct {
	Notes      []domain.Note   `json:"notes"`
	Folders    []domain.Folder `json:"folders"`
	HasResults bool            `json:"hasResults"`
}

func Run(notes []domain.Note, folders []domain.Folder, query string) Results {
	r := Results{
		Notes:   FilterNotes(notes, query),
		Folders: FilterFolders(folders, query),
	}
	r.HasResults = len(r.Notes) > 0 || len(r.Folders) > 0
	return r
}
