// filesystem/parser.go
package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinizap/studydock/domain"
	"gopkg.in/yaml.v3"
)

var (
	frontmatterOpen  = []byte("---\n")
	frontmatterClose = []byte("\n---\n")
)

// ReadNote parses a markdown file with YAML frontmatter.
func ReadNote(path string) (*domain.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(data, frontmatterOpen) {
		return nil, errors.New("invalid frontmatter format")
	}
	rest := data[len(frontmatterOpen):]
	end := bytes.Index(rest, frontmatterClose)
	if end < 0 {
		return nil, errors.New("invalid frontmatter format")
	}

	note := &domain.Note{}
	if err := yaml.Unmarshal(rest[:end], note); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	note.Content = string(bytes.TrimSpace(rest[end+len(frontmatterClose):]))

	return note, nil
}

func WriteNote(path string, note domain.Note) error {
	var buf bytes.Buffer

	buf.Write(frontmatterOpen)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(note); err != nil {
		return fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.WriteString("---\n\n")
	buf.WriteString(note.Content)
	buf.WriteString("\n")

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ListNotes reads every markdown note directly inside dir, skipping files
// that do not parse.
func ListNotes(dir string) ([]*domain.Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var notes []*domain.Note
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		note, err := ReadNote(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		notes = append(notes, note)
	}

	return notes, nil
}
