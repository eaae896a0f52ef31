// filesystem/export.go
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinizap/studydock/domain"
	"gopkg.in/yaml.v3"
)

// UnfiledDir holds exported notes whose folder no longer exists.
const UnfiledDir = "_unfiled"

// FolderFile records the folder a directory was exported from, since the
// directory name may be sanitised or suffixed with the folder id.
const FolderFile = ".folder.yaml"

type Summary struct {
	Folders int
	Notes   int
}

// Export writes every note to <root>/<folder name>/<note id>.md. Folders
// without notes still get a directory.
func Export(root string, folders []domain.Folder, notes []domain.Note) (Summary, error) {
	var sum Summary
	dirs := make(map[string]string, len(folders))
	used := make(map[string]bool, len(folders))
	for _, f := range folders {
		name := folderDirName(f)
		if used[name] {
			name += "-" + f.ID
		}
		used[name] = true
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return sum, fmt.Errorf("create folder %s: %w", f.Name, err)
		}
		if err := writeFolder(filepath.Join(dir, FolderFile), f); err != nil {
			return sum, fmt.Errorf("write folder %s: %w", f.Name, err)
		}
		dirs[f.ID] = dir
		sum.Folders++
	}

	for _, n := range notes {
		dir, ok := dirs[n.FolderID]
		if !ok {
			dir = filepath.Join(root, UnfiledDir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return sum, fmt.Errorf("create %s: %w", UnfiledDir, err)
			}
		}
		if err := WriteNote(filepath.Join(dir, n.ID+".md"), n); err != nil {
			return sum, fmt.Errorf("write note %s: %w", n.ID, err)
		}
		sum.Notes++
	}

	return sum, nil
}

// folderDirName turns a folder name into a single safe path element.
func folderDirName(f domain.Folder) string {
	name := strings.TrimSpace(f.Name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '-'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == UnfiledDir {
		return f.ID
	}
	return name
}

// ReadTree reads an exported tree back, keyed by folder name. The name
// comes from the directory's FolderFile, or the directory name when there
// is none. Notes under UnfiledDir are keyed by "".
func ReadTree(root string) (map[string][]*domain.Note, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	tree := make(map[string][]*domain.Note)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		notes, err := ListNotes(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read folder %s: %w", entry.Name(), err)
		}
		name := entry.Name()
		if name == UnfiledDir {
			name = ""
		} else if f, err := readFolder(filepath.Join(root, name, FolderFile)); err == nil && f.Name != "" {
			name = f.Name
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read folder %s: %w", entry.Name(), err)
		}
		tree[name] = append(tree[name], notes...)
	}
	return tree, nil
}

func writeFolder(path string, f domain.Folder) error {
	data, err := yaml.Marshal(domain.Folder{ID: f.ID, Name: f.Name, UpdatedAt: f.UpdatedAt})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readFolder(path string) (domain.Folder, error) {
	var f domain.Folder
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}
