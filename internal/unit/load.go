package unit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/txtar"
)

// MetadataFile is the unit-relative path of the metadata record.
const MetadataFile = "metadata.json"

// ErrNoUnit is returned when a directory holds neither an entry module nor
// a metadata record.
var ErrNoUnit = errors.New("no extension unit found")

var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"schemas":      true,
	"po":           true,
	"locale":       true,
}

// LoadDir reads one unit rooted at dir.
func LoadDir(dir string) (Input, error) {
	in := Input{Name: filepath.Base(dir), Files: make(map[string][]byte)}

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel != MetadataFile && !strings.HasSuffix(rel, ".js") {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return in.add(rel, data)
	})
	if err != nil {
		return Input{}, fmt.Errorf("load %s: %w", dir, err)
	}
	if len(in.Files) == 0 && !in.HasMetadata {
		return Input{}, fmt.Errorf("load %s: %w", dir, ErrNoUnit)
	}
	if in.HasMetadata && in.Metadata.UUID != "" {
		in.Name = in.Metadata.UUID
	}
	return in, nil
}

// LoadArchive reads one unit from a txtar archive. Member names are
// unit-relative paths.
func LoadArchive(name string, data []byte) (Input, error) {
	ar := txtar.Parse(data)
	in := Input{Name: name, Files: make(map[string][]byte)}
	for _, f := range ar.Files {
		rel := strings.TrimPrefix(f.Name, "./")
		if rel != MetadataFile && !strings.HasSuffix(rel, ".js") {
			continue
		}
		if err := in.add(rel, f.Data); err != nil {
			return Input{}, fmt.Errorf("load %s: %w", name, err)
		}
	}
	if len(in.Files) == 0 && !in.HasMetadata {
		return Input{}, fmt.Errorf("load %s: %w", name, ErrNoUnit)
	}
	return in, nil
}

func (in *Input) add(rel string, data []byte) error {
	if rel == MetadataFile {
		md, err := ParseMetadata(data)
		if err != nil {
			return err
		}
		in.Metadata = md
		in.HasMetadata = true
		return nil
	}
	in.Files[rel] = data
	return nil
}

// Discover expands root into unit directories. A directory holding an
// entry module or metadata record is a unit; otherwise each immediate
// subdirectory that is one becomes a unit.
func Discover(root string) ([]string, error) {
	if isUnitDir(root) {
		return []string{root}, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(root, e.Name())
		if isUnitDir(p) {
			dirs = append(dirs, p)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("discover %s: %w", root, ErrNoUnit)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func isUnitDir(dir string) bool {
	for _, name := range []string{EntryFile, MetadataFile, PrefsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
