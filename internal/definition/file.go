package definition

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-holograms/internal/hologram"
)

// fileNamePattern matches the definition files a FileStore reads.
var fileNamePattern = regexp.MustCompile(`^[\w-]+\.ya?ml$`)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

var (
	_ hologram.DefinitionStore  = (*FileStore)(nil)
	_ hologram.DefinitionWriter = (*FileStore)(nil)
)

// FileStore reads and writes YAML definitions in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store over dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating definitions directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the definitions directory.
func (s *FileStore) Dir() string { return s.dir }

// ListSources returns the definition file names, sorted.
func (s *FileStore) ListSources(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading definitions directory: %w", err)
	}

	var sources []string
	for _, e := range entries {
		if e.Type().IsRegular() && fileNamePattern.MatchString(e.Name()) {
			sources = append(sources, e.Name())
		}
	}
	sort.Strings(sources)
	return sources, nil
}

// Load parses one definition file. A definition without a name takes the
// file name (without extension).
func (s *FileStore) Load(_ context.Context, source string) (hologram.Definition, error) {
	if !fileNamePattern.MatchString(source) {
		return hologram.Definition{}, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, source))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return hologram.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, source)
		}
		return hologram.Definition{}, fmt.Errorf("reading %s: %w", source, err)
	}

	var def hologram.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return hologram.Definition{}, fmt.Errorf("parsing %s: %w", source, err)
	}
	if def.Name == "" {
		def.Name = trimExt(source)
	}
	return def, nil
}

// Save writes the definition to <name>.yml, replacing any existing file.
func (s *FileStore) Save(_ context.Context, def hologram.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding definition: %w", err)
	}

	// Write to a temp file and rename so readers never see half a document.
	target := s.path(def.Name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("writing definition: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("replacing definition: %w", err)
	}
	return nil
}

// Delete removes <name>.yml (or <name>.yaml).
func (s *FileStore) Delete(_ context.Context, name string) error {
	if !fileNamePattern.MatchString(name + ".yml") {
		return fmt.Errorf("%w: %q", ErrInvalidSource, name)
	}
	for _, p := range []string{s.path(name), filepath.Join(s.dir, name+".yaml")} {
		err := os.Remove(p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("deleting definition: %w", err)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".yml")
}

func trimExt(source string) string {
	return source[:len(source)-len(filepath.Ext(source))]
}
