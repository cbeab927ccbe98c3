package charstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

const (
	fileExt = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

var _ Store = &FileStore{}

// FileStore keeps one <key>.json document per character in a single directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("character store dir is empty")
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create character dir %s: %w", dir, err)
	}

	return &FileStore{
		dir: dir,
	}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Save(ctx context.Context, c *character.Character) (key string, err error) {
	defer func() { observe(BackendFile, "save", err) }()

	if err = c.Validate(); err != nil {
		return "", err
	}

	key, err = Key(c.Name)
	if err != nil {
		return "", err
	}

	data, err := c.ToJSON()
	if err != nil {
		return "", apperr.Wrap(apperr.CodeStoreWrite, err, "failed to encode character")
	}

	if err = os.MkdirAll(s.dir, dirPerm); err != nil {
		return "", apperr.Wrap(apperr.CodeStoreWrite, err, "failed to create character dir")
	}

	if err = writeFileAtomic(s.dir, s.path(key), data); err != nil {
		return "", apperr.Wrap(apperr.CodeStoreWrite, err, "failed to write character")
	}

	return key, nil
}

// writeFileAtomic writes a hidden sibling temp file and renames it over target.
func writeFileAtomic(dir, target string, data []byte) error {
	tmpPath := filepath.Join(dir, "."+filepath.Base(target)+".tmp-"+uuid.NewString())

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	committed = true

	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (c *character.Character, err error) {
	defer func() { observe(BackendFile, "load", err) }()

	key, err := Key(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Wrap(apperr.CodeNotFound, err, fmt.Sprintf("Character '%s' not found.", name))
		}

		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to read character")
	}

	c, err = character.FromJSON(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to decode character")
	}

	return c, nil
}

func (s *FileStore) List(ctx context.Context) (names []string, err error) {
	defer func() { observe(BackendFile, "list", err) }()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}

		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to read character dir")
	}

	names = make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}

		names = append(names, strings.TrimSuffix(name, fileExt))
	}

	slices.Sort(names)

	return names, nil
}
