package charstore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend    string `yaml:"backend" env:"STORE_BACKEND"`
	Dir        string `yaml:"dir" env:"CHARACTER_DIR"`
	SQLitePath string `yaml:"sqlite_path" env:"STORE_SQLITE_PATH"`
}

// Store persists character records keyed by Key(name). Save fully overwrites.
type Store interface {
	Save(ctx context.Context, c *character.Character) (string, error)
	Load(ctx context.Context, name string) (*character.Character, error)
	List(ctx context.Context) ([]string, error)
}

func Open(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

var lower = cases.Lower(language.Und)

// Key lower-cases name and reduces it to a bare file name component, so "../../etc/passwd" becomes "passwd".
func Key(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", apperr.New(apperr.CodeValidation, "character name contains a NUL byte")
	}

	key := lower.String(name)
	key = strings.ReplaceAll(key, `\`, "/")
	key = path.Base(key)

	switch key {
	case "", ".", "..", "/":
		return "", apperr.New(apperr.CodeValidation, fmt.Sprintf("invalid character name %q", name))
	}

	return key, nil
}
