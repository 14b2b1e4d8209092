package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/harvest/internal/crop"
)

// Marshal renders a catalog as a pretty-printed JSON document.
func Marshal(c *crop.Catalog) ([]byte, error) {
	data, err := json.MarshalIndent(FromCatalog(c), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the catalog to path, creating parent directories.
func Save(path string, c *crop.Catalog) error {
	data, err := Marshal(c)
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &PersistError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

// Source says where a catalog came from.
type Source string

const (
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// Report describes what LoadOrDefault did.
type Report struct {
	Path   string
	Source Source

	// LoadErr is the failure that triggered the fallback, if any.
	LoadErr error

	// BackupPath is set when an invalid document was moved aside.
	BackupPath string

	// PersistErr is set when the default could not be written back.
	PersistErr error
}

// LoadOrDefault never fails: a document that cannot be loaded is replaced
// by crop.Default().
//
// A missing document gets the default written to path. A document that
// exists but does not parse or validate is renamed aside (path+".bak", or
// the next free ".bak.N") and the default is written in its place. A
// document that cannot be read at all is left untouched and nothing is
// written.
func LoadOrDefault(path string, logger *slog.Logger) (*crop.Catalog, Report) {
	if logger == nil {
		logger = slog.Default()
	}
	report := Report{Path: path, Source: SourceFile}

	c, err := Load(path)
	if err == nil {
		logger.Debug("config loaded", "path", path, "crops", c.Len(), "hash", c.Hash())
		return c, report
	}

	report.Source = SourceDefault
	report.LoadErr = err
	c = crop.Default()

	switch {
	case IsNotFound(err):
		logger.Info("config not found, writing defaults", "path", path)
	case IsReadError(err):
		logger.Warn("config unreadable, using defaults without touching it", "path", path, "error", err)
		return c, report
	default:
		logger.Warn("config invalid, using defaults", "path", path, "error", err)
		backup, berr := moveAside(path)
		if berr != nil {
			logger.Warn("failed to move invalid config aside", "path", path, "error", berr)
			return c, report
		}
		report.BackupPath = backup
	}

	if perr := Save(path, c); perr != nil {
		report.PersistErr = perr
		logger.Error("failed to write default config", "path", path, "error", perr)
	}
	return c, report
}

// moveAside renames the regular file at path to the first free backup name.
// Earlier backups are never overwritten.
func moveAside(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}

	backup := path + ".bak"
	for n := 1; ; n++ {
		if _, err := os.Lstat(backup); errors.Is(err, fs.ErrNotExist) {
			break
		} else if err != nil {
			return "", err
		}
		backup = fmt.Sprintf("%s.bak.%d", path, n)
	}

	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}
