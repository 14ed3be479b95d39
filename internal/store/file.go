package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/blackjackrl/internal/fileutil"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

const snapshotVersion = 1

// Format is the on-disk encoding of a FileStore.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

type snapshot struct {
	Version int   `json:"version" toml:"version"`
	Meta    Meta  `json:"meta" toml:"meta"`
	Rows    []Row `json:"rows" toml:"rows"`
}

// FileStore keeps the table as a single snapshot file, replaced atomically
// on every save.
type FileStore struct {
	path   string
	format Format
	now    func() time.Time

	// Meta is written alongside the rows on Save.
	Meta Meta
	// LoadedMeta holds the metadata of the last successful Load.
	LoadedMeta Meta
}

// NewFileStore returns a store at path. The format follows the extension:
// .toml selects TOML, anything else JSON.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}
	format := FormatJSON
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}
	return &FileStore{path: path, format: format, now: time.Now}, nil
}

// Path returns the snapshot location.
func (s *FileStore) Path() string { return s.path }

// Format returns the snapshot encoding.
func (s *FileStore) Format() Format { return s.format }

// Load reads the snapshot. A missing or zero-length file is an empty table.
func (s *FileStore) Load(ctx context.Context) (*qlearn.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return qlearn.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read table snapshot: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return qlearn.NewTable(), nil
	}

	var snap snapshot
	switch s.format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &snap); err != nil {
			return nil, fmt.Errorf("%w: decode toml: %v", ErrMalformed, err)
		}
	default:
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", ErrMalformed, err)
		}
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrMalformed, snap.Version)
	}

	t, err := FromRows(snap.Rows)
	if err != nil {
		return nil, err
	}
	s.LoadedMeta = snap.Meta
	return t, nil
}

// Save atomically replaces the snapshot with t.
func (s *FileStore) Save(ctx context.Context, t *qlearn.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := s.Meta
	meta.SavedAt = s.now().UTC()
	snap := snapshot{
		Version: snapshotVersion,
		Meta:    meta,
		Rows:    Rows(t),
	}

	err := fileutil.WriteAtomic(s.path, 0o644, func(w io.Writer) error {
		if s.format == FormatTOML {
			return toml.NewEncoder(w).Encode(snap)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	})
	if err != nil {
		return fmt.Errorf("save table snapshot: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
