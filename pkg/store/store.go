// ABOUTME: Atomic single-file document store with tmp/bak rotation
// ABOUTME: Rewrites paths relative to the document so libraries stay portable

package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/internal/metrics"
)

const (
	// TmpSuffix marks the in-progress copy of a document being written
	TmpSuffix = ".tmp"

	// BakSuffix marks the previous copy kept while the new one is renamed into place
	BakSuffix = ".bak"
)

// Test hooks for injecting failures between the rename steps
var (
	renameFile = os.Rename
	removeFile = os.Remove
)

// Store reads and atomically writes library documents
type Store struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewStore creates a store. Both arguments may be nil.
func NewStore(log *logger.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Store{log: log, metrics: m}
}

// Read returns the contents of path with relative path fragments expanded
// against the document's location. A missing file reads as "", unless a
// .bak from an interrupted write is present, in which case that is served.
func (s *Store) Read(path string) (string, error) {
	path = normalizePath(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		s.metrics.RecordStoreRead("file")
	case errors.Is(err, fs.ErrNotExist):
		data, err = os.ReadFile(path + BakSuffix)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("read backup %s: %w", path+BakSuffix, err)
			}
			s.metrics.RecordStoreRead("missing")
			return "", nil
		}
		s.log.StoreLogger("read").Warn("Document missing, serving backup").
			Str("path", path).
			Send()
		s.metrics.RecordStoreRead("backup")
	default:
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return AbsolutePaths(string(data), path), nil
}

// Write atomically replaces path with content.
//
// The content goes to path+".tmp" first. The tmp file is created
// exclusively, so a leftover tmp from an interrupted write or a second
// writer racing this one yields ErrLocked. Once the tmp is synced the
// current file is moved to .bak, the tmp is renamed into place and the
// .bak is removed. On failure the tmp is deleted and the .bak restored
// if the canonical file is gone.
func (s *Store) Write(path, content string) (err error) {
	start := time.Now()
	path = normalizePath(path)
	content = RelativePaths(content, path)

	tmp := path + TmpSuffix
	bak := path + BakSuffix

	defer func() {
		status := "ok"
		switch {
		case errors.Is(err, ErrLocked):
			status = "locked"
		case err != nil:
			status = "error"
		}
		s.metrics.RecordStoreWrite(status, len(content), time.Since(start))
		s.log.LogStoreWrite(path, len(content), time.Since(start), err)
	}()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrLocked, tmp)
		}
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	// From here on the tmp file is ours to clean up
	defer func() {
		if err == nil {
			return
		}
		if _, statErr := os.Stat(tmp); statErr == nil {
			os.Remove(tmp)
		}
		if !exists(path) && exists(bak) {
			os.Rename(bak, path)
		}
	}()

	if _, err := fd.WriteString(content); err != nil {
		fd.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := fd.Sync(); err != nil {
		fd.Close()
		return fmt.Errorf("fsync %s: %w", tmp, err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if exists(bak) {
		if err := removeFile(bak); err != nil {
			return fmt.Errorf("remove stale backup: %w", err)
		}
	}
	if exists(path) {
		if err := renameFile(path, bak); err != nil {
			return fmt.Errorf("backup current document: %w", err)
		}
	}
	if err := renameFile(tmp, path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	syncDir(filepath.Dir(path))

	// The document is in place; a leftover .bak is cleared by the next write
	if exists(bak) {
		if err := removeFile(bak); err != nil {
			s.log.StoreLogger("write").Warn("Could not remove backup").
				Str("path", bak).Err(err).Send()
		}
	}

	return nil
}

// RecoverResult describes what Recover had to clean up
type RecoverResult struct {
	RemovedTmp  bool `json:"removed_tmp" yaml:"removed_tmp"`
	RestoredBak bool `json:"restored_bak" yaml:"restored_bak"`
	RemovedBak  bool `json:"removed_bak" yaml:"removed_bak"`
}

// Recover clears the leftovers of an interrupted write: a stale .tmp is
// removed, a .bak is restored when the canonical file is missing, and a
// redundant .bak is dropped. Only call this when no other writer is active.
func (s *Store) Recover(path string) (RecoverResult, error) {
	path = normalizePath(path)
	tmp := path + TmpSuffix
	bak := path + BakSuffix

	var res RecoverResult
	if exists(tmp) {
		if err := os.Remove(tmp); err != nil {
			return res, fmt.Errorf("remove %s: %w", tmp, err)
		}
		res.RemovedTmp = true
	}

	if exists(bak) {
		if exists(path) {
			if err := os.Remove(bak); err != nil {
				return res, fmt.Errorf("remove %s: %w", bak, err)
			}
			res.RemovedBak = true
		} else {
			if err := os.Rename(bak, path); err != nil {
				return res, fmt.Errorf("restore %s: %w", bak, err)
			}
			res.RestoredBak = true
		}
	}

	if res != (RecoverResult{}) {
		s.log.StoreLogger("recover").Info("Recovered interrupted write").
			Str("path", path).
			Bool("removed_tmp", res.RemovedTmp).
			Bool("restored_bak", res.RestoredBak).
			Send()
	}

	return res, nil
}

// IsLocked reports whether a .tmp file exists next to path
func IsLocked(path string) bool {
	return exists(normalizePath(path) + TmpSuffix)
}

func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return filepath.ToSlash(filepath.Clean(path))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// syncDir flushes a rename to disk. Errors are ignored; not every
// platform supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
