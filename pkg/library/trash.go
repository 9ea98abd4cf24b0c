// ABOUTME: Trash folder convention and item moves
// ABOUTME: Trash visibility is a global query on the item path

package library

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/nainya/assetlib/pkg/item"
	"github.com/nainya/assetlib/pkg/query"
)

const (
	// TrashName is the trash folder created under the library root
	TrashName = "Trash"

	// TrashQueryName names the global query that hides the trash
	TrashQueryName = "trash_query"
)

// TrashPath returns the trash folder of the library
func (l *Library) TrashPath() string {
	if l.root == "" {
		return ""
	}
	return path.Join(l.root, TrashName)
}

// trashSegment matches the trash folder as a whole path element, so a
// root such as /tmp/trashcan does not hide its own items
var trashSegment = "/" + TrashName + "/"

// IsPathInTrash reports whether p is the trash folder or lies inside one,
// ignoring case
func IsPathInTrash(p string) bool {
	return strings.Contains(strings.ToLower(p)+"/", strings.ToLower(trashSegment))
}

// IsTrashVisible reports whether trashed items appear in searches
func (l *Library) IsTrashVisible() bool {
	return l.trashVisible
}

// SetTrashVisible shows or hides trashed items and searches again
func (l *Library) SetTrashVisible(visible bool) error {
	l.applyTrashQuery(visible)
	return l.Search()
}

func (l *Library) applyTrashQuery(visible bool) {
	l.trashVisible = visible
	q := query.Query{Name: TrashQueryName}
	if !visible {
		q.Filters = []query.Filter{{Field: item.FieldPath, Condition: query.NotContains, Value: trashSegment}}
	}
	l.globalQueries = putQuery(l.globalQueries, q)
}

// MoveItems moves the files or folders at paths into dst and rewrites
// their document entries, including entries nested under a moved folder.
// An existing destination fails with item.ErrItemSave unless force is set,
// in which case it is replaced.
func (l *Library) MoveItems(paths []string, dst string, force bool) error {
	if l.root == "" {
		return ErrNoPath
	}
	dst = item.NormalizePath(dst)
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	// Collisions are checked before anything moves
	srcs := make([]string, len(paths))
	targets := make([]string, len(paths))
	claimed := make(map[string]bool, len(paths))
	for i, p := range paths {
		src := item.NormalizePath(p)
		srcs[i] = src
		targets[i] = path.Join(dst, path.Base(src))
		if force || targets[i] == src {
			continue
		}
		if _, err := os.Lstat(targets[i]); err == nil || claimed[targets[i]] {
			return fmt.Errorf("%w: %s", item.ErrItemSave, targets[i])
		}
		claimed[targets[i]] = true
	}

	moves := make(map[string]string, len(paths))
	var moveErr error
	for i, src := range srcs {
		target := targets[i]
		if target == src {
			continue
		}
		if _, err := os.Lstat(target); err == nil {
			if !force {
				moveErr = fmt.Errorf("%w: %s", item.ErrItemSave, target)
				break
			}
			if err := os.RemoveAll(target); err != nil {
				moveErr = fmt.Errorf("replace %s: %w", target, err)
				break
			}
		}
		if err := os.Rename(src, target); err != nil {
			moveErr = fmt.Errorf("move %s: %w", src, err)
			break
		}
		moves[src] = target
	}

	// Entries of the items already moved are rewritten even when a later
	// move failed
	if len(moves) == 0 {
		return moveErr
	}
	doc, err := l.Read()
	if err != nil {
		return errors.Join(moveErr, err)
	}
	doc = l.renameEntries(doc, moves)
	if err := l.Save(doc); err != nil {
		return errors.Join(moveErr, err)
	}
	if moveErr != nil {
		return moveErr
	}
	return l.Search()
}

// MoveItemsToTrash moves paths into the trash folder, replacing trashed
// items with the same name
func (l *Library) MoveItemsToTrash(paths []string) error {
	if l.root == "" {
		return ErrNoPath
	}
	return l.MoveItems(paths, l.TrashPath(), true)
}

// renameEntries rekeys entries under each moved source onto its target and
// recomputes the path-derived fields
func (l *Library) renameEntries(doc Document, moves map[string]string) Document {
	for src, target := range moves {
		for _, p := range doc.Paths() {
			if p != src && !strings.HasPrefix(p, src+"/") {
				continue
			}
			newPath := target + strings.TrimPrefix(p, src)
			fields := doc[p]
			delete(doc, p)

			if it := l.registry.Resolve(newPath); it != nil {
				it.Merge(withoutDerived(fields))
				fields = it.Fields
			} else {
				fields[item.FieldPath] = newPath
			}
			doc[newPath] = fields
		}
	}
	return doc
}

// withoutDerived drops the fields recomputed from the item path
func withoutDerived(fields item.Fields) item.Fields {
	out := fields.Clone()
	for _, k := range []string{item.FieldPath, item.FieldName, item.FieldExtension, item.FieldFolder, item.FieldCategory} {
		delete(out, k)
	}
	return out
}
