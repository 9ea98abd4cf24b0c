// ABOUTME: Ordered registry of item descriptors
// ABOUTME: Resolves paths by suffix and crawls directories breadth first

package item

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/nainya/assetlib/internal/logger"
)

// Descriptor is a registered item type
type Descriptor struct {
	Name             string
	Type             string   // Value of the "type" field; defaults to the lower-cased Name
	Extensions       []string // Path suffixes claimed by this type
	RegisterOrder    int      // Lower values are tried first
	AllowNestedItems bool     // Whether the crawler descends into a matched path

	// Match overrides the suffix test when set
	Match func(path string) bool

	// Fields returns extra fields for an item at path
	Fields func(path string) Fields
}

// TypeTag returns the value stored in an item's type field
func (d Descriptor) TypeTag() string {
	if d.Type != "" {
		return d.Type
	}
	return strings.ToLower(d.Name)
}

// Matches reports whether d claims path
func (d Descriptor) Matches(path string) bool {
	if d.Match != nil {
		return d.Match(path)
	}
	return d.matchedExtension(path) != ""
}

// matchedExtension returns the longest extension of d that path ends with.
// Suffixes compare case-insensitively.
func (d Descriptor) matchedExtension(path string) string {
	lower := strings.ToLower(path)
	best := ""
	for _, ext := range d.Extensions {
		if ext != "" && len(ext) > len(best) && strings.HasSuffix(lower, strings.ToLower(ext)) {
			best = ext
		}
	}
	return best
}

// Registry maps paths to item descriptors
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	ordered     []Descriptor // Rebuilt on every change, never modified in place
	ignorePaths []string
	log         *logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		descriptors: make(map[string]Descriptor),
		log:         log.RegistryLogger(),
	}
}

// Register adds d, replacing any descriptor with the same name
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.descriptors[d.Name]; ok {
		r.log.Debug("Replacing item descriptor").Str("name", d.Name).Send()
	}
	r.descriptors[d.Name] = d
	r.reorder()
	return nil
}

// Unregister removes the descriptor with the given name
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.descriptors[name]; !ok {
		return
	}
	delete(r.descriptors, name)
	r.reorder()
}

// reorder rebuilds the ordered descriptor list. Callers hold the write lock.
func (r *Registry) reorder() {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RegisterOrder != out[j].RegisterOrder {
			return out[i].RegisterOrder < out[j].RegisterOrder
		}
		return out[i].Name < out[j].Name
	})
	r.ordered = out
}

func (r *Registry) orderedDescriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ordered
}

// Descriptor returns the descriptor registered under name
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// Descriptors returns all descriptors ordered by RegisterOrder, then name
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.orderedDescriptors())
}

// SetIgnorePaths replaces the substrings that make Resolve skip a path
func (r *Registry) SetIgnorePaths(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignorePaths = append([]string(nil), paths...)
}

// IgnorePaths returns the ignored path substrings
func (r *Registry) IgnorePaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.ignorePaths...)
}

// Resolve returns the item for path from the first matching descriptor,
// or nil if the path is ignored or no descriptor claims it
func (r *Registry) Resolve(path string) *Item {
	if path == "" {
		return nil
	}
	path = NormalizePath(path)

	for _, ignore := range r.IgnorePaths() {
		if ignore != "" && strings.Contains(path, ignore) {
			return nil
		}
	}

	for _, d := range r.orderedDescriptors() {
		if !d.Matches(path) {
			continue
		}
		it, err := New(path, d)
		if err != nil {
			r.log.Warn("Cannot create item").Str("path", path).Err(err).Send()
			return nil
		}
		return it
	}
	return nil
}

// ResolveAll resolves each path, skipping the ones no descriptor claims
func (r *Registry) ResolveAll(paths []string) []*Item {
	items := make([]*Item, 0, len(paths))
	for _, p := range paths {
		if it := r.Resolve(p); it != nil {
			items = append(items, it)
		}
	}
	return items
}

// Crawl walks root breadth first, following symlinks, and yields every
// file or directory that resolves to an item. Entries directly under root
// are at depth 1; a directory is descended into only while its depth is
// below maxDepth. maxDepth <= 0 means no limit. Paths matched by a
// descriptor without AllowNestedItems are not descended into.
//
// Each call starts a fresh walk.
func (r *Registry) Crawl(root string, maxDepth int) iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		type pending struct {
			dir   string
			depth int
		}

		root = NormalizePath(root)
		queue := []pending{{dir: root}}
		visited := make(map[string]bool)

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			// Symlink cycles would otherwise loop forever without a depth limit
			if resolved, err := filepath.EvalSymlinks(cur.dir); err == nil {
				if visited[resolved] {
					continue
				}
				visited[resolved] = true
			}

			entries, err := os.ReadDir(cur.dir)
			if err != nil {
				r.log.Debug("Skipping unreadable directory").Str("dir", cur.dir).Err(err).Send()
				continue
			}

			var subdirs []string
			for _, entry := range entries {
				p := cur.dir + "/" + entry.Name()

				if it := r.Resolve(p); it != nil {
					if !yield(it) {
						return
					}
					if d, ok := r.Descriptor(it.ClassTag); ok && !d.AllowNestedItems {
						continue
					}
				}

				if isDir(p, entry) {
					subdirs = append(subdirs, p)
				}
			}

			depth := cur.depth + 1
			if maxDepth > 0 && depth >= maxDepth {
				continue
			}
			for _, dir := range subdirs {
				queue = append(queue, pending{dir: dir, depth: depth})
			}
		}
	}
}

// CrawlMany crawls each root in order
func (r *Registry) CrawlMany(roots []string, maxDepth int) iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		for _, root := range roots {
			for it := range r.Crawl(root, maxDepth) {
				if !yield(it) {
					return
				}
			}
		}
	}
}

func isDir(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
