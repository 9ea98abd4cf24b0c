// ABOUTME: Library index over one root directory
// ABOUTME: Lazy document reload on mtime change, item materialization and search

package library

import (
	"fmt"
	"maps"
	"os"
	"path"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/internal/metrics"
	"github.com/nainya/assetlib/pkg/item"
	"github.com/nainya/assetlib/pkg/query"
	"github.com/nainya/assetlib/pkg/store"
)

// Defaults applied by New
const (
	DefaultDataFile       = ".assetlib.json"
	DefaultRecursiveDepth = 4
	DefaultItemCacheSize  = 4096
)

// Options configures a library
type Options struct {
	Name           string // Defaults to the base name of Path
	Path           string // Library root; empty disables all disk access
	DataFile       string // Document file name inside Path
	RecursiveDepth int    // Crawl depth used by Sync
	SortBy         []string
	GroupBy        []string
	Queries        []query.Query
	TrashVisible   bool
	ItemCacheSize  int

	Registry *item.Registry
	Store    *store.Store
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	// PostSync may rewrite the document after a sync merged the crawl
	// results and before it is saved
	PostSync func(Document) Document
}

// Library indexes the items of one root directory. A Library is not safe
// for concurrent use.
type Library struct {
	name     string
	root     string
	dataPath string
	depth    int

	registry *item.Registry
	store    *store.Store
	log      *logger.Logger
	metrics  *metrics.Metrics
	postSync func(Document) Document

	document Document
	mtime    time.Time
	loaded   bool
	dirty    bool
	items    *lru.Cache[string, *item.Item]

	queries       []query.Query
	globalQueries []query.Query
	sortBy        []string
	groupBy       []string
	trashVisible  bool

	searchEnabled bool
	results       []*item.Item
	grouped       *query.Groups
	fields        []string
	searchTime    time.Duration

	observers    []observerEntry
	nextObserver int
}

// New creates a library from opts
func New(opts Options) (*Library, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	l := &Library{
		name:          opts.Name,
		depth:         opts.RecursiveDepth,
		registry:      opts.Registry,
		store:         opts.Store,
		metrics:       opts.Metrics,
		postSync:      opts.PostSync,
		sortBy:        slices.Clone(opts.SortBy),
		groupBy:       slices.Clone(opts.GroupBy),
		searchEnabled: true,
	}

	if opts.Path != "" {
		l.root = item.NormalizePath(opts.Path)
		dataFile := opts.DataFile
		if dataFile == "" {
			dataFile = DefaultDataFile
		}
		l.dataPath = path.Join(l.root, dataFile)
	}
	if l.name == "" && l.root != "" {
		l.name = path.Base(l.root)
	}
	if l.depth <= 0 {
		l.depth = DefaultRecursiveDepth
	}
	if l.registry == nil {
		l.registry = item.NewRegistry(log)
	}
	if l.store == nil {
		l.store = store.NewStore(log, opts.Metrics)
	}
	l.log = log.LibraryLogger(l.name, l.root)

	size := opts.ItemCacheSize
	if size <= 0 {
		size = DefaultItemCacheSize
	}
	cache, err := lru.New[string, *item.Item](size)
	if err != nil {
		return nil, fmt.Errorf("create item cache: %w", err)
	}
	l.items = cache

	for _, q := range opts.Queries {
		if err := l.AddQuery(q); err != nil {
			return nil, err
		}
	}
	l.applyTrashQuery(opts.TrashVisible)

	return l, nil
}

// Name returns the library name
func (l *Library) Name() string { return l.name }

// Path returns the library root
func (l *Library) Path() string { return l.root }

// DataPath returns the path of the persisted document
func (l *Library) DataPath() string { return l.dataPath }

// RecursiveDepth returns the crawl depth used by Sync
func (l *Library) RecursiveDepth() int { return l.depth }

// Registry returns the item registry
func (l *Library) Registry() *item.Registry { return l.registry }

// hasRoot reports whether the root is configured and present on disk
func (l *Library) hasRoot() bool {
	if l.root == "" {
		return false
	}
	info, err := os.Stat(l.root)
	return err == nil && info.IsDir()
}

// dataMtime returns the document modification time, zero if missing
func (l *Library) dataMtime() time.Time {
	info, err := os.Stat(l.dataPath)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// IsDirty reports whether the cached document must be reloaded
func (l *Library) IsDirty() bool {
	if !l.loaded || l.dirty {
		return true
	}
	return !l.dataMtime().Equal(l.mtime)
}

// MarkDirty forces a reload on the next Read
func (l *Library) MarkDirty() {
	l.dirty = true
}

// Read returns a copy of the document, reloading it from disk when dirty.
// Without a root it returns an empty document.
func (l *Library) Read() (Document, error) {
	if !l.hasRoot() {
		l.log.Info("No library root, nothing to read").Send()
		return Document{}, nil
	}

	if l.IsDirty() {
		raw, err := l.store.ReadJSON(l.dataPath)
		if err != nil {
			return nil, err
		}
		doc, skipped := documentFromMap(raw)
		if skipped > 0 {
			l.log.Warn("Skipped malformed document entries").Int("count", skipped).Send()
		}

		l.document = doc
		l.mtime = l.dataMtime()
		l.loaded = true
		l.dirty = false
		l.items.Purge()
	}

	return l.document.Clone(), nil
}

// Save persists doc and marks the library dirty. Without a root it does
// nothing. Store errors, including ErrLocked, are returned unchanged.
func (l *Library) Save(doc Document) error {
	if !l.hasRoot() {
		l.log.Info("No library root, nothing to save").Send()
		return nil
	}

	if err := l.store.WriteJSON(l.dataPath, doc.toMap()); err != nil {
		return err
	}
	l.MarkDirty()
	l.emit(DataChanged)
	return nil
}

// materialize returns the item for a document entry, or nil when no
// descriptor claims the path anymore. Callers get their own copy; the
// cached item never leaves the library.
func (l *Library) materialize(p string, persisted item.Fields) *item.Item {
	it, ok := l.items.Get(p)
	if !ok {
		it = l.registry.Resolve(p)
		if it == nil {
			return nil
		}
		it.Merge(persisted)
		l.items.Add(p, it)
	}
	return &item.Item{Path: it.Path, Fields: it.Fields.Clone(), ClassTag: it.ClassTag}
}

// Items returns every item in the document that still resolves
func (l *Library) Items() ([]*item.Item, error) {
	doc, err := l.Read()
	if err != nil {
		return nil, err
	}
	items := make([]*item.Item, 0, len(doc))
	for _, p := range doc.Paths() {
		if it := l.materialize(p, doc[p]); it != nil {
			items = append(items, it)
		}
	}
	return items, nil
}

// FindItems returns the items matching queries and the global queries,
// sorted by the configured sort spec. It records the field names of the
// matched items, see Fields.
func (l *Library) FindItems(queries []query.Query) ([]*item.Item, error) {
	all, err := l.Items()
	if err != nil {
		return nil, err
	}

	active := append(slices.Clone(queries), l.globalQueries...)
	seen := make(map[string]struct{})
	var results []*item.Item
	for _, it := range all {
		if !query.Matches(it.Fields, active) {
			continue
		}
		for k := range it.Fields {
			seen[k] = struct{}{}
		}
		results = append(results, it)
	}
	l.fields = slices.Sorted(maps.Keys(seen))

	if len(l.sortBy) > 0 {
		results = query.SortItems(results, l.sortBy)
	}
	return results, nil
}

// Fields returns the field names seen by the last FindItems
func (l *Library) Fields() []string {
	return slices.Clone(l.fields)
}

// Search runs the active queries, groups the results and stores both.
// It does nothing while search is disabled. Every SearchStarted is followed
// by a SearchFinished, also when the search fails; the previous results
// are kept then.
func (l *Library) Search() error {
	if !l.searchEnabled {
		return nil
	}

	start := time.Now()
	l.emit(SearchStarted)

	results, err := l.FindItems(l.Queries())
	if err != nil {
		l.emit(SearchFinished)
		return err
	}
	l.results = results
	l.grouped = query.GroupItems(results, l.groupBy)
	l.searchTime = time.Since(start)

	l.metrics.RecordSearch(l.name, len(results), l.searchTime)
	l.log.LogSearch(len(results), l.grouped.Len(), l.searchTime)
	l.emit(SearchFinished)
	return nil
}

// Results returns the items found by the last search
func (l *Library) Results() []*item.Item { return l.results }

// GroupedResults returns the grouped items found by the last search
func (l *Library) GroupedResults() *query.Groups { return l.grouped }

// SearchTime returns how long the last search took
func (l *Library) SearchTime() time.Duration { return l.searchTime }

// IsSearchEnabled reports whether Search runs
func (l *Library) IsSearchEnabled() bool { return l.searchEnabled }

// SetSearchEnabled turns Search on or off
func (l *Library) SetSearchEnabled(enabled bool) { l.searchEnabled = enabled }

// SortBy returns the sort spec
func (l *Library) SortBy() []string { return slices.Clone(l.sortBy) }

// SetSortBy replaces the sort spec, e.g. []string{"name:asc", "type:desc"}
func (l *Library) SetSortBy(spec []string) { l.sortBy = slices.Clone(spec) }

// GroupBy returns the group spec
func (l *Library) GroupBy() []string { return slices.Clone(l.groupBy) }

// SetGroupBy replaces the group spec. Only the first token is used.
func (l *Library) SetGroupBy(spec []string) { l.groupBy = slices.Clone(spec) }

// UpdateOption adjusts AddItems and UpdateItems
type UpdateOption func(*updateConfig)

type updateConfig struct {
	search bool
}

// WithoutSearch skips the search that normally follows a save
func WithoutSearch() UpdateOption {
	return func(c *updateConfig) { c.search = false }
}

// AddItem merges the fields of it into the document
func (l *Library) AddItem(it *item.Item, opts ...UpdateOption) error {
	return l.AddItems([]*item.Item{it}, opts...)
}

// AddItems merges the fields of items into the document keyed by path,
// saves it and searches again
func (l *Library) AddItems(items []*item.Item, opts ...UpdateOption) error {
	return l.saveItemData(items, opts)
}

// UpdateItem is AddItem for an item already in the document
func (l *Library) UpdateItem(it *item.Item, opts ...UpdateOption) error {
	return l.AddItems([]*item.Item{it}, opts...)
}

// UpdateItems is AddItems for items already in the document
func (l *Library) UpdateItems(items []*item.Item, opts ...UpdateOption) error {
	return l.saveItemData(items, opts)
}

func (l *Library) saveItemData(items []*item.Item, opts []UpdateOption) error {
	cfg := updateConfig{search: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := l.Read()
	if err != nil {
		return err
	}
	for _, it := range items {
		if it == nil || it.Path == "" {
			return fmt.Errorf("%w: cannot save an item without a path", item.ErrItem)
		}
		fields := doc[it.Path]
		if fields == nil {
			fields = item.Fields{}
		}
		maps.Copy(fields, it.Fields)
		doc[it.Path] = fields
	}

	if err := l.Save(doc); err != nil {
		return err
	}
	if cfg.search {
		return l.Search()
	}
	return nil
}

// Clear drops materialized items and search results
func (l *Library) Clear() {
	l.items.Purge()
	l.loaded = false
	l.results = nil
	l.grouped = nil
	l.emit(DataChanged)
}
