package config

import (
	"fmt"

	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/internal/metrics"
	"github.com/nainya/assetlib/pkg/item"
	"github.com/nainya/assetlib/pkg/library"
	"github.com/nainya/assetlib/pkg/store"
)

// LoggerConfig converts the logging section for logger.NewLogger
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Pretty: c.Logging.Pretty,
	}
}

// NewRegistry builds an item registry from the item_types and
// ignore_paths sections
func (c *Config) NewRegistry(log *logger.Logger) (*item.Registry, error) {
	r := item.NewRegistry(log)
	for _, t := range c.ItemTypes {
		d := item.Descriptor{
			Name:             t.Name,
			Type:             t.Type,
			Extensions:       append([]string(nil), t.Extensions...),
			RegisterOrder:    t.RegisterOrder,
			AllowNestedItems: t.AllowNestedItems,
		}
		if err := r.Register(d); err != nil {
			return nil, fmt.Errorf("register item type %q: %w", t.Name, err)
		}
	}
	r.SetIgnorePaths(c.IgnorePaths...)
	return r, nil
}

// NewLibrary builds the library described by lc. The store and registry
// may be shared between libraries.
func NewLibrary(lc LibraryConfig, r *item.Registry, s *store.Store, log *logger.Logger, m *metrics.Metrics) (*library.Library, error) {
	return library.New(library.Options{
		Name:           lc.Name,
		Path:           lc.Path,
		DataFile:       lc.DataFile,
		RecursiveDepth: lc.RecursiveDepth,
		SortBy:         lc.SortBy,
		GroupBy:        lc.GroupBy,
		Queries:        lc.Queries,
		TrashVisible:   lc.TrashVisible,
		ItemCacheSize:  lc.ItemCacheSize,
		Registry:       r,
		Store:          s,
		Logger:         log,
		Metrics:        m,
	})
}
