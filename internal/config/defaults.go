package config

import (
	"path/filepath"
	"strings"

	"github.com/nainya/assetlib/pkg/library"
)

// Library defaults
var (
	DefaultSortBy  = []string{"name:asc"}
	DefaultGroupBy = []string{"category:asc"}
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	for i := range cfg.ItemTypes {
		applyItemTypeDefaults(&cfg.ItemTypes[i])
	}
	for i := range cfg.Libraries {
		applyLibraryDefaults(&cfg.Libraries[i])
	}
}

// applyLoggingDefaults sets logging defaults and normalizes the level.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	cfg.Level = strings.ToLower(cfg.Level)
}

func applyItemTypeDefaults(cfg *ItemTypeConfig) {
	if cfg.Type == "" {
		cfg.Type = strings.ToLower(cfg.Name)
	}
}

func applyLibraryDefaults(cfg *LibraryConfig) {
	if cfg.Name == "" && cfg.Path != "" {
		cfg.Name = filepath.Base(cfg.Path)
	}
	if cfg.DataFile == "" {
		cfg.DataFile = library.DefaultDataFile
	}
	if cfg.RecursiveDepth == 0 {
		cfg.RecursiveDepth = library.DefaultRecursiveDepth
	}
	if cfg.SortBy == nil {
		cfg.SortBy = append([]string(nil), DefaultSortBy...)
	}
	if cfg.GroupBy == nil {
		cfg.GroupBy = append([]string(nil), DefaultGroupBy...)
	}
	if cfg.ItemCacheSize == 0 {
		cfg.ItemCacheSize = library.DefaultItemCacheSize
	}
	for i := range cfg.Queries {
		if cfg.Queries[i].Operator == "" {
			cfg.Queries[i].Operator = "and"
		}
	}
}
