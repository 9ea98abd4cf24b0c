package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/pkg/library"
	"github.com/nainya/assetlib/pkg/query"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: DEBUG
  pretty: true

metrics:
  textfile: /tmp/assetlib.prom

item_types:
  - name: Mesh
    extensions: [".mesh", ".obj"]
    register_order: 10
  - name: Pack
    type: package
    extensions: [".pack"]
    register_order: 1
    allow_nested_items: false

ignore_paths: ["/.git/"]

libraries:
  - name: props
    path: /srv/assets/props
    recursive_depth: 2
    sort_by: ["name:desc"]
    queries:
      - name: chairs
        operator: or
        filters:
          - [name, startswith, chair]
          - field: type
            condition: is
            value: mesh
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
	assert.Equal(t, "/tmp/assetlib.prom", cfg.Metrics.Textfile)

	require.Len(t, cfg.ItemTypes, 2)
	assert.Equal(t, "mesh", cfg.ItemTypes[0].Type)
	assert.Equal(t, "package", cfg.ItemTypes[1].Type)
	assert.Equal(t, []string{"/.git/"}, cfg.IgnorePaths)

	lib, ok := cfg.Library("props")
	require.True(t, ok)
	assert.Equal(t, 2, lib.RecursiveDepth)
	assert.Equal(t, []string{"name:desc"}, lib.SortBy)
	assert.Equal(t, DefaultGroupBy, lib.GroupBy)
	assert.Equal(t, library.DefaultDataFile, lib.DataFile)
	assert.Equal(t, library.DefaultItemCacheSize, lib.ItemCacheSize)

	require.Len(t, lib.Queries, 1)
	q := lib.Queries[0]
	assert.Equal(t, query.OperatorOr, q.Operator)
	require.Len(t, q.Filters, 2)
	assert.Equal(t, query.Filter{Field: "name", Condition: query.StartsWith, Value: "chair"}, q.Filters[0])
	assert.Equal(t, query.Is, q.Filters[1].Condition)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
libraries:
  - path: /srv/assets/chars
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	require.Len(t, cfg.Libraries, 1)

	lib := cfg.Libraries[0]
	assert.Equal(t, "chars", lib.Name)
	assert.Equal(t, library.DefaultRecursiveDepth, lib.RecursiveDepth)
	assert.Equal(t, DefaultSortBy, lib.SortBy)
	assert.False(t, lib.TrashVisible)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")
	t.Setenv("ASSETLIB_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Libraries)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "bad log level",
			content: "logging:\n  level: loud\n",
			errMsg:  "oneof",
		},
		{
			name: "item type without extensions",
			content: `
item_types:
  - name: Mesh
`,
			errMsg: "Extensions",
		},
		{
			name: "duplicate library",
			content: `
libraries:
  - name: a
    path: /x
  - name: a
    path: /y
`,
			errMsg: "duplicate library name",
		},
		{
			name: "duplicate item type",
			content: `
item_types:
  - name: Mesh
    extensions: [".mesh"]
  - name: Mesh
    extensions: [".obj"]
`,
			errMsg: "duplicate item type name",
		},
		{
			name: "unknown condition",
			content: `
libraries:
  - name: a
    path: /x
    queries:
      - name: q
        filters:
          - [name, endswith, x]
`,
			errMsg: "unknown condition",
		},
		{
			name: "short filter",
			content: `
libraries:
  - name: a
    path: /x
    queries:
      - name: q
        filters:
          - [name, is]
`,
			errMsg: "expected [field, condition, value]",
		},
		{
			name: "negative depth",
			content: `
libraries:
  - name: a
    path: /x
    recursive_depth: -1
`,
			errMsg: "RecursiveDepth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFactories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "chair.mesh"), []byte("x"), 0644))

	cfg := &Config{
		ItemTypes: []ItemTypeConfig{{Name: "Mesh", Extensions: []string{".mesh"}}},
		Libraries: []LibraryConfig{{Name: "props", Path: root}},
	}
	ApplyDefaults(cfg)
	require.NoError(t, Validate(cfg))

	r, err := cfg.NewRegistry(logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, r.Resolve(filepath.Join(root, "chair.mesh")))

	lib, err := NewLibrary(cfg.Libraries[0], r, nil, logger.Nop(), nil)
	require.NoError(t, err)

	report, err := lib.Sync(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, "info", cfg.LoggerConfig().Level)
}
