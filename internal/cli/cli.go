// Package cli implements the assetlib command line
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nainya/assetlib/internal/config"
	"github.com/nainya/assetlib/internal/logger"
	"github.com/nainya/assetlib/internal/metrics"
	"github.com/nainya/assetlib/pkg/item"
	"github.com/nainya/assetlib/pkg/library"
	"github.com/nainya/assetlib/pkg/store"
)

// Build information (injected at compile time via ldflags)
var Version = "dev"

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// app carries the state shared by all commands of one invocation
type app struct {
	configPath  string
	libraryName string
	rootPath    string
	output      string
	logLevel    string

	cfg      *config.Config
	log      *logger.Logger
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
	registry *item.Registry
	store    *store.Store
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "assetlib",
		Short: "Index, search and sync asset libraries",
		Long: `assetlib - filesystem-backed asset library index

Crawls library roots for registered item types, keeps their metadata in
one JSON document per root and searches it with queries.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.writeMetrics()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	flags.StringVarP(&a.libraryName, "library", "l", "", "Library name from the config")
	flags.StringVar(&a.rootPath, "root", "", "Library root directory, overrides --library")
	flags.StringVarP(&a.output, "output", "o", OutputText, "Output format: text, json or yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		newSyncCmd(a),
		newSearchCmd(a),
		newFieldsCmd(a),
		newRecoverCmd(a),
		newTrashCmd(a),
		newServeCmd(a),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	logCfg := cfg.LoggerConfig()
	logCfg.Output = cmd.ErrOrStderr()
	a.log = logger.NewLogger(logCfg)

	a.reg = prometheus.NewRegistry()
	a.metrics = metrics.NewMetrics(a.reg)
	a.store = store.NewStore(a.log, a.metrics)

	a.registry, err = cfg.NewRegistry(a.log)
	return err
}

func (a *app) writeMetrics() error {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// libraryConfig picks the library from --root, --library or the only
// configured one
func (a *app) libraryConfig() (config.LibraryConfig, error) {
	if a.rootPath != "" {
		abs, err := filepath.Abs(a.rootPath)
		if err != nil {
			return config.LibraryConfig{}, err
		}
		lc := config.LibraryConfig{Name: filepath.Base(abs), Path: abs}
		if base, ok := a.cfg.Library(a.libraryName); ok {
			base.Path = abs
			lc = base
		}
		tmp := config.Config{Libraries: []config.LibraryConfig{lc}}
		config.ApplyDefaults(&tmp)
		return tmp.Libraries[0], nil
	}

	if a.libraryName != "" {
		lc, ok := a.cfg.Library(a.libraryName)
		if !ok {
			return config.LibraryConfig{}, fmt.Errorf("library %q is not configured", a.libraryName)
		}
		return lc, nil
	}

	switch len(a.cfg.Libraries) {
	case 0:
		return config.LibraryConfig{}, fmt.Errorf("no library configured, use --root or --library")
	case 1:
		return a.cfg.Libraries[0], nil
	}
	return config.LibraryConfig{}, fmt.Errorf("%d libraries configured, pick one with --library", len(a.cfg.Libraries))
}

func (a *app) openLibrary() (*library.Library, error) {
	lc, err := a.libraryConfig()
	if err != nil {
		return nil, err
	}
	return a.newLibrary(lc)
}

func (a *app) newLibrary(lc config.LibraryConfig) (*library.Library, error) {
	return config.NewLibrary(lc, a.registry, a.store, a.log, a.metrics)
}
