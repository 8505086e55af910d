// Package cli implements albumctl, a command line client that works directly
// on the configured album store.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/internal/repository"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/internal/service"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

var version = "dev"

// SetVersion sets the version reported by --version
func SetVersion(v string) {
	version = v
}

type rootOptions struct {
	configPath string
	output     string
	noColor    bool
	verbose    bool
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// NewRootCmd builds the albumctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "albumctl",
		Short: "Fetch and browse the top albums chart",
		Long: `albumctl syncs the top albums chart into the local store and reads it back.

It uses the same configuration as the server (config.yaml and TOPALBUMS_*
environment variables). With the badger driver the server must not be
running at the same time.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initColor(opts.noColor)
			return validateFormat(opts.output)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file path (default: ./configs/config.yaml or ./config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", formatTable, "Output format: table, json or yaml")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr at the configured level")

	cmd.AddCommand(
		newSyncCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newSearchCmd(opts),
		newStatusCmd(opts),
		newClearCmd(opts),
		newTokenCmd(opts),
	)

	return cmd
}

// loadConfig reads configuration and builds the command logger
func (o *rootOptions) loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if !o.verbose {
		return cfg, logger.NewNop(), nil
	}

	log, err := logger.New(cfg.Logging.Level, "text")
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	return cfg, log, nil
}

// session holds what a command needs to talk to the store
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	store  repository.FeedStore
	index  *search.BleveIndex
	albums *service.AlbumService
}

// openSession opens the configured store. With withSearch an in-memory
// index is built from the cached feed.
func (o *rootOptions) openSession(ctx context.Context, withSearch bool) (*session, error) {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	s := &session{cfg: cfg, log: log, store: store}

	if !withSearch {
		s.albums = service.NewAlbumService(store, nil, nil, log)
		return s, nil
	}

	s.index = search.NewBleveIndex(log)
	if err := s.index.Open(""); err != nil {
		s.Close()
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	s.albums = service.NewAlbumService(store, s.index, nil, log)
	if err := s.albums.Reindex(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("indexing cached albums: %w", err)
	}

	return s, nil
}

func (s *session) Close() {
	if s.index != nil {
		s.index.Close()
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn("Failed to close store", "error", err)
	}
	_ = s.log.Sync()
}
