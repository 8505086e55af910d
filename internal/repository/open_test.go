package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/internal/repository/badger"
	"github.com/amiyamandal-dev/topalbums/internal/repository/redis"
	"github.com/amiyamandal-dev/topalbums/internal/repository/sqlite"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

var (
	_ FeedStore = (*badger.FeedRepo)(nil)
	_ FeedStore = (*sqlite.FeedRepo)(nil)
	_ FeedStore = (*redis.FeedRepo)(nil)
)

func TestOpenDrivers(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver string
		path   string
	}{
		{"badger", filepath.Join(dir, "albums.badger")},
		{"sqlite", filepath.Join(dir, "albums.db")},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			store, err := Open(context.Background(), config.StoreConfig{Driver: tt.driver, Path: tt.path}, logger.NewNop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer store.Close()

			if err := store.HealthCheck(); err != nil {
				t.Errorf("HealthCheck: %v", err)
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StoreConfig{Driver: "bolt"}, logger.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
