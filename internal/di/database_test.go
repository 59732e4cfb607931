package di

import (
	"errors"
	"testing"

	"github.com/goliatone/go-docflow/internal/runtimeconfig"
	"github.com/goliatone/go-docflow/internal/workflow"
)

func TestOpenBunDBSQLite(t *testing.T) {
	db, err := OpenBunDB(runtimeconfig.StorageConfig{
		Provider: "database",
		Driver:   "sqlite",
		DSN:      "file::memory:?cache=shared",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("ping sqlite: %v", err)
	}
}

func TestOpenBunDBRejectsUnknownDriver(t *testing.T) {
	_, err := OpenBunDB(runtimeconfig.StorageConfig{
		Provider: "database",
		Driver:   "oracle",
		DSN:      "whatever",
	})
	if !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestOpenBunDBRequiresDSN(t *testing.T) {
	_, err := OpenBunDB(runtimeconfig.StorageConfig{
		Provider: "database",
		Driver:   "sqlite",
	})
	if !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestNewContainerOpensConfiguredDatabase(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage = runtimeconfig.StorageConfig{
		Provider: "database",
		Driver:   "sqlite",
		DSN:      "file::memory:",
	}

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	if _, ok := container.Repository().(*workflow.BunRepository); !ok {
		t.Fatalf("expected bun repository, got %T", container.Repository())
	}
	if container.bunDB == nil {
		t.Fatal("expected container to retain the opened database")
	}
	defer container.bunDB.Close()
}
