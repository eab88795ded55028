package stores_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/icewatch/icewatch/pkg/engine"
	"github.com/icewatch/icewatch/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a new SQLite store.
func ExampleNewSQLiteStore() {
	// Create store configuration
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            ":memory:", // Use in-memory database for example
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Initialize the database connection
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	defer store.Close()

	// Store is now ready to use
	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_LogStore demonstrates backing a metadata log with a
// durable store.
func ExampleSQLiteStore_LogStore() {
	dir, err := os.MkdirTemp("", "icewatch-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, _ := stores.NewSQLiteStore(stores.Config{Path: filepath.Join(dir, "icewatch.db")})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	metadataLog := engine.NewMetadataLog(store.LogStore(ctx))
	err = metadataLog.Append(engine.TableEvent{
		TableID: engine.NewTableID(),
		Version: 1,
		Type:    engine.EventTableCreated,
	})
	if err != nil {
		log.Fatal(err)
	}

	version, _ := metadataLog.CurrentVersion()
	fmt.Printf("log at version %d\n", version)
	// Output: log at version 1
}
