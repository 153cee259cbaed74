package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// GCInterval is how often the value log is compacted.
const GCInterval = 5 * time.Minute

// Open opens a Badger database at path. An empty path opens an in-memory database.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}

// RunGC compacts the value log every GCInterval until ctx is done.
func RunGC(ctx context.Context, db *badger.DB, logger *zap.Logger) {
	ticker := time.NewTicker(GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Keep going while there is something to rewrite.
			for {
				err := db.RunValueLogGC(0.7)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) && !errors.Is(err, badger.ErrGCInMemoryMode) {
					logger.Warn("Value log GC failed", zap.Error(err))
				}
				break
			}
		}
	}
}
