// Package cmd provides shared bootstrap helpers for the caseflow
// entrypoints.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caseflow/caseflow/pkg/persistence"
	"github.com/caseflow/caseflow/pkg/persistence/file"
	"github.com/caseflow/caseflow/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend from the database URL
// scheme: postgres URLs get the PostgreSQL store, anything else the
// JSON-directory store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres persistence: %w", err)
		}

		return store, nil
	default:
		store, err := file.NewPersistence(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file persistence: %w", err)
		}

		return store, nil
	}
}
