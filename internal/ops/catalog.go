package ops

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/workout"
)

const catalogTimeout = 5 * time.Second

// Catalog gives the engine read-only snapshots of stored exercises and
// sessions. A failed read is logged and yields an empty snapshot, which the
// engine treats like a missing id.
type Catalog struct {
	database *sql.DB
	logger   *slog.Logger
}

// NewCatalog creates a Catalog. logger may be nil.
func NewCatalog(database *sql.DB, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{database: database, logger: logger}
}

func (c *Catalog) Exercises() []workout.Exercise {
	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
	defer cancel()

	exercises, err := db.ListExercises(ctx, c.database)
	if err != nil {
		c.logger.Error("catalog: list exercises", "error", err)
		return nil
	}
	return exercises
}

func (c *Catalog) Sessions() []workout.Session {
	ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
	defer cancel()

	sessions, err := db.ListSessions(ctx, c.database)
	if err != nil {
		c.logger.Error("catalog: list sessions", "error", err)
		return nil
	}
	return sessions
}
