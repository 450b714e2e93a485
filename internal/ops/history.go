package ops

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// saveTimeout bounds a single history write issued by the engine.
const saveTimeout = 10 * time.Second

// History persists finished workouts for the engine. It is the engine's
// Recorder: append newest first, then trim to the configured limit.
type History struct {
	database *sql.DB
	limit    int
	logger   *slog.Logger
}

// NewHistory creates a History capped at cfg.HistoryLimit. logger may be nil.
func NewHistory(database *sql.DB, cfg *config.Config, logger *slog.Logger) *History {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &History{database: database, limit: cfg.HistoryLimit, logger: logger}
}

// SaveWorkoutResult appends r and drops the oldest entries past the limit.
func (h *History) SaveWorkoutResult(r workout.WorkoutResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	var trimmed int
	err := withTx(ctx, h.database, func(tx *sql.Tx) error {
		var err error
		trimmed, err = db.InsertResult(ctx, tx, &r, h.limit)
		return err
	})
	if err != nil {
		return err
	}
	if trimmed > 0 {
		h.logger.Debug("history trimmed", "removed", trimmed, "limit", h.limit)
	}
	return nil
}

// ListHistoryInput contains parameters for ListHistory.
type ListHistoryInput struct {
	Limit  int // default: 20, max: 100
	Offset int
}

// ListHistoryOutput contains one page of history, newest first.
type ListHistoryOutput struct {
	Items      []workout.WorkoutResult `json:"items"`
	Pagination Pagination              `json:"pagination"`
}

// ListHistory returns a page of workout results, newest first.
func ListHistory(ctx context.Context, database *sql.DB, input ListHistoryInput) (*ListHistoryOutput, error) {
	limit, offset := page(input.Limit, input.Offset)

	total, err := db.CountResults(ctx, database)
	if err != nil {
		return nil, err
	}
	items, err := db.ListResults(ctx, database, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListHistoryOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// GetHistory retrieves one workout result.
func GetHistory(ctx context.Context, database *sql.DB, id string) (*workout.WorkoutResult, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	return db.GetResult(ctx, database, id)
}

// DeleteHistory removes one workout result.
func DeleteHistory(ctx context.Context, database *sql.DB, id string) (*DeleteOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if err := db.DeleteResult(ctx, database, id); err != nil {
		return nil, err
	}
	return &DeleteOutput{Deleted: true, ID: id}, nil
}

// ClearHistoryOutput reports how many results were removed.
type ClearHistoryOutput struct {
	Cleared int `json:"cleared"`
}

// ClearHistory removes every workout result.
func ClearHistory(ctx context.Context, database *sql.DB) (*ClearHistoryOutput, error) {
	n, err := db.ClearResults(ctx, database)
	if err != nil {
		return nil, err
	}
	return &ClearHistoryOutput{Cleared: n}, nil
}
