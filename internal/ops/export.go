package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// ExportSchemaVersion is written to every export header.
const ExportSchemaVersion = "1.0"

// Record types in an export file.
const (
	RecordExercise = "exercise"
	RecordSession  = "session"
	RecordResult   = "result"
)

// ExportHeader is the first line of an export file.
type ExportHeader struct {
	RepsExport    bool   `json:"_reps_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

type exerciseRecord struct {
	Type string `json:"type"`
	workout.Exercise
}

type sessionRecord struct {
	Type string `json:"type"`
	workout.Session
}

type resultRecord struct {
	Type string `json:"type"`
	workout.WorkoutResult
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.reps/exports/reps-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Exercises  int    `json:"exercises"`
	Sessions   int    `json:"sessions"`
	Results    int    `json:"results"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes every exercise, session and workout result to a JSONL file.
// The file is written to a temp name and renamed into place, so an existing
// file at Path survives a failed export.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		dir, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		exportPath = filepath.Join(dir, "reps-"+now.Format("2006-01-02T150405")+ExportExt)
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}
	if err := checkCancelled(ctx, "export"); err != nil {
		return nil, err
	}

	exercises, err := db.ListExercises(ctx, database)
	if err != nil {
		return nil, err
	}
	sessions, err := db.ListSessions(ctx, database)
	if err != nil {
		return nil, err
	}
	results, err := db.ListResults(ctx, database, 0, 0)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := createExportFile(tempPath)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	write := func(v any) error {
		if err := checkCancelled(ctx, "export"); err != nil {
			return err
		}
		if err := enc.Encode(v); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	}

	if err := write(ExportHeader{RepsExport: true, SchemaVersion: ExportSchemaVersion, ExportedAt: now.Unix()}); err != nil {
		return nil, err
	}
	for _, ex := range exercises {
		if err := write(exerciseRecord{Type: RecordExercise, Exercise: ex}); err != nil {
			return nil, err
		}
	}
	for _, s := range sessions {
		if err := write(sessionRecord{Type: RecordSession, Session: s}); err != nil {
			return nil, err
		}
	}
	for _, r := range results {
		if err := write(resultRecord{Type: RecordResult, WorkoutResult: r}); err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if isSymlink(exportPath) {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	// On Windows os.Rename fails when the destination exists; keep the old
	// file rather than delete-then-rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Exercises:  len(exercises),
		Sessions:   len(sessions),
		Results:    len(results),
		ExportedAt: now.Unix(),
	}, nil
}
