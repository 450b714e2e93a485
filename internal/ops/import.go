package ops

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/db"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/workout"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // any problem aborts the whole import
	ImportModeReplace ImportMode = "replace" // overwrite the stored record with the same id
	ImportModeRename  ImportMode = "rename"  // store colliding records under a fresh id
)

// maxImportLine caps one JSONL line.
const maxImportLine = 4 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one rejected line.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errAbortImport = fmt.Errorf("import aborted")

// Import loads an export file. Exercises are stored first, then sessions,
// then results oldest first; history is trimmed to cfg.HistoryLimit at the end.
// In rename mode, sessions follow their exercises to the new ids.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeRename {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openImportFile(input.Path)
	if err != nil {
		var repsErr *errors.RepsError
		if stderrors.As(err, &repsErr) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	parsed, err := parseExportFile(file)
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{Errors: parsed.errors}
	if input.Mode == ImportModeError && len(parsed.errors) > 0 {
		return out, nil
	}
	out.Skipped = len(parsed.errors)

	imp := &importer{
		ctx:         ctx,
		mode:        input.Mode,
		now:         nowMillis(),
		exerciseIDs: make(map[string]string),
		out:         out,
	}
	err = withTx(ctx, database, func(tx *sql.Tx) error {
		imp.tx = tx
		if err := imp.run(parsed); err != nil {
			return err
		}
		if input.Mode == ImportModeError && len(out.Errors) > 0 {
			return errAbortImport
		}
		_, err := db.TrimHistory(ctx, tx, cfg.HistoryLimit)
		return err
	})
	if err == errAbortImport {
		return &ImportOutput{Errors: out.Errors}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

type parsedExercise struct {
	line int
	ex   workout.Exercise
}

type parsedSession struct {
	line int
	s    workout.Session
}

type parsedResult struct {
	line int
	r    workout.WorkoutResult
}

type parsedFile struct {
	exercises []parsedExercise
	sessions  []parsedSession
	results   []parsedResult
	errors    []ImportError
}

// recordHead reads the fields shared by every line.
type recordHead struct {
	RepsExport    bool   `json:"_reps_export"`
	SchemaVersion string `json:"schema_version"`
	Type          string `json:"type"`
	ID            string `json:"id"`
	Name          string `json:"name"`
}

// parseExportFile splits a JSONL export into typed records. Line problems are
// collected; only an unsupported schema version fails the whole file.
func parseExportFile(r io.Reader) (*parsedFile, error) {
	p := &parsedFile{}
	lineErr := func(line int, head recordHead, code, msg string) {
		p.errors = append(p.errors, ImportError{Line: line, ID: head.ID, Name: head.Name, Code: code, Message: msg})
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var head recordHead
		if err := json.Unmarshal(line, &head); err != nil {
			lineErr(lineNum, head, "PARSE_ERROR", fmt.Sprintf("invalid JSON: %v", err))
			continue
		}
		if head.RepsExport {
			if !strings.HasPrefix(head.SchemaVersion, "1.") {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("unsupported export schema_version %q", head.SchemaVersion))
			}
			continue
		}
		if head.ID == "" {
			lineErr(lineNum, head, "INVALID_RECORD", "missing id field")
			continue
		}

		switch head.Type {
		case RecordExercise:
			var ex workout.Exercise
			if err := json.Unmarshal(line, &ex); err != nil {
				lineErr(lineNum, head, "PARSE_ERROR", fmt.Sprintf("invalid exercise: %v", err))
				continue
			}
			ex.Name = workout.NormalizeName(ex.Name)
			if err := workout.ValidateExercise(&ex); err != nil {
				lineErr(lineNum, head, "INVALID_RECORD", message(err))
				continue
			}
			p.exercises = append(p.exercises, parsedExercise{line: lineNum, ex: ex})
		case RecordSession:
			var s workout.Session
			if err := json.Unmarshal(line, &s); err != nil {
				lineErr(lineNum, head, "PARSE_ERROR", fmt.Sprintf("invalid session: %v", err))
				continue
			}
			s.Name = workout.NormalizeName(s.Name)
			if err := workout.ValidateSession(&s); err != nil {
				lineErr(lineNum, head, "INVALID_RECORD", message(err))
				continue
			}
			p.sessions = append(p.sessions, parsedSession{line: lineNum, s: s})
		case RecordResult:
			var res workout.WorkoutResult
			if err := json.Unmarshal(line, &res); err != nil {
				lineErr(lineNum, head, "PARSE_ERROR", fmt.Sprintf("invalid result: %v", err))
				continue
			}
			if res.CompletedAt.IsZero() {
				lineErr(lineNum, head, "INVALID_RECORD", "missing completed_at")
				continue
			}
			p.results = append(p.results, parsedResult{line: lineNum, r: res})
		default:
			lineErr(lineNum, head, "INVALID_RECORD", fmt.Sprintf("unknown record type %q", head.Type))
		}
	}
	if err := scanner.Err(); err != nil {
		p.errors = append(p.errors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	// Exports list history newest first; insert oldest first so the
	// newest entries end up at the top.
	slices.Reverse(p.results)
	sort.SliceStable(p.results, func(i, j int) bool {
		return p.results[i].r.CompletedAt.Before(p.results[j].r.CompletedAt)
	})
	return p, nil
}

type importer struct {
	ctx         context.Context
	tx          *sql.Tx
	mode        ImportMode
	now         int64
	exerciseIDs map[string]string // file id -> stored id, rename mode only
	out         *ImportOutput
}

func (imp *importer) fail(line int, id, name, code, msg string) {
	imp.out.Errors = append(imp.out.Errors, ImportError{Line: line, ID: id, Name: name, Code: code, Message: msg})
	imp.out.Skipped++
}

func (imp *importer) collision(line int, kind, id, name string) {
	imp.fail(line, id, name, "ID_COLLISION", fmt.Sprintf("%s with id %q already exists", kind, id))
}

func (imp *importer) run(p *parsedFile) error {
	for _, rec := range p.exercises {
		if err := checkCancelled(imp.ctx, "import"); err != nil {
			return err
		}
		if err := imp.exercise(rec); err != nil {
			return err
		}
	}
	for _, rec := range p.sessions {
		if err := checkCancelled(imp.ctx, "import"); err != nil {
			return err
		}
		if err := imp.session(rec); err != nil {
			return err
		}
	}
	for _, rec := range p.results {
		if err := checkCancelled(imp.ctx, "import"); err != nil {
			return err
		}
		if err := imp.result(rec); err != nil {
			return err
		}
	}
	return nil
}

// exists reports whether get finds a row, passing through real failures.
func exists[T any](get func() (T, error)) (bool, error) {
	_, err := get()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, errors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (imp *importer) exercise(rec parsedExercise) error {
	ex := rec.ex
	found, err := exists(func() (*workout.Exercise, error) { return db.GetExercise(imp.ctx, imp.tx, ex.ID) })
	if err != nil {
		return err
	}

	switch {
	case !found:
		err = db.InsertExercise(imp.ctx, imp.tx, &ex, imp.now)
	case imp.mode == ImportModeReplace:
		err = db.UpdateExercise(imp.ctx, imp.tx, &ex, imp.now)
	case imp.mode == ImportModeRename:
		newID := workout.NewID()
		imp.exerciseIDs[ex.ID] = newID
		ex.ID = newID
		err = db.InsertExercise(imp.ctx, imp.tx, &ex, imp.now)
	default:
		imp.collision(rec.line, "exercise", ex.ID, ex.Name)
		return nil
	}
	if err != nil {
		return err
	}
	imp.out.Imported++
	return nil
}

func (imp *importer) session(rec parsedSession) error {
	s := rec.s.Clone()
	for i, e := range s.Exercises {
		if newID, ok := imp.exerciseIDs[e.ExerciseID]; ok {
			s.Exercises[i].ExerciseID = newID
		}
	}
	if err := checkSessionEntries(imp.ctx, imp.tx, s.Exercises); err != nil {
		rErr, ok := err.(*errors.RepsError)
		if !ok || rErr.Code == errors.ErrInternal {
			return err
		}
		imp.fail(rec.line, s.ID, s.Name, "INVALID_RECORD", rErr.Message)
		return nil
	}

	found, err := exists(func() (*workout.Session, error) { return db.GetSession(imp.ctx, imp.tx, s.ID) })
	if err != nil {
		return err
	}

	switch {
	case !found:
		err = db.InsertSession(imp.ctx, imp.tx, &s, imp.now)
	case imp.mode == ImportModeReplace:
		err = db.UpdateSession(imp.ctx, imp.tx, &s, imp.now)
	case imp.mode == ImportModeRename:
		s.ID = workout.NewID()
		err = db.InsertSession(imp.ctx, imp.tx, &s, imp.now)
	default:
		imp.collision(rec.line, "session", s.ID, s.Name)
		return nil
	}
	if err != nil {
		return err
	}
	imp.out.Imported++
	return nil
}

func (imp *importer) result(rec parsedResult) error {
	r := rec.r
	found, err := exists(func() (*workout.WorkoutResult, error) { return db.GetResult(imp.ctx, imp.tx, r.ID) })
	if err != nil {
		return err
	}

	if found {
		switch imp.mode {
		case ImportModeReplace:
			if err := db.DeleteResult(imp.ctx, imp.tx, r.ID); err != nil {
				return err
			}
		case ImportModeRename:
			r.ID = workout.NewID()
		default:
			imp.collision(rec.line, "result", r.ID, "")
			return nil
		}
	}
	if _, err := db.InsertResult(imp.ctx, imp.tx, &r, 0); err != nil {
		return err
	}
	imp.out.Imported++
	return nil
}

// message strips the code prefix from a RepsError.
func message(err error) string {
	if rErr, ok := err.(*errors.RepsError); ok {
		return rErr.Message
	}
	return err.Error()
}
