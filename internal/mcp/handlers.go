package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/engine"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/ops"
	"github.com/hpungsan/reps/internal/workout"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db    *sql.DB
	cfg   *config.Config
	coach *engine.Coach
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, coach *engine.Coach) *Handlers {
	return &Handlers{db: db, cfg: cfg, coach: coach}
}

// Request types for each tool

// IDRequest is shared by the get and delete tools.
type IDRequest struct {
	ID string `json:"id"`
}

// ExerciseCreateRequest represents the arguments for exercise_create.
type ExerciseCreateRequest struct {
	Name            string          `json:"name"`
	Kind            workout.Kind    `json:"kind,omitempty"`
	RestBetweenSets int             `json:"rest_between_sets,omitempty"`
	Levels          json.RawMessage `json:"levels,omitempty"`
	LevelCount      int             `json:"level_count,omitempty"`
}

// ExerciseUpdateRequest represents the arguments for exercise_update.
type ExerciseUpdateRequest struct {
	ID              string          `json:"id"`
	Name            *string         `json:"name,omitempty"`
	Kind            *workout.Kind   `json:"kind,omitempty"`
	RestBetweenSets *int            `json:"rest_between_sets,omitempty"`
	Levels          json.RawMessage `json:"levels,omitempty"`
}

// SessionCreateRequest represents the arguments for session_create.
type SessionCreateRequest struct {
	Name                 string                 `json:"name"`
	RestBetweenExercises int                    `json:"rest_between_exercises,omitempty"`
	Exercises            []workout.SessionEntry `json:"exercises"`
}

// SessionUpdateRequest represents the arguments for session_update.
type SessionUpdateRequest struct {
	ID                   string                 `json:"id"`
	Name                 *string                `json:"name,omitempty"`
	RestBetweenExercises *int                   `json:"rest_between_exercises,omitempty"`
	Exercises            []workout.SessionEntry `json:"exercises,omitempty"`
}

// SessionMoveRequest represents the arguments for session_move.
type SessionMoveRequest struct {
	ID   string `json:"id"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// WorkoutStartRequest represents the arguments for workout_start.
type WorkoutStartRequest struct {
	ExerciseID string `json:"exercise_id,omitempty"`
	Level      int    `json:"level,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// SetRestEndsAtRequest represents the arguments for workout_set_rest_ends_at.
type SetRestEndsAtRequest struct {
	RestEndsAt *time.Time `json:"rest_ends_at,omitempty"`
	Seconds    *int       `json:"seconds,omitempty"`
}

// HistoryListRequest represents the arguments for history_list.
type HistoryListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for data_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for data_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// WorkoutResponse is returned by every workout command.
type WorkoutResponse struct {
	Status engine.Status          `json:"status"`
	Result *workout.WorkoutResult `json:"result,omitempty"` // set when the command finished the workout
}

// Exercise handlers

// HandleExerciseCreate handles the exercise_create tool call.
func (h *Handlers) HandleExerciseCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExerciseCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	kind := input.Kind
	if kind == "" {
		kind = workout.KindStrength
	}
	levels, err := decodeLevels(kind, input.Levels)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CreateExercise(ctx, h.db, ops.CreateExerciseInput{
		Name:            input.Name,
		Kind:            kind,
		RestBetweenSets: input.RestBetweenSets,
		Levels:          levels,
		LevelCount:      input.LevelCount,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExerciseList handles the exercise_list tool call.
func (h *Handlers) HandleExerciseList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := ops.ListExercises(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"items": items})
}

// HandleExerciseGet handles the exercise_get tool call.
func (h *Handlers) HandleExerciseGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.GetExercise(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExerciseUpdate handles the exercise_update tool call.
func (h *Handlers) HandleExerciseUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExerciseUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var levels []workout.Level
	if len(input.Levels) > 0 {
		var kind workout.Kind
		if input.Kind != nil {
			kind = *input.Kind
		} else {
			current, err := ops.GetExercise(ctx, h.db, input.ID)
			if err != nil {
				return errorResult(err), nil
			}
			kind = current.Kind
		}
		if levels, err = decodeLevels(kind, input.Levels); err != nil {
			return errorResult(err), nil
		}
	}

	result, err := ops.UpdateExercise(ctx, h.db, ops.UpdateExerciseInput{
		ID:              input.ID,
		Name:            input.Name,
		Kind:            input.Kind,
		RestBetweenSets: input.RestBetweenSets,
		Levels:          levels,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExerciseDelete handles the exercise_delete tool call.
func (h *Handlers) HandleExerciseDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.DeleteExercise(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// decodeLevels parses a raw levels array for an exercise of the given kind.
// An absent array yields nil.
func decodeLevels(kind workout.Kind, raw json.RawMessage) ([]workout.Level, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	levels, err := workout.UnmarshalLevels(kind, raw)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid levels: %v", err))
	}
	return levels, nil
}

// Session handlers

// HandleSessionCreate handles the session_create tool call.
func (h *Handlers) HandleSessionCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.CreateSession(ctx, h.db, ops.CreateSessionInput{
		Name:                 input.Name,
		RestBetweenExercises: input.RestBetweenExercises,
		Exercises:            input.Exercises,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := ops.ListSessions(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"items": items})
}

// HandleSessionGet handles the session_get tool call.
func (h *Handlers) HandleSessionGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.GetSession(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionUpdate handles the session_update tool call.
func (h *Handlers) HandleSessionUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.UpdateSession(ctx, h.db, ops.UpdateSessionInput{
		ID:                   input.ID,
		Name:                 input.Name,
		RestBetweenExercises: input.RestBetweenExercises,
		Exercises:            input.Exercises,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionMove handles the session_move tool call.
func (h *Handlers) HandleSessionMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionMoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.MoveSessionEntry(ctx, h.db, ops.MoveSessionEntryInput{
		SessionID: input.ID,
		From:      input.From,
		To:        input.To,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionDelete handles the session_delete tool call.
func (h *Handlers) HandleSessionDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.DeleteSession(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Workout handlers

// HandleWorkoutStart handles the workout_start tool call.
func (h *Handlers) HandleWorkoutStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WorkoutStartRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	status, err := ops.StartWorkout(ctx, h.db, h.coach, ops.StartWorkoutInput{
		ExerciseID: input.ExerciseID,
		Level:      input.Level,
		SessionID:  input.SessionID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(WorkoutResponse{Status: status})
}

// HandleWorkoutStatus handles the workout_status tool call.
func (h *Handlers) HandleWorkoutStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(WorkoutResponse{Status: h.coach.Status()})
}

// HandleWorkoutCompleteSet handles the workout_complete_set tool call.
func (h *Handlers) HandleWorkoutCompleteSet(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := h.coach.Status().State
	if state == engine.NoWorkout {
		return errorResult(errors.NewNoActiveWorkout()), nil
	}
	if state != engine.InSet {
		return errorResult(errors.NewInvalidRequest("resting; call workout_rest_complete first")), nil
	}
	return h.command(h.coach.CompleteSet)
}

// HandleWorkoutRestComplete handles the workout_rest_complete tool call.
func (h *Handlers) HandleWorkoutRestComplete(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := h.coach.Status().State
	if state == engine.NoWorkout {
		return errorResult(errors.NewNoActiveWorkout()), nil
	}
	if state == engine.InSet {
		return errorResult(errors.NewInvalidRequest("not resting")), nil
	}
	return h.command(h.coach.RestComplete)
}

// HandleWorkoutStartCardio handles the workout_start_cardio tool call.
func (h *Handlers) HandleWorkoutStartCardio(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.coach.Status().State == engine.NoWorkout {
		return errorResult(errors.NewNoActiveWorkout()), nil
	}
	if !h.coach.StartCardioSet() {
		return errorResult(errors.NewInvalidRequest("the current set is not a cardio set")), nil
	}
	return successResult(WorkoutResponse{Status: h.coach.Status()})
}

// HandleWorkoutQuit handles the workout_quit tool call. Quitting with no
// workout in progress succeeds with quit=false.
func (h *Handlers) HandleWorkoutQuit(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	had := h.coach.Status().State != engine.NoWorkout
	h.coach.Quit()
	return successResult(map[string]any{"quit": had})
}

// HandleWorkoutSetRestEndsAt handles the workout_set_rest_ends_at tool call.
func (h *Handlers) HandleWorkoutSetRestEndsAt(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetRestEndsAtRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.RestEndsAt != nil && input.Seconds != nil {
		return errorResult(errors.NewInvalidRequest("give either rest_ends_at or seconds, not both")), nil
	}
	if h.coach.Status().State == engine.NoWorkout {
		return errorResult(errors.NewNoActiveWorkout()), nil
	}

	endsAt := input.RestEndsAt
	if input.Seconds != nil {
		if *input.Seconds < 0 {
			return errorResult(errors.NewInvalidRequest("seconds must not be negative")), nil
		}
		t := time.Now().Add(time.Duration(*input.Seconds) * time.Second)
		endsAt = &t
	}
	h.coach.SetRestEndsAt(endsAt)
	return successResult(WorkoutResponse{Status: h.coach.Status()})
}

// HandleWorkoutLastResult handles the workout_last_result tool call.
func (h *Handlers) HandleWorkoutLastResult(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"result": h.coach.Engine().LastResult()})
}

// HandleWorkoutClearLastResult handles the workout_clear_last_result tool call.
func (h *Handlers) HandleWorkoutClearLastResult(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.coach.Engine().ClearLastResult()
	return successResult(map[string]any{"cleared": true})
}

// command runs a coach command and reports the result if it finished the
// workout.
func (h *Handlers) command(cmd func()) (*mcp.CallToolResult, error) {
	before := h.coach.Engine().LastResult()
	cmd()

	resp := WorkoutResponse{Status: h.coach.Status()}
	if resp.Status.State == engine.NoWorkout {
		if after := h.coach.Engine().LastResult(); after != nil && (before == nil || before.ID != after.ID) {
			resp.Result = after
		}
	}
	return successResult(resp)
}

// History handlers

// HandleHistoryList handles the history_list tool call.
func (h *Handlers) HandleHistoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.ListHistory(ctx, h.db, ops.ListHistoryInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryGet handles the history_get tool call.
func (h *Handlers) HandleHistoryGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.GetHistory(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryDelete handles the history_delete tool call.
func (h *Handlers) HandleHistoryDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.DeleteHistory(ctx, h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistoryClear handles the history_clear tool call.
func (h *Handlers) HandleHistoryClear(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ClearHistory(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Data handlers

// HandleDataExport handles the data_export tool call.
func (h *Handlers) HandleDataExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDataImport handles the data_import tool call.
func (h *Handlers) HandleDataImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var repsErr *errors.RepsError
	if stderrors.As(err, &repsErr) {
		errorObj := map[string]any{
			"code":    repsErr.Code,
			"message": repsErr.Message,
			"status":  repsErr.Status,
		}
		if repsErr.Code != errors.ErrInternal && repsErr.Details != nil {
			errorObj["details"] = repsErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
