package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/engine"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/ops"
	"github.com/hpungsan/reps/internal/workout"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	coach    *engine.Coach
	renderer *Renderer
}

// HandleWorkout handles GET /workout: the active workout, the last result,
// and start forms when idle.
func (h *Handlers) HandleWorkout(w http.ResponseWriter, r *http.Request) {
	// The host may have slept through a rest; catch up with its end time.
	h.coach.Resume()
	status := h.coach.Status()
	last := h.coach.Engine().LastResult()

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"status": status, "last_result": last})
		return
	}

	data := WorkoutPageData{
		PageData:   h.renderer.page("Workout", "workout"),
		Status:     status,
		LastResult: last,
	}
	if last != nil {
		data.Summary = h.renderer.renderSummary(last)
	}
	if status.State == engine.NoWorkout {
		exercises, err := ops.ListExercises(r.Context(), h.db)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		sessions, err := ops.ListSessions(r.Context(), h.db)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Exercises = exercises
		data.Sessions = sessions
	}
	h.renderer.renderPage(w, "workout", data)
}

// HandleWorkoutStart handles POST /workout/start. The form carries either
// exercise_id and level or session_id.
func (h *Handlers) HandleWorkoutStart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	input := ops.StartWorkoutInput{
		ExerciseID: r.FormValue("exercise_id"),
		SessionID:  r.FormValue("session_id"),
	}
	if lv := r.FormValue("level"); lv != "" {
		n, err := strconv.Atoi(lv)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("level must be an integer"))
			return
		}
		input.Level = n
	}

	status, err := ops.StartWorkout(r.Context(), h.db, h.coach, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.workoutDone(w, r, status)
}

// HandleWorkoutCompleteSet handles POST /workout/complete-set.
func (h *Handlers) HandleWorkoutCompleteSet(w http.ResponseWriter, r *http.Request) {
	switch h.coach.Status().State {
	case engine.NoWorkout:
		h.renderer.renderError(w, r, errors.NewNoActiveWorkout())
		return
	case engine.InSet:
	default:
		h.renderer.renderError(w, r, errors.NewInvalidRequest("resting; end the rest first"))
		return
	}
	h.coach.CompleteSet()
	h.workoutDone(w, r, h.coach.Status())
}

// HandleWorkoutRestComplete handles POST /workout/rest-complete.
func (h *Handlers) HandleWorkoutRestComplete(w http.ResponseWriter, r *http.Request) {
	switch h.coach.Status().State {
	case engine.NoWorkout:
		h.renderer.renderError(w, r, errors.NewNoActiveWorkout())
		return
	case engine.InSet:
		h.renderer.renderError(w, r, errors.NewInvalidRequest("not resting"))
		return
	}
	h.coach.RestComplete()
	h.workoutDone(w, r, h.coach.Status())
}

// HandleWorkoutQuit handles POST /workout/quit. Quitting with nothing in
// progress is not an error.
func (h *Handlers) HandleWorkoutQuit(w http.ResponseWriter, r *http.Request) {
	h.coach.Quit()
	h.workoutDone(w, r, h.coach.Status())
}

// HandleWorkoutDismiss handles POST /workout/dismiss: clears the last result.
func (h *Handlers) HandleWorkoutDismiss(w http.ResponseWriter, r *http.Request) {
	h.coach.Engine().ClearLastResult()
	h.workoutDone(w, r, h.coach.Status())
}

// workoutDone answers a workout command with the new status as JSON, or by
// redirecting back to the workout page.
func (h *Handlers) workoutDone(w http.ResponseWriter, r *http.Request, status engine.Status) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"status": status})
		return
	}
	http.Redirect(w, r, "/workout", http.StatusSeeOther)
}

// HandleExercises handles GET /exercises.
func (h *Handlers) HandleExercises(w http.ResponseWriter, r *http.Request) {
	items, err := ops.ListExercises(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"items": items})
		return
	}
	h.renderer.renderPage(w, "exercises", ExercisesPageData{
		PageData: h.renderer.page("Exercises", "exercises"),
		Items:    items,
	})
}

// HandleSessions handles GET /sessions.
func (h *Handlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := ops.ListSessions(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"items": sessions})
		return
	}

	exercises, err := ops.ListExercises(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	byID := make(map[string]workout.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}

	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		row := SessionRow{Session: s}
		for _, entry := range s.Exercises {
			ex, ok := byID[entry.ExerciseID]
			e := SessionRowEntry{Name: entry.ExerciseID, Level: entry.Level, Missing: !ok}
			if ok {
				e.Name = ex.Name
				e.Sets = ex.LevelSetCount(entry.Level)
				e.Missing = e.Sets == 0
			}
			row.Entries = append(row.Entries, e)
		}
		rows = append(rows, row)
	}

	h.renderer.renderPage(w, "sessions", SessionsPageData{
		PageData: h.renderer.page("Sessions", "sessions"),
		Items:    rows,
	})
}

// HandleHistory handles GET /history, newest first.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListHistory(r.Context(), h.db, ops.ListHistoryInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, "history", HistoryPageData{
		PageData:   h.renderer.page("History", "history"),
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleHistoryDetail handles GET /history/{id}.
func (h *Handlers) HandleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	result, err := ops.GetHistory(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	h.renderer.renderPage(w, "result", ResultPageData{
		PageData: h.renderer.page("Workout "+formatTime(result.CompletedAt), "history"),
		Result:   result,
		Summary:  h.renderer.renderSummary(result),
	})
}

// HandleHistoryDelete handles DELETE /history/{id} and the form fallback
// POST /history/{id}/delete.
func (h *Handlers) HandleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	result, err := ops.DeleteHistory(r.Context(), h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

// HandleHistoryClear handles POST /history/clear. The form must carry
// confirm=true.
func (h *Handlers) HandleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`confirm parameter must be "true"`))
		return
	}

	result, err := ops.ClearHistory(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
