package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/reps/internal/engine"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/ops"
	"github.com/hpungsan/reps/internal/workout"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "workout", "exercises", "sessions", "history"
}

// WorkoutPageData is the template data for the workout page.
type WorkoutPageData struct {
	PageData
	Status     engine.Status
	LastResult *workout.WorkoutResult
	Summary    template.HTML
	Exercises  []workout.Exercise
	Sessions   []workout.Session
}

// ExercisesPageData is the template data for the exercises page.
type ExercisesPageData struct {
	PageData
	Items []workout.Exercise
}

// SessionRow is a session with its entries resolved to exercise names.
type SessionRow struct {
	workout.Session
	Entries []SessionRowEntry
}

// SessionRowEntry is one resolved session entry. Missing is set when the
// exercise or its level no longer exists.
type SessionRowEntry struct {
	Name    string
	Level   int
	Sets    int
	Missing bool
}

// SessionsPageData is the template data for the sessions page.
type SessionsPageData struct {
	PageData
	Items []SessionRow
}

// HistoryPageData is the template data for the history list page.
type HistoryPageData struct {
	PageData
	Items      []workout.WorkoutResult
	Pagination ops.Pagination
}

// ResultPageData is the template data for one history entry.
type ResultPageData struct {
	PageData
	Result  *workout.WorkoutResult
	Summary template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	markdown  goldmark.Markdown
	version   string
	logger    *slog.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	funcMap := template.FuncMap{
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"formatTime":  formatTime,
		"formatSecs":  workout.FormatSeconds,
		"joinNames":   func(names []string) string { return strings.Join(names, ", ") },
		"setTarget":   setTarget,
		"deref":       derefInt,
		"levelTarget": levelTarget,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"workout":   "workout.html",
		"exercises": "exercises.html",
		"sessions":  "sessions.html",
		"history":   "history.html",
		"result":    "result.html",
		"error":     "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Table)),
		version:   version,
		logger:    logger,
	}
}

func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var rErr *errors.RepsError
	if !stderrors.As(err, &rErr) {
		rErr = errors.NewInternal(err)
	}
	if rErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", "path", req.URL.Path, "error", err)
	}

	status := rErr.Status
	message := rErr.Message

	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(rErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", status), ""),
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderSummary renders a workout result as an HTML summary with a table of
// completed sets.
func (r *Renderer) renderSummary(res *workout.WorkoutResult) template.HTML {
	md := resultMarkdown(res)
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(md) + "</pre>")
	}
	return template.HTML(buf.String())
}

// resultMarkdown builds the markdown source for renderSummary.
func resultMarkdown(res *workout.WorkoutResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Completed** %s · **Duration** %s · **Sets** %d\n\n",
		res.CompletedAt.Local().Format("2006-01-02 15:04"),
		workout.FormatSeconds(res.TotalDurationSeconds),
		len(res.CompletedSets))
	fmt.Fprintf(&b, "**Exercises:** %s\n\n", mdEscape(strings.Join(res.ExerciseNames, ", ")))

	if len(res.CompletedSets) == 0 {
		return b.String()
	}
	b.WriteString("| Exercise | Level | Set | Done |\n")
	b.WriteString("|---|---:|---:|---|\n")
	for _, cs := range res.CompletedSets {
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", mdEscape(cs.ExerciseName), cs.Level, cs.SetIndex, setTarget(cs))
	}
	return b.String()
}

var mdReplacer = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "\n", " ",
)

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}

// setTarget renders what was done in a completed set.
func setTarget(cs workout.CompletedSet) string {
	return workout.SetInfo{Reps: cs.Reps, Duration: cs.Duration, Weight: cs.Weight}.String()
}

// levelTarget renders every set of a level, e.g. "8 reps @ bodyweight, 6 reps @ 10 kg".
func levelTarget(l workout.Level) string {
	parts := make([]string, 0, len(l.Sets))
	for _, s := range l.Sets {
		switch v := s.(type) {
		case workout.StrengthSet:
			reps := v.Reps
			parts = append(parts, workout.SetInfo{Reps: &reps, Weight: v.Weight}.String())
		case workout.CardioSet:
			d := v.Duration
			w := workout.Bodyweight
			if v.Weight != nil {
				w = *v.Weight
			}
			parts = append(parts, workout.SetInfo{Duration: &d, Weight: w}.String())
		}
	}
	return strings.Join(parts, ", ")
}

// formatTime formats a time as "2006-01-02 15:04" in local time.
func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
