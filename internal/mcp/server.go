package mcp

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/engine"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"exercise", "session", "workout", "history", "data"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"exercise_create": {
		def:     toolExerciseCreate,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExerciseCreate },
	},
	"exercise_list": {
		def:     toolExerciseList,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExerciseList },
	},
	"exercise_get": {
		def:     toolExerciseGet,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExerciseGet },
	},
	"exercise_update": {
		def:     toolExerciseUpdate,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExerciseUpdate },
	},
	"exercise_delete": {
		def:     toolExerciseDelete,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExerciseDelete },
	},
	"session_create": {
		def:     toolSessionCreate,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionCreate },
	},
	"session_list": {
		def:     toolSessionList,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList },
	},
	"session_get": {
		def:     toolSessionGet,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionGet },
	},
	"session_update": {
		def:     toolSessionUpdate,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionUpdate },
	},
	"session_move": {
		def:     toolSessionMove,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionMove },
	},
	"session_delete": {
		def:     toolSessionDelete,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionDelete },
	},
	"workout_start": {
		def:     toolWorkoutStart,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutStart },
	},
	"workout_status": {
		def:     toolWorkoutStatus,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutStatus },
	},
	"workout_complete_set": {
		def:     toolWorkoutCompleteSet,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutCompleteSet },
	},
	"workout_rest_complete": {
		def:     toolWorkoutRestComplete,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutRestComplete },
	},
	"workout_start_cardio": {
		def:     toolWorkoutStartCardio,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutStartCardio },
	},
	"workout_quit": {
		def:     toolWorkoutQuit,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutQuit },
	},
	"workout_set_rest_ends_at": {
		def:     toolWorkoutSetRestEndsAt,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutSetRestEndsAt },
	},
	"workout_last_result": {
		def:     toolWorkoutLastResult,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutLastResult },
	},
	"workout_clear_last_result": {
		def:     toolWorkoutClearLastResult,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleWorkoutClearLastResult },
	},
	"history_list": {
		def:     toolHistoryList,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryList },
	},
	"history_get": {
		def:     toolHistoryGet,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryGet },
	},
	"history_delete": {
		def:     toolHistoryDelete,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryDelete },
	},
	"history_clear": {
		def:     toolHistoryClear,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryClear },
	},
	"data_export": {
		def:     toolDataExport,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDataExport },
	},
	"data_import": {
		def:     toolDataImport,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDataImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "workout_quit" → "workout").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the reps tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration. The coach holds the one active workout
// the workout_* tools drive.
func NewServer(db *sql.DB, cfg *config.Config, coach *engine.Coach, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"reps",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Local workout tracker. Manage exercises and sessions, run one guided workout at a time, and review workout history."),
	)

	h := NewHandlers(db, cfg, coach)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, coach *engine.Coach, version string, logger *slog.Logger) error {
	s := NewServer(db, cfg, coach, version)
	logger.Info("mcp server starting", "transport", "stdio", "version", version)
	return server.ServeStdio(s)
}
