package mcp

import "github.com/mark3labs/mcp-go/mcp"

// levelSchema describes one element of a levels array.
var levelSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"level": map[string]any{"type": "integer", "description": "Level number, 1-10"},
		"sets": map[string]any{
			"type":        "array",
			"description": "Per-set targets. Strength sets use reps and weight, cardio sets use duration (seconds) and an optional weight.",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reps":     map[string]any{"type": "integer"},
					"duration": map[string]any{"type": "integer"},
					"weight":   map[string]any{"description": `Kilograms, or "bodyweight"`},
				},
			},
		},
	},
	"required": []string{"level", "sets"},
}

var sessionEntrySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"exercise_id": map[string]any{"type": "string"},
		"level":       map[string]any{"type": "integer"},
	},
	"required": []string{"exercise_id", "level"},
}

var toolExerciseCreate = mcp.NewTool("exercise_create",
	mcp.WithDescription("Create an exercise. Without explicit levels, level_count default levels are generated (3 sets of 8 reps at bodyweight, or 3 sets of 60 seconds for cardio)."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name, 2-35 characters after trimming")),
	mcp.WithString("kind", mcp.Description("Exercise kind (default: strength)"), mcp.Enum("strength", "cardio")),
	mcp.WithNumber("rest_between_sets", mcp.Description("Rest between sets in seconds (default: 60)")),
	mcp.WithArray("levels", mcp.Description("Explicit levels; overrides level_count"), mcp.Items(levelSchema)),
	mcp.WithNumber("level_count", mcp.Description("Number of default levels to generate, 1-10 (default: 1)")),
)

var toolExerciseList = mcp.NewTool("exercise_list",
	mcp.WithDescription("List all exercises in creation order."),
)

var toolExerciseGet = mcp.NewTool("exercise_get",
	mcp.WithDescription("Get one exercise with all its levels."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolExerciseUpdate = mcp.NewTool("exercise_update",
	mcp.WithDescription("Update an exercise. Only the given fields change. Changing kind requires new levels."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("kind", mcp.Description("New kind"), mcp.Enum("strength", "cardio")),
	mcp.WithNumber("rest_between_sets", mcp.Description("New rest between sets in seconds")),
	mcp.WithArray("levels", mcp.Description("Replacement levels"), mcp.Items(levelSchema)),
)

var toolExerciseDelete = mcp.NewTool("exercise_delete",
	mcp.WithDescription("Delete an exercise and remove it from every session that uses it."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Exercise ID")),
)

var toolSessionCreate = mcp.NewTool("session_create",
	mcp.WithDescription("Create a session: an ordered list of exercises, each at a chosen level."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Session name, 2-35 characters after trimming")),
	mcp.WithNumber("rest_between_exercises", mcp.Description("Rest between exercises in seconds (0 means wait for the user)")),
	mcp.WithArray("exercises", mcp.Required(), mcp.Description("Ordered session entries"), mcp.Items(sessionEntrySchema)),
)

var toolSessionList = mcp.NewTool("session_list",
	mcp.WithDescription("List all sessions in creation order."),
)

var toolSessionGet = mcp.NewTool("session_get",
	mcp.WithDescription("Get one session with its ordered entries."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolSessionUpdate = mcp.NewTool("session_update",
	mcp.WithDescription("Update a session. Only the given fields change; exercises replaces the whole entry list."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithNumber("rest_between_exercises", mcp.Description("New rest between exercises in seconds")),
	mcp.WithArray("exercises", mcp.Description("Replacement session entries"), mcp.Items(sessionEntrySchema)),
)

var toolSessionMove = mcp.NewTool("session_move",
	mcp.WithDescription("Move one session entry to a new position. Positions are 0-based."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
	mcp.WithNumber("from", mcp.Required(), mcp.Description("Current position of the entry")),
	mcp.WithNumber("to", mcp.Required(), mcp.Description("New position of the entry")),
)

var toolSessionDelete = mcp.NewTool("session_delete",
	mcp.WithDescription("Delete a session. Its exercises are kept."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolWorkoutStart = mcp.NewTool("workout_start",
	mcp.WithDescription("Start a workout from one exercise at a level, or from a session. Replaces any workout in progress."),
	mcp.WithString("exercise_id", mcp.Description("Exercise ID for a single-exercise workout")),
	mcp.WithNumber("level", mcp.Description("Level for a single-exercise workout")),
	mcp.WithString("session_id", mcp.Description("Session ID for a session workout")),
)

var toolWorkoutStatus = mcp.NewTool("workout_status",
	mcp.WithDescription("Show the active workout: state, current exercise and set, target and rest remaining."),
)

var toolWorkoutCompleteSet = mcp.NewTool("workout_complete_set",
	mcp.WithDescription("Complete the current set. Starts a rest, or finishes the workout after the final set."),
)

var toolWorkoutRestComplete = mcp.NewTool("workout_rest_complete",
	mcp.WithDescription("End the current rest now and move to the next set or exercise."),
)

var toolWorkoutStartCardio = mcp.NewTool("workout_start_cardio",
	mcp.WithDescription("Start the countdown for the current cardio set. The set completes when it runs out."),
)

var toolWorkoutQuit = mcp.NewTool("workout_quit",
	mcp.WithDescription("Discard the active workout without saving it."),
)

var toolWorkoutSetRestEndsAt = mcp.NewTool("workout_set_rest_ends_at",
	mcp.WithDescription("Move the end of the current rest. Give rest_ends_at (RFC 3339) or seconds from now; give neither to wait for workout_rest_complete."),
	mcp.WithString("rest_ends_at", mcp.Description("Absolute end time, RFC 3339")),
	mcp.WithNumber("seconds", mcp.Description("Seconds from now")),
)

var toolWorkoutLastResult = mcp.NewTool("workout_last_result",
	mcp.WithDescription("Get the result of the most recently finished workout."),
)

var toolWorkoutClearLastResult = mcp.NewTool("workout_clear_last_result",
	mcp.WithDescription("Dismiss the last workout result."),
)

var toolHistoryList = mcp.NewTool("history_list",
	mcp.WithDescription("List workout results, newest first."),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var toolHistoryGet = mcp.NewTool("history_get",
	mcp.WithDescription("Get one workout result with every completed set."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Result ID")),
)

var toolHistoryDelete = mcp.NewTool("history_delete",
	mcp.WithDescription("Delete one workout result."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Result ID")),
)

var toolHistoryClear = mcp.NewTool("history_clear",
	mcp.WithDescription("Delete every workout result."),
)

var toolDataExport = mcp.NewTool("data_export",
	mcp.WithDescription("Export exercises, sessions and history to a JSONL file."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path (default: ~/.reps/exports/reps-<timestamp>.jsonl)")),
)

var toolDataImport = mcp.NewTool("data_import",
	mcp.WithDescription("Import a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Description("Collision handling (default: error)"), mcp.Enum("error", "replace", "rename")),
)
