package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/reps/internal/config"
	"github.com/hpungsan/reps/internal/countdown"
	"github.com/hpungsan/reps/internal/engine"
	"github.com/hpungsan/reps/internal/errors"
	"github.com/hpungsan/reps/internal/ops"
	"github.com/hpungsan/reps/internal/web"
	"github.com/hpungsan/reps/internal/workout"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.App {
	app := &cli.App{
		Name:    "reps",
		Usage:   "Local workout tracker",
		Version: Version,
		Commands: []*cli.Command{
			exerciseCmd(db),
			sessionCmd(db),
			workoutCmd(db, cfg, logger),
			historyCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			timerCmd(cfg),
			stopwatchCmd(),
			uiCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// exerciseCmd groups the exercise subcommands.
func exerciseCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "exercise",
		Usage: "Manage exercises",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create an exercise",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "strength", Usage: "strength|cardio"},
					&cli.IntFlag{Name: "rest", Aliases: []string{"r"}, Usage: "Rest between sets in seconds (default 60)"},
					&cli.StringFlag{Name: "levels", Aliases: []string{"l"}, Usage: `Level targets, e.g. "8@bw,8@bw,6@20;10@bw,10@bw" (strength) or "60,60;90@10" (cardio)`},
					&cli.IntFlag{Name: "level-count", Aliases: []string{"n"}, Usage: "Number of default levels when --levels is omitted"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("exercise name is required"))
					}
					kind := workout.Kind(c.String("kind"))
					input := ops.CreateExerciseInput{
						Name:            c.Args().First(),
						Kind:            kind,
						RestBetweenSets: c.Int("rest"),
						LevelCount:      c.Int("level-count"),
					}
					if spec := c.String("levels"); spec != "" {
						levels, err := parseLevels(kind, spec)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.Levels = levels
					}
					out, err := ops.CreateExercise(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:  "list",
				Usage: "List exercises in creation order",
				Action: func(c *cli.Context) error {
					out, err := ops.ListExercises(c.Context, db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "show",
				Usage:     "Show one exercise",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					out, err := ops.GetExercise(c.Context, db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "update",
				Usage:     "Update an exercise",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "New kind (requires --levels)"},
					&cli.IntFlag{Name: "rest", Aliases: []string{"r"}, Usage: "New rest between sets in seconds"},
					&cli.StringFlag{Name: "levels", Aliases: []string{"l"}, Usage: "Replacement level targets"},
				},
				Action: func(c *cli.Context) error {
					input := ops.UpdateExerciseInput{ID: c.Args().First()}
					if c.IsSet("name") {
						name := c.String("name")
						input.Name = &name
					}
					if c.IsSet("rest") {
						rest := c.Int("rest")
						input.RestBetweenSets = &rest
					}
					kind := workout.Kind(c.String("kind"))
					if c.IsSet("kind") {
						input.Kind = &kind
					}
					if spec := c.String("levels"); spec != "" {
						if kind == "" {
							ex, err := ops.GetExercise(c.Context, db, input.ID)
							if err != nil {
								return outputError(err)
							}
							kind = ex.Kind
						}
						levels, err := parseLevels(kind, spec)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.Levels = levels
					}
					out, err := ops.UpdateExercise(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an exercise and remove it from every session",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					out, err := ops.DeleteExercise(c.Context, db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
		},
	}
}

// sessionCmd groups the session subcommands.
func sessionCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a session",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rest", Aliases: []string{"r"}, Usage: "Rest between exercises in seconds (0 = advance manually)"},
					&cli.StringFlag{Name: "exercises", Aliases: []string{"e"}, Required: true, Usage: `Ordered entries, e.g. "ID1:1,ID2:3" (exercise id:level)`},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("session name is required"))
					}
					entries, err := parseEntries(c.String("exercises"))
					if err != nil {
						return outputError(errors.NewInvalidRequest(err.Error()))
					}
					out, err := ops.CreateSession(c.Context, db, ops.CreateSessionInput{
						Name:                 c.Args().First(),
						RestBetweenExercises: c.Int("rest"),
						Exercises:            entries,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:  "list",
				Usage: "List sessions in creation order",
				Action: func(c *cli.Context) error {
					out, err := ops.ListSessions(c.Context, db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "show",
				Usage:     "Show one session",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					out, err := ops.GetSession(c.Context, db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "update",
				Usage:     "Update a session",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.IntFlag{Name: "rest", Aliases: []string{"r"}, Usage: "New rest between exercises in seconds"},
					&cli.StringFlag{Name: "exercises", Aliases: []string{"e"}, Usage: "Replacement ordered entries"},
				},
				Action: func(c *cli.Context) error {
					input := ops.UpdateSessionInput{ID: c.Args().First()}
					if c.IsSet("name") {
						name := c.String("name")
						input.Name = &name
					}
					if c.IsSet("rest") {
						rest := c.Int("rest")
						input.RestBetweenExercises = &rest
					}
					if c.IsSet("exercises") {
						entries, err := parseEntries(c.String("exercises"))
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.Exercises = entries
					}
					out, err := ops.UpdateSession(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "move",
				Usage:     "Move a session entry to another position (1-based)",
				ArgsUsage: "ID FROM TO",
				Action: func(c *cli.Context) error {
					if c.NArg() != 3 {
						return outputError(errors.NewInvalidRequest("usage: reps session move ID FROM TO"))
					}
					from, err1 := strconv.Atoi(c.Args().Get(1))
					to, err2 := strconv.Atoi(c.Args().Get(2))
					if err1 != nil || err2 != nil {
						return outputError(errors.NewInvalidRequest("FROM and TO must be integers"))
					}
					out, err := ops.MoveSessionEntry(c.Context, db, ops.MoveSessionEntryInput{
						SessionID: c.Args().First(),
						From:      from - 1,
						To:        to - 1,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a session",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					out, err := ops.DeleteSession(c.Context, db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
		},
	}
}

// historyCmd groups the history subcommands.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Review finished workouts",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List workout results, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum results"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Results to skip"},
				},
				Action: func(c *cli.Context) error {
					out, err := ops.ListHistory(c.Context, db, ops.ListHistoryInput{
						Limit:  c.Int("limit"),
						Offset: c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "show",
				Usage:     "Show one workout result",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					out, err := ops.GetHistory(c.Context, db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one workout result",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					out, err := ops.DeleteHistory(c.Context, db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every workout result",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm clearing all history"},
				},
				Action: func(c *cli.Context) error {
					if !c.Bool("yes") {
						return outputError(errors.NewInvalidRequest("refusing to clear history without --yes"))
					}
					out, err := ops.ClearHistory(c.Context, db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, out)
				},
			},
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export exercises, sessions and history to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.reps/exports/reps-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import exercises, sessions and history from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// workoutCmd runs a guided workout in the terminal.
func workoutCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "workout",
		Usage: "Run a guided workout (Enter completes a set or ends a rest, q quits)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "exercise", Aliases: []string{"e"}, Usage: "Exercise ID"},
			&cli.IntFlag{Name: "level", Aliases: []string{"l"}, Value: 1, Usage: "Exercise level"},
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session ID"},
		},
		Action: func(c *cli.Context) error {
			events := make(chan engine.Event, 16)
			coach, closeCoach, err := newCoach(db, cfg, logger, engine.WithListener(func(ev engine.Event) {
				if ev.Type == engine.EventTick {
					return
				}
				select {
				case events <- ev:
				default:
				}
			}))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer closeCoach()

			_, err = ops.StartWorkout(c.Context, db, coach, ops.StartWorkoutInput{
				ExerciseID: c.String("exercise"),
				Level:      c.Int("level"),
				SessionID:  c.String("session"),
			})
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			resume := make(chan os.Signal, 1)
			notifyResume(resume)
			defer signal.Stop(resume)
			return runWorkout(ctx, coach, c.App.Reader, c.App.Writer, events, resume)
		},
	}
}

// runWorkout drives coach from input lines until the workout finishes, the
// user quits, input ends, or ctx is cancelled. Ending early quits without
// recording anything. A value on resume recomputes the rest countdown from
// its stored end time.
func runWorkout(ctx context.Context, coach *engine.Coach, in io.Reader, out io.Writer, events <-chan engine.Event, resume <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, in)
	for {
		st := coach.Status()
		if st.State == engine.NoWorkout {
			break
		}
		printStatus(out, st)

		select {
		case <-ctx.Done():
			coach.Quit()
			fmt.Fprintln(out, "Workout quit.")
			return nil
		case <-events:
			continue
		case <-resume:
			coach.Resume()
			continue
		case line, ok := <-lines:
			if !ok || strings.EqualFold(strings.TrimSpace(line), "q") {
				coach.Quit()
				fmt.Fprintln(out, "Workout quit.")
				return nil
			}
			advance(coach, st)
		}
	}

	res := coach.Engine().LastResult()
	if res == nil {
		return nil
	}
	fmt.Fprintf(out, "Workout complete: %d sets in %s\n", len(res.CompletedSets), workout.FormatSeconds(res.TotalDurationSeconds))
	return nil
}

// advance applies the Enter key to the current state.
func advance(coach *engine.Coach, st engine.Status) {
	switch st.State {
	case engine.InSet:
		if st.SetInfo != nil && st.SetInfo.Duration != nil {
			if coach.CardioRunning() {
				coach.CompleteEarly()
			} else {
				coach.StartCardioSet()
			}
			return
		}
		coach.CompleteSet()
	case engine.Resting, engine.RestingBetweenExercises:
		coach.RestComplete()
	}
}

func printStatus(w io.Writer, st engine.Status) {
	switch st.State {
	case engine.InSet:
		target := "-"
		if st.SetInfo != nil {
			target = st.SetInfo.String()
		}
		action := "Enter when done"
		if st.SetInfo != nil && st.SetInfo.Duration != nil {
			action = "Enter to start"
			if st.CardioRunning {
				action = "running, Enter to finish early"
			}
		}
		fmt.Fprintf(w, "[%d/%d] %s set %d/%d: %s (%s)\n",
			st.ExerciseIndex, st.ExerciseCount, st.ExerciseName, st.Set, st.TotalSets, target, action)
	case engine.Resting, engine.RestingBetweenExercises:
		what := "Rest"
		if st.State == engine.RestingBetweenExercises {
			what = "Rest before next exercise"
		}
		if st.RestRemainingSeconds != nil {
			fmt.Fprintf(w, "%s: %s (Enter to skip)\n", what, workout.FormatSeconds(*st.RestRemainingSeconds))
		} else {
			fmt.Fprintf(w, "%s (Enter to continue)\n", what)
		}
	}
}

// readLines delivers input lines on a channel that is closed at EOF or once
// ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// timerCmd runs a standalone countdown.
func timerCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "timer",
		Usage:     "Count down SECONDS",
		ArgsUsage: "SECONDS",
		Action: func(c *cli.Context) error {
			secs, err := strconv.Atoi(c.Args().First())
			if err != nil || secs < 0 {
				return outputError(errors.NewInvalidRequest("SECONDS must be a non-negative integer"))
			}
			backend := countdown.BackendWorker
			var opts []countdown.Option
			if cfg != nil {
				backend = cfg.TimerBackend
				opts = append(opts, countdown.WithTick(time.Duration(cfg.TickIntervalMillis)*time.Millisecond))
			}
			svc, err := countdown.New(backend, opts...)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer svc.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTimer(ctx, svc, secs, c.App.Writer)
		},
	}
}

// runTimer prints each new remaining value and returns when the countdown
// ends or ctx is cancelled.
func runTimer(ctx context.Context, svc countdown.Service, secs int, w io.Writer) error {
	ticks := make(chan int, 1)
	done := make(chan struct{})
	stopTimer := svc.Start(secs, func(remaining int) {
		select {
		case ticks <- remaining:
		default:
		}
	}, func() { close(done) })
	defer stopTimer()

	last := -1
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "cancelled")
			return nil
		case r := <-ticks:
			if r != last {
				last = r
				fmt.Fprintln(w, workout.FormatSeconds(r))
			}
		case <-done:
			if last != 0 {
				fmt.Fprintln(w, workout.FormatSeconds(0))
			}
			fmt.Fprintln(w, "done")
			return nil
		}
	}
}

// stopwatchCmd runs an interactive stopwatch.
func stopwatchCmd() *cli.Command {
	return &cli.Command{
		Name:  "stopwatch",
		Usage: "Run a stopwatch (Enter pauses/resumes, r resets, q stops)",
		Action: func(c *cli.Context) error {
			return runStopwatch(countdown.NewStopwatch(), c.App.Reader, c.App.Writer)
		},
	}
}

func runStopwatch(sw *countdown.Stopwatch, in io.Reader, w io.Writer) error {
	sw.Start()
	fmt.Fprintln(w, "running")
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "q":
			sw.Pause()
			fmt.Fprintf(w, "stopped at %s\n", formatElapsed(sw.Elapsed()))
			return nil
		case "r":
			sw.Reset()
			fmt.Fprintln(w, "reset 0:00.0")
		default:
			if sw.Running() {
				sw.Pause()
				fmt.Fprintf(w, "paused at %s\n", formatElapsed(sw.Elapsed()))
			} else {
				sw.Start()
				fmt.Fprintln(w, "running")
			}
		}
	}
	sw.Pause()
	fmt.Fprintf(w, "stopped at %s\n", formatElapsed(sw.Elapsed()))
	return nil
}

// formatElapsed renders m:ss.t (tenths).
func formatElapsed(d time.Duration) string {
	tenths := int(d / (100 * time.Millisecond))
	return fmt.Sprintf("%s.%d", workout.FormatSeconds(tenths/10), tenths%10)
}

// uiCmd serves the local web UI.
func uiCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the local web UI",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port (default from config, 8765)"},
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config, 127.0.0.1)"},
		},
		Action: func(c *cli.Context) error {
			uiCfg := *cfg
			if c.IsSet("port") {
				uiCfg.UIPort = c.Int("port")
			}
			if c.IsSet("bind") {
				uiCfg.UIBind = c.String("bind")
			}

			coach, closeCoach, err := newCoach(db, &uiCfg, logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer closeCoach()

			srv, err := web.NewServer(db, &uiCfg, coach, Version, logger)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv, logger); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to the app writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var repsErr *errors.RepsError
	if stderrors.As(err, &repsErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", repsErr.Code, repsErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseLevels parses level targets. Levels are separated by ';' and numbered
// from 1; sets within a level are separated by ','. A strength set is
// REPS@WEIGHT (weight "bw" or kilograms, "@WEIGHT" optional); a cardio set is
// SECONDS with an optional @WEIGHT.
func parseLevels(kind workout.Kind, spec string) ([]workout.Level, error) {
	if kind == "" {
		kind = workout.KindStrength
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("kind must be strength or cardio, got %q", kind)
	}

	var levels []workout.Level
	for i, levelSpec := range strings.Split(spec, ";") {
		levelSpec = strings.TrimSpace(levelSpec)
		if levelSpec == "" {
			return nil, fmt.Errorf("level %d is empty", i+1)
		}
		level := workout.Level{Level: i + 1}
		for _, setSpec := range strings.Split(levelSpec, ",") {
			set, err := parseSet(kind, strings.TrimSpace(setSpec))
			if err != nil {
				return nil, fmt.Errorf("level %d: %w", i+1, err)
			}
			level.Sets = append(level.Sets, set)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func parseSet(kind workout.Kind, s string) (workout.Set, error) {
	amount, weightStr, hasWeight := strings.Cut(s, "@")
	n, err := strconv.Atoi(strings.TrimSpace(amount))
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid set %q", s)
	}
	weight, err := workout.ParseWeight(weightStr)
	if err != nil {
		return nil, err
	}

	switch kind {
	case workout.KindCardio:
		set := workout.CardioSet{Duration: n}
		if hasWeight && !weight.IsBodyweight() {
			set.Weight = &weight
		}
		return set, nil
	default:
		return workout.StrengthSet{Reps: n, Weight: weight}, nil
	}
}

// parseEntries parses "ID:LEVEL,ID:LEVEL". A missing level means level 1.
func parseEntries(s string) ([]workout.SessionEntry, error) {
	entries := make([]workout.SessionEntry, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, levelStr, hasLevel := strings.Cut(part, ":")
		level := 1
		if hasLevel {
			n, err := strconv.Atoi(strings.TrimSpace(levelStr))
			if err != nil {
				return nil, fmt.Errorf("invalid level in %q", part)
			}
			level = n
		}
		entries = append(entries, workout.SessionEntry{ExerciseID: strings.TrimSpace(id), Level: level})
	}
	return entries, nil
}
