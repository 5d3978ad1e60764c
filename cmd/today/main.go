package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"today/internal/calendar"
	"today/internal/config"
	"today/internal/nav"
	"today/internal/planner"
	"today/internal/recurrence"
	"today/internal/report"
	"today/internal/storage"
	"today/internal/task"
	"today/internal/ui"
	"today/internal/views"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything a command needs once config is loaded.
type app struct {
	cfg     config.Config
	store   *storage.Store
	svc     *planner.Service
	eval    recurrence.Evaluator
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// openApp loads config, opens the store and builds the planner. Logs go to
// logOut, or to the configured log file when logOut is nil.
func openApp(configPath string, logOut io.Writer) (*app, error) {
	if configPath == "" {
		configPath = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a := &app{cfg: cfg}

	if logOut == nil {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		logOut = f
	}
	level, err := cfg.Level()
	if err != nil {
		a.Close()
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))

	loc, err := cfg.Location()
	if err != nil {
		a.Close()
		return nil, err
	}
	weekday, err := cfg.Weekday()
	if err != nil {
		a.Close()
		return nil, err
	}
	order, err := cfg.Order()
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		a.Close()
		logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store)

	a.eval = recurrence.New(calendar.New(loc, weekday))
	a.svc = planner.New(store, planner.SystemClock{}, views.NewSelector(a.eval, order), logger)
	return a, nil
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "today",
		Short:         "A personal tracker for today's tasks and recurring habits.",
		Long:          `Today keeps a list of dated tasks, recurring habits with a target count per period, and timeless tasks that simply age. Run without a subcommand for the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			return ui.Run(a.svc, a.cfg)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default $TODAY_CONFIG or the user config dir).")

	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		newListCmd(withApp),
		newAddCmd(withApp),
		newToggleCmd(withApp),
		newRenameCmd(withApp),
		newRmCmd(withApp),
		newExportCmd(withApp),
		newImportCmd(withApp),
	)
	return root
}

type runner func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func newListCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "list [screen]",
		Short: "Print a screen: today, tomorrow, history, recurring or timeless.",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			screen := nav.Today
			if len(args) == 1 {
				s, err := nav.ParseScreen(args[0])
				if err != nil {
					return err
				}
				screen = s
			}
			board, err := a.svc.Board()
			if err != nil {
				return err
			}
			report.WriteScreen(cmd.OutOrStdout(), screen, board, a.eval)
			return nil
		}),
	}
}

func newAddCmd(withApp runner) *cobra.Command {
	var (
		kind      string
		tomorrow  bool
		frequency string
		times     int
		priority  bool
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task.",
		Long:  `Adds a task for today. With --tomorrow the text may start with a MM/DD/YYYY date. Recurring tasks take --frequency, --times and --priority.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			text := strings.Join(args, " ")
			typ, ok := task.ParseType(kind)
			if !ok {
				return fmt.Errorf("%w: %q", task.ErrUnknownType, kind)
			}
			var (
				t   task.Task
				err error
			)
			switch typ {
			case task.Recurring:
				freq, ok := task.ParseFrequency(frequency)
				if !ok {
					return fmt.Errorf("%w: %q", task.ErrUnknownFrequency, frequency)
				}
				t, err = a.svc.AddRecurring(text, freq, times, priority)
			case task.Timeless:
				t, err = a.svc.AddTimeless(text)
			default:
				if tomorrow {
					t, err = a.svc.AddTomorrow(text)
				} else {
					t, err = a.svc.AddToday(text)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", report.ShortID(t.ID), t.Text)
			return nil
		}),
	}
	cmd.Flags().StringVar(&kind, "type", string(task.Regular), "Task type: regular, recurring or timeless.")
	cmd.Flags().BoolVar(&tomorrow, "tomorrow", false, "Date a regular task tomorrow, or at a leading MM/DD/YYYY.")
	cmd.Flags().StringVar(&frequency, "frequency", string(task.Daily), "Recurring period: daily, weekly, monthly or yearly.")
	cmd.Flags().IntVar(&times, "times", 1, "Completions needed per period.")
	cmd.Flags().BoolVar(&priority, "priority", false, "Mark a recurring task as priority.")
	return cmd
}

func newToggleCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle today's completion of a task.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			t, err := a.svc.Find(args[0])
			if err != nil {
				return err
			}
			t, err = a.svc.Toggle(t.ID)
			if err != nil {
				return err
			}
			done := a.eval.CompletedToday(t, a.svc.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", report.Checkbox(done), report.ShortID(t.ID), t.Text)
			return nil
		}),
	}
}

func newRenameCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <text>",
		Short: "Change a task's text.",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			t, err := a.svc.Find(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if err := a.svc.Rename(t.ID, text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s\n", report.ShortID(t.ID))
			return nil
		}),
	}
}

func newRmCmd(withApp runner) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			t, err := a.svc.Find(args[0])
			if err != nil {
				return err
			}
			if from == "" {
				err = a.svc.Delete(t.ID)
			} else {
				screen, perr := nav.ParseScreen(from)
				if perr != nil {
					return perr
				}
				err = a.svc.DeleteFrom(screen, t.ID)
			}
			if errors.Is(err, planner.ErrRecurringOnTodayView) {
				return fmt.Errorf("%s is recurring: %w", report.ShortID(t.ID), err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", report.ShortID(t.ID))
			return nil
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "Delete as seen from a screen; the today screen keeps recurring tasks.")
	return cmd
}

func newExportCmd(withApp runner) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task as YAML.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			tasks, err := a.svc.Tasks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}
			return report.WriteYAML(out, tasks)
		}),
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to a file instead of stdout.")
	return cmd
}

func newImportCmd(withApp runner) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load tasks from a YAML export.",
		Long:  `Inserts exported tasks with their IDs and completion history. Tasks whose ID is already stored, and tasks without text, are skipped.`,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			tasks, err := report.ReadYAML(f)
			if err != nil {
				return err
			}
			n, err := a.svc.Import(tasks)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks\n", n)
			return nil
		}),
	}
}
