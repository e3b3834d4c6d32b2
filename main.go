package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/WillyV3/planner/internal/config"
	"github.com/WillyV3/planner/internal/kv"
	"github.com/WillyV3/planner/internal/logging"
	"github.com/WillyV3/planner/internal/task"
	"github.com/WillyV3/planner/internal/transfer"
	"github.com/WillyV3/planner/internal/tui"
)

const (
	exitOK      = 0
	exitUsage   = 1
	exitStorage = 2
)

// usageError marks mistakes in how planner was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := dispatch(ctx, args, stdin, stdout, stderr)
	var ue usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &ue), errors.Is(err, config.ErrFlags):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitStorage
	}
}

func dispatch(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}

	subcommand := "run"
	remaining := fs.Args()
	if len(remaining) > 0 {
		subcommand, remaining = remaining[0], remaining[1:]
	}

	switch subcommand {
	case "run":
		if len(remaining) > 0 {
			return usagef("unexpected arguments: %v", remaining)
		}
		return runCommand(ctx, cfg)
	case "seed":
		return seedCommand(ctx, cfg, remaining, stdin, stdout)
	case "export":
		return exportCommand(ctx, cfg, remaining, stdout)
	case "import":
		return importCommand(ctx, cfg, remaining, stdout)
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		printUsage(fs, stderr)
		return usagef("unknown command: %s", subcommand)
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: planner [flags] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                         start the task planner (default)")
	fmt.Fprintln(w, "  seed [--force]              write a sample task list")
	fmt.Fprintln(w, "  export [--format] [--out]   write tasks as json, yaml or toml")
	fmt.Fprintln(w, "  import [--format] FILE      append tasks from a file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// session bundles what every command needs: a logger and an opened store.
type session struct {
	cfg     *config.Config
	logger  *log.Logger
	store   *task.Store
	closers []io.Closer
}

func openSession(ctx context.Context, cfg *config.Config, command string) (*session, error) {
	s := &session{cfg: cfg}

	logger, closer, err := logging.New(logging.Options{
		Path:   cfg.LogFile,
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Prefix: command,
	})
	if err != nil {
		// Logging is best effort; the store still works without it.
		logger = logging.Discard()
	} else {
		s.closers = append(s.closers, closer)
	}
	s.logger = logger

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	if c, ok := backend.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
	logger.Info("session started", "backend", cfg.Backend, "config", cfg.ConfigFile)

	theme, err := task.ParseTheme(cfg.Theme)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = task.Open(ctx, backend,
		task.WithLogger(logger),
		task.WithSaveTimeout(cfg.SaveTimeout),
		task.WithTheme(theme),
	)
	s.store.Subscribe(func(c task.Change) {
		if c.SaveErr != nil {
			logger.Warn("change not saved", "kind", c.Kind, "id", c.TaskID, "err", c.SaveErr)
			return
		}
		logger.Debug("change", "kind", c.Kind, "id", c.TaskID)
	})
	return s, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return kv.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Prefix)
	case config.BackendMemory:
		return kv.NewMemoryStore(nil), nil
	default:
		return kv.NewFileStore(cfg.DataFile)
	}
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

// runCommand starts the TUI.
func runCommand(ctx context.Context, cfg *config.Config) error {
	s, err := openSession(ctx, cfg, "run")
	if err != nil {
		return err
	}
	defer s.Close()

	p := tea.NewProgram(tui.NewModel(s.store, s.logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return s.store.LastSaveErr()
}

// exportCommand writes the task list to stdout or --out.
func exportCommand(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("planner export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	formatFlag := fs.String("format", "", "output format: json, yaml or toml (default from --out, else json)")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %v", fs.Args())
	}

	format, err := resolveFormat(*formatFlag, *out)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, "export")
	if err != nil {
		return err
	}
	defer s.Close()

	tasks := s.store.Tasks()
	if *out == "" {
		return transfer.Export(stdout, tasks, format)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := transfer.Export(f, tasks, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Exported %d tasks to %s\n", len(tasks), *out)
	return nil
}

// importCommand appends tasks from a file. Every record goes through Create
// so imported data obeys the same rules as typed input.
func importCommand(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("planner import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	formatFlag := fs.String("format", "", "input format: json, yaml or toml (default from file extension)")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	if fs.NArg() != 1 {
		return usagef("import needs exactly one file")
	}
	path := fs.Arg(0)

	format, err := resolveFormat(*formatFlag, path)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return usagef("opening import file: %w", err)
	}
	defer f.Close()

	tasks, err := transfer.Import(f, format)
	if err != nil {
		return usageError{err}
	}

	s, err := openSession(ctx, cfg, "import")
	if err != nil {
		return err
	}
	defer s.Close()

	var added, skipped int
	for i, t := range tasks {
		created, err := s.store.Create(t.Description, t.ScheduledAt)
		if err != nil {
			skipped++
			fmt.Fprintf(stdout, "  skipped record %d: %v\n", i+1, err)
			continue
		}
		if t.Completed {
			if _, err := s.store.Toggle(created.ID); err != nil {
				return err
			}
		}
		added++
	}
	s.logger.Info("import finished", "file", path, "added", added, "skipped", skipped)

	fmt.Fprintf(stdout, "✓ Imported %d tasks from %s", added, path)
	if skipped > 0 {
		fmt.Fprintf(stdout, " (%d skipped)", skipped)
	}
	fmt.Fprintln(stdout)
	return s.store.LastSaveErr()
}

func resolveFormat(flagValue, path string) (transfer.Format, error) {
	if flagValue != "" {
		f, err := transfer.ParseFormat(flagValue)
		if err != nil {
			return "", usageError{err}
		}
		return f, nil
	}
	if path == "" || filepath.Ext(path) == "" {
		return transfer.FormatJSON, nil
	}
	f, err := transfer.FormatForPath(path)
	if err != nil {
		return "", usageError{err}
	}
	return f, nil
}

// confirm asks a y/N question on stdin.
func confirm(stdin io.Reader, stdout io.Writer, question string) bool {
	fmt.Fprintf(stdout, "%s (y/N): ", question)
	var response string
	fmt.Fscanln(stdin, &response)
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}
