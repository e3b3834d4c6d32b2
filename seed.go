package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/WillyV3/planner/internal/config"
	"github.com/WillyV3/planner/internal/task"
)

// sampleTasks returns a starter list scheduled around now.
func sampleTasks(now time.Time) []task.Draft {
	at := func(days, hour int) string {
		d := now.AddDate(0, 0, days)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location()).Format(task.ScheduleLayout)
	}
	return []task.Draft{
		{Description: "Press 'x' to toggle completion", ScheduledAt: at(0, 9)},
		{Description: "Press 'a' to add a task", ScheduledAt: at(0, 10)},
		{Description: "Press 'e' to edit the selected task", ScheduledAt: at(0, 11)},
		{Description: "Press '/' to search and 'f' to filter", ScheduledAt: at(1, 9)},
		{Description: "Press 't' to switch between light and dark", ScheduledAt: at(1, 14)},
		{Description: "Review weekly goals", ScheduledAt: at(-1, 17)},
		{Description: "Plan weekend errands", ScheduledAt: at(3, 10)},
		{Description: "Press '?' for help", ScheduledAt: at(7, 12)},
	}
}

// seedCommand replaces the task list with the sample tasks.
func seedCommand(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("planner seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	force := fs.Bool("force", false, "overwrite existing tasks without asking")
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments: %v", fs.Args())
	}

	s, err := openSession(ctx, cfg, "seed")
	if err != nil {
		return err
	}
	defer s.Close()

	existing := s.store.Tasks()
	if len(existing) > 0 && !*force {
		if !confirm(stdin, stdout, fmt.Sprintf("%d tasks already exist. Overwrite?", len(existing))) {
			fmt.Fprintln(stdout, "Cancelled.")
			return nil
		}
	}
	for _, t := range existing {
		if err := s.store.Remove(t.ID); err != nil {
			return err
		}
	}

	for _, d := range sampleTasks(time.Now()) {
		if _, err := s.store.Create(d.Description, d.ScheduledAt); err != nil {
			return fmt.Errorf("seeding %q: %w", d.Description, err)
		}
	}
	if err := s.store.LastSaveErr(); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}

	stats := s.store.Stats()
	fmt.Fprintf(stdout, "✓ Seeded %d tasks (%s backend)\n", stats.Total, cfg.Backend)
	fmt.Fprintln(stdout, "\nRun 'planner' to view your tasks!")
	return nil
}
