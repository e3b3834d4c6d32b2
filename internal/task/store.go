package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/WillyV3/planner/internal/kv"
)

// DefaultSaveTimeout bounds a single flush to the kv store.
const DefaultSaveTimeout = 2 * time.Second

// ChangeKind names what a committed change did.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeRemoved
	ChangeToggled
	ChangeTheme
	ChangeReloaded
	ChangeMigrated
	ChangeEditBegan
	ChangeEditCanceled
	ChangeView
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	case ChangeToggled:
		return "toggled"
	case ChangeTheme:
		return "theme"
	case ChangeReloaded:
		return "reloaded"
	case ChangeMigrated:
		return "migrated"
	case ChangeEditBegan:
		return "edit-began"
	case ChangeEditCanceled:
		return "edit-canceled"
	case ChangeView:
		return "view"
	default:
		return "unknown"
	}
}

// Persisted reports whether changes of this kind are flushed to storage.
func (k ChangeKind) Persisted() bool {
	switch k {
	case ChangeCreated, ChangeUpdated, ChangeRemoved, ChangeToggled, ChangeTheme, ChangeMigrated:
		return true
	default:
		return false
	}
}

// Change is delivered to subscribers after each state change. SaveErr is set
// when the flush that followed a persisted change failed.
type Change struct {
	Kind    ChangeKind
	TaskID  string
	SaveErr error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and flush events.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSaveTimeout bounds each flush. Non-positive values keep the default.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithIDGenerator replaces NewID, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithTheme sets the theme used when storage holds no theme flag.
func WithTheme(t Theme) Option {
	return func(s *Store) {
		if t == ThemeLight || t == ThemeDark {
			s.defaultTheme = t
		}
	}
}

// Store owns the canonical task list. It is driven from a single goroutine
// (the Bubble Tea update loop) and is not safe for concurrent use.
type Store struct {
	kv           kv.Store
	logger       *log.Logger
	timeout      time.Duration
	newID        func() string
	defaultTheme Theme

	tasks   []Task
	edit    *EditSession
	draft   Draft
	prefs   Preferences
	saveErr error

	subs    []subscriber
	nextSub int
}

// Open loads the task list and theme from backend. Unreadable or malformed
// data is logged and treated as absent. Records that needed ids are written
// back before Open returns.
func Open(ctx context.Context, backend kv.Store, opts ...Option) *Store {
	if backend == nil {
		panic("task.Open: kv store is nil")
	}
	s := &Store{
		kv:           backend,
		logger:       log.New(io.Discard),
		timeout:      DefaultSaveTimeout,
		newID:        NewID,
		defaultTheme: ThemeLight,
		prefs:        Preferences{Filter: FilterAll},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tasks = []Task{}
	s.prefs.Theme = s.defaultTheme
	if theme, err := s.readTheme(ctx); err != nil {
		s.logger.Warn("ignoring stored theme", "key", ThemeKey, "err", err)
	} else {
		s.prefs.Theme = theme
	}
	tasks, migrated, err := s.readTasks(ctx)
	if err != nil {
		s.logger.Warn("ignoring stored tasks", "key", TasksKey, "err", err)
		return s
	}
	s.tasks = tasks
	s.logger.Debug("loaded tasks", "tasks", len(tasks), "theme", s.prefs.Theme)

	if migrated {
		s.logger.Info("assigned ids to stored tasks", "tasks", len(s.tasks))
		s.commit(ChangeMigrated, "")
	}
	return s
}

// readTheme returns the stored theme, or the default when none is stored.
func (s *Store) readTheme(ctx context.Context) (Theme, error) {
	raw, ok, err := s.kv.Load(ctx, ThemeKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return s.defaultTheme, nil
	}
	return DecodeTheme(raw)
}

// readTasks returns the stored list, empty when none is stored, and whether
// any record needed a new id.
func (s *Store) readTasks(ctx context.Context) ([]Task, bool, error) {
	raw, ok, err := s.kv.Load(ctx, TasksKey)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		s.logger.Debug("no stored tasks", "key", TasksKey)
		return []Task{}, false, nil
	}
	return DecodeTasks(raw, s.newID)
}

// Reload re-reads storage, dropping any edit session and draft. Filter and
// search are kept. When storage cannot be read or decoded nothing changes
// and the error is returned.
func (s *Store) Reload(ctx context.Context) error {
	theme, err := s.readTheme(ctx)
	if err != nil {
		s.logger.Error("reload theme", "key", ThemeKey, "err", err)
		return fmt.Errorf("reload theme: %w", err)
	}
	tasks, migrated, err := s.readTasks(ctx)
	if err != nil {
		s.logger.Error("reload tasks", "key", TasksKey, "err", err)
		return fmt.Errorf("reload tasks: %w", err)
	}

	s.tasks = tasks
	s.prefs.Theme = theme
	s.edit = nil
	s.draft = Draft{}
	if migrated {
		s.commit(ChangeMigrated, "")
	}
	s.notify(Change{Kind: ChangeReloaded})
	return nil
}

type subscriber struct {
	id int
	fn func(Change)
}

// Subscribe registers fn for every Change. Subscribers are called in the
// order they subscribed. The returned func unregisters fn.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

func (s *Store) notify(c Change) {
	for _, sub := range slices.Clone(s.subs) {
		sub.fn(c)
	}
}

// commit flushes persisted kinds and then notifies subscribers.
func (s *Store) commit(kind ChangeKind, id string) {
	c := Change{Kind: kind, TaskID: id}
	if kind.Persisted() {
		c.SaveErr = s.Flush()
	}
	s.notify(c)
}

// Flush writes the task list and theme flag. The in-memory state stays
// authoritative when it fails; the error is logged and kept for LastSaveErr.
func (s *Store) Flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var errs []error
	data, err := EncodeTasks(s.tasks)
	if err != nil {
		errs = append(errs, err)
	} else if err := s.kv.Save(ctx, TasksKey, data); err != nil {
		errs = append(errs, err)
	}
	if err := s.kv.Save(ctx, ThemeKey, EncodeTheme(s.prefs.Theme)); err != nil {
		errs = append(errs, err)
	}

	s.saveErr = errors.Join(errs...)
	if s.saveErr != nil {
		s.logger.Error("flush failed", "tasks", len(s.tasks), "err", s.saveErr)
	} else {
		s.logger.Debug("flushed", "tasks", len(s.tasks), "theme", s.prefs.Theme)
	}
	return s.saveErr
}

// LastSaveErr returns the result of the most recent flush.
func (s *Store) LastSaveErr() error {
	return s.saveErr
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueID() string {
	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	return id
}

// Create appends a pending task. Invalid input leaves the list untouched and
// returns a *ValidationError. An active edit session is not affected.
func (s *Store) Create(description, scheduledAt string) (Task, error) {
	description, scheduledAt, err := ValidateInput(description, scheduledAt)
	if err != nil {
		return Task{}, err
	}
	t := Task{
		ID:          s.uniqueID(),
		Description: description,
		ScheduledAt: scheduledAt,
	}
	s.tasks = append(s.tasks, t)
	s.draft = Draft{}
	s.logger.Debug("task created", "id", t.ID)
	s.commit(ChangeCreated, t.ID)
	return t, nil
}

// BeginEdit loads the task into the draft and starts an edit session on it.
func (s *Store) BeginEdit(id string) (Draft, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Draft{}, ErrTaskNotFound
	}
	s.edit = &EditSession{TaskID: id}
	s.draft = Draft{
		Description: s.tasks[i].Description,
		ScheduledAt: s.tasks[i].ScheduledAt,
	}
	s.notify(Change{Kind: ChangeEditBegan, TaskID: id})
	return s.draft, nil
}

// CommitEdit replaces the edited task's description and schedule, keeping its
// completion state, and ends the session. Without a session it returns
// ErrNotEditing and changes nothing. Invalid input keeps the session open.
func (s *Store) CommitEdit(description, scheduledAt string) (Task, error) {
	if s.edit == nil {
		return Task{}, ErrNotEditing
	}
	id := s.edit.TaskID
	i := s.indexOf(id)
	if i < 0 {
		s.edit = nil
		s.draft = Draft{}
		s.notify(Change{Kind: ChangeEditCanceled, TaskID: id})
		return Task{}, ErrTaskNotFound
	}
	description, scheduledAt, err := ValidateInput(description, scheduledAt)
	if err != nil {
		return Task{}, err
	}

	s.tasks[i].Description = description
	s.tasks[i].ScheduledAt = scheduledAt
	s.edit = nil
	s.draft = Draft{}
	s.logger.Debug("task updated", "id", id)
	s.commit(ChangeUpdated, id)
	return s.tasks[i], nil
}

// CancelEdit ends the edit session without touching the task.
func (s *Store) CancelEdit() {
	if s.edit == nil {
		return
	}
	id := s.edit.TaskID
	s.edit = nil
	s.draft = Draft{}
	s.notify(Change{Kind: ChangeEditCanceled, TaskID: id})
}

// Remove deletes the task; later tasks shift left. Removing the task under
// edit ends the session.
func (s *Store) Remove(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	if s.edit != nil && s.edit.TaskID == id {
		s.edit = nil
		s.draft = Draft{}
	}
	s.logger.Debug("task removed", "id", id)
	s.commit(ChangeRemoved, id)
	return nil
}

// Toggle flips the task's completion state.
func (s *Store) Toggle(id string) (Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, ErrTaskNotFound
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.commit(ChangeToggled, id)
	return s.tasks[i], nil
}

// SetFilter changes the view filter. Nothing is persisted.
func (s *Store) SetFilter(mode FilterMode) {
	s.prefs.Filter = mode
	s.notify(Change{Kind: ChangeView})
}

// SetSearch changes the view search text. Nothing is persisted.
func (s *Store) SetSearch(text string) {
	s.prefs.Search = text
	s.notify(Change{Kind: ChangeView})
}

// SetTheme sets and persists the theme.
func (s *Store) SetTheme(t Theme) {
	s.prefs.Theme = t
	s.commit(ChangeTheme, "")
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Store) ToggleTheme() Theme {
	s.SetTheme(s.prefs.Theme.Toggle())
	return s.prefs.Theme
}

// SetDraft records the form's current input.
func (s *Store) SetDraft(d Draft) {
	s.draft = d
}

// Draft returns the form's current input.
func (s *Store) Draft() Draft {
	return s.draft
}

// Editing returns the active edit session, if any.
func (s *Store) Editing() (EditSession, bool) {
	if s.edit == nil {
		return EditSession{}, false
	}
	return *s.edit, true
}

// Preferences returns the current view preferences.
func (s *Store) Preferences() Preferences {
	return s.prefs
}

// Tasks returns a copy of the full list.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Task looks a task up by id.
func (s *Store) Task(id string) (Task, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i], true
}

// View applies the current filter and search to the list.
func (s *Store) View() []Task {
	return DeriveView(s.tasks, s.prefs.Filter, s.prefs.Search)
}

// Stats summarizes the full list.
func (s *Store) Stats() Stats {
	return computeStats(s.tasks)
}
