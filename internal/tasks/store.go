package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the task set. Readers get copies, never the live slice.
// Every mutation re-reads the persisted set, applies the change and writes
// the full set back before returning, then notifies subscribers.
type Store struct {
	mu      sync.Mutex
	tasks   []Task
	persist Persister
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	// dirty is set while the in-memory set holds changes storage rejected.
	dirty bool

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func([]Task)
}

type StoreOption func(*Store)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides id generation.
func WithIDFunc(f func() string) StoreOption {
	return func(s *Store) { s.newID = f }
}

func NewStore(p Persister, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		persist: p,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		subs:    make(map[int]func([]Task)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory set with the persisted snapshot. Missing or
// unreadable data leaves the store empty; the failure is only logged.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.tasks = s.readSnapshot(ctx)
	s.dirty = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) readSnapshot(ctx context.Context) []Task {
	raw, ok, err := s.persist.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("storage_read_error", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	var loaded []Task
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("storage_read_error",
			slog.String("error", err.Error()),
			slog.Int("bytes", len(raw)),
		)
		return nil
	}
	return loaded
}

// Add validates in, then prepends a new task and persists.
func (s *Store) Add(ctx context.Context, in TaskInput) (Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Task{}, ErrTitleRequired
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return Task{}, ErrInvalidPriority
	}

	return s.commit(ctx, func() (Task, error) {
		t := Task{
			ID:          s.newID(),
			Title:       in.Title,
			Description: in.Description,
			Priority:    in.Priority,
			Completed:   false,
			CreatedAt:   s.now(),
		}
		if in.DueDate != nil {
			d := *in.DueDate
			t.DueDate = &d
		}
		s.tasks = append([]Task{t}, s.tasks...)
		return t.clone(), nil
	})
}

// Update merges patch into the task with the given id.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Task, error) {
	if err := patch.validate(); err != nil {
		return Task{}, err
	}
	return s.mutate(ctx, id, patch.apply)
}

// Toggle flips the completed flag of the task with the given id.
func (s *Store) Toggle(ctx context.Context, id string) (Task, error) {
	return s.mutate(ctx, id, func(t *Task) { t.Completed = !t.Completed })
}

func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.commit(ctx, func() (Task, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return Task{}, ErrNotFound
		}
		t := s.tasks[i]
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
		return t, nil
	})
	return err
}

func (s *Store) mutate(ctx context.Context, id string, fn func(*Task)) (Task, error) {
	return s.commit(ctx, func() (Task, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return Task{}, ErrNotFound
		}
		fn(&s.tasks[i])
		return s.tasks[i].clone(), nil
	})
}

// commit applies op to the freshest persisted set and writes the result
// back in one storage update, so processes sharing the database never
// overwrite each other's changes. When storage cannot be reached op still
// applies in memory and the returned error wraps ErrPersist; until a
// later write succeeds the in-memory set stays authoritative.
func (s *Store) commit(ctx context.Context, op func() (Task, error)) (Task, error) {
	s.mu.Lock()
	var (
		t     Task
		opErr error
		ran   bool
	)
	err := s.persist.Update(ctx, StorageKey, func(cur []byte, ok bool) ([]byte, error) {
		ran = true
		s.syncLocked(cur, ok)
		if t, opErr = op(); opErr != nil {
			return nil, opErr
		}
		return json.Marshal(s.tasksOrEmpty())
	})
	if !ran {
		t, opErr = op()
	}
	if opErr != nil {
		s.mu.Unlock()
		return Task{}, opErr
	}
	s.dirty = err != nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	if err != nil {
		s.logger.Error("storage_write_error", slog.String("error", err.Error()))
		return t, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return t, nil
}

// Refresh picks up changes other processes wrote to the shared storage.
// Unlike Load, a failed read keeps the current set.
func (s *Store) Refresh(ctx context.Context) error {
	raw, ok, err := s.persist.Get(ctx, StorageKey)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if !s.syncLocked(raw, ok) {
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// FreshSnapshot refreshes from storage and returns a snapshot. A failed
// refresh is logged and the in-memory set is served.
func (s *Store) FreshSnapshot(ctx context.Context) []Task {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("storage_read_error", slog.String("error", err.Error()))
	}
	return s.Snapshot()
}

// syncLocked replaces the in-memory set with the persisted one. It keeps
// the current set when nothing was persisted yet, when the data does not
// decode, or when the last write failed.
func (s *Store) syncLocked(raw []byte, ok bool) bool {
	if s.dirty || !ok {
		return false
	}
	var latest []Task
	if err := json.Unmarshal(raw, &latest); err != nil {
		s.logger.Warn("storage_read_error",
			slog.String("error", err.Error()),
			slog.Int("bytes", len(raw)),
		)
		return false
	}
	s.tasks = latest
	return true
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i].clone(), true
}

// Snapshot returns a deep copy of the set, newest-added first.
func (s *Store) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func([]Task)) (cancel func()) {
	s.subMu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap []Task) {
	s.subMu.Lock()
	fns := make([]func([]Task), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(cloneAll(snap))
	}
}

func (s *Store) tasksOrEmpty() []Task {
	if s.tasks == nil {
		return []Task{}
	}
	return s.tasks
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []Task {
	return cloneAll(s.tasks)
}

func cloneAll(in []Task) []Task {
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = t.clone()
	}
	return out
}
