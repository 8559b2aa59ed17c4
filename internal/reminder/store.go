package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	chatErrors "github.com/harunnryd/chatlab/internal/errors"
	"github.com/harunnryd/chatlab/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

type Reminder struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Recurrence string     `json:"recurrence,omitempty"` // standard 5-field cron spec or descriptor such as "@daily"
	NextRun    *time.Time `json:"next_run,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Store records reminders in a JSON file. An empty path keeps them in memory
// for the life of the process.
type Store struct {
	path        string
	lockTimeout time.Duration
	now         func() time.Time

	mu     sync.Mutex
	memory []Reminder
}

func NewStore(path string, lockTimeout time.Duration) *Store {
	return &Store{
		path:        strings.TrimSpace(path),
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for CreatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Schedule validates and records one reminder. A recurrence must parse as a
// standard cron spec; NextRun is then the first firing after at.
func (s *Store) Schedule(ctx context.Context, content string, at time.Time, recurrence string) (Reminder, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Reminder{}, chatErrors.InvalidInput("reminder content must not be empty")
	}
	if at.IsZero() {
		return Reminder{}, chatErrors.InvalidInput("reminder timestamp must be set")
	}

	r := Reminder{
		ID:         ulid.Make().String(),
		Content:    content,
		Timestamp:  at,
		Recurrence: strings.TrimSpace(recurrence),
		CreatedAt:  s.now(),
	}

	if r.Recurrence != "" {
		schedule, err := cron.ParseStandard(r.Recurrence)
		if err != nil {
			return Reminder{}, chatErrors.WrapWithCategory(err, fmt.Sprintf("invalid recurrence %q", r.Recurrence), chatErrors.ErrInvalidInput)
		}
		next := schedule.Next(at)
		r.NextRun = &next
	}

	if err := s.append(ctx, r); err != nil {
		return Reminder{}, err
	}

	slog.Info("Reminder set", "id", r.ID, "content", r.Content, "at", r.Timestamp.Format(time.RFC3339), "recurrence", r.Recurrence)
	return r, nil
}

// List returns all reminders ordered by timestamp.
func (s *Store) List(ctx context.Context) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return sortByTimestamp(append([]Reminder(nil), s.memory...)), nil
	}

	lock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	reminders, err := s.load()
	if err != nil {
		return nil, err
	}
	return sortByTimestamp(reminders), nil
}

// Upcoming returns reminders whose timestamp or next recurrence is after now.
func (s *Store) Upcoming(ctx context.Context, now time.Time) ([]Reminder, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []Reminder
	for _, r := range all {
		if r.Timestamp.After(now) || (r.NextRun != nil && r.NextRun.After(now)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) append(ctx context.Context, r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		s.memory = append(s.memory, r)
		return nil
	}

	lock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	reminders, err := s.load()
	if err != nil {
		return err
	}
	reminders = append(reminders, r)

	if err := store.WriteJSON(s.path, reminders); err != nil {
		return chatErrors.WrapWithCategory(err, "save reminders", chatErrors.ErrPersistence)
	}
	return nil
}

func (s *Store) lock(ctx context.Context) (*store.FileLock, error) {
	cfg := store.DefaultFileLockConfig()
	if s.lockTimeout > 0 {
		cfg.LockTimeout = s.lockTimeout
	}
	lock, err := store.NewFileLock(ctx, "reminders", store.LockPath(s.path), cfg)
	if err != nil {
		return nil, chatErrors.WrapWithCategory(err, "lock reminders", chatErrors.ErrPersistence)
	}
	return lock, nil
}

func (s *Store) load() ([]Reminder, error) {
	var reminders []Reminder
	if _, err := store.ReadJSON(s.path, &reminders); err != nil {
		return nil, chatErrors.WrapWithCategory(err, "load reminders", chatErrors.ErrPersistence)
	}
	return reminders, nil
}

func sortByTimestamp(in []Reminder) []Reminder {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].Timestamp.Before(in[j].Timestamp)
	})
	return in
}
