// Package demo is a single-file JSON store for running the API without a
// database. Every operation loads the whole document and every write persists
// the whole document.
package demo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/geocoder89/vita/internal/domain/habit"
	"github.com/geocoder89/vita/internal/domain/task"
	"github.com/geocoder89/vita/internal/observability"
)

type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type logRecord struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

type dataset struct {
	Users     []userRecord  `json:"users"`
	Tasks     []task.Task   `json:"tasks"`
	Habits    []habit.Habit `json:"habits"`
	HabitLogs []logRecord   `json:"habit_logs"`
}

func (d *dataset) normalize() {
	if d.Users == nil {
		d.Users = []userRecord{}
	}
	if d.Tasks == nil {
		d.Tasks = []task.Task{}
	}
	if d.Habits == nil {
		d.Habits = []habit.Habit{}
	}
	if d.HabitLogs == nil {
		d.HabitLogs = []logRecord{}
	}
}

// Store owns the data file. The mutex only serializes goroutines of this
// process; two processes sharing a file can still lose writes.
type Store struct {
	path string
	prom *observability.Prom
	now  func() time.Time

	mu sync.Mutex
}

type Option func(*Store)

// WithClock overrides time.Now for created_at stamps and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open validates the file at path, creating it with an empty dataset when it
// does not exist. A file that is not a valid dataset is an error.
func Open(path string, prom *observability.Prom, opts ...Option) (*Store, error) {
	s := &Store{path: path, prom: prom, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	_, err := s.load()
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, fs.ErrNotExist):
		empty := dataset{}
		empty.normalize()
		if err := s.save(&empty); err != nil {
			return nil, fmt.Errorf("init demo data %s: %w", path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("open demo data %s: %w", path, err)
	}
}

func (s *Store) Users() *UsersRepo   { return &UsersRepo{s: s} }
func (s *Store) Tasks() *TasksRepo   { return &TasksRepo{s: s} }
func (s *Store) Habits() *HabitsRepo { return &HabitsRepo{s: s} }

// Ping checks the file is still readable and parses.
func (s *Store) Ping(ctx context.Context) error {
	return s.view(ctx, "demo.ping", func(*dataset) error { return nil })
}

func (s *Store) Close() {}

func (s *Store) load() (*dataset, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var d dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	d.normalize()

	return &d, nil
}

// save writes to a temp file next to the target and renames it over, so a
// crash mid-write leaves the previous document intact.
func (s *Store) save(d *dataset) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// view runs fn against a fresh read of the file.
func (s *Store) view(ctx context.Context, op string, fn func(*dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prom.ObserveDB(op, func() error {
		d, err := s.load()
		if err != nil {
			return err
		}
		return fn(d)
	})
}

// errSkipWrite lets an update callback bail out without saving and without
// the operation counting as a failure.
var errSkipWrite = errors.New("skip write")

// update is view plus a save when fn succeeds. fn returning an error discards
// its changes.
func (s *Store) update(ctx context.Context, op string, fn func(*dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.prom.ObserveDB(op, func() error {
		d, err := s.load()
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			if errors.Is(err, errSkipWrite) {
				return nil
			}
			return err
		}
		return s.save(d)
	})
}
