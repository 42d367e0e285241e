// Package repo picks the persistence backend once at startup.
package repo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/vita/internal/config"
	"github.com/geocoder89/vita/internal/db"
	"github.com/geocoder89/vita/internal/domain/habit"
	"github.com/geocoder89/vita/internal/domain/task"
	"github.com/geocoder89/vita/internal/domain/user"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/repo/demo"
	"github.com/geocoder89/vita/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Users interface {
	Create(ctx context.Context, email, name, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type Tasks interface {
	List(ctx context.Context, userID string) ([]task.Task, error)
	Get(ctx context.Context, userID, id string) (task.Task, error)
	Create(ctx context.Context, userID string, f task.CreateFields) (task.Task, error)
	Update(ctx context.Context, userID, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type Habits interface {
	List(ctx context.Context, userID string) ([]habit.WithLogs, error)
	Get(ctx context.Context, userID, id string) (habit.WithLogs, error)
	Create(ctx context.Context, userID string, f habit.CreateFields) (habit.Habit, error)
	Update(ctx context.Context, userID, id string, p habit.Patch) (habit.Habit, error)
	Delete(ctx context.Context, userID, id string) error
	AppendLog(ctx context.Context, userID, habitID string, count int) (habit.Log, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Backend string
	Users   Users
	Tasks   Tasks
	Habits  Habits

	ping  func(context.Context) error
	close func()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open returns the demo file store when cfg.DemoMode is set and a Postgres
// store otherwise.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom) (*Store, error) {
	if cfg.DemoMode {
		ds, err := demo.Open(cfg.DemoDataPath, prom)
		if err != nil {
			return nil, err
		}

		slog.Info("store_opened", "backend", "demo", "path", cfg.DemoDataPath)
		return NewDemo(ds), nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.DBAutoSchema {
		if err := db.ApplySchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("schema_applied")
	}

	slog.Info("store_opened", "backend", "postgres", "max_conns", cfg.DBMaxConns)
	return NewPostgres(pool, prom), nil
}

func NewPostgres(pool *pgxpool.Pool, prom *observability.Prom) *Store {
	return &Store{
		Backend: "postgres",
		Users:   postgres.NewUsersRepo(pool, prom),
		Tasks:   postgres.NewTasksRepo(pool, prom),
		Habits:  postgres.NewHabitsRepo(pool, prom),
		ping:    pool.Ping,
		close:   pool.Close,
	}
}

func NewDemo(ds *demo.Store) *Store {
	return &Store{
		Backend: "demo",
		Users:   ds.Users(),
		Tasks:   ds.Tasks(),
		Habits:  ds.Habits(),
		ping:    ds.Ping,
		close:   ds.Close,
	}
}
