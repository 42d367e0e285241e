package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/vita/internal/domain/task"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = "id, user_id, title, description, due_date, status, created_at"

// psql renders $n placeholders for pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
	now  func() time.Time
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var t task.Task
	var due *time.Time

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &due, &t.Status, &t.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}

	t.DueDate = formatDate(due)
	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, userID string) ([]task.Task, error) {
	out := make([]task.Task, 0)

	err := r.prom.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+taskColumns+`
			 FROM tasks
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (r *TasksRepo) Get(ctx context.Context, userID, id string) (task.Task, error) {
	if !utils.IsUUID(id) {
		return task.Task{}, task.ErrNotFound
	}

	var t task.Task

	err := r.prom.ObserveDB("tasks.get", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
			id, userID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, userID string, f task.CreateFields) (task.Task, error) {
	due, err := dateArg(f.DueDate)
	if err != nil {
		return task.Task{}, err
	}

	var t task.Task
	err = r.prom.ObserveDB("tasks.create", func() error {
		var e error
		t, e = scanTask(r.pool.QueryRow(ctx,
			`INSERT INTO tasks (id, user_id, title, description, due_date, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+taskColumns,
			uuid.NewString(), userID, f.Title, f.Description, due, f.Status, r.now().UTC(),
		))
		return e
	})

	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Update writes only the fields present in p.
func (r *TasksRepo) Update(ctx context.Context, userID, id string, p task.Patch) (task.Task, error) {
	if p.IsEmpty() {
		return task.Task{}, task.ErrNothingToUpdate
	}
	if !utils.IsUUID(id) {
		return task.Task{}, task.ErrNotFound
	}

	q := psql.Update("tasks").Where(sq.Eq{"id": id, "user_id": userID})

	if p.Title.Set && p.Title.Value != nil {
		q = q.Set("title", *p.Title.Value)
	}
	if p.Description.Set {
		q = q.Set("description", p.Description.Value)
	}
	if p.DueDate.Set {
		due, err := dateArg(p.DueDate.Value)
		if err != nil {
			return task.Task{}, err
		}
		q = q.Set("due_date", due)
	}
	if p.Status.Set && p.Status.Value != nil {
		q = q.Set("status", *p.Status.Value)
	}

	query, args, err := q.Suffix("RETURNING " + taskColumns).ToSql()
	if err != nil {
		// only happens when every Set field was a skipped null
		return task.Task{}, task.ErrNothingToUpdate
	}

	var t task.Task
	err = r.prom.ObserveDB("tasks.update", func() error {
		var e error
		t, e = scanTask(r.pool.QueryRow(ctx, query, args...))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, userID, id string) error {
	if !utils.IsUUID(id) {
		return task.ErrNotFound
	}

	var affected int64

	err := r.prom.ObserveDB("tasks.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}

// dateArg turns a YYYY-MM-DD string into a DATE parameter; nil stays NULL.
func dateArg(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}

	t, err := utils.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", *s, err)
	}

	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := utils.FormatDate(*t)
	return &s
}
