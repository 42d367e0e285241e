package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/vita/internal/domain/habit"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	habitColumns = "id, user_id, name, description, target_count, created_at"
	logColumns   = "id, habit_id, user_id, date, count, created_at"
)

type HabitsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
	now  func() time.Time
}

func NewHabitsRepo(pool *pgxpool.Pool, prom *observability.Prom) *HabitsRepo {
	return &HabitsRepo{pool: pool, prom: prom, now: time.Now}
}

func scanHabit(row rowScanner) (habit.Habit, error) {
	var h habit.Habit
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.TargetCount, &h.CreatedAt)
	return h, err
}

func scanLog(row rowScanner) (habit.Log, error) {
	var l habit.Log
	var day time.Time

	if err := row.Scan(&l.ID, &l.HabitID, &l.UserID, &day, &l.Count, &l.CreatedAt); err != nil {
		return habit.Log{}, err
	}

	l.Date = utils.FormatDate(day)
	return l, nil
}

func (r *HabitsRepo) List(ctx context.Context, userID string) ([]habit.WithLogs, error) {
	habits := make([]habit.Habit, 0)
	logsByHabit := make(map[string][]habit.Log)

	err := r.prom.ObserveDB("habits.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+habitColumns+`
			 FROM habits
			 WHERE user_id = $1
			 ORDER BY created_at DESC, id DESC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			h, err := scanHabit(rows)
			if err != nil {
				return err
			}
			habits = append(habits, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	if len(habits) == 0 {
		return []habit.WithLogs{}, nil
	}

	err = r.prom.ObserveDB("habits.list_logs", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+logColumns+`
			 FROM habit_logs
			 WHERE user_id = $1
			 ORDER BY date ASC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLog(rows)
			if err != nil {
				return err
			}
			logsByHabit[l.HabitID] = append(logsByHabit[l.HabitID], l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	out := make([]habit.WithLogs, 0, len(habits))
	for _, h := range habits {
		logs := logsByHabit[h.ID]
		if logs == nil {
			logs = []habit.Log{}
		}
		out = append(out, habit.WithLogs{Habit: h, Logs: logs})
	}

	return out, nil
}

func (r *HabitsRepo) Get(ctx context.Context, userID, id string) (habit.WithLogs, error) {
	if !utils.IsUUID(id) {
		return habit.WithLogs{}, habit.ErrNotFound
	}

	var h habit.Habit

	err := r.prom.ObserveDB("habits.get", func() error {
		var e error
		h, e = scanHabit(r.pool.QueryRow(ctx,
			`SELECT `+habitColumns+` FROM habits WHERE id = $1 AND user_id = $2`,
			id, userID,
		))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return habit.WithLogs{}, habit.ErrNotFound
		}
		return habit.WithLogs{}, fmt.Errorf("get habit: %w", err)
	}

	logs := make([]habit.Log, 0)
	err = r.prom.ObserveDB("habits.get_logs", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+logColumns+`
			 FROM habit_logs
			 WHERE habit_id = $1 AND user_id = $2
			 ORDER BY date ASC`,
			id, userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			l, err := scanLog(rows)
			if err != nil {
				return err
			}
			logs = append(logs, l)
		}
		return rows.Err()
	})
	if err != nil {
		return habit.WithLogs{}, fmt.Errorf("get habit logs: %w", err)
	}

	return habit.WithLogs{Habit: h, Logs: logs}, nil
}

func (r *HabitsRepo) Create(ctx context.Context, userID string, f habit.CreateFields) (habit.Habit, error) {
	var h habit.Habit

	err := r.prom.ObserveDB("habits.create", func() error {
		var e error
		h, e = scanHabit(r.pool.QueryRow(ctx,
			`INSERT INTO habits (id, user_id, name, description, target_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+habitColumns,
			uuid.NewString(), userID, f.Name, f.Description, f.TargetCount, r.now().UTC(),
		))
		return e
	})
	if err != nil {
		return habit.Habit{}, fmt.Errorf("insert habit: %w", err)
	}

	return h, nil
}

func (r *HabitsRepo) Update(ctx context.Context, userID, id string, p habit.Patch) (habit.Habit, error) {
	if p.IsEmpty() {
		return habit.Habit{}, habit.ErrNothingToUpdate
	}
	if !utils.IsUUID(id) {
		return habit.Habit{}, habit.ErrNotFound
	}

	q := psql.Update("habits").Where(sq.Eq{"id": id, "user_id": userID})

	if p.Name.Set && p.Name.Value != nil {
		q = q.Set("name", *p.Name.Value)
	}
	if p.Description.Set {
		q = q.Set("description", p.Description.Value)
	}
	if p.TargetCount.Set {
		q = q.Set("target_count", p.TargetCount.Value)
	}

	query, args, err := q.Suffix("RETURNING " + habitColumns).ToSql()
	if err != nil {
		return habit.Habit{}, habit.ErrNothingToUpdate
	}

	var h habit.Habit
	err = r.prom.ObserveDB("habits.update", func() error {
		var e error
		h, e = scanHabit(r.pool.QueryRow(ctx, query, args...))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return habit.Habit{}, habit.ErrNotFound
		}
		return habit.Habit{}, fmt.Errorf("update habit: %w", err)
	}

	return h, nil
}

// Delete removes the habit and its logs in one transaction. Ids that are not
// UUIDs cannot match and are reported as not found.
func (r *HabitsRepo) Delete(ctx context.Context, userID, id string) error {
	if !utils.IsUUID(id) {
		return habit.ErrNotFound
	}

	var affected int64

	err := r.prom.ObserveDB("habits.delete", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}

		defer func() {
			_ = tx.Rollback(ctx)
		}()

		_, err = tx.Exec(ctx, `DELETE FROM habit_logs WHERE habit_id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}

		affected = tag.RowsAffected()
		if affected == 0 {
			// nothing to commit, the deferred rollback releases the tx
			return nil
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}

	if affected == 0 {
		return habit.ErrNotFound
	}
	return nil
}

// AppendLog adds count to today's log for the habit, creating the row on the
// first append of the day. The habit must belong to userID.
func (r *HabitsRepo) AppendLog(ctx context.Context, userID, habitID string, count int) (habit.Log, error) {
	if !utils.IsUUID(habitID) {
		return habit.Log{}, habit.ErrNotFound
	}
	if count > habit.MaxCount {
		return habit.Log{}, habit.ErrCountOverflow
	}

	now := r.now()
	day, err := dateArg(ptr(utils.Today(now)))
	if err != nil {
		return habit.Log{}, err
	}

	var l habit.Log
	err = r.prom.ObserveDB("habits.append_log", func() error {
		var e error
		l, e = scanLog(r.pool.QueryRow(ctx,
			`INSERT INTO habit_logs (id, habit_id, user_id, date, count, created_at)
			 SELECT $1::uuid, h.id, h.user_id, $4::date, $5::int, $6::timestamptz
			 FROM habits h
			 WHERE h.id = $2 AND h.user_id = $3
			 ON CONFLICT (habit_id, date)
			 DO UPDATE SET count = habit_logs.count + EXCLUDED.count
			 RETURNING `+logColumns,
			uuid.NewString(), habitID, userID, day, count, now.UTC(),
		))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return habit.Log{}, habit.ErrNotFound
		}
		if isOutOfRange(err) {
			return habit.Log{}, habit.ErrCountOverflow
		}
		return habit.Log{}, fmt.Errorf("append habit log: %w", err)
	}

	return l, nil
}

func ptr[T any](v T) *T {
	return &v
}
