package demo

import (
	"context"
	"slices"
	"strings"

	"github.com/geocoder89/vita/internal/domain/habit"
	"github.com/geocoder89/vita/internal/utils"
	"github.com/google/uuid"
)

type HabitsRepo struct {
	s *Store
}

func (r *HabitsRepo) List(ctx context.Context, userID string) ([]habit.WithLogs, error) {
	out := make([]habit.WithLogs, 0)

	err := r.s.view(ctx, "habits.list", func(d *dataset) error {
		for _, h := range d.Habits {
			if h.UserID == userID {
				out = append(out, habit.WithLogs{Habit: h, Logs: logsFor(d, userID, h.ID)})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b habit.WithLogs) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	return out, nil
}

func (r *HabitsRepo) Get(ctx context.Context, userID, id string) (habit.WithLogs, error) {
	var (
		out   habit.WithLogs
		found bool
	)

	err := r.s.view(ctx, "habits.get", func(d *dataset) error {
		if i := findHabit(d, userID, id); i >= 0 {
			out = habit.WithLogs{Habit: d.Habits[i], Logs: logsFor(d, userID, id)}
			found = true
		}
		return nil
	})
	if err != nil {
		return habit.WithLogs{}, err
	}
	if !found {
		return habit.WithLogs{}, habit.ErrNotFound
	}

	return out, nil
}

func (r *HabitsRepo) Create(ctx context.Context, userID string, f habit.CreateFields) (habit.Habit, error) {
	h := habit.Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        f.Name,
		Description: f.Description,
		TargetCount: f.TargetCount,
		CreatedAt:   r.s.now().UTC(),
	}

	err := r.s.update(ctx, "habits.create", func(d *dataset) error {
		d.Habits = append(d.Habits, h)
		return nil
	})
	if err != nil {
		return habit.Habit{}, err
	}

	return h, nil
}

func (r *HabitsRepo) Update(ctx context.Context, userID, id string, p habit.Patch) (habit.Habit, error) {
	if p.IsEmpty() {
		return habit.Habit{}, habit.ErrNothingToUpdate
	}

	var (
		out   habit.Habit
		found bool
	)

	err := r.s.update(ctx, "habits.update", func(d *dataset) error {
		i := findHabit(d, userID, id)
		if i < 0 {
			return errSkipWrite
		}

		p.Apply(&d.Habits[i])
		out, found = d.Habits[i], true
		return nil
	})
	if err != nil {
		return habit.Habit{}, err
	}
	if !found {
		return habit.Habit{}, habit.ErrNotFound
	}

	return out, nil
}

// Delete drops the habit and every log that belongs to it.
func (r *HabitsRepo) Delete(ctx context.Context, userID, id string) error {
	var found bool

	err := r.s.update(ctx, "habits.delete", func(d *dataset) error {
		i := findHabit(d, userID, id)
		if i < 0 {
			return errSkipWrite
		}

		d.Habits = slices.Delete(d.Habits, i, i+1)
		d.HabitLogs = slices.DeleteFunc(d.HabitLogs, func(l logRecord) bool {
			return l.HabitID == id && l.UserID == userID
		})
		found = true
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return habit.ErrNotFound
	}

	return nil
}

// AppendLog adds count to today's log for the habit, or starts one.
func (r *HabitsRepo) AppendLog(ctx context.Context, userID, habitID string, count int) (habit.Log, error) {
	if count > habit.MaxCount {
		return habit.Log{}, habit.ErrCountOverflow
	}

	now := r.s.now()
	today := utils.Today(now)

	var (
		out      logRecord
		found    bool
		overflow bool
	)

	err := r.s.update(ctx, "habits.append_log", func(d *dataset) error {
		if findHabit(d, userID, habitID) < 0 {
			return errSkipWrite
		}
		found = true

		i := slices.IndexFunc(d.HabitLogs, func(l logRecord) bool {
			return l.HabitID == habitID && l.UserID == userID && l.Date == today
		})
		if i >= 0 {
			if count > habit.MaxCount-d.HabitLogs[i].Count {
				overflow = true
				return errSkipWrite
			}
			d.HabitLogs[i].Count += count
			out = d.HabitLogs[i]
			return nil
		}

		out = logRecord{
			ID:        uuid.NewString(),
			HabitID:   habitID,
			UserID:    userID,
			Date:      today,
			Count:     count,
			CreatedAt: now.UTC(),
		}
		d.HabitLogs = append(d.HabitLogs, out)
		return nil
	})
	if err != nil {
		return habit.Log{}, err
	}
	if !found {
		return habit.Log{}, habit.ErrNotFound
	}
	if overflow {
		return habit.Log{}, habit.ErrCountOverflow
	}

	return out.toLog(), nil
}

func findHabit(d *dataset, userID, id string) int {
	return slices.IndexFunc(d.Habits, func(h habit.Habit) bool {
		return h.ID == id && h.UserID == userID
	})
}

// logsFor returns the habit's logs oldest day first, never nil.
func logsFor(d *dataset, userID, habitID string) []habit.Log {
	logs := make([]habit.Log, 0)
	for _, l := range d.HabitLogs {
		if l.HabitID == habitID && l.UserID == userID {
			logs = append(logs, l.toLog())
		}
	}

	slices.SortStableFunc(logs, func(a, b habit.Log) int {
		return strings.Compare(a.Date, b.Date)
	})
	return logs
}

func (l logRecord) toLog() habit.Log {
	return habit.Log{
		ID:        l.ID,
		HabitID:   l.HabitID,
		UserID:    l.UserID,
		Date:      l.Date,
		Count:     l.Count,
		CreatedAt: l.CreatedAt,
	}
}
