package demo

import (
	"context"
	"slices"
	"strings"

	"github.com/geocoder89/vita/internal/domain/task"
	"github.com/google/uuid"
)

type TasksRepo struct {
	s *Store
}

func (r *TasksRepo) List(ctx context.Context, userID string) ([]task.Task, error) {
	out := make([]task.Task, 0)

	err := r.s.view(ctx, "tasks.list", func(d *dataset) error {
		for _, t := range d.Tasks {
			if t.UserID == userID {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b task.Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	return out, nil
}

func (r *TasksRepo) Get(ctx context.Context, userID, id string) (task.Task, error) {
	var (
		out   task.Task
		found bool
	)

	err := r.s.view(ctx, "tasks.get", func(d *dataset) error {
		if i := findTask(d, userID, id); i >= 0 {
			out, found = d.Tasks[i], true
		}
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	if !found {
		return task.Task{}, task.ErrNotFound
	}

	return out, nil
}

func (r *TasksRepo) Create(ctx context.Context, userID string, f task.CreateFields) (task.Task, error) {
	t := task.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       f.Title,
		Description: f.Description,
		DueDate:     f.DueDate,
		Status:      f.Status,
		CreatedAt:   r.s.now().UTC(),
	}

	err := r.s.update(ctx, "tasks.create", func(d *dataset) error {
		d.Tasks = append(d.Tasks, t)
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, userID, id string, p task.Patch) (task.Task, error) {
	if p.IsEmpty() {
		return task.Task{}, task.ErrNothingToUpdate
	}

	var (
		out   task.Task
		found bool
	)

	err := r.s.update(ctx, "tasks.update", func(d *dataset) error {
		i := findTask(d, userID, id)
		if i < 0 {
			return errSkipWrite
		}

		p.Apply(&d.Tasks[i])
		out, found = d.Tasks[i], true
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	if !found {
		return task.Task{}, task.ErrNotFound
	}

	return out, nil
}

func (r *TasksRepo) Delete(ctx context.Context, userID, id string) error {
	var found bool

	err := r.s.update(ctx, "tasks.delete", func(d *dataset) error {
		i := findTask(d, userID, id)
		if i < 0 {
			return errSkipWrite
		}

		d.Tasks = slices.Delete(d.Tasks, i, i+1)
		found = true
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return task.ErrNotFound
	}

	return nil
}

func findTask(d *dataset, userID, id string) int {
	return slices.IndexFunc(d.Tasks, func(t task.Task) bool {
		return t.ID == id && t.UserID == userID
	})
}
