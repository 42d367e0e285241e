package habit

import (
	"errors"
	"math"
	"time"

	"github.com/geocoder89/vita/internal/domain/patch"
)

type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	TargetCount *int      `json:"target_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Log is one day's tally for a habit. There is at most one per habit and date.
type Log struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    string    `json:"-"`
	Date      string    `json:"date"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// WithLogs is the read shape for a habit.
type WithLogs struct {
	Habit
	Logs []Log `json:"logs"`
}

var (
	ErrNotFound        = errors.New("habit not found")
	ErrNothingToUpdate = errors.New("no habit fields to update")
	ErrCountOverflow   = errors.New("habit log count out of range")
)

const (
	DefaultLogCount = 1

	// MaxCount is the largest target or daily total, the range of an INTEGER
	// column.
	MaxCount = math.MaxInt32
)

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	TargetCount *int    `json:"target_count" binding:"omitempty,min=1,max=2147483647"`
}

type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	TargetCount *int    `json:"target_count" binding:"omitempty,min=1,max=2147483647"`
}

// LogRequest.Count is optional; nil means DefaultLogCount.
type LogRequest struct {
	Count *int `json:"count" binding:"omitempty,min=1,max=2147483647"`
}

type CreateFields struct {
	Name        string
	Description *string
	TargetCount *int
}

type Patch struct {
	Name        patch.Field[string]
	Description patch.Field[string]
	TargetCount patch.Field[int]
}

func (r CreateRequest) Fields() CreateFields {
	return CreateFields{
		Name:        r.Name,
		Description: r.Description,
		TargetCount: r.TargetCount,
	}
}

func (r UpdateRequest) Patch(keys patch.Keys) (p Patch, nonNullable []string) {
	p = Patch{
		Name:        patch.From(keys.Has("name"), r.Name),
		Description: patch.From(keys.Has("description"), r.Description),
		TargetCount: patch.From(keys.Has("target_count"), r.TargetCount),
	}

	if p.Name.IsNull() {
		nonNullable = append(nonNullable, "name")
	}

	return p, nonNullable
}

func (r LogRequest) CountOrDefault() int {
	if r.Count == nil {
		return DefaultLogCount
	}
	return *r.Count
}

func (p Patch) IsEmpty() bool {
	return !p.Name.Set && !p.Description.Set && !p.TargetCount.Set
}

func (p Patch) Apply(h *Habit) {
	if p.Name.Set && p.Name.Value != nil {
		h.Name = *p.Name.Value
	}
	if p.Description.Set {
		h.Description = p.Description.Value
	}
	if p.TargetCount.Set {
		h.TargetCount = p.TargetCount.Value
	}
}
