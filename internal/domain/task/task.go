package task

import (
	"errors"
	"time"

	"github.com/geocoder89/vita/internal/domain/patch"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueDate     *string   `json:"due_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrNotFound        = errors.New("task not found")
	ErrNothingToUpdate = errors.New("no task fields to update")
)

type CreateRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	DueDate     string  `json:"due_date" binding:"required,isodate,notpast"`
	Status      string  `json:"status" binding:"omitempty,oneof=pending completed"`
}

// UpdateRequest only validates the values that were sent; presence is tracked
// separately by the handler.
type UpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	DueDate     *string `json:"due_date" binding:"omitempty,isodate,notpast"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending completed"`
}

// CreateFields is what the stores persist. DueDate is already normalized.
type CreateFields struct {
	Title       string
	Description *string
	DueDate     *string
	Status      string
}

type Patch struct {
	Title       patch.Field[string]
	Description patch.Field[string]
	DueDate     patch.Field[string]
	Status      patch.Field[string]
}

func (p Patch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.DueDate.Set && !p.Status.Set
}

// Apply mutates t in place with every Set field.
func (p Patch) Apply(t *Task) {
	if p.Title.Set && p.Title.Value != nil {
		t.Title = *p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Value
	}
	if p.Status.Set && p.Status.Value != nil {
		t.Status = *p.Status.Value
	}
}

func (r CreateRequest) Fields(dueDate string) CreateFields {
	status := r.Status
	if status == "" {
		status = StatusPending
	}

	return CreateFields{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     &dueDate,
		Status:      status,
	}
}

// Patch converts the request into a Patch. nonNullable lists keys that were
// sent as explicit null on attributes that cannot be cleared.
func (r UpdateRequest) Patch(keys patch.Keys) (p Patch, nonNullable []string) {
	p = Patch{
		Title:       patch.From(keys.Has("title"), r.Title),
		Description: patch.From(keys.Has("description"), r.Description),
		DueDate:     patch.From(keys.Has("due_date"), r.DueDate),
		Status:      patch.From(keys.Has("status"), r.Status),
	}

	if p.Title.IsNull() {
		nonNullable = append(nonNullable, "title")
	}
	if p.Status.IsNull() {
		nonNullable = append(nonNullable, "status")
	}

	return p, nonNullable
}
