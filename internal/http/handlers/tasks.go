package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/vita/internal/config"
	"github.com/geocoder89/vita/internal/domain/task"
	"github.com/geocoder89/vita/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskStore interface {
	List(ctx context.Context, userID string) ([]task.Task, error)
	Get(ctx context.Context, userID, id string) (task.Task, error)
	Create(ctx context.Context, userID string, f task.CreateFields) (task.Task, error)
	Update(ctx context.Context, userID, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type TasksHandler struct {
	repo TaskStore
}

func NewTasksHandler(repo TaskStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

const taskNotFoundMessage = "Task not found"

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	tasks, err := h.repo.List(cctx, userID)
	if err != nil {
		respondServerError(ctx, "tasks.list", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if !utils.IsResourceID(id) {
		RespondNotFound(ctx, taskNotFoundMessage)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.repo.Get(cctx, userID, id)
	if err != nil {
		h.respondRepoError(ctx, "tasks.get", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req task.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	// already validated by the isodate tag
	due, err := utils.NormalizeDate(req.DueDate)
	if err != nil {
		RespondValidation(ctx, "due_date must be a date in YYYY-MM-DD format", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.repo.Create(cctx, userID, req.Fields(due))
	if err != nil {
		respondServerError(ctx, "tasks.create", err)
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

// UpdateTask applies a partial update: absent keys are left alone, null clears
// nullable fields.
func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if !utils.IsResourceID(id) {
		RespondNotFound(ctx, taskNotFoundMessage)
		return
	}

	var req task.UpdateRequest
	keys, ok := BindJSONPatch(ctx, &req)
	if !ok {
		return
	}

	if req.DueDate != nil {
		due, err := utils.NormalizeDate(*req.DueDate)
		if err != nil {
			RespondValidation(ctx, "due_date must be a date in YYYY-MM-DD format", nil)
			return
		}
		req.DueDate = &due
	}

	p, nonNullable := req.Patch(keys)
	if len(nonNullable) > 0 {
		RespondNonNullable(ctx, nonNullable)
		return
	}
	if p.IsEmpty() {
		RespondBadRequest(ctx, "nothing_to_update", "No fields to update")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.repo.Update(cctx, userID, id, p)
	if err != nil {
		h.respondRepoError(ctx, "tasks.update", err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	id := ctx.Param("id")
	if !utils.IsResourceID(id) {
		RespondNotFound(ctx, taskNotFoundMessage)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, userID, id); err != nil {
		h.respondRepoError(ctx, "tasks.delete", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *TasksHandler) respondRepoError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, taskNotFoundMessage)
	case errors.Is(err, task.ErrNothingToUpdate):
		RespondBadRequest(ctx, "nothing_to_update", "No fields to update")
	default:
		respondServerError(ctx, op, err)
	}
}
