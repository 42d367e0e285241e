package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/vita/internal/config"
	"github.com/geocoder89/vita/internal/domain/habit"
	"github.com/geocoder89/vita/internal/utils"
	"github.com/gin-gonic/gin"
)

type HabitStore interface {
	List(ctx context.Context, userID string) ([]habit.WithLogs, error)
	Get(ctx context.Context, userID, id string) (habit.WithLogs, error)
	Create(ctx context.Context, userID string, f habit.CreateFields) (habit.Habit, error)
	Update(ctx context.Context, userID, id string, p habit.Patch) (habit.Habit, error)
	Delete(ctx context.Context, userID, id string) error
	AppendLog(ctx context.Context, userID, habitID string, count int) (habit.Log, error)
}

type HabitsHandler struct {
	repo HabitStore
}

func NewHabitsHandler(repo HabitStore) *HabitsHandler {
	return &HabitsHandler{repo: repo}
}

const habitNotFoundMessage = "Habit not found"

func (h *HabitsHandler) ListHabits(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	habits, err := h.repo.List(cctx, userID)
	if err != nil {
		respondServerError(ctx, "habits.list", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"habits": habits})
}

func (h *HabitsHandler) GetHabit(ctx *gin.Context) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	out, err := h.repo.Get(cctx, userID, id)
	if err != nil {
		h.respondRepoError(ctx, "habits.get", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *HabitsHandler) CreateHabit(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req habit.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	out, err := h.repo.Create(cctx, userID, req.Fields())
	if err != nil {
		respondServerError(ctx, "habits.create", err)
		return
	}

	ctx.JSON(http.StatusCreated, out)
}

func (h *HabitsHandler) UpdateHabit(ctx *gin.Context) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	var req habit.UpdateRequest
	keys, ok := BindJSONPatch(ctx, &req)
	if !ok {
		return
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

	out, err := h.repo.Update(cctx, userID, id, p)
	if err != nil {
		h.respondRepoError(ctx, "habits.update", err)
		return
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *HabitsHandler) DeleteHabit(ctx *gin.Context) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, userID, id); err != nil {
		h.respondRepoError(ctx, "habits.delete", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// LogHabit records progress for today. The body is optional; count defaults
// to 1 and repeated calls on the same day add up.
func (h *HabitsHandler) LogHabit(ctx *gin.Context) {
	userID, id, ok := h.target(ctx)
	if !ok {
		return
	}

	var req habit.LogRequest
	if !BindOptionalJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	l, err := h.repo.AppendLog(cctx, userID, id, req.CountOrDefault())
	if err != nil {
		h.respondRepoError(ctx, "habits.append_log", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"log": l})
}

// target resolves the caller and the :id path param. Ids that cannot exist
// are answered like missing ones.
func (h *HabitsHandler) target(ctx *gin.Context) (userID, id string, ok bool) {
	userID, ok = currentUser(ctx)
	if !ok {
		return "", "", false
	}

	id = ctx.Param("id")
	if !utils.IsResourceID(id) {
		RespondNotFound(ctx, habitNotFoundMessage)
		return "", "", false
	}

	return userID, id, true
}

func (h *HabitsHandler) respondRepoError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, habit.ErrNotFound):
		RespondNotFound(ctx, habitNotFoundMessage)
	case errors.Is(err, habit.ErrNothingToUpdate):
		RespondBadRequest(ctx, "nothing_to_update", "No fields to update")
	case errors.Is(err, habit.ErrCountOverflow):
		fields := []FieldError{{
			Field:   "count",
			Rule:    "max",
			Param:   strconv.Itoa(habit.MaxCount),
			Message: "would push today's total past " + strconv.Itoa(habit.MaxCount),
		}}
		RespondValidation(ctx, summarize(fields), gin.H{"fields": fields})
	default:
		respondServerError(ctx, op, err)
	}
}
