package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/vita/internal/config"
	"github.com/geocoder89/vita/internal/domain/user"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, email, name, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID, email string) (string, error)
}

type AuthHandler struct {
	users UserStore
	jwt   TokenIssuer
	prom  *observability.Prom
}

func NewAuthHandler(users UserStore, jwt TokenIssuer, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
		prom:  prom,
	}
}

const invalidCredentialsMessage = "Email or password is incorrect."

// Register creates the account. It does not log the user in.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondServerError(ctx, "auth.hash_password", err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.Email, req.Name, hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			h.prom.AuthFailure("user_exists")
			RespondBadRequest(ctx, "user_exists", "User already exists")
			return
		}

		respondServerError(ctx, "users.create", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"id":    u.ID,
		"email": u.Email,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.prom.AuthFailure("invalid_credentials")
			RespondBadRequest(ctx, "invalid_credentials", invalidCredentialsMessage)
			return
		}

		respondServerError(ctx, "users.get_by_email", err)
		return
	}

	if err := security.CheckPassword(found.PasswordHash, req.Password); err != nil {
		h.prom.AuthFailure("invalid_credentials")
		RespondBadRequest(ctx, "invalid_credentials", invalidCredentialsMessage)
		return
	}

	token, err := h.jwt.GenerateToken(found.ID, found.Email)
	if err != nil {
		respondServerError(ctx, "auth.sign_token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
	})
}
