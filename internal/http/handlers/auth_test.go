package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/vita/internal/auth"
	"github.com/geocoder89/vita/internal/domain/user"
	"github.com/geocoder89/vita/internal/http/handlers"
	"github.com/geocoder89/vita/internal/security"
)

type fakeUserStore struct {
	createFn     func(ctx context.Context, email, name, passwordHash string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, email, name, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, name, passwordHash)
	}
	return user.User{}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		setUp    func(*fakeUserStore)
		want     int
		wantCode string
	}{
		{
			name: "success",
			body: `{"email":"ada@example.com","password":"secret1","name":"Ada"}`,
			setUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email, name, passwordHash string) (user.User, error) {
					if err := security.CheckPassword(passwordHash, "secret1"); err != nil {
						t.Errorf("store received an unusable hash: %v", err)
					}
					return user.User{ID: "u1", Email: email, Name: name}, nil
				}
			},
			want: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			body: `{"email":"ada@example.com","password":"secret1","name":"Ada"}`,
			setUp: func(f *fakeUserStore) {
				f.createFn = func(context.Context, string, string, string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			want:     http.StatusBadRequest,
			wantCode: "user_exists",
		},
		{
			name:     "short_password",
			body:     `{"email":"ada@example.com","password":"123","name":"Ada"}`,
			want:     http.StatusBadRequest,
			wantCode: "validation_error",
		},
		{
			name:     "password_over_bcrypt_limit",
			body:     `{"email":"ada@example.com","password":"` + strings.Repeat("a", 80) + `","name":"Ada"}`,
			want:     http.StatusBadRequest,
			wantCode: "validation_error",
		},
		{
			// 30 runes but 90 bytes
			name:     "multibyte_password_over_bcrypt_limit",
			body:     `{"email":"ada@example.com","password":"` + strings.Repeat("密", 30) + `","name":"Ada"}`,
			want:     http.StatusBadRequest,
			wantCode: "validation_error",
		},
		{
			name: "password_at_bcrypt_limit",
			body: `{"email":"ada@example.com","password":"` + strings.Repeat("a", 72) + `","name":"Ada"}`,
			setUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email, name, _ string) (user.User, error) {
					return user.User{ID: "u1", Email: email, Name: name}, nil
				}
			},
			want: http.StatusCreated,
		},
		{
			name:     "bad_email",
			body:     `{"email":"not-an-email","password":"secret1","name":"Ada"}`,
			want:     http.StatusBadRequest,
			wantCode: "validation_error",
		},
		{
			name: "store_error",
			body: `{"email":"ada@example.com","password":"secret1","name":"Ada"}`,
			setUp: func(f *fakeUserStore) {
				f.createFn = func(context.Context, string, string, string) (user.User, error) {
					return user.User{}, errors.New("disk full")
				}
			},
			want:     http.StatusInternalServerError,
			wantCode: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}
			if tt.setUp != nil {
				tt.setUp(store)
			}

			h := handlers.NewAuthHandler(store, auth.NewManager("test-secret", time.Hour), nil)
			w := do(setupRouter(http.MethodPost, "/auth/register", "", h.Register), http.MethodPost, "/auth/register", tt.body)

			assertStatus(t, w, tt.want)

			if tt.wantCode != "" {
				if got := decodeError(t, w).Error.Code; got != tt.wantCode {
					t.Fatalf("got code %q, want %q", got, tt.wantCode)
				}
				return
			}

			var body map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["id"] != "u1" || body["email"] != "ada@example.com" {
				t.Fatalf("unexpected body %v", body)
			}
			if _, leaked := body["token"]; leaked {
				t.Fatal("register must not issue a token")
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	store := &fakeUserStore{
		getByEmailFn: func(_ context.Context, email string) (user.User, error) {
			if email != "ada@example.com" {
				return user.User{}, user.ErrNotFound
			}
			return user.User{ID: "u1", Email: email, PasswordHash: hash}, nil
		},
	}

	jwtManager := auth.NewManager("test-secret", 7*24*time.Hour)
	h := handlers.NewAuthHandler(store, jwtManager, nil)
	r := setupRouter(http.MethodPost, "/auth/login", "", h.Login)

	t.Run("success", func(t *testing.T) {
		w := do(r, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"secret1"}`)
		assertStatus(t, w, http.StatusOK)

		var body struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}

		claims, err := jwtManager.VerifyToken(body.Token)
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if claims.UserID != "u1" || claims.Email != "ada@example.com" {
			t.Fatalf("unexpected claims %+v", claims)
		}
	})

	var messages []string
	for _, body := range []string{
		`{"email":"nobody@example.com","password":"secret1"}`,
		`{"email":"ada@example.com","password":"wrong-pass"}`,
	} {
		w := do(r, http.MethodPost, "/auth/login", body)
		assertStatus(t, w, http.StatusBadRequest)

		resp := decodeError(t, w)
		if resp.Error.Code != "invalid_credentials" {
			t.Fatalf("got code %q, want invalid_credentials", resp.Error.Code)
		}
		messages = append(messages, resp.Error.Message)
	}

	if messages[0] != messages[1] {
		t.Fatalf("unknown email and wrong password must look the same: %q vs %q", messages[0], messages[1])
	}
}
