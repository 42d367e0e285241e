package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/vita/internal/domain/task"
	"github.com/geocoder89/vita/internal/http/handlers"
)

type fakeTaskStore struct {
	listFn   func(ctx context.Context, userID string) ([]task.Task, error)
	getFn    func(ctx context.Context, userID, id string) (task.Task, error)
	createFn func(ctx context.Context, userID string, f task.CreateFields) (task.Task, error)
	updateFn func(ctx context.Context, userID, id string, p task.Patch) (task.Task, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (f *fakeTaskStore) List(ctx context.Context, userID string) ([]task.Task, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return []task.Task{}, nil
}

func (f *fakeTaskStore) Get(ctx context.Context, userID, id string) (task.Task, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID, id)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTaskStore) Create(ctx context.Context, userID string, fields task.CreateFields) (task.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, fields)
	}
	return task.Task{}, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, userID, id string, p task.Patch) (task.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, userID, id, p)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTaskStore) Delete(ctx context.Context, userID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, id)
	}
	return task.ErrNotFound
}

func TestCreateTaskHandler(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	today := time.Now().Format("2006-01-02")

	tests := []struct {
		name      string
		body      string
		repoSetUp func(*fakeTaskStore)
		want      int
	}{
		{
			name: "success",
			body: `{"title":"Pay bills","due_date":"2099-01-01"}`,
			repoSetUp: func(f *fakeTaskStore) {
				f.createFn = func(_ context.Context, userID string, fields task.CreateFields) (task.Task, error) {
					if userID != "alice" {
						t.Errorf("got user %q", userID)
					}
					if fields.Status != task.StatusPending {
						t.Errorf("status should default to pending, got %q", fields.Status)
					}
					return task.Task{ID: newUUID(), UserID: userID, Title: fields.Title, DueDate: fields.DueDate, Status: fields.Status}, nil
				}
			},
			want: http.StatusCreated,
		},
		{
			name: "due_today",
			body: `{"title":"Pay bills","due_date":"` + today + `"}`,
			want: http.StatusCreated,
		},
		{
			name: "timestamp_is_normalized",
			body: `{"title":"Pay bills","due_date":"2099-03-04T10:00:00Z"}`,
			repoSetUp: func(f *fakeTaskStore) {
				f.createFn = func(_ context.Context, _ string, fields task.CreateFields) (task.Task, error) {
					if fields.DueDate == nil || *fields.DueDate != "2099-03-04" {
						t.Errorf("due date not normalized: %v", fields.DueDate)
					}
					return task.Task{}, nil
				}
			},
			want: http.StatusCreated,
		},
		{
			name: "due_yesterday",
			body: `{"title":"Pay bills","due_date":"` + yesterday + `"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "missing_title",
			body: `{"due_date":"2099-01-01"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "bad_status",
			body: `{"title":"x","due_date":"2099-01-01","status":"archived"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"title":"Pay bills","due_date":"2099-01-01"}`,
			repoSetUp: func(f *fakeTaskStore) {
				f.createFn = func(context.Context, string, task.CreateFields) (task.Task, error) {
					return task.Task{}, errors.New("db error")
				}
			},
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeTaskStore{}
			called := false
			store.createFn = func(context.Context, string, task.CreateFields) (task.Task, error) {
				called = true
				return task.Task{}, nil
			}
			if tt.repoSetUp != nil {
				tt.repoSetUp(store)
			}

			h := handlers.NewTasksHandler(store)
			w := do(setupRouter(http.MethodPost, "/tasks", "alice", h.CreateTask), http.MethodPost, "/tasks", tt.body)

			assertStatus(t, w, tt.want)

			if tt.want == http.StatusBadRequest {
				if called {
					t.Fatal("store must not be called for invalid input")
				}
				if code := decodeError(t, w).Error.Code; code != "validation_error" {
					t.Fatalf("got code %q", code)
				}
			}
		})
	}
}

func TestGetTaskHandler_NotFound(t *testing.T) {
	id := newUUID()
	store := &fakeTaskStore{
		getFn: func(_ context.Context, userID, gotID string) (task.Task, error) {
			if userID == "alice" && gotID == id {
				return task.Task{ID: id, UserID: "alice", Title: "Pay bills"}, nil
			}
			return task.Task{}, task.ErrNotFound
		},
	}
	h := handlers.NewTasksHandler(store)

	t.Run("owner", func(t *testing.T) {
		w := do(setupRouter(http.MethodGet, "/tasks/:id", "alice", h.GetTask), http.MethodGet, "/tasks/"+id, "")
		assertStatus(t, w, http.StatusOK)
		if w.Header().Get("ETag") == "" {
			t.Fatal("expected ETag on read")
		}
	})

	t.Run("other_user", func(t *testing.T) {
		w := do(setupRouter(http.MethodGet, "/tasks/:id", "bob", h.GetTask), http.MethodGet, "/tasks/"+id, "")
		assertStatus(t, w, http.StatusNotFound)
		if code := decodeError(t, w).Error.Code; code != "not_found" {
			t.Fatalf("got code %q", code)
		}
	})

	t.Run("malformed_id", func(t *testing.T) {
		called := false
		h := handlers.NewTasksHandler(&fakeTaskStore{
			getFn: func(context.Context, string, string) (task.Task, error) {
				called = true
				return task.Task{}, nil
			},
		})

		w := do(setupRouter(http.MethodGet, "/tasks/:id", "alice", h.GetTask), http.MethodGet, "/tasks/"+strings.Repeat("x", 200), "")
		assertStatus(t, w, http.StatusNotFound)
		if called {
			t.Fatal("store must not be queried for an id that cannot exist")
		}
	})

	t.Run("demo_file_id", func(t *testing.T) {
		legacy := "t_1715342400000_9f2c"
		h := handlers.NewTasksHandler(&fakeTaskStore{
			getFn: func(_ context.Context, userID, gotID string) (task.Task, error) {
				if gotID != legacy {
					return task.Task{}, task.ErrNotFound
				}
				return task.Task{ID: legacy, UserID: userID, Title: "Imported"}, nil
			},
		})

		w := do(setupRouter(http.MethodGet, "/tasks/:id", "alice", h.GetTask), http.MethodGet, "/tasks/"+legacy, "")
		assertStatus(t, w, http.StatusOK)
	})
}

func TestUpdateTaskHandler(t *testing.T) {
	id := newUUID()

	tests := []struct {
		name     string
		body     string
		check    func(t *testing.T, p task.Patch)
		repoErr  error
		want     int
		wantCode string
		noStore  bool
	}{
		{
			name: "status_only",
			body: `{"status":"completed"}`,
			check: func(t *testing.T, p task.Patch) {
				if !p.Status.Set || *p.Status.Value != task.StatusCompleted {
					t.Errorf("status not set: %+v", p.Status)
				}
				if p.Title.Set || p.Description.Set || p.DueDate.Set {
					t.Errorf("absent fields must stay unset: %+v", p)
				}
			},
			want: http.StatusOK,
		},
		{
			name: "null_clears_due_date",
			body: `{"due_date":null}`,
			check: func(t *testing.T, p task.Patch) {
				if !p.DueDate.IsNull() {
					t.Errorf("expected explicit null due_date, got %+v", p.DueDate)
				}
			},
			want: http.StatusOK,
		},
		{
			name:     "no_recognized_fields",
			body:     `{"colour":"red"}`,
			want:     http.StatusBadRequest,
			wantCode: "nothing_to_update",
			noStore:  true,
		},
		{
			name:     "empty_object",
			body:     `{}`,
			want:     http.StatusBadRequest,
			wantCode: "nothing_to_update",
			noStore:  true,
		},
		{
			name:     "null_title",
			body:     `{"title":null}`,
			want:     http.StatusBadRequest,
			wantCode: "validation_error",
			noStore:  true,
		},
		{
			name:     "past_due_date",
			body:     `{"due_date":"2001-01-01"}`,
			want:     http.StatusBadRequest,
			wantCode: "validation_error",
			noStore:  true,
		},
		{
			name:     "foreign_task",
			body:     `{"title":"mine now"}`,
			repoErr:  task.ErrNotFound,
			want:     http.StatusNotFound,
			wantCode: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			store := &fakeTaskStore{
				updateFn: func(_ context.Context, _ string, _ string, p task.Patch) (task.Task, error) {
					called = true
					if tt.check != nil {
						tt.check(t, p)
					}
					if tt.repoErr != nil {
						return task.Task{}, tt.repoErr
					}
					out := task.Task{ID: id, Title: "Pay bills", Status: task.StatusPending}
					p.Apply(&out)
					return out, nil
				},
			}

			h := handlers.NewTasksHandler(store)
			w := do(setupRouter(http.MethodPut, "/tasks/:id", "alice", h.UpdateTask), http.MethodPut, "/tasks/"+id, tt.body)

			assertStatus(t, w, tt.want)
			if tt.noStore && called {
				t.Fatal("store must not be called")
			}
			if tt.wantCode != "" {
				if code := decodeError(t, w).Error.Code; code != tt.wantCode {
					t.Fatalf("got code %q, want %q", code, tt.wantCode)
				}
			}
		})
	}
}

func TestDeleteTaskHandler(t *testing.T) {
	id := newUUID()
	store := &fakeTaskStore{
		deleteFn: func(_ context.Context, userID, _ string) error {
			if userID != "alice" {
				return task.ErrNotFound
			}
			return nil
		},
	}
	h := handlers.NewTasksHandler(store)

	w := do(setupRouter(http.MethodDelete, "/tasks/:id", "alice", h.DeleteTask), http.MethodDelete, "/tasks/"+id, "")
	assertStatus(t, w, http.StatusOK)

	var body map[string]bool
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !body["success"] {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	w = do(setupRouter(http.MethodDelete, "/tasks/:id", "bob", h.DeleteTask), http.MethodDelete, "/tasks/"+id, "")
	assertStatus(t, w, http.StatusNotFound)
}

func TestListTasksHandler_ConditionalGet(t *testing.T) {
	store := &fakeTaskStore{
		listFn: func(context.Context, string) ([]task.Task, error) {
			return []task.Task{{ID: "t1", Title: "Pay bills", Status: task.StatusPending}}, nil
		},
	}
	h := handlers.NewTasksHandler(store)
	r := setupRouter(http.MethodGet, "/tasks", "alice", h.ListTasks)

	w := do(r, http.MethodGet, "/tasks", "")
	assertStatus(t, w, http.StatusOK)

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req := httptestRequest(http.MethodGet, "/tasks")
	req.Header.Set("If-None-Match", etag)
	w2 := serve(r, req)
	assertStatus(t, w2, http.StatusNotModified)
}
