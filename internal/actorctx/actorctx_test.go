package actorctx

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := With(context.Background(), Actor{UserID: "u1", Email: "a@example.com"})

	id, ok := UserIDFrom(ctx)
	if !ok || id != "u1" {
		t.Fatalf("got (%q, %v), want (u1, true)", id, ok)
	}

	a, _ := From(ctx)
	if a.Email != "a@example.com" {
		t.Fatalf("got email %q", a.Email)
	}
}

func TestUserIDFrom_EmptyContext(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatal("expected no user on a bare context")
	}

	if _, ok := UserIDFrom(With(context.Background(), Actor{})); ok {
		t.Fatal("expected empty user id to be treated as absent")
	}
}
