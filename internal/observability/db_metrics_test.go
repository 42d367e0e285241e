package observability

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDB_CountsOnlyRealErrors(t *testing.T) {
	p := NewProm()

	_ = p.ObserveDB("tasks.get", func() error { return nil })
	_ = p.ObserveDB("tasks.get", func() error { return pgx.ErrNoRows })
	err := p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })

	if err == nil {
		t.Fatalf("ObserveDB must return fn's error")
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("tasks.get", "unknown")); got != 0 {
		t.Fatalf("no_rows must not count as error, got %v", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("unique violation count = %v, want 1", got)
	}
}

func TestObserveDB_NilReceiver(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("op", func() error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Fatalf("nil Prom must still run fn (called=%v err=%v)", called, err)
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "40P01"}, "deadlock"},
		{&pgconn.PgError{Code: "22001"}, "pg_22001"},
		{&fs.PathError{Op: "open", Path: "demo.json", Err: fs.ErrPermission}, "file_io"},
		{errors.New("context deadline exceeded"), "timeout"},
		{errors.New("invalid character 'x' looking for beginning of value (json)"), "decode"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		if got := classifyDBErr(tt.err); got != tt.want {
			t.Errorf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
