package utils

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2099-01-01", want: "2099-01-01"},
		{in: "2099-01-01T10:30:00Z", want: "2099-01-01"},
		{in: "2099-01-01T23:30:00-05:00", want: "2099-01-01"},
		{in: "01/02/2099", wantErr: true},
		{in: "", wantErr: true},
		{in: "2099-13-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotBeforeToday(t *testing.T) {
	now := time.Now()
	today := now.Format(DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)

	if NotBeforeToday(yesterday, now) {
		t.Fatalf("yesterday %s must be rejected", yesterday)
	}
	if !NotBeforeToday(today, now) {
		t.Fatalf("today %s must be accepted", today)
	}
	if !NotBeforeToday(tomorrow, now) {
		t.Fatalf("tomorrow %s must be accepted", tomorrow)
	}
	if NotBeforeToday("garbage", now) {
		t.Fatalf("garbage must be rejected")
	}
}

func TestFormatDate(t *testing.T) {
	scanned := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(scanned); got != "2026-03-09" {
		t.Fatalf("got %q", got)
	}
}
