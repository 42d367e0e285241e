package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestIsUUID(t *testing.T) {
	if !IsUUID(uuid.NewString()) {
		t.Fatalf("fresh uuid rejected")
	}

	for _, s := range []string{"", "abc", "t_123_abc", "{" + uuid.NewString() + "}"} {
		if IsUUID(s) {
			t.Errorf("IsUUID(%q) = true, want false", s)
		}
	}
}

func TestIsResourceID(t *testing.T) {
	for _, s := range []string{uuid.NewString(), "t_1715342400000_9f2c", "h_1", "42"} {
		if !IsResourceID(s) {
			t.Errorf("IsResourceID(%q) = false, want true", s)
		}
	}

	for _, s := range []string{"", "a b", "../etc", "x;drop", strings.Repeat("a", 129)} {
		if IsResourceID(s) {
			t.Errorf("IsResourceID(%q) = true, want false", s)
		}
	}
}
