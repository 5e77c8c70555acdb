package store

import (
	"strings"
	"testing"
)

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"  Alice  ", "Alice"},
		{"user.name-1_x:y", "user.name-1_x:y"},
		{"alice@example.com", "aliceexample.com"},
		{"../../etc/passwd", "......etcpasswd"},
		{"", "guest"},
		{"   ", "guest"},
		{"@@@", "guest"},
		{strings.Repeat("a", 80), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		if got := NormalizeUserID(tt.input); got != tt.want {
			t.Errorf("NormalizeUserID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Preferred City Is Chennai", "preferred city is chennai"},
		{"  two\t spaces \n here ", "two spaces here"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.input); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestClampImportance(t *testing.T) {
	if got := ClampImportance(-1); got != MinImportance {
		t.Errorf("ClampImportance(-1) = %v, want %v", got, MinImportance)
	}
	if got := ClampImportance(99); got != MaxImportance {
		t.Errorf("ClampImportance(99) = %v, want %v", got, MaxImportance)
	}
	if got := ClampImportance(2.0); got != 2.0 {
		t.Errorf("ClampImportance(2.0) = %v, want 2.0", got)
	}
}

func TestClipRunes(t *testing.T) {
	if got := clipRunes("héllo", 3); got != "hél" {
		t.Errorf("clipRunes = %q, want %q", got, "hél")
	}
	if got := clipRunes("ok", 10); got != "ok" {
		t.Errorf("clipRunes = %q, want unchanged", got)
	}
}
