package monitor

import (
	"reflect"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"longer text", 8, "longe..."},
		{"abc", 2, "ab"},
		{"anything", 0, ""},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{name: "fits", in: "hello", width: 10, want: []string{"hello"}},
		{name: "breaks at space", in: "hello world foo", width: 11, want: []string{"hello", "world foo"}},
		{name: "hard break", in: "abcdefghij", width: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "keeps newlines", in: "a\n\nb", width: 4, want: []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.in, tt.width); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTailLines(t *testing.T) {
	log := "one\ntwo\nthree\nfour\n"
	got := tailLines(log, 20, 2)
	if !reflect.DeepEqual(got, []string{"three", "four"}) {
		t.Fatalf("tailLines = %q", got)
	}
	if got := tailLines("", 20, 2); got != nil {
		t.Fatalf("tailLines(empty) = %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		when time.Time
		want string
	}{
		{now.Add(time.Second), "just now"},
		{now.Add(-500 * time.Millisecond), "just now"},
		{now.Add(-5 * time.Second), "5s ago"},
		{now.Add(-3 * time.Minute), "3m ago"},
		{now.Add(-2 * time.Hour), "2h ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.when, now); got != tt.want {
			t.Errorf("formatRelativeTime(%s) = %q, want %q", now.Sub(tt.when), got, tt.want)
		}
	}
}
