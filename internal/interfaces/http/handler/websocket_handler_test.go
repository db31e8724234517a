package handler

import (
	"fmt"
	"testing"
)

func TestOriginSet(t *testing.T) {
	set := newOriginSet([]string{" http://localhost:3000/ ", "", "https://calendar.example.com"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://localhost:3000/path", true},
		{"https://calendar.example.com", true},
		{"http://calendar.example.com", false},
		{"http://localhost:3001", false},
		{"", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := set.allows(tt.origin); got != tt.want {
			t.Errorf("allows(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	if !newOriginSet([]string{"*"}).allows("https://anything.example") {
		t.Fatalf("wildcard must allow any origin")
	}
	if newOriginSet(nil).allows("http://localhost:3000") {
		t.Fatalf("empty set must reject everything")
	}
}

func TestSplitDates(t *testing.T) {
	got := splitDates(" 2024-05-10, ,2024-05-11,")
	if fmt.Sprint(got) != "[2024-05-10 2024-05-11]" {
		t.Fatalf("splitDates() = %v", got)
	}
	if splitDates("") != nil {
		t.Fatalf("empty input must yield no dates")
	}
}
