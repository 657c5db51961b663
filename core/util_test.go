package core

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "trims", s: "  hey  ", want: "hey"},
		{name: "keeps case", s: " HeY ", want: "HeY"},
		{name: "lowers", s: " HeY ", lower: true, want: "hey"},
		{name: "empty", s: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.s, tt.lower); got != tt.want {
				t.Errorf("CleanString() = %q, want %q", got, tt.want)
			}
		})
	}
}
