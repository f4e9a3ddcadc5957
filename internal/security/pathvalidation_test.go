package security

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "experiment", "experiment"},
		{"keeps allowed punctuation", "run-2.final_x", "run-2.final_x"},
		{"replaces spaces", "my run", "my_run"},
		{"collapses repeats", "a   b///c", "a_b_c"},
		{"strips traversal", "../../etc", "etc"},
		{"trims underscores", "__name__", "name"},
		{"empty", "", "unknown"},
		{"only unsafe", "///", "unknown"},
		{"unicode", "пробник", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameLengthCap(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := SanitizeFilename(long)
	if len(got) > 128 {
		t.Errorf("sanitized length = %d, want <= 128", len(got))
	}
}
