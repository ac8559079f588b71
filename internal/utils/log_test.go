package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "python developer", limit: 0, expect: ""},
		{name: "fits", input: "python", limit: 10, expect: "python"},
		{name: "cut with ellipsis", input: "machine learning engineer", limit: 7, expect: "machine..."},
		{name: "multiline query collapsed", input: "  python\n\tand   sql ", limit: 40, expect: "python and sql"},
		{name: "counts runes not bytes", input: "Łukasz Żółw", limit: 6, expect: "Łukasz..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
