package session

import "testing"

func TestNormalizeDescription(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want *string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \t ", nil},
		{"kept", "deep work", strP("deep work")},
		{"trimmed", "  deep work  ", strP("deep work")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeDescription(tc.in)
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("normalizeDescription(%q) = %q, want nil", tc.in, *got)
			case tc.want != nil && got == nil:
				t.Errorf("normalizeDescription(%q) = nil, want %q", tc.in, *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Errorf("normalizeDescription(%q) = %q, want %q", tc.in, *got, *tc.want)
			}
		})
	}
}

func strP(s string) *string { return &s }
