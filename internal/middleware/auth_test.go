package middleware

import "testing"

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"spaces only", "   ", ""},
		{"plain token", "ttkabc123", "ttkabc123"},
		{"bearer prefix", "Bearer ttkabc123", "ttkabc123"},
		{"lowercase bearer", "bearer jwt.token.here", "jwt.token.here"},
		{"bearer with padding", "  Bearer   ttkabc123  ", "ttkabc123"},
		{"bearer without token", "Bearer", "Bearer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeToken(tc.in); got != tc.want {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
