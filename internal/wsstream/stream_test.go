package wsstream

import "testing"

func TestIsTerminalStatus(t *testing.T) {
	cases := map[string]bool{
		"completed": true,
		"failed":    true,
		"running":   false,
		"pending":   false,
	}
	for status, want := range cases {
		if got := isTerminalStatus(status); got != want {
			t.Errorf("isTerminalStatus(%q) = %v, want %v", status, got, want)
		}
	}
}
