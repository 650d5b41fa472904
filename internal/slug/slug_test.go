package slug

import (
	"testing"
	"time"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Hello World", "hello-world"},
		{"accents", "Investimentos em Ações", "investimentos-em-acoes"},
		{"punctuation", "  What's next?! 2024 -- Q1 ", "what-s-next-2024-q1"},
		{"already slug", "market-update", "market-update"},
		{"only symbols", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Make(tt.in); got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)

	if got := WithTimestamp("market-update", now); got != "market-update-1700000000" {
		t.Errorf("unexpected slug %q", got)
	}
	if got := WithTimestamp("", now); got != "1700000000" {
		t.Errorf("unexpected slug %q", got)
	}
}
