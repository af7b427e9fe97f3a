package version

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"9", "10", -1},
		{"10", "9", 1},
		{"45", "45", 0},
		{"45", "45.0", 0},
		{"3.38", "40", -1},
		{"3.8", "3.38", -1},
		{"46.1", "46", 1},
		{"46.beta", "46", 0},
		{"1.2.3.4", "1.2.3.5", -1},
		{"v47", "47", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"45":    "v45.0.0",
		"3.38":  "v3.38.0",
		"046":   "v46.0.0",
		"":      "v0.0.0",
		"46.rc": "v46.0.0",
	}
	for in, want := range tests {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	tests := map[string]bool{
		"45":      true,
		"3.38":    true,
		"46.beta": false,
		"":        false,
		"46.":     false,
	}
	for in, want := range tests {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMajor(t *testing.T) {
	if got := Major("3.38"); got != 3 {
		t.Errorf("Major(3.38) = %d, want 3", got)
	}
	if got := Major("50"); got != 50 {
		t.Errorf("Major(50) = %d, want 50", got)
	}
}
