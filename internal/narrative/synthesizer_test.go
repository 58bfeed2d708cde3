package narrative

import "testing"

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0}, {0, 0}, {0.42, 0.42}, {1, 1}, {1.5, 1},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Errorf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseTrend(t *testing.T) {
	cases := []struct {
		in   string
		want TrendDirection
	}{
		{"Accelerating", TrendAccelerating},
		{"stable", TrendStable},
		{"STEADY", TrendStable},
		{"declining", TrendDecelerating},
		{"Decelerating", TrendDecelerating},
		{"nascent", TrendEmerging},
		{"whatever-else", TrendEmerging},
	}
	for _, c := range cases {
		if got := parseTrend(c.in); got != c.want {
			t.Errorf("parseTrend(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
