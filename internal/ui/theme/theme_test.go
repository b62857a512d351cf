package theme

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestBar(t *testing.T) {
	tests := []struct {
		filled, width int
		on, off       int
	}{
		{0, 5, 0, 5},
		{3, 5, 3, 2},
		{7, 5, 5, 0},
		{-1, 4, 0, 4},
	}
	for _, tt := range tests {
		got := Bar(tt.filled, tt.width)
		if n := strings.Count(got, "█"); n != tt.on {
			t.Errorf("Bar(%d, %d) filled = %d, want %d", tt.filled, tt.width, n, tt.on)
		}
		if n := strings.Count(got, "░"); n != tt.off {
			t.Errorf("Bar(%d, %d) empty = %d, want %d", tt.filled, tt.width, n, tt.off)
		}
	}
}

func TestRow(t *testing.T) {
	got := Row("段階", "情報の収集")
	if !strings.Contains(got, "段階") || !strings.Contains(got, "情報の収集") {
		t.Errorf("Row() = %q", got)
	}
	if w := lipgloss.Width(got); w < 12 {
		t.Errorf("Row() width = %d, want label padded to 12", w)
	}
}
