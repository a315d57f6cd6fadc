package rendercore

import (
	"math"
	"testing"
)

func TestRangeWithin(t *testing.T) {
	tests := []struct {
		r    Range
		size uint64
		want bool
	}{
		{Range{0, 0}, 0, true},
		{Range{0, 16}, 16, true},
		{Range{8, 8}, 16, true},
		{Range{8, 9}, 16, false},
		{Range{17, 0}, 16, false},
		{Range{math.MaxUint64, 2}, 16, false},
	}
	for _, tt := range tests {
		if got := tt.r.Within(tt.size); got != tt.want {
			t.Errorf("%v.Within(%d) = %v, want %v", tt.r, tt.size, got, tt.want)
		}
	}
}

func TestRangeClamp(t *testing.T) {
	if got := WholeRange.Clamp(64); got != (Range{0, 64}) {
		t.Errorf("WholeRange.Clamp(64) = %v", got)
	}
	if got := (Range{32, 100}).Clamp(64); got != (Range{32, 32}) {
		t.Errorf("Clamp = %v, want [32+32]", got)
	}
	if got := (Range{80, 4}).Clamp(64); got != (Range{64, 0}) {
		t.Errorf("Clamp past end = %v, want [64+0]", got)
	}
}

func TestISize(t *testing.T) {
	if !(ISize{0, 10}).IsEmpty() {
		t.Error("0x10 should be empty")
	}
	if (ISize{100, 100}).IsEmpty() {
		t.Error("100x100 should not be empty")
	}
	if got := (ISize{100, 50}).Area(); got != 5000 {
		t.Errorf("Area = %d, want 5000", got)
	}
}
