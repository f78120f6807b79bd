package dmabridge

import (
	"errors"
	"strings"
	"testing"
)

func TestPattern(t *testing.T) {
	p := Pattern(300, 2)
	if len(p) != 300*2*4 {
		t.Fatalf("len(Pattern()) = %d, want %d", len(p), 300*2*4)
	}
	tests := []struct {
		x, y int
		want [4]byte
	}{
		{0, 0, [4]byte{0, 0, 0, 0xff}},
		{3, 1, [4]byte{2, 3, 1, 0xff}},
		{257, 1, [4]byte{0, 1, 1, 0xff}},
	}
	for _, tt := range tests {
		i := (tt.y*300 + tt.x) * 4
		var got [4]byte
		copy(got[:], p[i:i+4])
		if got != tt.want {
			t.Errorf("Pattern()(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestComparePixels(t *testing.T) {
	want := Pattern(8, 8)
	if err := ComparePixels(Pattern(8, 8), want, 8); err != nil {
		t.Errorf("ComparePixels(equal) = %v", err)
	}

	got := Pattern(8, 8)
	got[(2*8+5)*4+1] ^= 0xff
	got[(7*8+7)*4+3] = 0
	err := ComparePixels(got, want, 8)
	if !errors.Is(err, ErrVerification) {
		t.Fatalf("ComparePixels(diff) = %v, want ErrVerification", err)
	}
	for _, s := range []string{"2 pixels differ", "(5,2)"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("ComparePixels() error %q does not contain %q", err, s)
		}
	}

	if err := ComparePixels(want[:4], want, 8); !errors.Is(err, ErrVerification) {
		t.Errorf("ComparePixels(short) = %v, want ErrVerification", err)
	}
	if err := ComparePixels(want, want, 0); !errors.Is(err, ErrVerification) {
		t.Errorf("ComparePixels(width 0) = %v, want ErrVerification", err)
	}
}
