package dmabridge

import (
	"fmt"
)

// Pattern returns a tightly packed RGBA8 test image in which every pixel is
// derived from its coordinates: R = x XOR y, G = x, B = y, A = 255 (all
// modulo 256). It is cheap to regenerate and any row or column shift shows
// up in a comparison.
func Pattern(width, height int) []byte {
	buf := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			buf[i+0] = byte(x ^ y)
			buf[i+1] = byte(x)
			buf[i+2] = byte(y)
			buf[i+3] = 0xff
		}
	}
	return buf
}

// ComparePixels compares two tightly packed RGBA8 images of the given width.
// The error wraps ErrVerification and names the first differing pixel.
func ComparePixels(got, want []byte, width int) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrVerification, len(got), len(want))
	}
	if width <= 0 {
		return fmt.Errorf("%w: invalid width %d", ErrVerification, width)
	}
	diff, first := 0, -1
	for i := 0; i < len(got); i += 4 {
		if got[i] != want[i] || got[i+1] != want[i+1] || got[i+2] != want[i+2] || got[i+3] != want[i+3] {
			if first < 0 {
				first = i
			}
			diff++
		}
	}
	if diff == 0 {
		return nil
	}
	px := first / 4
	return fmt.Errorf("%w: %d pixels differ, first at (%d,%d): got %v, want %v",
		ErrVerification, diff, px%width, px/width, got[first:first+4], want[first:first+4])
}
