package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type encoder func(io.Writer, image.Image) error

func snapshotEncoder(path string) (encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("snapshot %s: unsupported format, want .png, .bmp or .tiff", path)
	}
}

// writeSnapshot writes tightly packed RGBA8 pixels as an image file.
func writeSnapshot(path string, pixels []byte, width, height int) (err error) {
	enc, err := snapshotEncoder(path)
	if err != nil {
		return err
	}
	if len(pixels) < width*height*4 {
		return fmt.Errorf("snapshot %s: %d bytes for %dx%d", path, len(pixels), width, height)
	}
	img := &image.NRGBA{
		Pix:    pixels[:width*height*4],
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("snapshot: %w", cerr)
		}
	}()
	if err := enc(f, img); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return nil
}
