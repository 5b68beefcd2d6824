// Package debug provides viewer diagnostics: frame timing and screenshots.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/bmp"
)

// Encoders maps screenshot formats to image encoders.
var Encoders = map[string]func(io.Writer, image.Image) error{
	"png": png.Encode,
	"bmp": bmp.Encode,
}

// Screenshots writes framebuffer captures as image files.
type Screenshots struct {
	dir    string
	prefix string
	format string
	now    func() time.Time

	lastStamp string
	seq       int
}

// NewScreenshots creates a capture handler writing
// <dir>/<prefix>_<timestamp>.<format>. Unknown formats fall back to png.
func NewScreenshots(dir, prefix, format string) *Screenshots {
	if _, ok := Encoders[format]; !ok {
		format = "png"
	}
	return &Screenshots{dir: dir, prefix: prefix, format: format, now: time.Now}
}

// Filename returns the path the next capture will be written to. Captures
// within the same second get a _1, _2, ... suffix.
func (s *Screenshots) Filename() string {
	stamp, seq := s.next()
	return s.filename(stamp, seq)
}

func (s *Screenshots) next() (string, int) {
	stamp := s.now().Format("2006-01-02_15-04-05")
	if stamp == s.lastStamp {
		return stamp, s.seq + 1
	}
	return stamp, 0
}

func (s *Screenshots) filename(stamp string, seq int) string {
	name := fmt.Sprintf("%s_%s", s.prefix, stamp)
	if seq > 0 {
		name = fmt.Sprintf("%s_%d", name, seq)
	}
	name += "." + s.format
	if s.dir != "" {
		name = filepath.Join(s.dir, name)
	}
	return name
}

// FromPixels builds an image from bottom-up RGBA rows as returned by glReadPixels.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}

// Save flips the pixels into an image and writes it, returning the file name.
func (s *Screenshots) Save(pixels []byte, width, height int) (string, error) {
	img, err := FromPixels(pixels, width, height)
	if err != nil {
		return "", err
	}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	stamp, seq := s.next()
	name := s.filename(stamp, seq)
	f, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	s.lastStamp, s.seq = stamp, seq

	if err := Encoders[s.format](f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding %s: %w", s.format, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	return name, nil
}
