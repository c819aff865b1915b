// Package gel grades electrophoresis lanes from a grayscale gel photograph.
//
// A gel is cut into equal-width vertical lanes. Each lane is reduced to its
// mean brightness and to the peak brightness of three marker bands at fixed
// relative heights, and those four numbers drive the smear call, the band
// integrity and the lane's sequencing priority.
package gel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var (
	ErrNoImage        = errors.New("no gel image")
	ErrImageDecode    = errors.New("gel image could not be read")
	ErrLaneOutOfRange = errors.New("lane index out of range")
	ErrLaneTooNarrow  = errors.New("image is narrower than the number of lanes")
	ErrBandEmpty      = errors.New("image is too short to hold the marker bands")
)

// LaneImage is an 8-bit single-channel pixel grid with its origin at 0,0.
type LaneImage struct {
	gray *image.Gray
}

// NewLaneImage allocates a black w×h image.
func NewLaneImage(w, h int) *LaneImage {
	return &LaneImage{gray: image.NewGray(image.Rect(0, 0, w, h))}
}

// FromImage copies img into a LaneImage, converting color images with the
// usual luma weights.
func FromImage(img image.Image) *LaneImage {
	b := img.Bounds()
	out := NewLaneImage(b.Dx(), b.Dy())

	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			start := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.gray.Pix[y*out.gray.Stride:], src.Pix[start:start+b.Dx()])
		}
		return out
	}

	// Grayscale returns an NRGBA image with R == G == B, anchored at 0,0.
	nrgba := imaging.Grayscale(img)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.gray.Pix[y*out.gray.Stride+x] = nrgba.Pix[y*nrgba.Stride+4*x]
		}
	}

	return out
}

// Decode reads a PNG, JPEG, GIF, BMP or TIFF gel photograph, applying any
// EXIF orientation. Every failure, including I/O errors, wraps
// ErrImageDecode.
func Decode(r io.Reader) (*LaneImage, error) {
	// The image decoders swallow I/O errors, so read everything up front.
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	return FromImage(img), nil
}

func (m *LaneImage) Width() int  { return m.gray.Rect.Dx() }
func (m *LaneImage) Height() int { return m.gray.Rect.Dy() }

// At returns the intensity at x,y.
func (m *LaneImage) At(x, y int) uint8 {
	return m.gray.Pix[y*m.gray.Stride+x]
}

// Set writes the intensity at x,y.
func (m *LaneImage) Set(x, y int, v uint8) {
	m.gray.Pix[y*m.gray.Stride+x] = v
}

// Gray exposes the pixels as a standard library image. The result shares
// memory with m.
func (m *LaneImage) Gray() *image.Gray {
	return m.gray
}

func (m *LaneImage) clone() *LaneImage {
	out := &LaneImage{gray: image.NewGray(m.gray.Rect)}
	copy(out.gray.Pix, m.gray.Pix)
	return out
}
