// Package imaging normalises uploaded villa photos.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registers the PNG decoder
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxUploadBytes is the largest photo accepted.
const MaxUploadBytes = 5 << 20

// MaxPixels bounds width*height of an upload before it is decoded. A small
// compressed file can still declare a huge canvas.
const MaxPixels = 40_000_000

var (
	// ErrUnsupportedFormat is returned for anything that is not a JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooManyPixels is returned when the declared dimensions exceed MaxPixels.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// Options controls how photos are re-encoded.
type Options struct {
	// MaxDimension bounds both width and height; larger photos are scaled down.
	MaxDimension int
	Quality      int
}

// DefaultOptions are used by Process.
var DefaultOptions = Options{MaxDimension: 1024, Quality: 85}

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a processed image ready to be stored.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process normalises a photo with DefaultOptions.
func Process(r io.Reader) (*Photo, error) {
	return ProcessWith(r, DefaultOptions)
}

// ProcessWith sniffs the format from the bytes (client headers are not
// trusted), scales the photo down to opts.MaxDimension and re-encodes it as
// JPEG.
func ProcessWith(r io.Reader, opts Options) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
	}

	if detected := http.DetectContentType(data); !accepted[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG and PNG accepted)", ErrUnsupportedFormat, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d (limit %d pixels)", ErrTooManyPixels, cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, opts.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fit scales img so neither side exceeds maxDim, keeping the aspect ratio.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
