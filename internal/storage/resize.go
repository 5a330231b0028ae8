package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png

	"golang.org/x/image/draw"

	apperrors "housemarket/internal/errors"
)

// DefaultMaxPixels caps the decoded width×height of an upload.
const DefaultMaxPixels = 40_000_000

// ResizingStore decodes each upload, fits it inside a square of maxDimension
// pixels and re-encodes it as JPEG before handing it to the next store.
type ResizingStore struct {
	next         ImageStore
	maxDimension int
	quality      int
	maxPixels    int
}

// NewResizingStore wraps next. A non-positive maxPixels uses DefaultMaxPixels.
func NewResizingStore(next ImageStore, maxDimension, quality, maxPixels int) *ResizingStore {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &ResizingStore{next: next, maxDimension: maxDimension, quality: quality, maxPixels: maxPixels}
}

// Save processes the image and stores the JPEG. Undecodable or oversized
// data is a validation error on the upload's field.
func (s *ResizingStore) Save(ctx context.Context, upload Upload) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil {
		return "", apperrors.Validation(fmt.Sprintf("%s is not a supported image", upload.Filename), upload.Field)
	}
	if !s.withinPixelLimit(cfg.Width, cfg.Height) {
		return "", apperrors.Validation(
			fmt.Sprintf("%s is too large: %dx%d exceeds %d pixels", upload.Filename, cfg.Width, cfg.Height, s.maxPixels),
			upload.Field)
	}

	src, _, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return "", apperrors.Validation(fmt.Sprintf("%s is not a supported image", upload.Filename), upload.Field)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, s.fit(src), &jpeg.Options{Quality: s.quality}); err != nil {
		return "", fmt.Errorf("encode %s: %w", upload.Filename, err)
	}

	return s.next.Save(ctx, Upload{
		Field:       upload.Field,
		Filename:    upload.Filename + ".jpg",
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	})
}

func (s *ResizingStore) withinPixelLimit(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return w <= s.maxPixels/h
}

func (s *ResizingStore) fit(src image.Image) image.Image {
	w, h := targetSize(src.Bounds().Dx(), src.Bounds().Dy(), s.maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// transparent regions become white in the JPEG
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// targetSize scales w×h down to fit limit×limit, keeping the aspect ratio.
// Images already small enough keep their size.
func targetSize(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, atLeastOne(h * limit / w)
	}
	return atLeastOne(w * limit / h), limit
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
