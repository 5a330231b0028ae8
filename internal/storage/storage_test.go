package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "housemarket/internal/errors"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader returns a PNG that declares w×h pixels but carries no image
// data, enough for image.DecodeConfig.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 2 // 8-bit truecolor
	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

type captureStore struct {
	last Upload
}

func (c *captureStore) Save(_ context.Context, u Upload) (string, error) {
	c.last = u
	return "http://img/" + u.Filename, nil
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, limit  int
		wantW, wantH int
	}{
		{"already small", 100, 50, 200, 100, 50},
		{"landscape", 400, 200, 200, 200, 100},
		{"portrait", 200, 400, 200, 100, 200},
		{"very thin", 10000, 1, 100, 100, 1},
		{"no limit", 5000, 5000, 0, 5000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := targetSize(tt.w, tt.h, tt.limit)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestResizingStore_Save(t *testing.T) {
	next := &captureStore{}
	store := NewResizingStore(next, 64, 80, 0)

	url, err := store.Save(context.Background(), Upload{Field: "images", Filename: "house.png", Data: pngBytes(t, 256, 128)})
	require.NoError(t, err)
	assert.Equal(t, "http://img/house.png.jpg", url)
	assert.Equal(t, "image/jpeg", next.last.ContentType)
	assert.Equal(t, "images", next.last.Field)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(next.last.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestResizingStore_RejectsNonImage(t *testing.T) {
	next := &captureStore{}
	store := NewResizingStore(next, 64, 80, 0)

	_, err := store.Save(context.Background(), Upload{Field: "image", Filename: "notes.txt", Data: []byte("hello")})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, []string{"image"}, appErr.Fields)
	assert.Empty(t, next.last.Data)
}

func TestResizingStore_RejectsOversizedImage(t *testing.T) {
	tests := []struct {
		name      string
		maxPixels int
		data      []byte
	}{
		{"declared dimensions over default limit", 0, pngHeader(20000, 20000)},
		{"declared dimensions overflow", 0, pngHeader(1<<31-1, 1<<31-1)},
		{"decoded image over configured limit", 1000, pngBytes(t, 100, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &captureStore{}
			store := NewResizingStore(next, 64, 80, tt.maxPixels)

			_, err := store.Save(context.Background(), Upload{Field: "images", Filename: "big.png", Data: tt.data})

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, []string{"images"}, appErr.Fields)
			assert.Empty(t, next.last.Data)
		})
	}
}

func TestResizingStore_AcceptsImageAtPixelLimit(t *testing.T) {
	next := &captureStore{}
	store := NewResizingStore(next, 64, 80, 2000)

	_, err := store.Save(context.Background(), Upload{Field: "image", Filename: "ok.png", Data: pngBytes(t, 100, 20)})
	require.NoError(t, err)
	assert.NotEmpty(t, next.last.Data)
}

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir, "http://localhost:5000/uploads", zap.NewNop())
	require.NoError(t, err)

	first, err := store.Save(context.Background(), Upload{Filename: "a.jpg", Data: []byte("one")})
	require.NoError(t, err)
	second, err := store.Save(context.Background(), Upload{Filename: "a.jpg", Data: []byte("two")})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "http://localhost:5000/uploads/"))
	assert.True(t, strings.HasSuffix(first, ".jpg"))

	data, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(first, "http://localhost:5000/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
}

func TestLocalDir(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocalStore(dir, "http://x", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, dir, LocalDir(local))
	assert.Equal(t, dir, LocalDir(NewResizingStore(local, 64, 80, 0)))
	assert.Empty(t, LocalDir(NewResizingStore(&captureStore{}, 64, 80, 0)))
	assert.Empty(t, LocalDir(&captureStore{}))
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://x", zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, Upload{Filename: "a.jpg", Data: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}
