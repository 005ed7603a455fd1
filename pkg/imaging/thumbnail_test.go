package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{name: "Landscape larger than box", w: 800, h: 400, wantW: 200, wantH: 100},
		{name: "Portrait larger than box", w: 300, h: 600, wantW: 75, wantH: 150},
		{name: "Exact box ratio", w: 400, h: 300, wantW: 200, wantH: 150},
		{name: "Smaller than box is not enlarged", w: 50, h: 40, wantW: 50, wantH: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Thumbnail(pngOf(t, tt.w, tt.h))
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
		})
	}
}

func TestThumbnail_AcceptsJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480)), nil))

	out, err := Thumbnail(&buf)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestThumbnail_Undecodable(t *testing.T) {
	out, err := Thumbnail(strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrUndecodable)
	assert.Nil(t, out)
}

func TestFitWithin(t *testing.T) {
	w, h := FitWithin(1000, 1, 200, 150)
	assert.Equal(t, 200, w)
	assert.Equal(t, 1, h, "dimensions never collapse to zero")

	w, h = FitWithin(200, 150, 200, 150)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

// pngHeader returns a PNG that declares w x h RGBA pixels and stops after
// the IHDR chunk.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestThumbnail_RejectsHugeDimensions(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(pngHeader(50000, 50000)))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NotErrorIs(t, err, ErrUndecodable)
	assert.Nil(t, out)

	// within the budget the header alone is not enough to decode
	_, err = Thumbnail(bytes.NewReader(pngHeader(100, 100)))
	assert.ErrorIs(t, err, ErrUndecodable)
}
