package imaging

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	goimaging "github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestProcessReencodesAsJPEG(t *testing.T) {
	out, err := Process(bytes.NewReader(encodePNG(t, 100, 50)))
	require.NoError(t, err)

	img, err := goimaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 100, img.Bounds().Dx())
	require.Equal(t, 50, img.Bounds().Dy())

	// JPEG SOI marker
	require.Equal(t, []byte{0xff, 0xd8}, out[:2])
}

func TestProcessDownscales(t *testing.T) {
	out, err := Process(bytes.NewReader(encodePNG(t, MaxDimension*2, MaxDimension)))
	require.NoError(t, err)

	img, err := goimaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.LessOrEqual(t, img.Bounds().Dx(), MaxDimension)
	require.LessOrEqual(t, img.Bounds().Dy(), MaxDimension)
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
}
