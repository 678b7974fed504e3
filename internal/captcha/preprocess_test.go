package captcha

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// twoTone renders a w*h png whose left half is dark gray and right half is
// light gray.
func twoTone(t *testing.T, w, h int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetGray(x, y, color.Gray{Y: 60})
			} else {
				img.SetGray(x, y, color.Gray{Y: 200})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessBinarizesAndUpscales(t *testing.T) {
	raw := twoTone(t, 40, 16)

	result := Preprocess(raw)
	require.Equal(t, BranchProcessed, result.Branch)
	require.NoError(t, result.Err)

	decoded, err := png.Decode(bytes.NewReader(result.Image))
	require.NoError(t, err)
	require.Equal(t, 80, decoded.Bounds().Dx())
	require.Equal(t, 32, decoded.Bounds().Dy())

	dark := color.GrayModel.Convert(decoded.At(4, 16)).(color.Gray)
	light := color.GrayModel.Convert(decoded.At(76, 16)).(color.Gray)
	require.Equal(t, uint8(0), dark.Y)
	require.Equal(t, uint8(255), light.Y)
}

func TestPreprocessPassthrough(t *testing.T) {
	raw := []byte("definitely not an image")

	result := Preprocess(raw)
	require.Equal(t, BranchPassthrough, result.Branch)
	require.Error(t, result.Err)
	require.Equal(t, raw, result.Image)
}
