package imgproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"billsight/internal/domain"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.SetRGBA(x, y, color.RGBA{v, v / 2, 255 - v, 255})
		}
	}
	return img
}

func TestPreprocess_NilImage(t *testing.T) {
	_, err := Preprocess(nil)
	assert.ErrorIs(t, err, domain.ErrPreprocessFailed)
}

func TestPreprocess_TooSmall(t *testing.T) {
	_, err := Preprocess(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	assert.ErrorIs(t, err, domain.ErrPreprocessFailed)
}

func TestPreprocess_IsDeterministic(t *testing.T) {
	src := gradientImage(32, 24)

	first, err := Preprocess(src)
	assert.NoError(t, err)
	second, err := Preprocess(src)
	assert.NoError(t, err)

	assert.True(t, bytes.Equal(first.Pix, second.Pix), "identical input must yield identical output")
}

func TestPreprocess_DoesNotMutateInput(t *testing.T) {
	src := gradientImage(32, 24)
	before := make([]uint8, len(src.Pix))
	copy(before, src.Pix)

	_, err := Preprocess(src)
	assert.NoError(t, err)

	assert.Equal(t, before, src.Pix)
}

func TestPreprocess_BrightensDarkPages(t *testing.T) {
	dark := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dark.SetRGBA(x, y, color.RGBA{40, 40, 40, 255})
		}
	}

	out, err := Preprocess(dark)
	assert.NoError(t, err)

	assert.Greater(t, MeanLuminance(Grayscale(out)), 40.0)
}

func TestPreprocess_DarkensOverexposedPages(t *testing.T) {
	bright := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			bright.SetRGBA(x, y, color.RGBA{250, 250, 250, 255})
		}
	}

	out, err := Preprocess(bright)
	assert.NoError(t, err)

	assert.Less(t, MeanLuminance(Grayscale(out)), 250.0)
}

func TestPreprocess_AcceptsNonRGBAInput(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 3)
	}

	out, err := Preprocess(gray)
	assert.NoError(t, err)
	assert.Equal(t, gray.Bounds(), out.Bounds())
}
