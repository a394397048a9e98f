package imgproc

import (
	"fmt"
	"image"

	"billsight/internal/domain"
)

// Enhancement constants. Tuned for scanned medical bills; changing
// them changes every downstream signal, so they are deliberately not
// configuration.
const (
	contrastFactor  = 1.5
	sharpnessFactor = 2.0

	darkLuminance   = 100.0
	brightLuminance = 200.0
	brightenFactor  = 1.3
	darkenFactor    = 0.8
)

// Preprocess produces the enhanced page image fed to both the
// technical detectors and the vision model. It is a pure function:
// the same input always yields the same output and the raw image is
// never mutated. Steps, in fixed order: contrast scaling, sharpness
// enhancement, adaptive brightness correction, 3x3 median filter.
func Preprocess(img image.Image) (*image.RGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", domain.ErrPreprocessFailed)
	}
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return nil, fmt.Errorf("%w: image %dx%d too small", domain.ErrPreprocessFailed, b.Dx(), b.Dy())
	}

	out := ToRGBA(img)
	adjustContrast(out, contrastFactor)
	sharpen(out, sharpnessFactor)

	// Brightness is corrected toward the readable band rather than
	// clipped: already-readable pages pass through unchanged.
	mean := MeanLuminance(Grayscale(out))
	if mean < darkLuminance {
		scaleBrightness(out, brightenFactor)
	} else if mean > brightLuminance {
		scaleBrightness(out, darkenFactor)
	}

	medianFilter3(out)
	return out, nil
}

// adjustContrast scales each channel away from the image's mean
// luminance, matching enhancer-style contrast adjustment.
func adjustContrast(img *image.RGBA, factor float64) {
	pivot := MeanLuminance(Grayscale(img))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c])
				img.Pix[i+c] = clamp8(pivot + (v-pivot)*factor)
			}
		}
	}
}

// smoothKernel is the 3x3 smoothing kernel sharpening interpolates
// against: center 5, neighbors 1, normalized by 13.
var smoothKernel = [3][3]float64{
	{1, 1, 1},
	{1, 5, 1},
	{1, 1, 1},
}

// sharpen blends the image away from its smoothed version:
// out = smooth + (orig-smooth)*factor.
func sharpen(img *image.RGBA, factor float64) {
	b := img.Bounds()
	src := ToRGBA(img)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				var sum, weight float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := x+dx, y+dy
						if nx < b.Min.X || ny < b.Min.Y || nx >= b.Max.X || ny >= b.Max.Y {
							continue
						}
						k := smoothKernel[dy+1][dx+1]
						sum += k * float64(src.Pix[src.PixOffset(nx, ny)+c])
						weight += k
					}
				}
				smooth := sum / weight
				orig := float64(src.Pix[src.PixOffset(x, y)+c])
				img.Pix[i+c] = clamp8(smooth + (orig-smooth)*factor)
			}
		}
	}
}

func scaleBrightness(img *image.RGBA, factor float64) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				img.Pix[i+c] = clamp8(float64(img.Pix[i+c]) * factor)
			}
		}
	}
}

// medianFilter3 applies a 3x3 per-channel median for noise
// suppression. The window is clamped at the borders.
func medianFilter3(img *image.RGBA) {
	b := img.Bounds()
	src := ToRGBA(img)
	window := make([]uint8, 0, 9)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				window = window[:0]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := x+dx, y+dy
						if nx < b.Min.X || ny < b.Min.Y || nx >= b.Max.X || ny >= b.Max.Y {
							continue
						}
						window = append(window, src.Pix[src.PixOffset(nx, ny)+c])
					}
				}
				img.Pix[i+c] = medianOf(window)
			}
		}
	}
}
