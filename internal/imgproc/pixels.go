package imgproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sort"
)

// edgeThreshold is the Sobel gradient magnitude above which a pixel
// counts as an edge.
const edgeThreshold = 100.0

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// ToRGBA copies img into a new RGBA image. The source is never mutated.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return out
}

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: clamp8(lum)})
		}
	}
	return out
}

// MeanLuminance returns the average gray level over the whole image.
func MeanLuminance(g *image.Gray) float64 {
	b := g.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(g.GrayAt(x, y).Y)
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

// EdgeDensity returns the fraction of pixels inside r whose Sobel
// gradient magnitude exceeds the edge threshold.
func EdgeDensity(g *image.Gray, r image.Rectangle) float64 {
	r = r.Intersect(g.Bounds())
	if r.Dx() == 0 || r.Dy() == 0 {
		return 0
	}
	at := func(x, y int) float64 {
		if x < r.Min.X {
			x = r.Min.X
		}
		if x >= r.Max.X {
			x = r.Max.X - 1
		}
		if y < r.Min.Y {
			y = r.Min.Y
		}
		if y >= r.Max.Y {
			y = r.Max.Y - 1
		}
		return float64(g.GrayAt(x, y).Y)
	}
	edges := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			gx := -at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1) +
				at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			if gx*gx+gy*gy > edgeThreshold*edgeThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64(r.Dx()*r.Dy())
}

// ThresholdAbove returns a mask of pixels strictly brighter than level.
func ThresholdAbove(g *image.Gray, level uint8) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y > level {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// BinarizeAdaptive produces an inverted binary mask: pixels darker
// than their local window mean minus bias become ink (255). Window is
// the square window side length and must be odd.
func BinarizeAdaptive(g *image.Gray, window int, bias float64) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}
	half := window / 2

	// Summed-area table over gray levels for O(1) window means.
	integral := make([]float64, (w+1)*(h+1))
	idx := func(x, y int) int { return y*(w+1) + x }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[idx(x+1, y+1)] = v + integral[idx(x, y+1)] + integral[idx(x+1, y)] - integral[idx(x, y)]
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-half), max(0, y-half)
			x1, y1 := min(w-1, x+half), min(h-1, y+half)
			n := float64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[idx(x1+1, y1+1)] - integral[idx(x0, y1+1)] - integral[idx(x1+1, y0)] + integral[idx(x0, y0)]
			mean := sum / n
			if float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y) < mean-bias {
				out.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// Region is a connected component of an on-pixel mask.
type Region struct {
	Rect image.Rectangle
	Area int
}

// Regions labels 8-connected components of non-zero pixels in mask.
func Regions(mask *image.Gray) []Region {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	on := func(x, y int) bool {
		return mask.GrayAt(b.Min.X+x, b.Min.Y+y).Y > 0
	}

	var regions []Region
	stack := make([][2]int, 0, 256)
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			if visited[sy*w+sx] || !on(sx, sy) {
				continue
			}
			area := 0
			minX, minY, maxX, maxY := sx, sy, sx, sy
			stack = append(stack[:0], [2]int{sx, sy})
			visited[sy*w+sx] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				x, y := p[0], p[1]
				area++
				minX, maxX = min(minX, x), max(maxX, x)
				minY, maxY = min(minY, y), max(maxY, y)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := x+dx, y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						if visited[ny*w+nx] || !on(nx, ny) {
							continue
						}
						visited[ny*w+nx] = true
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}
			regions = append(regions, Region{
				Rect: image.Rect(b.Min.X+minX, b.Min.Y+minY, b.Min.X+maxX+1, b.Min.Y+maxY+1),
				Area: area,
			})
		}
	}
	return regions
}

// EncodePNG serializes img for transport to the vision model.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// medianOf returns the median of a window of samples.
func medianOf(vals []uint8) uint8 {
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	return vals[len(vals)/2]
}
