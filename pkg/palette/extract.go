package palette

import (
	"cmp"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/matzehuels/drawreel/pkg/errors"
)

const (
	histogramBits   = 5
	refinePasses    = 4
	kmeansMaxSample = 12000
)

type weightedColor struct {
	col colorful.Color
	w   float64
}

// Extract selects at most k representative colors of img.
//
// Fully transparent pixels are ignored. An image without any opaque pixel
// yields an ErrCodeNoColors error.
func Extract(img image.Image, k int, method Method) (Palette, error) {
	if k < 1 || k > MaxColors {
		return nil, errors.New(errors.ErrCodeInvalidInput, "colors must be between 1 and %d, got %d", MaxColors, k)
	}

	var cols []colorful.Color
	switch method {
	case MethodDominant:
		cols = extractDominant(img, k)
	case MethodKMeans:
		cols = extractKMeans(img, k)
	case MethodHistogram, "":
		cols = extractHistogram(img, k)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid palette method: %q", method)
	}

	p := make(Palette, 0, len(cols))
	for _, c := range cols {
		p = append(p, fromColorful(c))
	}
	p = New(p...)
	if len(p) == 0 {
		return nil, errors.New(errors.ErrCodeNoColors, "no colors found in image")
	}
	return p, nil
}

type bucket struct {
	key     int
	r, g, b float64
	n       float64
}

func (b bucket) mean() colorful.Color {
	return colorful.Color{R: b.r / b.n / 255, G: b.g / b.n / 255, B: b.b / b.n / 255}
}

func extractHistogram(img image.Image, k int) []colorful.Color {
	shift := 8 - histogramBits
	index := make(map[int]int)
	var buckets []bucket

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			key := int(c.R>>shift)<<(2*histogramBits) | int(c.G>>shift)<<histogramBits | int(c.B>>shift)
			i, ok := index[key]
			if !ok {
				i = len(buckets)
				index[key] = i
				buckets = append(buckets, bucket{key: key})
			}
			bk := &buckets[i]
			bk.r += float64(c.R)
			bk.g += float64(c.G)
			bk.b += float64(c.B)
			bk.n++
		}
	}
	if len(buckets) == 0 {
		return nil
	}

	slices.SortFunc(buckets, func(a, b bucket) int {
		if c := cmp.Compare(b.n, a.n); c != 0 {
			return c
		}
		return cmp.Compare(a.key, b.key)
	})

	cands := buckets[:min(len(buckets), max(64, k*16))]
	weighted := make([]weightedColor, len(cands))
	for i, b := range cands {
		weighted[i] = weightedColor{col: b.mean(), w: b.n}
	}
	centers := selectDiverse(weighted, k)
	return refine(centers, buckets)
}

// refine runs Lloyd passes over the histogram buckets. Centers that lose all
// their members keep their previous value.
func refine(centers []colorful.Color, buckets []bucket) []colorful.Color {
	labs := make([][3]float64, len(centers))
	for pass := 0; pass < refinePasses; pass++ {
		for i, c := range centers {
			l, a, b := c.Lab()
			labs[i] = [3]float64{l, a, b}
		}
		sums := make([]bucket, len(centers))
		for _, bk := range buckets {
			l, a, b := bk.mean().Lab()
			i := nearestLab(labs, [3]float64{l, a, b})
			sums[i].r += bk.r
			sums[i].g += bk.g
			sums[i].b += bk.b
			sums[i].n += bk.n
		}
		for i, s := range sums {
			if s.n > 0 {
				centers[i] = s.mean()
			}
		}
	}
	return centers
}

func extractDominant(img image.Image, k int) []colorful.Color {
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{col: col.Clamped(), w: c.Weight})
	}
	return selectDiverse(weighted, k)
}

func extractKMeans(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	step := 1
	if width*height > kmeansMaxSample {
		step = int(math.Sqrt(float64(width*height)/float64(kmeansMaxSample))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, kmeansMaxSample))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	slices.SortFunc(cc, func(a, b clusters.Cluster) int {
		return cmp.Compare(len(b.Observations), len(a.Observations))
	})

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		weighted = append(weighted, weightedColor{col: col, w: float64(len(c.Observations))})
	}
	return selectDiverse(weighted, k)
}

// selectDiverse greedily picks k candidates, seeding with the heaviest one and
// then maximising Lab distance to the picked set scaled by candidate weight.
// Ties resolve to the earlier candidate, so equal input gives equal output.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))

	labs := make([][3]float64, len(cands))
	maxW := 0.0
	for i := range cands {
		cands[i].col = cands[i].col.Clamped()
		if cands[i].w <= 0 {
			cands[i].w = 1e-6
		}
		maxW = max(maxW, cands[i].w)
		l, a, b := cands[i].col.Lab()
		labs[i] = [3]float64{l, a, b}
	}

	seed := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].w > cands[seed].w {
			seed = i
		}
	}
	picked := []int{seed}
	selected := make([]bool, len(cands))
	selected[seed] = true

	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i := range cands {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range picked {
				minD2 = min(minD2, dist2(labs[i], labs[s]))
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(cands[i].w/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		selected[best] = true
		picked = append(picked, best)
	}

	out := make([]colorful.Color, len(picked))
	for i, idx := range picked {
		out[i] = cands[idx].col
	}
	return out
}

func dist2(a, b [3]float64) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}

func nearestLab(labs [][3]float64, c [3]float64) int {
	best, bestD := 0, math.MaxFloat64
	for i, l := range labs {
		if d := dist2(l, c); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}
