package region

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the size distribution of a set of regions.
type Summary struct {
	Count   int
	Pixels  int
	Largest int
	Mean    float64
	StdDev  float64
	Median  float64
}

// Summarize computes size statistics for regions.
func Summarize(regions []Region) Summary {
	s := Summary{Count: len(regions)}
	if len(regions) == 0 {
		return s
	}

	sizes := make([]float64, len(regions))
	for i, r := range regions {
		sizes[i] = float64(r.Len())
		s.Pixels += r.Len()
		s.Largest = max(s.Largest, r.Len())
	}
	slices.Sort(sizes)

	if len(sizes) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(sizes, nil)
	} else {
		s.Mean = sizes[0]
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, sizes, nil)
	return s
}
