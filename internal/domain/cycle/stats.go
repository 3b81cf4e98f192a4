package cycle

import "sort"

// Statistics summarizes a set of recorded length samples (whole days).
// Count is zero when no samples exist; the percentile fields are then
// meaningless and consumers must treat them as absent.
type Statistics struct {
	Count int
	P25   int
	P50   int
	P75   int
	Mean  float64
}

// NewStatistics computes nearest-rank percentiles and the mean over the
// given samples. The input slice is not modified.
func NewStatistics(samples []int) Statistics {
	if len(samples) == 0 {
		return Statistics{}
	}

	sorted := make([]int, len(samples))
	copy(sorted, samples)
	sort.Ints(sorted)

	sum := 0
	for _, s := range sorted {
		sum += s
	}

	return Statistics{
		Count: len(sorted),
		P25:   percentile(sorted, 25),
		P50:   percentile(sorted, 50),
		P75:   percentile(sorted, 75),
		Mean:  float64(sum) / float64(len(sorted)),
	}
}

// percentile returns the nearest-rank percentile of an already-sorted,
// non-empty sample set: the value at rank ceil(p/100 * n).
func percentile(sorted []int, p int) int {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
