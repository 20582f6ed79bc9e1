// Package statistics builds per-table selectivity estimates from equi-width
// histograms, used by the optimizer to cost a scan or predicate before it
// runs.
package statistics

import (
	"coredb/pkg/config"
	"coredb/pkg/types"
)

// IntHistogram is a fixed-width equi-width histogram over an inclusive
// integer range, used to estimate the selectivity of a predicate against a
// field without scanning the table.
type IntHistogram struct {
	buckets []int64
	min     int32
	max     int32
	width   float64
	ntups   int64
}

// NewIntHistogram builds an empty histogram over [min, max] with the given
// bucket count, clamped to at least config.MinHistogramBuckets.
func NewIntHistogram(buckets int, min, max int32) *IntHistogram {
	if buckets < config.MinHistogramBuckets {
		buckets = config.MinHistogramBuckets
	}
	return &IntHistogram{
		buckets: make([]int64, buckets),
		min:     min,
		max:     max,
		width:   float64(int64(max)-int64(min)+1) / float64(buckets),
	}
}

// AddValue records v, dropping it silently if it falls outside [min, max].
func (h *IntHistogram) AddValue(v int32) {
	if v < h.min || v > h.max {
		return
	}
	h.buckets[h.bucketOf(v)]++
	h.ntups++
}

// bucketOf maps v to its bucket index, clamped to [0, len(buckets)-1].
func (h *IntHistogram) bucketOf(v int32) int {
	idx := int(float64(int64(v)-int64(h.min)) / h.width)
	if idx < 0 {
		return 0
	}
	if idx >= len(h.buckets) {
		return len(h.buckets) - 1
	}
	return idx
}

// bucketRight returns the exclusive upper edge of bucket b, which is also
// the inclusive lower edge of bucket b+1.
func (h *IntHistogram) bucketRight(b int) float64 {
	return float64(h.min) + float64(b+1)*h.width
}

// bucketLeft returns the inclusive lower edge covered by bucket b.
func (h *IntHistogram) bucketLeft(b int) float64 {
	return float64(h.min) + float64(b)*h.width
}

// EstimateSelectivity returns the estimated fraction of rows satisfying
// "field op v", in [0, 1]. Returns 0 when the histogram has seen no values.
func (h *IntHistogram) EstimateSelectivity(op types.Predicate, v int32) float64 {
	if h.ntups == 0 {
		return 0
	}
	switch op {
	case types.Equals:
		return h.equalsSelectivity(v)
	case types.GreaterThan:
		return h.greaterThanSelectivity(v)
	case types.GreaterThanOrEqual:
		return h.greaterThanSelectivity(v) + h.equalsSelectivity(v)
	case types.LessThan:
		return h.lessThanSelectivity(v)
	case types.LessThanOrEqual:
		return h.lessThanSelectivity(v) + h.equalsSelectivity(v)
	case types.NotEqual:
		return h.lessThanSelectivity(v) + h.greaterThanSelectivity(v)
	default:
		return 0.5
	}
}

func (h *IntHistogram) equalsSelectivity(v int32) float64 {
	if v < h.min || v > h.max {
		return 0
	}
	b := h.bucketOf(v)
	height := float64(h.buckets[b])
	return (height / h.width) / float64(h.ntups)
}

func (h *IntHistogram) greaterThanSelectivity(v int32) float64 {
	if v < h.min {
		return 1
	}
	if v > h.max {
		return 0
	}
	b := h.bucketOf(v)
	height := float64(h.buckets[b])
	// -1 excludes v's own unit slice, which EstimateSelectivity's EQ term
	// already accounts for; without it, LT+EQ+GT overcounts by one slice.
	fracInBucket := (h.bucketRight(b) - float64(v) - 1) / h.width
	if fracInBucket < 0 {
		fracInBucket = 0
	}
	sel := fracInBucket * height / float64(h.ntups)
	for bb := b + 1; bb < len(h.buckets); bb++ {
		sel += float64(h.buckets[bb]) / float64(h.ntups)
	}
	return sel
}

func (h *IntHistogram) lessThanSelectivity(v int32) float64 {
	if v > h.max {
		return 1
	}
	if v < h.min {
		return 0
	}
	b := h.bucketOf(v)
	height := float64(h.buckets[b])
	fracInBucket := (float64(v) - h.bucketLeft(b)) / h.width
	sel := fracInBucket * height / float64(h.ntups)
	for bb := 0; bb < b; bb++ {
		sel += float64(h.buckets[bb]) / float64(h.ntups)
	}
	return sel
}
