package statistics

import "coredb/pkg/types"

// StringHistogram estimates string selectivity by reducing each value to an
// integer (packing its first four characters into a base-128 number) and
// delegating to an IntHistogram over the reduced range.
type StringHistogram struct {
	inner *IntHistogram
}

// NewStringHistogram builds a histogram over the string range [minStr,
// maxStr] with the given bucket count.
func NewStringHistogram(buckets int, minStr, maxStr string) *StringHistogram {
	return &StringHistogram{inner: NewIntHistogram(buckets, packString(minStr), packString(maxStr))}
}

// AddValue records v.
func (h *StringHistogram) AddValue(v string) {
	h.inner.AddValue(packString(v))
}

// EstimateSelectivity returns the estimated fraction of rows satisfying
// "field op v".
func (h *StringHistogram) EstimateSelectivity(op types.Predicate, v string) float64 {
	if op == types.Like {
		return 0.5
	}
	return h.inner.EstimateSelectivity(op, packString(v))
}

// packString reduces s's first four characters (zero-padded) to a base-128
// integer, giving a total order consistent with lexicographic string
// comparison over that prefix.
func packString(s string) int32 {
	var packed int32
	for i := 0; i < 4; i++ {
		packed *= 128
		if i < len(s) {
			packed += int32(s[i])
		}
	}
	return packed
}
