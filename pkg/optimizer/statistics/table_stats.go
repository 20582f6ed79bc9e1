package statistics

import (
	"math"
	"sync"

	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
	"golang.org/x/sync/errgroup"
)

// TableStats holds per-field equi-width histograms for one table, used to
// estimate the cost and selectivity of a scan or predicate without running
// it.
type TableStats struct {
	tableID       primitives.TableID
	ioCostPerPage int
	numPages      int
	totalTups     int

	intHistograms    map[int]*IntHistogram
	stringHistograms map[int]*StringHistogram
}

// NewTableStats scans file twice through pool (visible to a private,
// immediately-committed transaction): the first pass collects each int
// field's (min, max) and the tuple count; the second builds one histogram
// per field, fanning the per-field histogram construction out across an
// errgroup since each field's histogram depends only on the buffered
// tuples, not on the others.
func NewTableStats(file *heap.File, pool heap.Pager, registry *transaction.Registry, ioCostPerPage int) (*TableStats, error) {
	td := file.GetTupleDesc()
	numPages, err := file.NumPages()
	if err != nil {
		return nil, err
	}

	ctx := registry.Begin()
	tid := ctx.ID

	tuples, err := scanAll(file, tid, pool)
	if err != nil {
		return nil, err
	}

	mins := make(map[int]int32)
	maxs := make(map[int]int32)
	seen := make(map[int]bool)
	for _, t := range tuples {
		for i := 0; i < td.NumFields(); i++ {
			fieldType, _ := td.TypeAtIndex(i)
			if fieldType != types.IntType {
				continue
			}
			f, err := t.GetField(i)
			if err != nil {
				return nil, err
			}
			v := f.(*types.IntField).Value
			if !seen[i] || v < mins[i] {
				mins[i] = v
			}
			if !seen[i] || v > maxs[i] {
				maxs[i] = v
			}
			seen[i] = true
		}
	}

	totalTups := len(tuples)
	ts := &TableStats{
		tableID:          file.GetID(),
		ioCostPerPage:    ioCostPerPage,
		numPages:         int(numPages),
		totalTups:        totalTups,
		intHistograms:    make(map[int]*IntHistogram),
		stringHistograms: make(map[int]*StringHistogram),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for i := 0; i < td.NumFields(); i++ {
		i := i
		fieldType, _ := td.TypeAtIndex(i)
		g.Go(func() error {
			if fieldType == types.IntType {
				buckets := bucketCount(totalTups, int(maxs[i]-mins[i])+1)
				h := NewIntHistogram(buckets, mins[i], maxs[i])
				for _, t := range tuples {
					f, err := t.GetField(i)
					if err != nil {
						return err
					}
					h.AddValue(f.(*types.IntField).Value)
				}
				mu.Lock()
				ts.intHistograms[i] = h
				mu.Unlock()
				return nil
			}

			minStr, maxStr := stringRange(tuples, i)
			h := NewStringHistogram(bucketCount(totalTups, 0), minStr, maxStr)
			for _, t := range tuples {
				f, err := t.GetField(i)
				if err != nil {
					return err
				}
				h.AddValue(f.(*types.StringField).Value)
			}
			mu.Lock()
			ts.stringHistograms[i] = h
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if c, ok := pool.(interface {
		TransactionComplete(tid *transaction.TransactionID, commit bool) error
	}); ok {
		if err := c.TransactionComplete(tid, true); err != nil {
			return nil, err
		}
	} else {
		registry.Remove(tid)
	}
	return ts, nil
}

func scanAll(file *heap.File, tid *transaction.TransactionID, pool heap.Pager) ([]*tuple.Tuple, error) {
	it := heap.NewFileIterator(file, tid, pool)
	if err := it.Open(); err != nil {
		return nil, err
	}
	defer it.Close()

	var tuples []*tuple.Tuple
	for {
		hasNext, err := it.HasNext()
		if err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}
		t, err := it.Next()
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, t)
	}
	return tuples, nil
}

func stringRange(tuples []*tuple.Tuple, fieldIndex int) (string, string) {
	var minStr, maxStr string
	first := true
	for _, t := range tuples {
		f, err := t.GetField(fieldIndex)
		if err != nil {
			continue
		}
		v := f.(*types.StringField).Value
		if first || v < minStr {
			minStr = v
		}
		if first || v > maxStr {
			maxStr = v
		}
		first = false
	}
	return minStr, maxStr
}

// bucketCount picks max(1, min(totalTups/20, fieldRange)) buckets, where an
// int field's caller passes fieldRange as max-min+1; a fieldRange of 0 (used
// for string fields) leaves only the totalTups/20 term to cap it.
func bucketCount(totalTups, fieldRange int) int {
	byRows := totalTups / 20
	limit := byRows
	if fieldRange > 0 && fieldRange < limit {
		limit = fieldRange
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// EstimateScanCost returns the estimated I/O cost of a full sequential scan.
func (ts *TableStats) EstimateScanCost() float64 {
	return float64(ts.numPages) * float64(ts.ioCostPerPage)
}

// EstimateCardinality returns the expected row count after applying a
// predicate of the given selectivity.
func (ts *TableStats) EstimateCardinality(selectivity float64) int {
	return int(math.Floor(float64(ts.totalTups) * selectivity))
}

// EstimateSelectivity dispatches to the histogram for fieldIndex.
func (ts *TableStats) EstimateSelectivity(fieldIndex int, op types.Predicate, constant types.Field) float64 {
	switch v := constant.(type) {
	case *types.IntField:
		if h, ok := ts.intHistograms[fieldIndex]; ok {
			return h.EstimateSelectivity(op, v.Value)
		}
	case *types.StringField:
		if h, ok := ts.stringHistograms[fieldIndex]; ok {
			return h.EstimateSelectivity(op, v.Value)
		}
	}
	return 0
}
