// Package config collects the handful of tunables the storage and execution
// core exposes. Defaults are plain constants; every override except the
// page size is threaded explicitly through a constructor rather than
// mutated as global state (see DefaultPageSize).
package config

const (
	// DefaultPageSize is the on-disk and in-memory page size in bytes,
	// mirrored by page.PageSize at package init. The live value lives in
	// page.PageSize, not here: tests that need a different page size call
	// page.SetPageSize/page.ResetPageSize rather than override this constant.
	DefaultPageSize = 4096

	// DefaultStringCapacity is the fixed capacity (in bytes) a StringField
	// is padded to when no explicit capacity is given.
	DefaultStringCapacity = 128

	// DefaultBufferPoolPages is the default number of pages the BufferPool
	// will hold resident before it must evict.
	DefaultBufferPoolPages = 50

	// DefaultHistogramBuckets is the default bucket count for a fresh
	// IntHistogram/StringHistogram when the caller does not request a
	// specific resolution.
	DefaultHistogramBuckets = 100

	// MinHistogramBuckets is the lower bound any histogram bucket count is
	// clamped to; a histogram with zero buckets cannot estimate anything.
	MinHistogramBuckets = 1
)
