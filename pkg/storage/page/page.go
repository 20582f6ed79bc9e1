// Package page defines the page-level storage abstractions shared by every
// on-disk file format: the Page and DbFile interfaces, and the PageSize
// common to all of them.
package page

import (
	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/primitives"
)

// defaultPageSize is the size, in bytes, PageSize resets to.
const defaultPageSize = 4096

// PageSize is the size, in bytes, of every page in every database file.
// It is process-wide rather than threaded through every constructor, to
// match every on-disk layout (heap page slot counts, BaseFile offsets)
// that is computed from it; tests that need a different page size call
// SetPageSize and must call ResetPageSize when done.
var PageSize = defaultPageSize

// SetPageSize overrides PageSize, for tests exercising layouts that don't
// fit in the default size.
func SetPageSize(size int) {
	PageSize = size
}

// ResetPageSize restores PageSize to its default.
func ResetPageSize() {
	PageSize = defaultPageSize
}

// Page is a page resident in the buffer pool. Pages may be dirty,
// indicating they have been modified since they were last written to disk.
type Page interface {
	// GetID returns this page's address.
	GetID() primitives.PageID

	// IsDirty returns the transaction that last dirtied this page, or nil
	// if the page is clean.
	IsDirty() *transaction.TransactionID

	// MarkDirty sets or clears this page's dirty state.
	MarkDirty(dirty bool, tid *transaction.TransactionID)

	// GetPageData serializes this page's contents for writing to disk.
	GetPageData() []byte

	// GetBeforeImage returns a snapshot of this page's contents as of the
	// last call to SetBeforeImage.
	GetBeforeImage() Page

	// SetBeforeImage snapshots this page's current contents as its new
	// before-image, normally called when a transaction that wrote this
	// page commits.
	SetBeforeImage()
}
