package heap

import (
	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
	"coredb/pkg/tuple"
)

// FileIterator walks every tuple in a heap file, page by page (in page-
// number order) and slot by slot (in slot-index order) within each page.
// Every page is fetched read-only through a Pager, so iteration respects
// the same locking as any other reader.
type FileIterator struct {
	file *File
	tid  *transaction.TransactionID
	pool Pager

	opened      bool
	currentPage primitives.PageNumber
	pageIter    *tuple.Iterator
}

// NewFileIterator creates an iterator over file's tuples, visible to tid.
func NewFileIterator(file *File, tid *transaction.TransactionID, pool Pager) *FileIterator {
	return &FileIterator{file: file, tid: tid, pool: pool}
}

// Open positions the iterator at the first occupied slot of the first
// page that has one.
func (it *FileIterator) Open() error {
	it.opened = true
	it.currentPage = 0
	it.pageIter = nil
	return it.advanceToNextPageWithTuples(0)
}

// HasNext reports whether another tuple remains.
func (it *FileIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberrors.New(dberrors.IteratorClosed, dberrors.CategoryUser, "iterator not opened")
	}
	return it.pageIter != nil && it.pageIter.HasNext(), nil
}

// Next returns the next tuple in file order.
func (it *FileIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, dberrors.New(dberrors.IteratorClosed, dberrors.CategoryUser, "iterator not opened")
	}
	if it.pageIter == nil || !it.pageIter.HasNext() {
		return nil, dberrors.New(dberrors.IteratorClosed, dberrors.CategoryUser, "no more tuples")
	}

	t := it.pageIter.Next()
	if !it.pageIter.HasNext() {
		if err := it.advanceToNextPageWithTuples(it.currentPage + 1); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// advanceToNextPageWithTuples scans forward from startPage for the next
// page containing at least one tuple, and positions pageIter there (or
// leaves it nil if no such page exists).
func (it *FileIterator) advanceToNextPageWithTuples(startPage primitives.PageNumber) error {
	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}

	for pn := startPage; pn < numPages; pn++ {
		pid := primitives.NewPageID(it.file.GetID(), pn)
		p, err := it.pool.GetPage(it.tid, pid, false)
		if err != nil {
			return err
		}
		hp := p.(*Page)
		pageIter := hp.Iterator()
		if pageIter.HasNext() {
			it.currentPage = pn
			it.pageIter = pageIter
			return nil
		}
	}

	it.pageIter = nil
	return nil
}

// Rewind restarts iteration from page 0.
func (it *FileIterator) Rewind() error {
	return it.Open()
}

// Close releases iterator resources. The iterator must be reopened
// before further use.
func (it *FileIterator) Close() {
	it.opened = false
	it.pageIter = nil
}
