package heap

import (
	"sync"

	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/page"
	"coredb/pkg/tuple"
)

// File is an on-disk array of page-sized blocks holding HeapPages. Its
// table ID is the hash of its absolute path.
type File struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription

	// appendMutex serializes AllocateNewPage calls so two concurrent inserts
	// that both need a new page never allocate the same page number. The
	// numPages read and the scan for free space run outside it, so two
	// inserts that both find every page full each allocate a page of their
	// own.
	appendMutex sync.Mutex
}

// NewFile opens (creating if necessary) a heap file backed by filePath.
func NewFile(filePath primitives.Filepath, td *tuple.TupleDescription) (*File, error) {
	base, err := page.NewBaseFile(filePath)
	if err != nil {
		return nil, err
	}
	return &File{BaseFile: base, tupleDesc: td}, nil
}

// GetTupleDesc returns the schema of tuples stored in this file.
func (f *File) GetTupleDesc() *tuple.TupleDescription {
	return f.tupleDesc
}

// ReadPage validates pid against this file and returns the parsed page at
// pid.PageNumber.
func (f *File) ReadPage(pid primitives.PageID) (page.Page, error) {
	if pid.TableID != f.GetID() {
		return nil, dberrors.New(dberrors.InvalidPageID, dberrors.CategoryUser, "page table ID does not match this file")
	}

	numPages, err := f.NumPages()
	if err != nil {
		return nil, err
	}
	if pid.PageNumber >= numPages {
		return nil, dberrors.New(dberrors.InvalidPageID, dberrors.CategoryUser, "page number out of range")
	}

	data, err := f.ReadPageData(pid.PageNumber)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.IOFailure, "ReadPage", "heap.File")
	}

	return NewPage(pid, data, f.tupleDesc)
}

// WritePage persists p at its page number, extending the file by one
// page if p's page number is exactly the current page count.
func (f *File) WritePage(p page.Page) error {
	if err := f.WritePageData(p.GetID().PageNumber, p.GetPageData()); err != nil {
		return dberrors.Wrap(err, dberrors.IOFailure, "WritePage", "heap.File")
	}
	return nil
}

// Pager is the page-access surface a HeapFile needs to perform
// lock-respecting tuple mutations: fetch a page through the owning
// transaction's locks rather than reading raw bytes directly. BufferPool
// satisfies this interface.
type Pager interface {
	GetPage(tid *transaction.TransactionID, pid primitives.PageID, exclusive bool) (page.Page, error)
}

// InsertTuple finds a page with free space (scanning existing pages via
// pool, else allocating a new one), inserts t, and returns every page it
// dirtied.
func (f *File) InsertTuple(tid *transaction.TransactionID, pool Pager, t *tuple.Tuple) ([]page.Page, error) {
	numPages, err := f.NumPages()
	if err != nil {
		return nil, err
	}

	for i := primitives.PageNumber(0); i < numPages; i++ {
		pid := primitives.NewPageID(f.GetID(), i)
		p, err := pool.GetPage(tid, pid, true)
		if err != nil {
			return nil, err
		}
		hp := p.(*Page)
		if hp.NumEmptySlots() == 0 {
			continue
		}
		if err := hp.Insert(t); err != nil {
			continue
		}
		return []page.Page{hp}, nil
	}

	f.appendMutex.Lock()
	newPageNo, err := f.AllocateNewPage()
	f.appendMutex.Unlock()
	if err != nil {
		return nil, err
	}

	pid := primitives.NewPageID(f.GetID(), newPageNo)
	p, err := pool.GetPage(tid, pid, true)
	if err != nil {
		return nil, err
	}
	hp := p.(*Page)
	if err := hp.Insert(t); err != nil {
		return nil, err
	}
	return []page.Page{hp}, nil
}

// DeleteTuple fetches t's page write-locked through pool and deletes t
// from it.
func (f *File) DeleteTuple(tid *transaction.TransactionID, pool Pager, t *tuple.Tuple) (page.Page, error) {
	if t.RecordID == nil {
		return nil, dberrors.New(dberrors.NotOnPage, dberrors.CategoryUser, "tuple has no record ID")
	}

	p, err := pool.GetPage(tid, t.RecordID.PageID, true)
	if err != nil {
		return nil, err
	}
	hp := p.(*Page)
	if err := hp.Delete(t); err != nil {
		return nil, err
	}
	return hp, nil
}
