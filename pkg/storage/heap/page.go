// Package heap implements the heap-file table format: a fixed-size,
// bitmap-header page layout (HeapPage) and the page-addressed on-disk
// file that stores them (HeapFile).
package heap

import (
	"bytes"
	"fmt"
	"sync"

	"coredb/pkg/concurrency/transaction"
	dberrors "coredb/pkg/errors"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/page"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// Page is a fixed-length page holding a bitmap occupancy header followed
// by N fixed-size tuple slots and trailing zero padding.
//
//	header: ceil(N/8) bytes, one bit per slot, LSB-first, bit=1 iff occupied
//	slots:  N fixed-size tuple records
//	pad:    zero bytes out to page.PageSize
type Page struct {
	mutex sync.RWMutex

	id        primitives.PageID
	tupleDesc *tuple.TupleDescription

	tupleSize   uint32
	numSlots    int
	headerBytes int

	occupied []bool
	tuples   []*tuple.Tuple

	dirtier     *transaction.TransactionID
	beforeImage []byte
}

// NumSlots returns the number of fixed-size tuple slots a page with the
// given tuple schema holds: N = floor((pageSize*8) / (tupleSize*8 + 1)).
func NumSlots(td *tuple.TupleDescription) int {
	tupleSize := td.GetSize()
	return int((uint64(page.PageSize) * 8) / (uint64(tupleSize)*8 + 1))
}

func headerSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewEmptyPage creates a brand new page with every slot empty.
func NewEmptyPage(pid primitives.PageID, td *tuple.TupleDescription) *Page {
	p, _ := NewPage(pid, make([]byte, page.PageSize), td)
	return p
}

// NewPage parses raw page bytes into a Page. data must be exactly
// page.PageSize bytes.
func NewPage(pid primitives.PageID, data []byte, td *tuple.TupleDescription) (*Page, error) {
	if len(data) != page.PageSize {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", page.PageSize, len(data))
	}

	numSlots := NumSlots(td)
	hp := &Page{
		id:          pid,
		tupleDesc:   td,
		tupleSize:   td.GetSize(),
		numSlots:    numSlots,
		headerBytes: headerSize(numSlots),
		occupied:    make([]bool, numSlots),
		tuples:      make([]*tuple.Tuple, numSlots),
		beforeImage: make([]byte, page.PageSize),
	}

	if err := hp.parse(data); err != nil {
		return nil, err
	}
	copy(hp.beforeImage, data)
	return hp, nil
}

func (hp *Page) parse(data []byte) error {
	header := data[:hp.headerBytes]
	for i := 0; i < hp.numSlots; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		if header[byteIdx]&(1<<bitIdx) == 0 {
			continue
		}

		offset := hp.headerBytes + i*int(hp.tupleSize)
		slotData := data[offset : offset+int(hp.tupleSize)]
		t, err := parseTuple(bytes.NewReader(slotData), hp.tupleDesc)
		if err != nil {
			return fmt.Errorf("failed to parse slot %d: %w", i, err)
		}
		t.RecordID = tuple.NewRecordID(hp.id, primitives.SlotID(i))
		hp.occupied[i] = true
		hp.tuples[i] = t
	}
	return nil
}

func parseTuple(r *bytes.Reader, td *tuple.TupleDescription) (*tuple.Tuple, error) {
	t := tuple.NewTuple(td)
	for i := 0; i < td.NumFields(); i++ {
		ft, err := td.TypeAtIndex(i)
		if err != nil {
			return nil, err
		}
		field, err := types.ParseField(r, ft)
		if err != nil {
			return nil, err
		}
		if err := t.SetField(i, field); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GetID returns this page's address.
func (hp *Page) GetID() primitives.PageID {
	return hp.id
}

// IsDirty returns the transaction that last dirtied this page, or nil if
// clean.
func (hp *Page) IsDirty() *transaction.TransactionID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier
}

// MarkDirty sets or clears the dirtying transaction.
func (hp *Page) MarkDirty(dirty bool, tid *transaction.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()
	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData serializes the page into a fresh zeroed buffer: header
// bitmap, then each occupied slot (empty slots stay all zero bytes, and
// their header bit is cleared), then zero padding to the page size.
func (hp *Page) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	data := make([]byte, page.PageSize)
	for i := 0; i < hp.numSlots; i++ {
		if !hp.occupied[i] {
			continue
		}
		data[i/8] |= 1 << uint(i%8)

		offset := hp.headerBytes + i*int(hp.tupleSize)
		buf := bytes.NewBuffer(data[offset:offset])
		for j := 0; j < hp.tupleDesc.NumFields(); j++ {
			field, _ := hp.tuples[i].GetField(j)
			if field == nil {
				continue
			}
			_ = field.Serialize(buf)
		}
	}
	return data
}

// GetBeforeImage returns a page built from the bytes captured at the last
// SetBeforeImage call.
func (hp *Page) GetBeforeImage() page.Page {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	before, _ := NewPage(hp.id, hp.beforeImage, hp.tupleDesc)
	return before
}

// SetBeforeImage snapshots the page's current serialized bytes.
func (hp *Page) SetBeforeImage() {
	data := hp.GetPageData()
	hp.mutex.Lock()
	defer hp.mutex.Unlock()
	copy(hp.beforeImage, data)
}

// Insert places t in the lowest-indexed empty slot, sets the slot's
// header bit, and stamps t's RecordID.
func (hp *Page) Insert(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return dberrors.New(dberrors.SchemaMismatch, dberrors.CategoryUser, "tuple schema does not match page schema")
	}

	slot := -1
	for i := 0; i < hp.numSlots; i++ {
		if !hp.occupied[i] {
			slot = i
			break
		}
	}
	if slot == -1 {
		return dberrors.New(dberrors.PageFull, dberrors.CategoryResource, "no empty slot available on page")
	}

	hp.occupied[slot] = true
	hp.tuples[slot] = t
	t.RecordID = tuple.NewRecordID(hp.id, primitives.SlotID(slot))
	return nil
}

// Delete clears t's slot. t must carry a RecordID addressing a currently
// occupied slot on this page.
func (hp *Page) Delete(t *tuple.Tuple) error {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if t.RecordID == nil || !t.RecordID.PageID.Equals(hp.id) {
		return dberrors.New(dberrors.NotOnPage, dberrors.CategoryUser, "tuple is not on this page")
	}

	slot := int(t.RecordID.SlotNum)
	if slot < 0 || slot >= hp.numSlots || !hp.occupied[slot] {
		return dberrors.New(dberrors.NotOnPage, dberrors.CategoryUser, "tuple slot is not occupied")
	}

	hp.occupied[slot] = false
	hp.tuples[slot] = nil
	t.RecordID = nil
	return nil
}

// Iterator returns a lazy sequence over occupied tuples in slot-index
// order.
func (hp *Page) Iterator() *tuple.Iterator {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	present := make([]*tuple.Tuple, 0, hp.numSlots)
	for i := 0; i < hp.numSlots; i++ {
		if hp.occupied[i] {
			present = append(present, hp.tuples[i])
		}
	}
	return tuple.NewIterator(present)
}

// NumEmptySlots returns the count of unoccupied slots.
func (hp *Page) NumEmptySlots() int {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	empty := 0
	for _, occ := range hp.occupied {
		if !occ {
			empty++
		}
	}
	return empty
}

// GetTupleDesc returns this page's schema.
func (hp *Page) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}
