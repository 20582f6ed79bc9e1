package execution

import (
	"fmt"

	"coredb/pkg/catalog"
	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/tuple"
)

// SeqScan walks every tuple of one table in page/slot order, presenting
// each field under an "alias.name" qualified column name.
type SeqScan struct {
	base *BaseIterator

	tid     *transaction.TransactionID
	tableID primitives.TableID
	alias   string
	pool    heap.Pager

	file      *heap.File
	fileIter  *heap.FileIterator
	tupleDesc *tuple.TupleDescription
}

// NewSeqScan creates a scan of tableID, visible to tid, presenting fields
// qualified by alias (an empty alias or field name renders as "null").
func NewSeqScan(tid *transaction.TransactionID, tableID primitives.TableID, alias string, cat *catalog.Catalog, pool heap.Pager) (*SeqScan, error) {
	f, err := cat.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	hf, ok := f.(*heap.File)
	if !ok {
		return nil, fmt.Errorf("table %d is not backed by a heap file", tableID)
	}

	ss := &SeqScan{
		tid:       tid,
		tableID:   tableID,
		alias:     alias,
		pool:      pool,
		file:      hf,
		tupleDesc: aliasedTupleDesc(hf.GetTupleDesc(), alias),
	}
	ss.base = NewBaseIterator(ss.readNext)
	return ss, nil
}

// aliasedTupleDesc renders every field name as "alias.name", substituting
// "null" for an empty alias or an empty field name.
func aliasedTupleDesc(td *tuple.TupleDescription, alias string) *tuple.TupleDescription {
	if alias == "" {
		alias = "null"
	}
	names := make([]string, td.NumFields())
	for i := range names {
		name := td.GetFieldName(i)
		if name == "" {
			name = "null"
		}
		names[i] = alias + "." + name
	}
	aliased, _ := tuple.NewTupleDesc(td.Types, names)
	return aliased
}

// Open positions the scan at the first tuple of the table.
func (ss *SeqScan) Open() error {
	ss.fileIter = heap.NewFileIterator(ss.file, ss.tid, ss.pool)
	if err := ss.fileIter.Open(); err != nil {
		return err
	}
	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	hasNext, err := ss.fileIter.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, nil
	}

	t, err := ss.fileIter.Next()
	if err != nil {
		return nil, err
	}

	aliased := tuple.NewTuple(ss.tupleDesc)
	for i := 0; i < ss.tupleDesc.NumFields(); i++ {
		field, err := t.GetField(i)
		if err != nil {
			return nil, err
		}
		if err := aliased.SetField(i, field); err != nil {
			return nil, err
		}
	}
	aliased.RecordID = t.RecordID
	return aliased, nil
}

// GetTupleDesc returns the alias-qualified schema of the scanned table.
func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription { return ss.tupleDesc }

func (ss *SeqScan) HasNext() (bool, error)      { return ss.base.HasNext() }
func (ss *SeqScan) Next() (*tuple.Tuple, error) { return ss.base.Next() }

// Rewind restarts the scan from the first page.
func (ss *SeqScan) Rewind() error {
	if err := ss.fileIter.Rewind(); err != nil {
		return err
	}
	ss.base.ClearCache()
	return nil
}

// Close releases the underlying file iterator.
func (ss *SeqScan) Close() error {
	if ss.fileIter != nil {
		ss.fileIter.Close()
		ss.fileIter = nil
	}
	return ss.base.Close()
}
