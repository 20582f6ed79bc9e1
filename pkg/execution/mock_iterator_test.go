package execution

import (
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

// mockIterator is a hand-fed DbIterator used to test operators in
// isolation, without a backing heap file or buffer pool.
type mockIterator struct {
	td     *tuple.TupleDescription
	rows   []*tuple.Tuple
	pos    int
	opened bool
}

func newMockIterator(td *tuple.TupleDescription, rows []*tuple.Tuple) *mockIterator {
	return &mockIterator{td: td, rows: rows}
}

func (m *mockIterator) Open() error {
	m.opened = true
	m.pos = 0
	return nil
}

func (m *mockIterator) HasNext() (bool, error) {
	return m.opened && m.pos < len(m.rows), nil
}

func (m *mockIterator) Next() (*tuple.Tuple, error) {
	t := m.rows[m.pos]
	m.pos++
	return t, nil
}

func (m *mockIterator) Rewind() error {
	m.pos = 0
	return nil
}

func (m *mockIterator) Close() error {
	m.opened = false
	return nil
}

func (m *mockIterator) GetTupleDesc() *tuple.TupleDescription { return m.td }

// intRow builds a single-or-multi-field all-int tuple under td.
func intRow(td *tuple.TupleDescription, values ...int32) *tuple.Tuple {
	t := tuple.NewTuple(td)
	for i, v := range values {
		_ = t.SetField(i, types.NewIntField(v))
	}
	return t
}

func mustTupleDesc(fieldTypes []types.Type, names []string) *tuple.TupleDescription {
	td, err := tuple.NewTupleDesc(fieldTypes, names)
	if err != nil {
		panic(err)
	}
	return td
}
