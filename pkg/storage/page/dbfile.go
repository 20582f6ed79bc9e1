package page

import (
	"coredb/pkg/primitives"
	"coredb/pkg/tuple"
)

// DbFile is a database file that stores tuples on pages, providing the
// read/write/insert/delete operations every on-disk table format must
// support.
type DbFile interface {
	// ReadPage retrieves a page by its ID.
	ReadPage(pid primitives.PageID) (Page, error)

	// WritePage persists a page at its designated location.
	WritePage(p Page) error

	// GetID returns this file's unique identifier, derived from its path.
	GetID() primitives.TableID

	// GetTupleDesc returns the schema of tuples stored in this file.
	GetTupleDesc() *tuple.TupleDescription

	// NumPages returns the number of pages currently in the file.
	NumPages() (primitives.PageNumber, error)

	// Close releases the file's resources.
	Close() error
}
