// Package primitives defines the small value types shared across the
// storage and execution layers: table/page/slot identifiers and the
// hashing used to derive a table's identity from its file path.
package primitives

import (
	"fmt"
	"hash/fnv"
)

// TableID identifies a table's on-disk file. It is derived deterministically
// from the file's absolute path, so it is stable across process restarts.
type TableID uint64

// PageNumber is a page's dense, zero-based offset within its file.
type PageNumber uint64

// SlotID is a tuple's position within a page's fixed-size slot array.
type SlotID uint32

// ColumnID identifies a field within a TupleDesc.
type ColumnID int

// Filepath is a type-safe wrapper around a file path; the absolute form of
// a table's path is what derives its identity.
type Filepath string

// Hash derives a TableID from the file path via FNV-1a. Identical paths
// always hash to the same TableID.
func (f Filepath) Hash() TableID {
	h := fnv.New64a()
	h.Write([]byte(f))
	return TableID(h.Sum64())
}

func (f Filepath) String() string {
	return string(f)
}

// PageID is a stable, structural address for a page: the table it belongs
// to plus its dense page number within that table's file.
type PageID struct {
	TableID    TableID
	PageNumber PageNumber
}

// NewPageID constructs a PageID.
func NewPageID(tableID TableID, pageNumber PageNumber) PageID {
	return PageID{TableID: tableID, PageNumber: pageNumber}
}

// Equals is structural equality.
func (p PageID) Equals(other PageID) bool {
	return p.TableID == other.TableID && p.PageNumber == other.PageNumber
}

func (p PageID) String() string {
	return fmt.Sprintf("PageID(table=%d, page=%d)", p.TableID, p.PageNumber)
}

// HashCode derives a stable hash for use as a map key substitute when a
// PageID cannot itself be used directly (PageID is already comparable and
// can be a Go map key, so this is mainly for cross-process identifiers).
func (p PageID) HashCode() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d", p.TableID, p.PageNumber)
	return h.Sum64()
}
