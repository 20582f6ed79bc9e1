// Package catalog maintains the bidirectional mapping between table names
// and the heap files that back them, used by the execution layer to
// resolve a SeqScan's source and by the BufferPool to resolve a page's
// owning file.
package catalog

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/storage/page"
	"coredb/pkg/tuple"
)

// Table describes a registered table: its backing file, its schema, and
// the name of the column (if any) serving as its primary key.
type Table struct {
	File      page.DbFile
	Name      string
	PrimaryKey string
}

// Catalog is the name/ID/file registry for every table known to the
// system. It satisfies memory.TableProvider.
type Catalog struct {
	mutex     sync.RWMutex
	byName    map[string]*Table
	byID      map[primitives.TableID]*Table
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byName: make(map[string]*Table),
		byID:   make(map[primitives.TableID]*Table),
	}
}

// AddTable registers f under name, replacing any existing table with the
// same name or ID.
func (c *Catalog) AddTable(f page.DbFile, name, primaryKey string) error {
	if f == nil {
		return fmt.Errorf("catalog: file cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("catalog: table name cannot be empty")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.byName[name]; ok {
		delete(c.byID, existing.File.GetID())
	}

	t := &Table{File: f, Name: name, PrimaryKey: primaryKey}
	c.byName[name] = t
	c.byID[f.GetID()] = t
	return nil
}

// RemoveTable drops the table registered under name and closes its file.
func (c *Catalog) RemoveTable(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	t, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("catalog: table %q not found", name)
	}
	delete(c.byName, name)
	delete(c.byID, t.File.GetID())
	return t.File.Close()
}

// GetTableID returns the ID of the table registered under name.
func (c *Catalog) GetTableID(name string) (primitives.TableID, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t, ok := c.byName[name]
	if !ok {
		return 0, fmt.Errorf("catalog: table %q not found", name)
	}
	return t.File.GetID(), nil
}

// GetTableName returns the name the table with tableID was registered
// under.
func (c *Catalog) GetTableName(tableID primitives.TableID) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t, ok := c.byID[tableID]
	if !ok {
		return "", fmt.Errorf("catalog: table %d not found", tableID)
	}
	return t.Name, nil
}

// GetDbFile returns the DbFile backing tableID, satisfying
// memory.TableProvider.
func (c *Catalog) GetDbFile(tableID primitives.TableID) (page.DbFile, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t, ok := c.byID[tableID]
	if !ok {
		return nil, fmt.Errorf("catalog: table %d not found", tableID)
	}
	return t.File, nil
}

// GetTupleDesc returns the schema of the table with tableID.
func (c *Catalog) GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error) {
	f, err := c.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	return f.GetTupleDesc(), nil
}

// GetPrimaryKey returns the primary key column name of the table with
// tableID, which may be empty if the table has none.
func (c *Catalog) GetPrimaryKey(tableID primitives.TableID) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t, ok := c.byID[tableID]
	if !ok {
		return "", fmt.Errorf("catalog: table %d not found", tableID)
	}
	return t.PrimaryKey, nil
}

// TableNames returns every registered table name. Order is unspecified.
func (c *Catalog) TableNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	return names
}

// TableSpec describes one table to open during Bootstrap.
type TableSpec struct {
	Path       primitives.Filepath
	TupleDesc  *tuple.TupleDescription
	Name       string
	PrimaryKey string
}

// Bootstrap opens every table named in specs concurrently — each is an
// independent heap file open, so there is no reason to serialize them at
// startup — and registers every one that succeeds in a fresh Catalog. If
// any open fails, every file opened so far is closed and the first error
// is returned; the caller gets either a fully populated catalog or none
// at all.
func Bootstrap(specs []TableSpec) (*Catalog, error) {
	files := make([]*heap.File, len(specs))

	var g errgroup.Group
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			f, err := heap.NewFile(spec.Path, spec.TupleDesc)
			if err != nil {
				return fmt.Errorf("opening table %q: %w", spec.Name, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range files {
			if f != nil {
				f.Close()
			}
		}
		return nil, err
	}

	cat := NewCatalog()
	for i, spec := range specs {
		if err := cat.AddTable(files[i], spec.Name, spec.PrimaryKey); err != nil {
			cat.Clear()
			return nil, err
		}
	}
	return cat, nil
}

// Clear removes every registered table, closing each file.
func (c *Catalog) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, t := range c.byID {
		t.File.Close()
	}
	c.byName = make(map[string]*Table)
	c.byID = make(map[primitives.TableID]*Table)
}
