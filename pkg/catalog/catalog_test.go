package catalog

import (
	"path/filepath"
	"testing"

	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

func TestAddTableThenLookupRoundTrips(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog()

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"a"})
	if err != nil {
		t.Fatalf("NewTupleDesc: %v", err)
	}
	f, err := heap.NewFile(primitives.Filepath(filepath.Join(dir, "t.dat")), td)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if err := c.AddTable(f, "t", "a"); err != nil {
		t.Fatalf("AddTable: %v", err)
	}

	id, err := c.GetTableID("t")
	if err != nil {
		t.Fatalf("GetTableID: %v", err)
	}
	name, err := c.GetTableName(id)
	if err != nil || name != "t" {
		t.Fatalf("GetTableName: got (%q, %v), want (t, nil)", name, err)
	}
	pk, err := c.GetPrimaryKey(id)
	if err != nil || pk != "a" {
		t.Fatalf("GetPrimaryKey: got (%q, %v), want (a, nil)", pk, err)
	}
}

func TestBootstrapOpensEveryTableConcurrently(t *testing.T) {
	dir := t.TempDir()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})
	if err != nil {
		t.Fatalf("NewTupleDesc: %v", err)
	}

	specs := []TableSpec{
		{Path: primitives.Filepath(filepath.Join(dir, "a.dat")), TupleDesc: td, Name: "a", PrimaryKey: "v"},
		{Path: primitives.Filepath(filepath.Join(dir, "b.dat")), TupleDesc: td, Name: "b", PrimaryKey: "v"},
		{Path: primitives.Filepath(filepath.Join(dir, "c.dat")), TupleDesc: td, Name: "c", PrimaryKey: "v"},
	}

	cat, err := Bootstrap(specs)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	names := cat.TableNames()
	if len(names) != len(specs) {
		t.Fatalf("TableNames() = %v, want %d entries", names, len(specs))
	}
	for _, spec := range specs {
		if _, err := cat.GetTableID(spec.Name); err != nil {
			t.Fatalf("table %q missing from bootstrapped catalog: %v", spec.Name, err)
		}
	}
}

func TestBootstrapFailsAtomicallyOnBadSpec(t *testing.T) {
	dir := t.TempDir()
	td, err := tuple.NewTupleDesc([]types.Type{types.IntType}, []string{"v"})
	if err != nil {
		t.Fatalf("NewTupleDesc: %v", err)
	}

	specs := []TableSpec{
		{Path: primitives.Filepath(filepath.Join(dir, "ok.dat")), TupleDesc: td, Name: "ok", PrimaryKey: "v"},
		{Path: primitives.Filepath(filepath.Join(dir, "missing", "nested", "bad.dat")), TupleDesc: td, Name: "bad", PrimaryKey: "v"},
	}

	if _, err := Bootstrap(specs); err == nil {
		t.Fatalf("expected Bootstrap to fail when one table's directory does not exist")
	}
}
