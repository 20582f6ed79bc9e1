// Command coredb boots the storage and execution core's process-wide
// singletons and runs a small in-process demonstration: create a table,
// insert rows through the buffer pool, and scan them back out. It is not a
// SQL shell; there is no parser or network listener here, only the
// plumbing every caller of the core needs wired up once per process.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"coredb/internal/debugfmt"
	"coredb/pkg/catalog"
	"coredb/pkg/concurrency/transaction"
	"coredb/pkg/config"
	"coredb/pkg/execution"
	"coredb/pkg/logging"
	"coredb/pkg/memory"
	"coredb/pkg/optimizer/statistics"
	"coredb/pkg/primitives"
	"coredb/pkg/storage/heap"
	"coredb/pkg/tuple"
	"coredb/pkg/types"
)

func main() {
	dataDir := flag.String("data", "./data", "directory holding table heap files")
	maxPages := flag.Int("buffer-pages", config.DefaultBufferPoolPages, "buffer pool capacity in pages")
	logLevel := flag.String("log-level", string(logging.LevelInfo), "logging.Level")
	flag.Parse()

	if err := logging.Init(logging.Config{Level: logging.Level(*logLevel)}); err != nil {
		fmt.Fprintf(os.Stderr, "logging init: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logging.Get().Error("creating data directory", "error", err)
		os.Exit(1)
	}

	registry := transaction.NewRegistry()
	statsRegistry := statistics.NewRegistry()

	cat, err := bootstrapCatalog(*dataDir)
	if err != nil {
		logging.Get().Error("catalog bootstrap failed", "error", err)
		os.Exit(1)
	}
	bufferPool := memory.NewBufferPool(cat, *maxPages, registry)

	if err := run(cat, registry, bufferPool, statsRegistry); err != nil {
		logging.Get().Error("run failed", "error", err)
		os.Exit(1)
	}
}

// bootstrapCatalog opens every table this process knows about concurrently
// via catalog.Bootstrap and returns the populated catalog.
func bootstrapCatalog(dataDir string) (*catalog.Catalog, error) {
	peopleDesc, err := tuple.NewTupleDesc(
		[]types.Type{types.IntType, types.StringType},
		[]string{"id", "name"},
	)
	if err != nil {
		return nil, err
	}
	citiesDesc, err := tuple.NewTupleDesc(
		[]types.Type{types.IntType, types.StringType},
		[]string{"id", "city"},
	)
	if err != nil {
		return nil, err
	}

	return catalog.Bootstrap([]catalog.TableSpec{
		{
			Path:       primitives.Filepath(filepath.Join(dataDir, "people.dat")),
			TupleDesc:  peopleDesc,
			Name:       "people",
			PrimaryKey: "id",
		},
		{
			Path:       primitives.Filepath(filepath.Join(dataDir, "cities.dat")),
			TupleDesc:  citiesDesc,
			Name:       "cities",
			PrimaryKey: "id",
		},
	})
}

// run inserts a handful of rows into the demo table, computes its
// statistics, and scans it back out, logging progress along the way.
func run(cat *catalog.Catalog, registry *transaction.Registry, pool *memory.BufferPool, stats *statistics.Registry) error {
	log := logging.Get()

	tableID, err := cat.GetTableID("people")
	if err != nil {
		return err
	}
	td, err := cat.GetTupleDesc(tableID)
	if err != nil {
		return err
	}
	file, err := cat.GetDbFile(tableID)
	if err != nil {
		return err
	}
	hf, ok := file.(*heap.File)
	if !ok {
		return fmt.Errorf("people table's file is not a heap file")
	}
	log.Info("table registered", "name", "people", "tableID", tableID)

	ctx := registry.Begin()
	names := []string{"Ada", "Grace", "Edsger"}
	for i, name := range names {
		t := tuple.NewTuple(td)
		if err := t.SetField(0, types.NewIntField(int32(i+1))); err != nil {
			return err
		}
		if err := t.SetField(1, types.NewStringField(name, 0)); err != nil {
			return err
		}
		if err := pool.InsertTuple(ctx.ID, tableID, t); err != nil {
			return err
		}
	}
	if err := pool.TransactionComplete(ctx.ID, true); err != nil {
		return err
	}
	log.Info("rows inserted", "count", len(names))

	tableStats, err := statistics.NewTableStats(hf, pool, registry, 1000)
	if err != nil {
		return err
	}
	stats.Set("people", tableStats)
	log.Info("table stats computed", "scanCost", tableStats.EstimateScanCost())

	scanCtx := registry.Begin()
	defer pool.TransactionComplete(scanCtx.ID, true)

	scan, err := execution.NewSeqScan(scanCtx.ID, tableID, "people", cat, pool)
	if err != nil {
		return err
	}
	if err := scan.Open(); err != nil {
		return err
	}
	defer scan.Close()

	for {
		hasNext, err := scan.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		row, err := scan.Next()
		if err != nil {
			return err
		}
		fmt.Println(row.String())
	}

	fmt.Println(debugfmt.BufferPoolDump(pool))
	return nil
}
