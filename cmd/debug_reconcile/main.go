package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"record-sync/core/config"
	"record-sync/core/database"
	"record-sync/core/reconcile"
	"record-sync/core/store"

	"github.com/goccy/go-json"
)

// Usage: debug_reconcile <entity> [local-key]
//
// Dumps the local snapshot of one entity to debug_reconcile.json without
// touching the table. Key duplicates are listed, not deleted.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_reconcile <entity> [local-key]")
	}
	entity := os.Args[1]

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	keyField := cfg.Sync.LocalKey
	if len(os.Args) > 2 {
		keyField = os.Args[2]
	}

	keyType, err := reconcile.ParseKeyType(cfg.Sync.KeyType)
	if err != nil {
		log.Fatal(err)
	}
	spec := reconcile.KeySpec{Type: keyType, Coerce: cfg.Sync.Coerce}

	// Connect to DB
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	tables, err := cfg.Sync.TableMap()
	if err != nil {
		log.Fatal(err)
	}
	st := store.NewGormStore(db, store.WithIDColumn(cfg.Sync.IDColumn), store.WithTables(tables))
	ctx := context.Background()

	fmt.Println("=== Columns ===")
	columns, err := st.Columns(ctx, entity)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: %v\n", entity, columns)

	fmt.Println("\n=== Snapshot ===")
	locals, err := st.Enumerate(ctx, entity, keyField, nil)
	if err != nil {
		log.Fatal(err)
	}
	snap := reconcile.NewSnapshot(locals, spec)

	fmt.Printf("Local records:      %d\n", len(locals))
	fmt.Printf("Snapshot entries:   %d\n", snap.Len())
	fmt.Printf("Key duplicates:     %d\n", len(snap.Duplicates))
	fmt.Printf("Unresolvable keys:  %d\n", snap.Unresolvable)

	kinds := make(map[string]int)
	entries := make([]map[string]any, 0, snap.Len())
	for _, e := range snap.Entries() {
		kinds[e.Key.Kind().String()]++
		entries = append(entries, map[string]any{"key": e.Key, "id": e.ID})
	}
	fmt.Printf("Key kinds:          %v\n", kinds)

	// Save detailed output
	output := map[string]any{
		"entity":       entity,
		"local_key":    keyField,
		"columns":      columns,
		"count":        len(locals),
		"unresolvable": snap.Unresolvable,
		"duplicates":   snap.Duplicates,
		"key_kinds":    kinds,
		"entries":      entries,
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile("debug_reconcile.json", data, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nDebug complete. Check debug_reconcile.json for details.")
}
