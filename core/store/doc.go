// Package store provides the local stores the reconcile engine runs against.
//
// # GormStore
//
// GormStore maps each entity to a SQL table reached through GORM (MySQL or
// SQLite). Records are identified by an identifier column ("id" by default)
// and enumerated in identifier order. Table and column names are quoted.
// reconcile.FieldScope parts of a scope are pushed down into the WHERE clause;
// the remaining parts are evaluated against each row in memory. Transaction binds a store to a database transaction so
// one reconciliation reads a consistent snapshot and rolls back on failure.
//
// # MemoryStore
//
// MemoryStore keeps records in memory with UUID identifiers and restores its
// previous state when a transaction fails.
//
// Both implement Store, which adds the Insert and Update operations used to
// apply remote records.
package store
