package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"record-sync/core/database"
	"record-sync/core/reconcile"
	"record-sync/core/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// deleteBatchSize bounds the number of placeholders in one DELETE ... IN.
const deleteBatchSize = 500

// GormStore is a SQL-backed store. Each entity maps to a table whose
// identifier column names the records.
type GormStore struct {
	db       *gorm.DB
	idColumn string
	tables   map[string]string
}

// GormOption configures a GormStore.
type GormOption func(*GormStore)

// WithIDColumn sets the identifier column shared by all tables (default "id").
func WithIDColumn(column string) GormOption {
	return func(s *GormStore) {
		if column != "" {
			s.idColumn = column
		}
	}
}

// WithTables maps entity names to table names. Unmapped entities use their
// own name as table name.
func WithTables(tables map[string]string) GormOption {
	return func(s *GormStore) {
		for entity, table := range tables {
			s.tables[entity] = table
		}
	}
}

// NewGormStore creates a store on top of db.
func NewGormStore(db *gorm.DB, opts ...GormOption) *GormStore {
	s := &GormStore{
		db:       db,
		idColumn: "id",
		tables:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GormStore) withDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db, idColumn: s.idColumn, tables: s.tables}
}

// Table resolves the table name of entity.
func (s *GormStore) Table(entity string) (string, error) {
	table := entity
	if mapped, ok := s.tables[entity]; ok {
		table = mapped
	}
	if err := validIdentifier("table", table); err != nil {
		return "", err
	}
	return table, nil
}

// Transaction runs fn inside a database transaction. The store handed to fn
// is bound to the transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(reconcile.LocalStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.withDB(tx))
	})
}

// Enumerate loads the identifier and key column of every row in scope,
// ordered by identifier. Field scopes are pushed into the WHERE clause; any
// other scope loads full rows and filters them in memory.
func (s *GormStore) Enumerate(ctx context.Context, entity, keyField string, scope reconcile.Scope) ([]reconcile.LocalRecord, error) {
	table, err := s.Table(entity)
	if err != nil {
		return nil, err
	}
	if err := validIdentifier("column", keyField); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Table(table)

	pushed, residual := splitScope(scope)
	for _, fs := range pushed {
		field, value := fs.Field()
		if err := validIdentifier("column", field); err != nil {
			return nil, err
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: field}, Value: value})
	}
	if residual == nil {
		query = query.Clauses(clause.Select{Columns: []clause.Column{{Name: s.idColumn}, {Name: keyField}}})
	}

	rows, err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: s.idColumn}}).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var records []reconcile.LocalRecord
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[strings.ToLower(col)] = utils.DriverValue(values[i])
		}

		id, ok := row[strings.ToLower(s.idColumn)]
		if !ok {
			return nil, fmt.Errorf("table %s has no column %s", table, s.idColumn)
		}
		key, ok := row[strings.ToLower(keyField)]
		if !ok {
			return nil, fmt.Errorf("table %s has no column %s", table, keyField)
		}

		if residual != nil {
			matched, err := residual.Matches(row)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
		}

		records = append(records, reconcile.LocalRecord{
			ID:    reconcile.LocalID(utils.ToString(id)),
			Value: key,
			Row:   row,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	return records, nil
}

// splitScope separates the field scopes a query can push down from the rest,
// which is returned as one scope or nil.
func splitScope(scope reconcile.Scope) ([]reconcile.FieldScope, reconcile.Scope) {
	parts := []reconcile.Scope{scope}
	if all, ok := scope.(reconcile.Conjunction); ok {
		parts = all
	}
	var pushed []reconcile.FieldScope
	var rest []reconcile.Scope
	for _, part := range parts {
		switch p := part.(type) {
		case nil:
		case reconcile.FieldScope:
			pushed = append(pushed, p)
		default:
			rest = append(rest, p)
		}
	}
	return pushed, reconcile.And(rest...)
}

// Delete removes rows by identifier using batched IN clauses.
func (s *GormStore) Delete(ctx context.Context, entity string, ids []reconcile.LocalID) error {
	if len(ids) == 0 {
		return nil
	}
	table, err := s.Table(entity)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, string(id))
		}

		result := s.db.WithContext(ctx).
			Table(table).
			Where(clause.IN{Column: clause.Column{Name: s.idColumn}, Values: batch}).
			Delete(map[string]any{})
		if result.Error != nil {
			return fmt.Errorf("failed to batch delete from %s: %w", table, result.Error)
		}
	}
	return nil
}

// Insert creates a row and returns the identifier assigned by the database.
func (s *GormStore) Insert(ctx context.Context, entity string, values map[string]any) (reconcile.LocalID, error) {
	table, err := s.Table(entity)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("insert into %s: no values", table)
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		if err := validIdentifier("column", col); err != nil {
			return "", err
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	stmt := s.db.Statement
	quoted := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		quoted[i] = stmt.Quote(col)
		args[i] = values[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		stmt.Quote(table),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)

	// Raw exec so LastInsertId is available; map-based Create does not
	// back-fill primary keys.
	res, err := stmt.ConnPool.ExecContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if id, ok := values[s.idColumn]; ok && id != nil {
		return reconcile.LocalID(utils.ToString(id)), nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read inserted id from %s: %w", table, err)
	}
	return reconcile.LocalID(utils.ToString(id)), nil
}

// Update overwrites the given columns of one row.
func (s *GormStore) Update(ctx context.Context, entity string, id reconcile.LocalID, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	table, err := s.Table(entity)
	if err != nil {
		return err
	}
	for col := range values {
		if err := validIdentifier("column", col); err != nil {
			return err
		}
	}

	result := s.db.WithContext(ctx).
		Table(table).
		Where(clause.Eq{Column: clause.Column{Name: s.idColumn}, Value: string(id)}).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s %s: %w", table, id, result.Error)
	}
	return nil
}

// Columns lists the columns of the entity table.
func (s *GormStore) Columns(ctx context.Context, entity string) ([]string, error) {
	table, err := s.Table(entity)
	if err != nil {
		return nil, err
	}
	info, err := database.GetTableColumns(s.db.WithContext(ctx), table)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(info))
	for _, col := range info {
		columns = append(columns, col.Field)
	}
	return columns, nil
}
