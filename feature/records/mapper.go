package records

import (
	"strings"

	"record-sync/core/reconcile"
	"record-sync/core/utils"
)

// Mapper turns a remote record into the column values of a local row.
//
// The remote primary key is written to the local key column. Other fields
// map to their snake_case name unless Fields overrides them; a field mapped
// to "-" is dropped. Nested objects and arrays are never written, nor is the
// identifier column. When the table columns are known, values for unknown
// columns are dropped.
type Mapper struct {
	localKey  string
	remoteKey string
	idColumn  string
	fields    map[string]string
	columns   map[string]string
}

// NewMapper creates a mapper. A nil columns slice accepts every column.
func NewMapper(localKey, remoteKey, idColumn string, fields map[string]string, columns []string) *Mapper {
	m := &Mapper{
		localKey:  localKey,
		remoteKey: remoteKey,
		idColumn:  idColumn,
		fields:    fields,
	}
	if columns != nil {
		m.columns = make(map[string]string, len(columns))
		for _, col := range columns {
			m.columns[strings.ToLower(col)] = col
		}
	}
	return m
}

// HasColumn reports whether the table has column.
func (m *Mapper) HasColumn(column string) bool {
	_, ok := m.column(column)
	return ok
}

func (m *Mapper) column(name string) (string, bool) {
	if m.columns == nil {
		return name, true
	}
	col, ok := m.columns[strings.ToLower(name)]
	return col, ok
}

// Map returns the column values for record.
func (m *Mapper) Map(record reconcile.Record) map[string]any {
	values := make(map[string]any, len(record))
	for field, value := range record {
		if field == m.remoteKey {
			continue
		}
		switch value.(type) {
		case map[string]any, []any:
			continue
		}

		name, ok := m.fields[field]
		if !ok {
			name = utils.SnakeCase(field)
		}
		if name == "" || name == "-" || strings.EqualFold(name, m.idColumn) || strings.EqualFold(name, m.localKey) {
			continue
		}
		if col, ok := m.column(name); ok {
			values[col] = value
		}
	}

	if key, ok := reconcile.RemoteValue(record, m.remoteKey); ok {
		if col, ok := m.column(m.localKey); ok {
			values[col] = key
		}
	}
	return values
}
