package gateway

import (
	"sort"
	"strings"

	"github.com/sunkan/Atlas.Orm/pkg/atlas/core/metadata"
	"github.com/sunkan/Atlas.Orm/pkg/atlas/support/util/exception"
)

// StatementKind identifies the kind of write a Statement performs.
type StatementKind int

const (
	// KindInsert is an INSERT statement.
	KindInsert StatementKind = iota
	// KindUpdate is an UPDATE statement.
	KindUpdate
	// KindDelete is a DELETE statement.
	KindDelete
	// KindSelect is a SELECT statement.
	KindSelect
)

// String returns the statement kind name.
func (k StatementKind) String() string {
	switch k {
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindSelect:
		return "SELECT"
	}
	return "UNKNOWN"
}

// Statement is a storage-ready parameterized statement plus its bound values.
type Statement struct {
	Kind  StatementKind
	Table string
	SQL   string
	Args  []interface{}
}

// StatementBuilder produces storage-ready statements from a table description, the
// column set the gateway decided to write, and the primary-key values identifying the
// target row. Implementations must order columns deterministically and key WHERE
// clauses on the full, possibly composite, primary key.
type StatementBuilder interface {
	Insert(t *metadata.Table, columns []string, values []interface{}) (*Statement, error)
	Update(t *metadata.Table, columns []string, values []interface{}, keyValues []interface{}) (*Statement, error)
	Delete(t *metadata.Table, keyValues []interface{}) (*Statement, error)
	Select(t *metadata.Table, criteria map[string]interface{}, limit int) (*Statement, error)
}

// DefaultStatementBuilder builds statements with `?` placeholders, which both wired
// drivers (mysql, sqlite3) accept. Dialect-specific syntax beyond placeholders is out
// of scope; swap in another StatementBuilder for other dialects.
type DefaultStatementBuilder struct{}

// NewStatementBuilder creates the default `?`-placeholder builder.
func NewStatementBuilder() *DefaultStatementBuilder {
	return &DefaultStatementBuilder{}
}

// Insert implements StatementBuilder.
func (b *DefaultStatementBuilder) Insert(t *metadata.Table, columns []string, values []interface{}) (*Statement, error) {
	if len(columns) == 0 || len(columns) != len(values) {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: insert requires matching column and value lists", t.Name)
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(t.Name)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(placeholders(len(columns)))
	sb.WriteString(")")
	return &Statement{Kind: KindInsert, Table: t.Name, SQL: sb.String(), Args: values}, nil
}

// Update implements StatementBuilder.
func (b *DefaultStatementBuilder) Update(t *metadata.Table, columns []string, values []interface{}, keyValues []interface{}) (*Statement, error) {
	if len(columns) == 0 || len(columns) != len(values) {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: update requires matching column and value lists", t.Name)
	}
	if len(keyValues) != len(t.PrimaryKey) {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: update requires %d key value(s), got %d", t.Name, len(t.PrimaryKey), len(keyValues))
	}
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(t.Name)
	sb.WriteString(" SET ")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" = ?")
	}
	sb.WriteString(whereKey(t))
	args := make([]interface{}, 0, len(values)+len(keyValues))
	args = append(args, values...)
	args = append(args, keyValues...)
	return &Statement{Kind: KindUpdate, Table: t.Name, SQL: sb.String(), Args: args}, nil
}

// Delete implements StatementBuilder.
func (b *DefaultStatementBuilder) Delete(t *metadata.Table, keyValues []interface{}) (*Statement, error) {
	if len(keyValues) != len(t.PrimaryKey) {
		return nil, exception.NewMapperErrorf(moduleName, "table %q: delete requires %d key value(s), got %d", t.Name, len(t.PrimaryKey), len(keyValues))
	}
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(t.Name)
	sb.WriteString(whereKey(t))
	return &Statement{Kind: KindDelete, Table: t.Name, SQL: sb.String(), Args: keyValues}, nil
}

// Select implements StatementBuilder. Criteria columns are sorted so the generated
// SQL is deterministic for a given criteria set. limit <= 0 means no LIMIT clause.
func (b *DefaultStatementBuilder) Select(t *metadata.Table, criteria map[string]interface{}, limit int) (*Statement, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(t.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(t.Name)

	cols := make([]string, 0, len(criteria))
	for col := range criteria {
		if !t.HasColumn(col) {
			return nil, exception.NewMapperErrorf(moduleName, "table %q has no column %q", t.Name, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]interface{}, 0, len(cols))
	if len(cols) > 0 {
		sb.WriteString(" WHERE ")
		for i, col := range cols {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			sb.WriteString(col)
			sb.WriteString(" = ?")
			args = append(args, criteria[col])
		}
	}
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	return &Statement{Kind: KindSelect, Table: t.Name, SQL: sb.String(), Args: args}, nil
}

// whereKey renders the WHERE clause keyed on the full primary key.
func whereKey(t *metadata.Table) string {
	var sb strings.Builder
	sb.WriteString(" WHERE ")
	for i, col := range t.PrimaryKey {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(col)
		sb.WriteString(" = ?")
	}
	return sb.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var _ StatementBuilder = (*DefaultStatementBuilder)(nil)
