// Package catalog defines the read-only data dictionary model shared by the diagram
// renderer and the procedure generator: tables, columns, constraints and indexes keyed by
// (owner, name), the Connector contract used to look them up, and the owner Registry.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// TableRef identifies a table by owner (schema) and name
type TableRef struct {
	Owner string
	Name  string
}

// String returns OWNER.NAME
func (r TableRef) String() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "." + r.Name
}

// Table is a snapshot of one relational table
type Table struct {
	Owner   string
	Name    string
	Columns []*Column

	// Constraints and Indexes are populated by snapshot sources (memory and DDL
	// catalogs). Connectors backed by a live database leave them empty and answer
	// through the Connector lookups instead.
	Constraints []*Constraint
	Indexes     []*Index

	Comment string
}

// Ref returns the table's identity
func (t *Table) Ref() TableRef {
	return TableRef{Owner: t.Owner, Name: t.Name}
}

// Column returns the column with the given name (case-insensitive)
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// OrderedColumns returns the columns sorted by ordinal position.
// The table itself is not modified.
func (t *Table) OrderedColumns() []*Column {
	cols := make([]*Column, len(t.Columns))
	copy(cols, t.Columns)
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Position < cols[j].Position
	})
	return cols
}

// Column describes one table column
type Column struct {
	Name      string
	Position  int    // ordinal position, 1-based
	DataType  string // declared base type, e.g. VARCHAR2, NUMBER
	Length    int
	Precision *int
	Scale     *int
	Nullable  bool
	Comment   string
}

// Family returns the column's type family
func (c *Column) Family() TypeFamily {
	return FamilyOf(c.DataType)
}

// ConstraintKind is the typed kind of a constraint
type ConstraintKind int

const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintForeignKey
	ConstraintCheck
	ConstraintUnique
)

// String returns the kind name
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintPrimaryKey:
		return "primary key"
	case ConstraintForeignKey:
		return "foreign key"
	case ConstraintCheck:
		return "check"
	case ConstraintUnique:
		return "unique"
	default:
		return "unknown"
	}
}

// Code returns the single-letter dictionary code (ALL_CONSTRAINTS.CONSTRAINT_TYPE)
func (k ConstraintKind) Code() string {
	switch k {
	case ConstraintPrimaryKey:
		return "P"
	case ConstraintForeignKey:
		return "R"
	case ConstraintUnique:
		return "U"
	default:
		return "C"
	}
}

// ParseConstraintKind converts a dictionary constraint code to a ConstraintKind
func ParseConstraintKind(code string) (ConstraintKind, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "P":
		return ConstraintPrimaryKey, nil
	case "R":
		return ConstraintForeignKey, nil
	case "C":
		return ConstraintCheck, nil
	case "U":
		return ConstraintUnique, nil
	default:
		return 0, fmt.Errorf("unknown constraint type: %q", code)
	}
}

// KeyColumn is a column participating in a constraint or an index
type KeyColumn struct {
	Name       string
	Position   int
	Descending bool
}

// Constraint describes a primary key, foreign key, unique or check constraint
type Constraint struct {
	Owner     string
	Name      string
	Kind      ConstraintKind
	TableName string
	Columns   []KeyColumn

	// Foreign keys: the unique/primary constraint they target. RefTable is
	// empty when the source cannot tell which table owns that constraint.
	RefOwner string
	RefName  string
	RefTable string

	// Primary and unique keys: the index enforcing them.
	IndexOwner string
	IndexName  string

	// Check constraints: the search condition.
	Condition string
}

// Table returns the identity of the table owning the constraint
func (c *Constraint) Table() TableRef {
	return TableRef{Owner: c.Owner, Name: c.TableName}
}

// OrderedColumns returns the constraint columns sorted by position
func (c *Constraint) OrderedColumns() []KeyColumn {
	return orderKeyColumns(c.Columns)
}

// ColumnNames returns the constraint column names in position order
func (c *Constraint) ColumnNames() []string {
	return keyColumnNames(c.OrderedColumns())
}

// IndexKind is the kind of an index
type IndexKind int

const (
	IndexNormal IndexKind = iota
	IndexBitmap
	IndexLob
	IndexOther
)

// String returns the kind name as reported by ALL_INDEXES.INDEX_TYPE
func (k IndexKind) String() string {
	switch k {
	case IndexNormal:
		return "NORMAL"
	case IndexBitmap:
		return "BITMAP"
	case IndexLob:
		return "LOB"
	default:
		return "OTHER"
	}
}

// ParseIndexKind maps a dictionary index type to an IndexKind.
// Function-based, reverse-key, domain and cluster indexes all map to IndexOther.
func ParseIndexKind(s string) IndexKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NORMAL", "BTREE":
		return IndexNormal
	case "BITMAP":
		return IndexBitmap
	case "LOB":
		return IndexLob
	default:
		return IndexOther
	}
}

// Index describes an index on a table
type Index struct {
	Owner      string
	Name       string
	TableOwner string
	TableName  string
	Columns    []KeyColumn
	Unique     bool
	Kind       IndexKind
}

// Table returns the identity of the indexed table
func (i *Index) Table() TableRef {
	return TableRef{Owner: i.TableOwner, Name: i.TableName}
}

// OrderedColumns returns the index columns sorted by position
func (i *Index) OrderedColumns() []KeyColumn {
	return orderKeyColumns(i.Columns)
}

// ColumnNames returns the index column names in position order
func (i *Index) ColumnNames() []string {
	return keyColumnNames(i.OrderedColumns())
}

// Backs reports whether the index enforces the given constraint
func (i *Index) Backs(c *Constraint) bool {
	if c == nil || c.IndexName == "" {
		return false
	}
	return i.Owner == c.IndexOwner && i.Name == c.IndexName
}

// Comments holds the descriptive comments of a table and its columns
type Comments struct {
	Table   string
	Columns map[string]string
}

func orderKeyColumns(cols []KeyColumn) []KeyColumn {
	out := make([]KeyColumn, len(cols))
	copy(out, cols)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func keyColumnNames(cols []KeyColumn) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
