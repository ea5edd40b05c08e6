// Package catalogtest builds catalog fixtures for tests
package catalogtest

import (
	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Int returns a pointer to n
func Int(n int) *int {
	return &n
}

// Number declares a NUMBER(precision) column
func Number(name string, precision int, nullable bool) *catalog.Column {
	return &catalog.Column{Name: name, DataType: "NUMBER", Length: 22, Precision: Int(precision), Nullable: nullable}
}

// Varchar2 declares a VARCHAR2(length) column
func Varchar2(name string, length int, nullable bool) *catalog.Column {
	return &catalog.Column{Name: name, DataType: "VARCHAR2", Length: length, Nullable: nullable}
}

// Date declares a DATE column
func Date(name string, nullable bool) *catalog.Column {
	return &catalog.Column{Name: name, DataType: "DATE", Length: 7, Nullable: nullable}
}

// Table builds a table assigning dense ordinal positions in argument order
func Table(owner, name string, cols ...*catalog.Column) *catalog.Table {
	for i, c := range cols {
		c.Position = i + 1
	}
	return &catalog.Table{Owner: owner, Name: name, Columns: cols}
}

// PrimaryKey adds a primary key named <table>_PK backed by an index of the same name
func PrimaryKey(t *catalog.Table, columns ...string) *catalog.Constraint {
	pk := &catalog.Constraint{
		Owner:      t.Owner,
		Name:       t.Name + "_PK",
		Kind:       catalog.ConstraintPrimaryKey,
		TableName:  t.Name,
		Columns:    keyColumns(columns),
		IndexOwner: t.Owner,
		IndexName:  t.Name + "_PK",
	}
	t.Constraints = append(t.Constraints, pk)
	t.Indexes = append(t.Indexes, &catalog.Index{
		Owner:      t.Owner,
		Name:       t.Name + "_PK",
		TableOwner: t.Owner,
		TableName:  t.Name,
		Columns:    keyColumns(columns),
		Unique:     true,
		Kind:       catalog.IndexNormal,
	})
	return pk
}

// ForeignKey adds a foreign key on t referencing the constraint target
func ForeignKey(t *catalog.Table, name string, target *catalog.Constraint, columns ...string) *catalog.Constraint {
	fk := &catalog.Constraint{
		Owner:     t.Owner,
		Name:      name,
		Kind:      catalog.ConstraintForeignKey,
		TableName: t.Name,
		Columns:   keyColumns(columns),
		RefOwner:  target.Owner,
		RefName:   target.Name,
	}
	t.Constraints = append(t.Constraints, fk)
	return fk
}

// DanglingForeignKey adds a foreign key whose target is not in any catalog
func DanglingForeignKey(t *catalog.Table, name, refOwner, refName string, columns ...string) *catalog.Constraint {
	fk := &catalog.Constraint{
		Owner:     t.Owner,
		Name:      name,
		Kind:      catalog.ConstraintForeignKey,
		TableName: t.Name,
		Columns:   keyColumns(columns),
		RefOwner:  refOwner,
		RefName:   refName,
	}
	t.Constraints = append(t.Constraints, fk)
	return fk
}

// Index adds a normal index
func Index(t *catalog.Table, name string, unique bool, columns ...string) *catalog.Index {
	idx := &catalog.Index{
		Owner:      t.Owner,
		Name:       name,
		TableOwner: t.Owner,
		TableName:  t.Name,
		Columns:    keyColumns(columns),
		Unique:     unique,
		Kind:       catalog.IndexNormal,
	}
	t.Indexes = append(t.Indexes, idx)
	return idx
}

func keyColumns(names []string) []catalog.KeyColumn {
	cols := make([]catalog.KeyColumn, len(names))
	for i, n := range names {
		cols[i] = catalog.KeyColumn{Name: n, Position: i + 1}
	}
	return cols
}
