// Package memory provides an in-memory catalog.Connector over a fixed set of tables.
// It backs unit tests and the offline DDL catalog.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Catalog is a snapshot catalog holding tables of any number of owners.
// Lookups are case-insensitive on owner and object names.
type Catalog struct {
	tables map[tableKey]*catalog.Table
	mu     sync.RWMutex
}

type tableKey struct {
	owner string
	name  string
}

func keyOf(owner, name string) tableKey {
	return tableKey{owner: strings.ToUpper(owner), name: strings.ToUpper(name)}
}

// New creates a catalog holding the given tables
func New(tables ...*catalog.Table) (*Catalog, error) {
	c := &Catalog{tables: make(map[tableKey]*catalog.Table)}
	for _, t := range tables {
		if err := c.Add(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is New for fixtures known to be valid
func MustNew(tables ...*catalog.Table) *Catalog {
	c, err := New(tables...)
	if err != nil {
		panic(err)
	}
	return c
}

// Add inserts a table. Constraints and indexes without an owner inherit the table's.
func (c *Catalog) Add(t *catalog.Table) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("table name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := keyOf(t.Owner, t.Name)
	if _, exists := c.tables[key]; exists {
		return fmt.Errorf("table %s is already defined", t.Ref())
	}

	for _, con := range t.Constraints {
		if con.Owner == "" {
			con.Owner = t.Owner
		}
		if con.TableName == "" {
			con.TableName = t.Name
		}
	}
	for _, idx := range t.Indexes {
		if idx.Owner == "" {
			idx.Owner = t.Owner
		}
		if idx.TableOwner == "" {
			idx.TableOwner = t.Owner
		}
		if idx.TableName == "" {
			idx.TableName = t.Name
		}
	}

	c.tables[key] = t
	return nil
}

// Len returns the number of tables held
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Owners returns the distinct owners present in the catalog, sorted
func (c *Catalog) Owners() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var owners []string
	for _, t := range c.tables {
		if !seen[t.Owner] {
			seen[t.Owner] = true
			owners = append(owners, t.Owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// TablesOwnedBy implements catalog.Connector
func (c *Catalog) TablesOwnedBy(ctx context.Context, owner string) ([]*catalog.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var tables []*catalog.Table
	for _, t := range c.tables {
		if strings.EqualFold(t.Owner, owner) {
			tables = append(tables, t)
		}
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
	return tables, nil
}

// Table implements catalog.Connector
func (c *Catalog) Table(ctx context.Context, ref catalog.TableRef) (*catalog.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[keyOf(ref.Owner, ref.Name)]
	if !ok {
		return nil, catalog.NotFound("table", ref.String())
	}
	return t, nil
}

// PrimaryKeyOf implements catalog.Connector
func (c *Catalog) PrimaryKeyOf(ctx context.Context, ref catalog.TableRef) (*catalog.Constraint, error) {
	t, err := c.Table(ctx, ref)
	if err != nil {
		return nil, err
	}

	var pk *catalog.Constraint
	for _, con := range t.Constraints {
		if con.Kind != catalog.ConstraintPrimaryKey {
			continue
		}
		if pk != nil {
			return nil, &catalog.InvariantError{
				Table:     t.Ref(),
				Invariant: "more than one primary key",
				Detail:    fmt.Sprintf("%s and %s", pk.Name, con.Name),
			}
		}
		pk = con
	}

	if pk == nil {
		return nil, catalog.NotFound("primary key of", ref.String())
	}
	return pk, nil
}

// ForeignKeysOf implements catalog.Connector
func (c *Catalog) ForeignKeysOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Constraint, error) {
	t, err := c.Table(ctx, ref)
	if err != nil {
		return nil, err
	}

	var fks []*catalog.Constraint
	for _, con := range t.Constraints {
		if con.Kind == catalog.ConstraintForeignKey {
			fks = append(fks, con)
		}
	}
	return fks, nil
}

// ReferencedConstraint implements catalog.Connector
func (c *Catalog) ReferencedConstraint(ctx context.Context, fk *catalog.Constraint) (*catalog.Constraint, error) {
	if fk == nil || fk.RefName == "" {
		return nil, catalog.NotFound("referenced constraint", "<none>")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.tables {
		if !strings.EqualFold(t.Owner, fk.RefOwner) {
			continue
		}
		if fk.RefTable != "" && !strings.EqualFold(t.Name, fk.RefTable) {
			continue
		}
		for _, con := range t.Constraints {
			if strings.EqualFold(con.Name, fk.RefName) {
				return con, nil
			}
		}
	}

	return nil, catalog.NotFound("referenced constraint", fk.RefOwner+"."+fk.RefName)
}

// IndexesOf implements catalog.Connector
func (c *Catalog) IndexesOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Index, error) {
	t, err := c.Table(ctx, ref)
	if err != nil {
		return nil, err
	}

	indexes := make([]*catalog.Index, len(t.Indexes))
	copy(indexes, t.Indexes)
	sort.SliceStable(indexes, func(i, j int) bool {
		return indexes[i].Name < indexes[j].Name
	})
	return indexes, nil
}

// CommentsOf implements catalog.Connector
func (c *Catalog) CommentsOf(ctx context.Context, ref catalog.TableRef) (*catalog.Comments, error) {
	t, err := c.Table(ctx, ref)
	if err != nil {
		return nil, err
	}

	comments := &catalog.Comments{
		Table:   t.Comment,
		Columns: make(map[string]string),
	}
	for _, col := range t.Columns {
		if col.Comment != "" {
			comments.Columns[col.Name] = col.Comment
		}
	}
	return comments, nil
}

var _ catalog.Connector = (*Catalog)(nil)
