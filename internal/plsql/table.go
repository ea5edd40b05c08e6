package plsql

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// DefaultAuditColumns are the row metadata columns maintained by triggers
var DefaultAuditColumns = []string{"ENT_DTM", "ENT_USER_ID", "UPD_DTM", "UPD_USER_ID"}

// AuditSet is a case-insensitive set of column names excluded from payloads
type AuditSet map[string]struct{}

// NewAuditSet builds a set from column names
func NewAuditSet(names ...string) AuditSet {
	set := make(AuditSet, len(names))
	for _, n := range names {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether name is an audit column
func (s AuditSet) Contains(name string) bool {
	_, ok := s[strings.ToUpper(name)]
	return ok
}

// Names returns the set members sorted
func (s AuditSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// KeyKind identifies how insert_row obtains the primary-key value
type KeyKind int

const (
	// KeySupplied inserts the value carried by the caller's record
	KeySupplied KeyKind = iota
	// KeySequence draws the value from a sequence and returns it to the caller
	KeySequence
)

// KeyStrategy is the primary-key strategy of one table
type KeyStrategy struct {
	Kind     KeyKind
	Sequence string
}

// SequenceKey returns a strategy drawing keys from the named sequence
func SequenceKey(sequence string) KeyStrategy {
	return KeyStrategy{Kind: KeySequence, Sequence: sequence}
}

// SuppliedKey returns a strategy using the caller-supplied key value
func SuppliedKey() KeyStrategy {
	return KeyStrategy{Kind: KeySupplied}
}

func (k KeyStrategy) String() string {
	if k.Kind == KeySequence {
		return "sequence " + k.Sequence
	}
	return "supplied"
}

// TableSpec is everything needed to generate one table's operations
type TableSpec struct {
	Table      *catalog.Table
	PrimaryKey *catalog.Constraint
	Strategy   KeyStrategy
	Audit      AuditSet
}

// LoadTableSpec reads a table and its primary key from conn. A missing
// primary key is an invariant violation.
func LoadTableSpec(ctx context.Context, conn catalog.Connector, ref catalog.TableRef, strategy KeyStrategy, audit AuditSet) (*TableSpec, error) {
	table, err := conn.Table(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", ref, err)
	}

	pk, err := conn.PrimaryKeyOf(ctx, ref)
	if catalog.IsNotFound(err) {
		return nil, &catalog.InvariantError{Table: table.Ref(), Invariant: "table has no primary key"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load primary key of %s: %w", ref, err)
	}

	return &TableSpec{
		Table:      table,
		PrimaryKey: pk,
		Strategy:   strategy,
		Audit:      audit,
	}, nil
}

// tableName is the lower-cased table identifier used in generated text
func (s *TableSpec) tableName() string {
	return strings.ToLower(s.Table.Name)
}

func (s *TableSpec) rowtype() string {
	return s.tableName() + "%rowtype"
}

// keyColumn returns the single primary-key column
func (s *TableSpec) keyColumn() (*catalog.Column, error) {
	ref := s.Table.Ref()

	if s.PrimaryKey == nil {
		return nil, &catalog.InvariantError{Table: ref, Invariant: "table has no primary key"}
	}

	names := s.PrimaryKey.ColumnNames()
	if len(names) != 1 {
		return nil, &catalog.InvariantError{
			Table:     ref,
			Invariant: "primary key must have exactly one column",
			Detail:    fmt.Sprintf("%s has %d", s.PrimaryKey.Name, len(names)),
		}
	}

	col, ok := s.Table.Column(names[0])
	if !ok {
		return nil, &catalog.InvariantError{
			Table:     ref,
			Invariant: "primary key column is not a table column",
			Detail:    names[0],
		}
	}
	if s.Audit.Contains(col.Name) {
		return nil, &catalog.InvariantError{
			Table:     ref,
			Invariant: "primary key column is listed as an audit column",
			Detail:    col.Name,
		}
	}
	return col, nil
}

// payloadColumns returns the non-audit columns in ordinal order
func (s *TableSpec) payloadColumns() []*catalog.Column {
	var cols []*catalog.Column
	for _, c := range s.Table.OrderedColumns() {
		if !s.Audit.Contains(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}
