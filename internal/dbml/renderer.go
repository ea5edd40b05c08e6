// Package dbml renders a resolved table set as a DBML document.
package dbml

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Renderer projects tables into DBML using the registry to look up keys and
// indexes of each table.
type Renderer struct {
	registry     *catalog.Registry
	qualifyOwner bool
	logger       *zap.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithQualifyOwner prefixes table names with their owner. When off, tables
// that share a name with a table of the seed owner (the owner of the first
// rendered table) are still qualified.
func WithQualifyOwner(qualify bool) Option {
	return func(r *Renderer) {
		r.qualifyOwner = qualify
	}
}

// WithLogger sets the logger used to report skipped tables
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenderer creates a renderer. Owners are qualified by default.
func NewRenderer(registry *catalog.Registry, opts ...Option) *Renderer {
	r := &Renderer{
		registry:     registry,
		qualifyOwner: true,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type renderedTable struct {
	table *catalog.Table
	conn  catalog.Connector
}

// Render returns the DBML document for tables in the given order
func (r *Renderer) Render(ctx context.Context, tables []*catalog.Table) (string, error) {
	var rendered []renderedTable
	inSet := make(map[catalog.TableRef]bool, len(tables))

	for _, t := range tables {
		if len(t.Columns) == 0 {
			r.logger.Debug("skipped table without columns", zap.String("table", t.Ref().String()))
			continue
		}
		conn, ok := r.registry.Lookup(t.Owner)
		if !ok {
			r.logger.Debug("skipped table of unregistered owner", zap.String("table", t.Ref().String()))
			continue
		}
		rendered = append(rendered, renderedTable{table: t, conn: conn})
		inSet[upperRef(t.Ref())] = true
	}

	names := r.namesFor(rendered)

	var sb strings.Builder
	for i, rt := range rendered {
		if i > 0 {
			sb.WriteString("\n")
		}
		if err := r.writeTable(ctx, &sb, rt, names); err != nil {
			return "", err
		}
	}

	for _, rt := range rendered {
		if err := r.writeRefs(ctx, &sb, rt, inSet, names); err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}

func (r *Renderer) writeTable(ctx context.Context, sb *strings.Builder, rt renderedTable, names namer) error {
	t := rt.table

	sb.WriteString("Table ")
	sb.WriteString(names.tableName(t.Owner, t.Name))
	sb.WriteString(" {\n")

	for _, col := range t.OrderedColumns() {
		decl := ColumnDeclaration(col)
		if decl == "" {
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(decl)
		sb.WriteString("\n")
	}

	if err := r.writeIndexes(ctx, sb, rt); err != nil {
		return err
	}

	sb.WriteString("}\n")
	return nil
}

func (r *Renderer) writeIndexes(ctx context.Context, sb *strings.Builder, rt renderedTable) error {
	ref := rt.table.Ref()

	pk, err := rt.conn.PrimaryKeyOf(ctx, ref)
	if catalog.IsNotFound(err) {
		pk = nil
	} else if err != nil {
		return fmt.Errorf("failed to fetch primary key of %s: %w", ref, err)
	}

	all, err := rt.conn.IndexesOf(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to fetch indexes of %s: %w", ref, err)
	}

	var indexes []*catalog.Index
	for _, idx := range all {
		if idx.Kind == catalog.IndexNormal && !idx.Backs(pk) {
			indexes = append(indexes, idx)
		}
	}

	if pk == nil && len(indexes) == 0 {
		return nil
	}

	sb.WriteString("  Indexes {\n")
	if pk != nil {
		fmt.Fprintf(sb, "    (%s) [pk]\n", nameList(pk.ColumnNames()))
	}
	for _, idx := range indexes {
		fmt.Fprintf(sb, "    (%s)", nameList(idx.ColumnNames()))
		if idx.Unique {
			sb.WriteString(" [unique]")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  }\n")
	return nil
}

func (r *Renderer) writeRefs(ctx context.Context, sb *strings.Builder, rt renderedTable, inSet map[catalog.TableRef]bool, names namer) error {
	ref := rt.table.Ref()

	fks, err := rt.conn.ForeignKeysOf(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to fetch foreign keys of %s: %w", ref, err)
	}

	for _, fk := range fks {
		target, err := rt.conn.ReferencedConstraint(ctx, fk)
		if catalog.IsNotFound(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to resolve %s on %s: %w", fk.Name, ref, err)
		}

		if !inSet[upperRef(target.Table())] {
			r.logger.Debug("dropped reference to table outside the diagram",
				zap.String("table", ref.String()),
				zap.String("constraint", fk.Name),
				zap.String("target", target.Table().String()),
			)
			continue
		}

		fmt.Fprintf(sb, "Ref: %s < %s\n",
			names.columnRef(target.Owner, target.TableName, target.ColumnNames()),
			names.columnRef(rt.table.Owner, rt.table.Name, fk.ColumnNames()),
		)
	}
	return nil
}

// namer decides how each table of one document is named. A nil namer
// qualifies every table.
type namer map[catalog.TableRef]bool

// namesFor returns the tables that keep their owner prefix. Without owner
// qualification, a table is prefixed only when another rendered table of a
// different owner has the same name and its owner is not the seed owner.
func (r *Renderer) namesFor(rendered []renderedTable) namer {
	if r.qualifyOwner {
		return nil
	}

	owners := make(map[string]map[string]bool)
	for _, rt := range rendered {
		name := strings.ToUpper(rt.table.Name)
		if owners[name] == nil {
			owners[name] = make(map[string]bool)
		}
		owners[name][strings.ToUpper(rt.table.Owner)] = true
	}

	qualified := make(namer)
	if len(rendered) == 0 {
		return qualified
	}
	seed := strings.ToUpper(rendered[0].table.Owner)
	for _, rt := range rendered {
		ref := upperRef(rt.table.Ref())
		qualified[ref] = len(owners[ref.Name]) > 1 && ref.Owner != seed
	}
	return qualified
}

func (n namer) tableName(owner, name string) string {
	qualify := n == nil || n[upperRef(catalog.TableRef{Owner: owner, Name: name})]
	if qualify && owner != "" {
		return quoteName(owner) + "." + quoteName(name)
	}
	return quoteName(name)
}

func (n namer) columnRef(owner, table string, columns []string) string {
	cols := nameList(columns)
	if len(columns) > 1 {
		cols = "(" + cols + ")"
	}
	return n.tableName(owner, table) + "." + cols
}

// ColumnDeclaration renders one column line without indentation. Columns
// with no declared type render as the empty string.
func ColumnDeclaration(col *catalog.Column) string {
	if col.DataType == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(quoteName(col.Name))
	sb.WriteString(" ")
	sb.WriteString(typeName(col))
	if !col.Nullable {
		sb.WriteString(" [not null]")
	}
	return sb.String()
}

func typeName(col *catalog.Column) string {
	base := quoteName(col.DataType)

	switch col.Family() {
	case catalog.FamilyCharacter:
		if col.Length <= 0 {
			return base
		}
		return base + "(" + strconv.Itoa(col.Length) + ")"

	case catalog.FamilyNumeric:
		if col.Precision == nil {
			return base
		}
		args := strconv.Itoa(*col.Precision)
		if col.Scale != nil && *col.Scale != 0 {
			args += "," + strconv.Itoa(*col.Scale)
		}
		return base + "(" + args + ")"

	case catalog.FamilyFloat:
		if col.Precision == nil {
			return base
		}
		return base + "(" + strconv.Itoa(*col.Precision) + ")"

	case catalog.FamilyTimestamp:
		return base
	}

	if strings.ContainsAny(col.DataType, " \t") {
		return `"` + strings.ToLower(col.DataType) + `"`
	}
	return base
}

// quoteName lower-cases an identifier, double-quoting it when it contains $
func quoteName(name string) string {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "$") {
		return `"` + lower + `"`
	}
	return lower
}

func nameList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteName(n)
	}
	return strings.Join(quoted, ",")
}

func upperRef(ref catalog.TableRef) catalog.TableRef {
	return catalog.TableRef{Owner: strings.ToUpper(ref.Owner), Name: strings.ToUpper(ref.Name)}
}
