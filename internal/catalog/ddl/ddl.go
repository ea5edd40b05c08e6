// Package ddl builds an offline catalog by parsing CREATE TABLE and CREATE
// INDEX statements written in MySQL syntax.
package ddl

import (
	"fmt"
	"os"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
	"github.com/pingcap/tidb/pkg/parser/types"
	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/catalog/memory"
)

// PrimaryKeyName is the name given to every primary key and its index
const PrimaryKeyName = "PRIMARY"

// Loader parses schema scripts into catalogs
type Loader struct {
	parser *parser.Parser
	logger *zap.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{parser: parser.New(), logger: logger}
}

// LoadFile parses the script at path
func (l *Loader) LoadFile(owner, path string) (*memory.Catalog, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema script: %w", err)
	}
	return l.Load(owner, string(script))
}

// Load parses a script. Unqualified tables belong to owner; statements other
// than CREATE TABLE and CREATE INDEX are ignored.
func (l *Loader) Load(owner, script string) (*memory.Catalog, error) {
	stmts, warns, err := l.parser.Parse(script, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema script: %w", err)
	}
	for _, w := range warns {
		l.logger.Warn("schema script warning", zap.Error(w))
	}

	b := &builder{owner: owner, tables: make(map[string]*catalog.Table)}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.CreateTableStmt:
			if err := b.createTable(s); err != nil {
				return nil, err
			}
		case *ast.CreateIndexStmt:
			if err := b.createIndex(s); err != nil {
				return nil, err
			}
		default:
			l.logger.Debug("ignored statement", zap.String("type", fmt.Sprintf("%T", stmt)))
		}
	}
	b.resolveReferences()

	cat, err := memory.New(b.order...)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("loaded schema script", zap.String("owner", owner), zap.Int("tables", cat.Len()))
	return cat, nil
}

type builder struct {
	owner  string
	tables map[string]*catalog.Table
	order  []*catalog.Table
	// foreign keys whose referenced constraint is resolved after all tables are known
	pending []pendingRef
}

type pendingRef struct {
	fk      *catalog.Constraint
	columns []string
}

func (b *builder) ownerOf(tn *ast.TableName) string {
	if tn.Schema.O != "" {
		return tn.Schema.O
	}
	return b.owner
}

func tableKey(owner, name string) string {
	return strings.ToUpper(owner) + "." + strings.ToUpper(name)
}

func (b *builder) createTable(s *ast.CreateTableStmt) error {
	t := &catalog.Table{Owner: b.ownerOf(s.Table), Name: s.Table.Name.O}
	key := tableKey(t.Owner, t.Name)
	if _, exists := b.tables[key]; exists {
		return fmt.Errorf("table %s is defined twice", t.Ref())
	}

	for _, opt := range s.Options {
		if opt.Tp == ast.TableOptionComment {
			t.Comment = opt.StrValue
		}
	}

	for i, def := range s.Cols {
		col := &catalog.Column{
			Name:     def.Name.Name.O,
			Position: i + 1,
			Nullable: true,
		}
		applyType(col, def.Tp)

		for _, opt := range def.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				col.Nullable = false
			case ast.ColumnOptionPrimaryKey:
				col.Nullable = false
				b.addPrimaryKey(t, []catalog.KeyColumn{{Name: col.Name, Position: 1}})
			case ast.ColumnOptionUniqKey:
				b.addUnique(t, col.Name, []catalog.KeyColumn{{Name: col.Name, Position: 1}})
			case ast.ColumnOptionReference:
				b.addForeignKey(t, "", []catalog.KeyColumn{{Name: col.Name, Position: 1}}, opt.Refer)
			case ast.ColumnOptionComment:
				col.Comment = stringValue(opt.Expr)
			}
		}
		t.Columns = append(t.Columns, col)
	}

	for _, c := range s.Constraints {
		cols := keyColumns(c.Keys)
		switch c.Tp {
		case ast.ConstraintPrimaryKey:
			for _, kc := range cols {
				if col, ok := t.Column(kc.Name); ok {
					col.Nullable = false
				}
			}
			b.addPrimaryKey(t, cols)
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			name := c.Name
			if name == "" && len(cols) > 0 {
				name = cols[0].Name
			}
			b.addUnique(t, name, cols)
		case ast.ConstraintIndex, ast.ConstraintKey:
			name := c.Name
			if name == "" && len(cols) > 0 {
				name = cols[0].Name
			}
			b.addIndex(t, name, false, cols)
		case ast.ConstraintForeignKey:
			b.addForeignKey(t, c.Name, cols, c.Refer)
		case ast.ConstraintCheck:
			t.Constraints = append(t.Constraints, &catalog.Constraint{
				Owner:     t.Owner,
				Name:      c.Name,
				Kind:      catalog.ConstraintCheck,
				TableName: t.Name,
				Condition: restore(c.Expr),
			})
		}
	}

	b.tables[key] = t
	b.order = append(b.order, t)
	return nil
}

func (b *builder) createIndex(s *ast.CreateIndexStmt) error {
	owner := b.ownerOf(s.Table)
	t, ok := b.tables[tableKey(owner, s.Table.Name.O)]
	if !ok {
		return fmt.Errorf("index %s references unknown table %s.%s", s.IndexName, owner, s.Table.Name.O)
	}

	cols := keyColumns(s.IndexPartSpecifications)
	if s.KeyType == ast.IndexKeyTypeUnique {
		b.addUnique(t, s.IndexName, cols)
		return nil
	}
	b.addIndex(t, s.IndexName, false, cols)
	return nil
}

func (b *builder) addPrimaryKey(t *catalog.Table, cols []catalog.KeyColumn) {
	t.Constraints = append(t.Constraints, &catalog.Constraint{
		Owner:      t.Owner,
		Name:       PrimaryKeyName,
		Kind:       catalog.ConstraintPrimaryKey,
		TableName:  t.Name,
		Columns:    cols,
		IndexOwner: t.Owner,
		IndexName:  PrimaryKeyName,
	})
	b.addIndex(t, PrimaryKeyName, true, cols)
}

func (b *builder) addUnique(t *catalog.Table, name string, cols []catalog.KeyColumn) {
	t.Constraints = append(t.Constraints, &catalog.Constraint{
		Owner:      t.Owner,
		Name:       name,
		Kind:       catalog.ConstraintUnique,
		TableName:  t.Name,
		Columns:    cols,
		IndexOwner: t.Owner,
		IndexName:  name,
	})
	b.addIndex(t, name, true, cols)
}

func (b *builder) addIndex(t *catalog.Table, name string, unique bool, cols []catalog.KeyColumn) {
	t.Indexes = append(t.Indexes, &catalog.Index{
		Owner:      t.Owner,
		Name:       name,
		TableOwner: t.Owner,
		TableName:  t.Name,
		Columns:    cols,
		Unique:     unique,
		Kind:       catalog.IndexNormal,
	})
}

func (b *builder) addForeignKey(t *catalog.Table, name string, cols []catalog.KeyColumn, ref *ast.ReferenceDef) {
	if ref == nil || ref.Table == nil {
		return
	}
	if name == "" {
		n := 1
		for _, c := range t.Constraints {
			if c.Kind == catalog.ConstraintForeignKey {
				n++
			}
		}
		name = fmt.Sprintf("%s_ibfk_%d", t.Name, n)
	}

	fk := &catalog.Constraint{
		Owner:     t.Owner,
		Name:      name,
		Kind:      catalog.ConstraintForeignKey,
		TableName: t.Name,
		Columns:   cols,
		RefOwner:  b.ownerOf(ref.Table),
		RefTable:  ref.Table.Name.O,
		RefName:   PrimaryKeyName,
	}
	t.Constraints = append(t.Constraints, fk)

	var refCols []string
	for _, kc := range keyColumns(ref.IndexPartSpecifications) {
		refCols = append(refCols, kc.Name)
	}
	b.pending = append(b.pending, pendingRef{fk: fk, columns: refCols})
}

// resolveReferences points each foreign key at the primary or unique key of
// the referenced table covering the referenced columns. References to tables
// outside the script keep assuming the primary key.
func (b *builder) resolveReferences() {
	for _, p := range b.pending {
		target, ok := b.tables[tableKey(p.fk.RefOwner, p.fk.RefTable)]
		if !ok {
			continue
		}

		p.fk.RefName = ""
		for _, c := range target.Constraints {
			if c.Kind != catalog.ConstraintPrimaryKey && c.Kind != catalog.ConstraintUnique {
				continue
			}
			if (len(p.columns) == 0 && c.Kind == catalog.ConstraintPrimaryKey) || sameColumns(c.ColumnNames(), p.columns) {
				p.fk.RefName = c.Name
				break
			}
		}
	}
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func keyColumns(parts []*ast.IndexPartSpecification) []catalog.KeyColumn {
	var cols []catalog.KeyColumn
	for _, p := range parts {
		if p.Column == nil {
			continue
		}
		cols = append(cols, catalog.KeyColumn{
			Name:       p.Column.Name.O,
			Position:   len(cols) + 1,
			Descending: p.Desc,
		})
	}
	return cols
}

// applyType maps a parsed field type onto the column
func applyType(col *catalog.Column, tp *types.FieldType) {
	if tp == nil {
		return
	}

	decl := catalog.DeclaredType{Base: strings.ToUpper(types.TypeToStr(tp.GetType(), tp.GetCharset()))}
	if flen := tp.GetFlen(); flen > 0 {
		decl.Args = append(decl.Args, flen)
		if dec := tp.GetDecimal(); dec >= 0 && catalog.FamilyOf(decl.Base) != catalog.FamilyCharacter {
			decl.Args = append(decl.Args, dec)
		}
	}
	decl.Apply(col)
}

func stringValue(expr ast.ExprNode) string {
	if v, ok := expr.(ast.ValueExpr); ok {
		if s, ok := v.GetValue().(string); ok {
			return s
		}
	}
	return ""
}

func restore(expr ast.ExprNode) string {
	if expr == nil {
		return ""
	}
	var sb strings.Builder
	if err := expr.Restore(format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)); err != nil {
		return ""
	}
	return sb.String()
}
