package sqlcat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Connector answers catalog lookups from a live data dictionary
type Connector struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Option configures a Connector
type Option func(*Connector)

// WithLogger sets the logger used for query tracing
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a connector over an open database
func New(db *sql.DB, dialect Dialect, opts ...Option) *Connector {
	c := &Connector{
		db:      db,
		dialect: dialect,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the connector's dialect
func (c *Connector) Dialect() Dialect {
	return c.dialect
}

// Close closes the underlying database
func (c *Connector) Close() error {
	return c.db.Close()
}

// TablesOwnedBy implements catalog.Connector
func (c *Connector) TablesOwnedBy(ctx context.Context, owner string) ([]*catalog.Table, error) {
	query, args := c.dialect.TablesQuery(c.dialect.Fold(owner))
	tables, err := c.queryTables(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", owner, err)
	}
	return tables, nil
}

// Table implements catalog.Connector
func (c *Connector) Table(ctx context.Context, ref catalog.TableRef) (*catalog.Table, error) {
	query, args := c.dialect.TableQuery(c.dialect.Fold(ref.Owner), c.dialect.Fold(ref.Name))
	tables, err := c.queryTables(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", ref, err)
	}
	if len(tables) == 0 {
		return nil, catalog.NotFound("table", ref.String())
	}
	return tables[0], nil
}

// PrimaryKeyOf implements catalog.Connector
func (c *Connector) PrimaryKeyOf(ctx context.Context, ref catalog.TableRef) (*catalog.Constraint, error) {
	constraints, err := c.constraintsOf(ctx, ref)
	if err != nil {
		return nil, err
	}

	var pk *catalog.Constraint
	for _, con := range constraints {
		if con.Kind != catalog.ConstraintPrimaryKey {
			continue
		}
		if pk != nil {
			return nil, &catalog.InvariantError{
				Table:     ref,
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
func (c *Connector) ForeignKeysOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Constraint, error) {
	constraints, err := c.constraintsOf(ctx, ref)
	if err != nil {
		return nil, err
	}

	var fks []*catalog.Constraint
	for _, con := range constraints {
		if con.Kind == catalog.ConstraintForeignKey {
			fks = append(fks, con)
		}
	}
	return fks, nil
}

// ReferencedConstraint implements catalog.Connector. When the dictionary
// reports the referenced table, its constraints are searched; otherwise the
// constraint is looked up by owner and name.
func (c *Connector) ReferencedConstraint(ctx context.Context, fk *catalog.Constraint) (*catalog.Constraint, error) {
	if fk == nil || fk.RefName == "" {
		return nil, catalog.NotFound("referenced constraint", "<none>")
	}

	var query string
	var args []any
	if fk.RefTable != "" {
		query, args = c.dialect.ConstraintsQuery(c.dialect.Fold(fk.RefOwner), c.dialect.Fold(fk.RefTable))
	} else {
		query, args = c.dialect.ConstraintQuery(c.dialect.Fold(fk.RefOwner), c.dialect.Fold(fk.RefName))
	}

	constraints, err := c.queryConstraints(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s.%s: %w", fk.RefOwner, fk.RefName, err)
	}
	for _, con := range constraints {
		if strings.EqualFold(con.Name, fk.RefName) {
			return con, nil
		}
	}
	return nil, catalog.NotFound("referenced constraint", fk.RefOwner+"."+fk.RefName)
}

// IndexesOf implements catalog.Connector
func (c *Connector) IndexesOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Index, error) {
	query, args := c.dialect.IndexesQuery(c.dialect.Fold(ref.Owner), c.dialect.Fold(ref.Name))
	c.trace(query, args)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes of %s: %w", ref, err)
	}
	defer rows.Close()

	var indexes []*catalog.Index
	var current *catalog.Index
	for rows.Next() {
		var owner, name, tableOwner, tableName, uniqueness, indexType string
		var column, descend sql.NullString
		var position sql.NullInt64
		if err := rows.Scan(&owner, &name, &tableOwner, &tableName, &uniqueness, &indexType, &column, &position, &descend); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}

		if current == nil || current.Owner != owner || current.Name != name {
			current = &catalog.Index{
				Owner:      owner,
				Name:       name,
				TableOwner: tableOwner,
				TableName:  tableName,
				Unique:     strings.EqualFold(uniqueness, "UNIQUE"),
				Kind:       catalog.ParseIndexKind(indexType),
			}
			indexes = append(indexes, current)
		}
		if column.Valid {
			current.Columns = append(current.Columns, catalog.KeyColumn{
				Name:       column.String,
				Position:   int(position.Int64),
				Descending: strings.EqualFold(descend.String, "DESC"),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", ref, err)
	}
	return indexes, nil
}

// CommentsOf implements catalog.Connector
func (c *Connector) CommentsOf(ctx context.Context, ref catalog.TableRef) (*catalog.Comments, error) {
	comments := &catalog.Comments{Columns: make(map[string]string)}

	query, args := c.dialect.CommentsQuery(c.dialect.Fold(ref.Owner), c.dialect.Fold(ref.Name))
	if query == "" {
		return comments, nil
	}
	c.trace(query, args)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments of %s: %w", ref, err)
	}
	defer rows.Close()

	for rows.Next() {
		var column, text sql.NullString
		if err := rows.Scan(&column, &text); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if !column.Valid {
			comments.Table = text.String
			continue
		}
		comments.Columns[column.String] = text.String
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read comments of %s: %w", ref, err)
	}
	return comments, nil
}

func (c *Connector) constraintsOf(ctx context.Context, ref catalog.TableRef) ([]*catalog.Constraint, error) {
	query, args := c.dialect.ConstraintsQuery(c.dialect.Fold(ref.Owner), c.dialect.Fold(ref.Name))
	constraints, err := c.queryConstraints(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints of %s: %w", ref, err)
	}
	return constraints, nil
}

// queryTables scans table rows. Rows arrive grouped by table and ordered by
// column position; a table without columns yields a single row of NULLs.
func (c *Connector) queryTables(ctx context.Context, query string, args []any) ([]*catalog.Table, error) {
	c.trace(query, args)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*catalog.Table
	var current *catalog.Table
	for rows.Next() {
		var owner, name string
		var column, dataType, nullable sql.NullString
		var position, length, precision, scale sql.NullInt64
		if err := rows.Scan(&owner, &name, &column, &position, &dataType, &length, &precision, &scale, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		if current == nil || current.Owner != owner || current.Name != name {
			current = &catalog.Table{Owner: owner, Name: name}
			tables = append(tables, current)
		}
		if !column.Valid {
			continue
		}

		col := &catalog.Column{
			Name:     column.String,
			Position: int(position.Int64),
			DataType: dataType.String,
			Length:   int(length.Int64),
			Nullable: nullable.String != "N",
		}
		if precision.Valid {
			p := int(precision.Int64)
			col.Precision = &p
		}
		if scale.Valid {
			s := int(scale.Int64)
			col.Scale = &s
		}
		c.dialect.Normalize(col)
		current.Columns = append(current.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// queryConstraints scans constraint rows grouped by constraint and ordered by
// column position.
func (c *Connector) queryConstraints(ctx context.Context, query string, args []any) ([]*catalog.Constraint, error) {
	c.trace(query, args)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []*catalog.Constraint
	var current *catalog.Constraint
	for rows.Next() {
		var owner, name, code, tableName string
		var refOwner, refName, refTable, indexOwner, indexName, column sql.NullString
		var position sql.NullInt64
		if err := rows.Scan(&owner, &name, &code, &tableName, &refOwner, &refName, &refTable, &indexOwner, &indexName, &column, &position); err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}

		if current == nil || current.Owner != owner || current.Name != name || current.TableName != tableName {
			kind, err := catalog.ParseConstraintKind(code)
			if err != nil {
				c.logger.Debug("skipped constraint", zap.String("constraint", name), zap.Error(err))
				current = nil
				continue
			}
			current = &catalog.Constraint{
				Owner:      owner,
				Name:       name,
				Kind:       kind,
				TableName:  tableName,
				RefOwner:   refOwner.String,
				RefName:    refName.String,
				RefTable:   refTable.String,
				IndexOwner: indexOwner.String,
				IndexName:  indexName.String,
			}
			constraints = append(constraints, current)
		}
		if column.Valid {
			current.Columns = append(current.Columns, catalog.KeyColumn{
				Name:     column.String,
				Position: int(position.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return constraints, nil
}

func (c *Connector) trace(query string, args []any) {
	if ce := c.logger.Check(zap.DebugLevel, "dictionary query"); ce != nil {
		ce.Write(
			zap.String("dialect", c.dialect.Name()),
			zap.String("query", strings.Join(strings.Fields(query), " ")),
			zap.Any("args", args),
		)
	}
}

var _ catalog.Connector = (*Connector)(nil)
