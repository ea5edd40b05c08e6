// Package sqlcat implements catalog.Connector over database/sql by querying a
// database's data dictionary.
//
// Each Dialect supplies the dictionary queries for one database. All
// dialects return the same row shapes so the connector scans them uniformly:
//
//	tables:      owner, table, column, position, type, length, precision, scale, nullable (Y/N)
//	constraints: owner, name, type (P/R/U/C), table, r_owner, r_name, r_table,
//	             index_owner, index_name, column, position
//	indexes:     owner, name, table_owner, table, uniqueness, type, column, position, descend
//	comments:    column (NULL for the table comment), comment
package sqlcat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Dialect supplies dictionary queries and their bind arguments
type Dialect interface {
	Name() string
	// Fold converts an identifier to the case the dictionary stores it in
	Fold(identifier string) string
	TablesQuery(owner string) (string, []any)
	TableQuery(owner, table string) (string, []any)
	ConstraintsQuery(owner, table string) (string, []any)
	ConstraintQuery(owner, name string) (string, []any)
	IndexesQuery(owner, table string) (string, []any)
	// CommentsQuery returns an empty query when the database keeps no comments
	CommentsQuery(owner, table string) (string, []any)
	// Normalize maps a scanned column onto catalog type conventions
	Normalize(col *catalog.Column)
}

type queries struct {
	tables      string
	table       string
	constraints string
	constraint  string
	indexes     string
	comments    string
}

// dialect is a table-driven Dialect
type dialect struct {
	name string
	fold func(string) string
	q    queries
	// commentArgs repeats (owner, table) for dictionaries binding positionally
	commentArgs int
	normalize   func(*catalog.Column)
}

func (d *dialect) Name() string { return d.name }

func (d *dialect) Fold(identifier string) string {
	if d.fold == nil {
		return identifier
	}
	return d.fold(identifier)
}

func (d *dialect) TablesQuery(owner string) (string, []any) {
	return d.q.tables, []any{owner}
}

func (d *dialect) TableQuery(owner, table string) (string, []any) {
	return d.q.table, []any{owner, table}
}

func (d *dialect) ConstraintsQuery(owner, table string) (string, []any) {
	return d.q.constraints, []any{owner, table}
}

func (d *dialect) ConstraintQuery(owner, name string) (string, []any) {
	return d.q.constraint, []any{owner, name}
}

func (d *dialect) IndexesQuery(owner, table string) (string, []any) {
	return d.q.indexes, []any{owner, table}
}

func (d *dialect) CommentsQuery(owner, table string) (string, []any) {
	if d.q.comments == "" {
		return "", nil
	}
	var args []any
	for i := 0; i < d.commentArgs; i++ {
		args = append(args, owner, table)
	}
	return d.q.comments, args
}

func (d *dialect) Normalize(col *catalog.Column) {
	col.DataType = strings.ToUpper(strings.TrimSpace(col.DataType))
	if d.normalize != nil {
		d.normalize(col)
	}
}

var dialects = map[string]Dialect{
	"oracle":   Oracle,
	"postgres": Postgres,
	"mysql":    MySQL,
	"sqlite":   SQLite,
}

// driverDialects maps database/sql driver names to their dialect
var driverDialects = map[string]string{
	"oracle":   "oracle",
	"pgx":      "postgres",
	"postgres": "postgres",
	"mysql":    "mysql",
	"sqlite3":  "sqlite",
}

// DialectByName returns the named dialect
func DialectByName(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (supported: %s)", name, strings.Join(DialectNames(), ", "))
	}
	return d, nil
}

// DialectForDriver returns the dialect conventionally used with a driver
func DialectForDriver(driver string) (Dialect, error) {
	name, ok := driverDialects[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("no default dialect for driver %q", driver)
	}
	return DialectByName(name)
}

// DialectNames lists the supported dialects
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
