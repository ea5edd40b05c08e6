package sqlcat

import (
	"github.com/conduit-lang/dictgen/internal/catalog"
)

// SQLite has no owners, so the registered owner is echoed back through ?1.
// Primary keys are named pk_<table> and foreign keys fk_<table>_<id>.
const sqliteColumns = `
SELECT ?1, m.name, p.name, p.cid + 1, p.type, NULL, NULL, NULL,
       CASE p."notnull" WHEN 1 THEN 'N' ELSE 'Y' END
  FROM sqlite_master AS m, pragma_table_info(m.name) AS p
 WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'`

const sqliteConstraints = `
SELECT ?1, 'pk_' || ?2, 'P', ?2, NULL, NULL, NULL, NULL, NULL, p.name, p.pk
  FROM pragma_table_info(?2) AS p
 WHERE p.pk > 0
UNION ALL
SELECT ?1, 'fk_' || ?2 || '_' || f.id, 'R', ?2, ?1, 'pk_' || f."table", f."table",
       NULL, NULL, f."from", f.seq + 1
  FROM pragma_foreign_key_list(?2) AS f
 ORDER BY 2, 11`

// SQLite queries sqlite_master and the pragma table-valued functions.
// Foreign keys are assumed to reference the target's primary key.
var SQLite Dialect = &sqliteDialect{dialect{
	name: "sqlite",
	q: queries{
		tables: sqliteColumns + `
 ORDER BY m.name, p.cid`,
		table: sqliteColumns + `
   AND m.name = ?2
 ORDER BY p.cid`,
		constraints: sqliteConstraints,
		indexes: `
SELECT ?1, il.name, ?1, ?2,
       CASE il."unique" WHEN 1 THEN 'UNIQUE' ELSE 'NONUNIQUE' END,
       'NORMAL', ii.name, ii.seqno + 1, 'ASC'
  FROM pragma_index_list(?2) AS il, pragma_index_info(il.name) AS ii
 WHERE il.origin <> 'pk'
 ORDER BY il.name, ii.seqno`,
	},
	normalize: func(col *catalog.Column) {
		decl, err := catalog.ParseDeclaredType(col.DataType)
		if err != nil {
			return
		}
		decl.Apply(col)
	},
}}

type sqliteDialect struct {
	dialect
}

// ConstraintQuery resolves synthetic pk_<table> names through the table itself
func (d *sqliteDialect) ConstraintQuery(owner, name string) (string, []any) {
	table := name
	if len(name) > 3 && name[:3] == "pk_" {
		table = name[3:]
	}
	return d.q.constraints, []any{owner, table}
}
