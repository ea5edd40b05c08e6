package sqlcat

import (
	"strings"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

const postgresColumns = `
SELECT t.table_schema, t.table_name, c.column_name, c.ordinal_position, c.udt_name,
       c.character_maximum_length, c.numeric_precision, c.numeric_scale,
       CASE c.is_nullable WHEN 'YES' THEN 'Y' ELSE 'N' END
  FROM information_schema.tables t
  LEFT JOIN information_schema.columns c
    ON c.table_schema = t.table_schema AND c.table_name = t.table_name`

const postgresConstraints = `
SELECT n.nspname, con.conname,
       CASE con.contype WHEN 'p' THEN 'P' WHEN 'f' THEN 'R' WHEN 'u' THEN 'U' ELSE 'C' END,
       cl.relname, rn.nspname, rcon.conname, rcl.relname,
       CASE WHEN con.contype IN ('p', 'u') THEN ixn.nspname END,
       CASE WHEN con.contype IN ('p', 'u') THEN ix.relname END,
       a.attname, k.ord
  FROM pg_constraint con
  JOIN pg_class cl ON cl.oid = con.conrelid
  JOIN pg_namespace n ON n.oid = cl.relnamespace
  LEFT JOIN pg_class ix ON ix.oid = con.conindid
  LEFT JOIN pg_namespace ixn ON ixn.oid = ix.relnamespace
  LEFT JOIN pg_class rcl ON rcl.oid = con.confrelid
  LEFT JOIN pg_namespace rn ON rn.oid = rcl.relnamespace
  LEFT JOIN pg_constraint rcon
    ON rcon.conrelid = con.confrelid AND rcon.conindid = con.conindid AND rcon.contype IN ('p', 'u')
  LEFT JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
  LEFT JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum`

// postgresTypes maps udt names onto the catalog's type vocabulary
var postgresTypes = map[string]string{
	"BPCHAR":      "CHAR",
	"TIMESTAMPTZ": "TIMESTAMP WITH TIME ZONE",
	"TIMETZ":      "TIME WITH TIME ZONE",
	"BOOL":        "BOOLEAN",
}

// Postgres queries information_schema and pg_catalog
var Postgres Dialect = &dialect{
	name: "postgres",
	fold: strings.ToLower,
	q: queries{
		tables: postgresColumns + `
 WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
 ORDER BY t.table_name, c.ordinal_position`,
		table: postgresColumns + `
 WHERE t.table_schema = $1 AND t.table_name = $2 AND t.table_type = 'BASE TABLE'
 ORDER BY c.ordinal_position`,
		constraints: postgresConstraints + `
 WHERE n.nspname = $1 AND cl.relname = $2 AND con.contype IN ('p', 'f', 'u', 'c')
 ORDER BY con.conname, k.ord`,
		constraint: postgresConstraints + `
 WHERE n.nspname = $1 AND con.conname = $2
 ORDER BY k.ord`,
		indexes: `
SELECT n.nspname, ic.relname, n.nspname, t.relname,
       CASE WHEN ix.indisunique THEN 'UNIQUE' ELSE 'NONUNIQUE' END,
       upper(am.amname), a.attname, k.ord, 'ASC'
  FROM pg_index ix
  JOIN pg_class t ON t.oid = ix.indrelid
  JOIN pg_class ic ON ic.oid = ix.indexrelid
  JOIN pg_namespace n ON n.oid = t.relnamespace
  JOIN pg_am am ON am.oid = ic.relam
  JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord) ON true
  JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
 WHERE n.nspname = $1 AND t.relname = $2
 ORDER BY ic.relname, k.ord`,
		comments: `
SELECT NULL::text, obj_description(c.oid, 'pg_class')
  FROM pg_class c
  JOIN pg_namespace n ON n.oid = c.relnamespace
 WHERE n.nspname = $1 AND c.relname = $2 AND obj_description(c.oid, 'pg_class') IS NOT NULL
UNION ALL
SELECT a.attname, col_description(c.oid, a.attnum)
  FROM pg_class c
  JOIN pg_namespace n ON n.oid = c.relnamespace
  JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum > 0
 WHERE n.nspname = $1 AND c.relname = $2 AND col_description(c.oid, a.attnum) IS NOT NULL`,
	},
	commentArgs: 1,
	normalize: func(col *catalog.Column) {
		if mapped, ok := postgresTypes[col.DataType]; ok {
			col.DataType = mapped
		}
	},
}
