package sqlcat

import (
	"strings"
)

const oracleColumns = `
SELECT t.owner, t.table_name, c.column_name, c.column_id, c.data_type,
       c.data_length, c.data_precision, c.data_scale, c.nullable
  FROM all_tables t
  LEFT JOIN all_tab_columns c
    ON c.owner = t.owner AND c.table_name = t.table_name`

const oracleConstraints = `
SELECT c.owner, c.constraint_name, c.constraint_type, c.table_name,
       c.r_owner, c.r_constraint_name, r.table_name,
       c.index_owner, c.index_name, cc.column_name, cc.position
  FROM all_constraints c
  LEFT JOIN all_constraints r
    ON r.owner = c.r_owner AND r.constraint_name = c.r_constraint_name
  LEFT JOIN all_cons_columns cc
    ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name AND cc.table_name = c.table_name`

// Oracle queries the ALL_* dictionary views
var Oracle Dialect = &dialect{
	name: "oracle",
	fold: strings.ToUpper,
	q: queries{
		tables: oracleColumns + `
 WHERE t.owner = :1
 ORDER BY t.table_name, c.column_id`,
		table: oracleColumns + `
 WHERE t.owner = :1 AND t.table_name = :2
 ORDER BY c.column_id`,
		constraints: oracleConstraints + `
 WHERE c.owner = :1 AND c.table_name = :2 AND c.constraint_type IN ('P', 'R', 'U', 'C')
 ORDER BY c.constraint_name, cc.position`,
		constraint: oracleConstraints + `
 WHERE c.owner = :1 AND c.constraint_name = :2
 ORDER BY cc.position`,
		indexes: `
SELECT i.owner, i.index_name, i.table_owner, i.table_name, i.uniqueness,
       i.index_type, ic.column_name, ic.column_position, ic.descend
  FROM all_indexes i
  JOIN all_ind_columns ic
    ON ic.index_owner = i.owner AND ic.index_name = i.index_name
 WHERE i.table_owner = :1 AND i.table_name = :2
 ORDER BY i.index_name, ic.column_position`,
		comments: `
SELECT NULL, comments
  FROM all_tab_comments
 WHERE owner = :1 AND table_name = :2 AND comments IS NOT NULL
UNION ALL
SELECT column_name, comments
  FROM all_col_comments
 WHERE owner = :3 AND table_name = :4 AND comments IS NOT NULL`,
	},
	commentArgs: 2,
}
