package sqlcat

const mysqlColumns = `
SELECT t.TABLE_SCHEMA, t.TABLE_NAME, c.COLUMN_NAME, c.ORDINAL_POSITION, c.DATA_TYPE,
       c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, c.NUMERIC_SCALE,
       CASE c.IS_NULLABLE WHEN 'YES' THEN 'Y' ELSE 'N' END
  FROM information_schema.TABLES t
  LEFT JOIN information_schema.COLUMNS c
    ON c.TABLE_SCHEMA = t.TABLE_SCHEMA AND c.TABLE_NAME = t.TABLE_NAME`

const mysqlConstraints = `
SELECT tc.CONSTRAINT_SCHEMA, tc.CONSTRAINT_NAME,
       CASE tc.CONSTRAINT_TYPE WHEN 'PRIMARY KEY' THEN 'P' WHEN 'FOREIGN KEY' THEN 'R' WHEN 'UNIQUE' THEN 'U' ELSE 'C' END,
       tc.TABLE_NAME, rc.UNIQUE_CONSTRAINT_SCHEMA, rc.UNIQUE_CONSTRAINT_NAME, rc.REFERENCED_TABLE_NAME,
       CASE WHEN tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE') THEN tc.TABLE_SCHEMA END,
       CASE WHEN tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE') THEN tc.CONSTRAINT_NAME END,
       kcu.COLUMN_NAME, kcu.ORDINAL_POSITION
  FROM information_schema.TABLE_CONSTRAINTS tc
  LEFT JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
    ON rc.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND rc.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
   AND rc.TABLE_NAME = tc.TABLE_NAME
  LEFT JOIN information_schema.KEY_COLUMN_USAGE kcu
    ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
   AND kcu.TABLE_NAME = tc.TABLE_NAME`

// MySQL queries information_schema. Every primary key is named PRIMARY, so
// references are resolved through the referenced table.
var MySQL Dialect = &dialect{
	name: "mysql",
	q: queries{
		tables: mysqlColumns + `
 WHERE t.TABLE_SCHEMA = ? AND t.TABLE_TYPE = 'BASE TABLE'
 ORDER BY t.TABLE_NAME, c.ORDINAL_POSITION`,
		table: mysqlColumns + `
 WHERE t.TABLE_SCHEMA = ? AND t.TABLE_NAME = ? AND t.TABLE_TYPE = 'BASE TABLE'
 ORDER BY c.ORDINAL_POSITION`,
		constraints: mysqlConstraints + `
 WHERE tc.TABLE_SCHEMA = ? AND tc.TABLE_NAME = ?
 ORDER BY tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`,
		constraint: mysqlConstraints + `
 WHERE tc.CONSTRAINT_SCHEMA = ? AND tc.CONSTRAINT_NAME = ?
 ORDER BY kcu.ORDINAL_POSITION`,
		indexes: `
SELECT INDEX_SCHEMA, INDEX_NAME, TABLE_SCHEMA, TABLE_NAME,
       CASE NON_UNIQUE WHEN 0 THEN 'UNIQUE' ELSE 'NONUNIQUE' END,
       INDEX_TYPE, COLUMN_NAME, SEQ_IN_INDEX,
       CASE COLLATION WHEN 'D' THEN 'DESC' ELSE 'ASC' END
  FROM information_schema.STATISTICS
 WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
 ORDER BY INDEX_NAME, SEQ_IN_INDEX`,
		comments: `
SELECT NULL, TABLE_COMMENT
  FROM information_schema.TABLES
 WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND TABLE_COMMENT <> ''
UNION ALL
SELECT COLUMN_NAME, COLUMN_COMMENT
  FROM information_schema.COLUMNS
 WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_COMMENT <> ''`,
	},
	commentArgs: 2,
}
