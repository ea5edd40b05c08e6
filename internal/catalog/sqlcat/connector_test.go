package sqlcat

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

var (
	tableColumns      = []string{"owner", "table_name", "column_name", "column_id", "data_type", "data_length", "data_precision", "data_scale", "nullable"}
	constraintColumns = []string{"owner", "constraint_name", "constraint_type", "table_name", "r_owner", "r_constraint_name", "r_table_name", "index_owner", "index_name", "column_name", "position"}
	indexColumns      = []string{"owner", "index_name", "table_owner", "table_name", "uniqueness", "index_type", "column_name", "column_position", "descend"}
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestConnector_TablesOwnedBy(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	mock.ExpectQuery(`FROM all_tables t\s+LEFT JOIN all_tab_columns c .* WHERE t\.owner = :1`).
		WithArgs("HR").
		WillReturnRows(sqlmock.NewRows(tableColumns).
			AddRow("HR", "COUNTRIES", "COUNTRY_ID", 1, "CHAR", 2, nil, nil, "N").
			AddRow("HR", "COUNTRIES", "COUNTRY_NAME", 2, "VARCHAR2", 40, nil, nil, "Y").
			AddRow("HR", "EMPTY_NESTEDTAB", nil, nil, nil, nil, nil, nil, nil).
			AddRow("HR", "JOBS", "MIN_SALARY", 1, "NUMBER", 22, 6, 0, "Y"))

	tables, err := conn.TablesOwnedBy(context.Background(), "hr")
	require.NoError(t, err)
	require.Len(t, tables, 3)

	countries := tables[0]
	assert.Equal(t, "COUNTRIES", countries.Name)
	require.Len(t, countries.Columns, 2)
	assert.Equal(t, "CHAR", countries.Columns[0].DataType)
	assert.Equal(t, 2, countries.Columns[0].Length)
	assert.False(t, countries.Columns[0].Nullable)
	assert.True(t, countries.Columns[1].Nullable)

	assert.Empty(t, tables[1].Columns)

	salary := tables[2].Columns[0]
	require.NotNil(t, salary.Precision)
	assert.Equal(t, 6, *salary.Precision)
	require.NotNil(t, salary.Scale)
	assert.Equal(t, 0, *salary.Scale)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_Table_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	mock.ExpectQuery(`FROM all_tables t`).
		WithArgs("HR", "MISSING").
		WillReturnRows(sqlmock.NewRows(tableColumns))

	_, err := conn.Table(context.Background(), catalog.TableRef{Owner: "HR", Name: "missing"})
	assert.True(t, catalog.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func employeeConstraints() *sqlmock.Rows {
	return sqlmock.NewRows(constraintColumns).
		AddRow("HR", "EMP_DEPT_FK", "R", "EMPLOYEES", "HR", "DEPT_ID_PK", "DEPARTMENTS", nil, nil, "DEPARTMENT_ID", 1).
		AddRow("HR", "EMP_EMP_ID_PK", "P", "EMPLOYEES", nil, nil, nil, "HR", "EMP_EMP_ID_PK", "EMPLOYEE_ID", 1).
		AddRow("HR", "EMP_JOB_FK", "R", "EMPLOYEES", "HR", "JOB_ID_PK", "JOBS", nil, nil, "JOB_ID", 1).
		AddRow("HR", "EMP_NAME_UK", "U", "EMPLOYEES", nil, nil, nil, "HR", "EMP_NAME_UK", "FIRST_NAME", 1).
		AddRow("HR", "EMP_NAME_UK", "U", "EMPLOYEES", nil, nil, nil, "HR", "EMP_NAME_UK", "LAST_NAME", 2)
}

func TestConnector_PrimaryKeyAndForeignKeys(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)
	ref := catalog.TableRef{Owner: "HR", Name: "EMPLOYEES"}

	mock.ExpectQuery(`FROM all_constraints c`).WithArgs("HR", "EMPLOYEES").WillReturnRows(employeeConstraints())
	mock.ExpectQuery(`FROM all_constraints c`).WithArgs("HR", "EMPLOYEES").WillReturnRows(employeeConstraints())

	pk, err := conn.PrimaryKeyOf(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "EMP_EMP_ID_PK", pk.Name)
	assert.Equal(t, "EMP_EMP_ID_PK", pk.IndexName)
	assert.Equal(t, []string{"EMPLOYEE_ID"}, pk.ColumnNames())

	fks, err := conn.ForeignKeysOf(context.Background(), ref)
	require.NoError(t, err)
	require.Len(t, fks, 2)
	assert.Equal(t, "EMP_DEPT_FK", fks[0].Name)
	assert.Equal(t, "DEPT_ID_PK", fks[0].RefName)
	assert.Equal(t, "DEPARTMENTS", fks[0].RefTable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_PrimaryKeyOf_Missing(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	mock.ExpectQuery(`FROM all_constraints c`).
		WithArgs("HR", "LOGS").
		WillReturnRows(sqlmock.NewRows(constraintColumns))

	_, err := conn.PrimaryKeyOf(context.Background(), catalog.TableRef{Owner: "HR", Name: "LOGS"})
	assert.True(t, catalog.IsNotFound(err))
}

func TestConnector_ReferencedConstraint(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	t.Run("by name", func(t *testing.T) {
		mock.ExpectQuery(`WHERE c\.owner = :1 AND c\.constraint_name = :2`).
			WithArgs("SH", "CUSTOMERS_PK").
			WillReturnRows(sqlmock.NewRows(constraintColumns).
				AddRow("SH", "CUSTOMERS_PK", "P", "CUSTOMERS", nil, nil, nil, "SH", "CUSTOMERS_PK", "CUST_ID", 1))

		ref, err := conn.ReferencedConstraint(context.Background(), &catalog.Constraint{RefOwner: "SH", RefName: "CUSTOMERS_PK"})
		require.NoError(t, err)
		assert.Equal(t, catalog.TableRef{Owner: "SH", Name: "CUSTOMERS"}, ref.Table())
	})

	t.Run("by table", func(t *testing.T) {
		mock.ExpectQuery(`WHERE c\.owner = :1 AND c\.table_name = :2`).
			WithArgs("HR", "JOBS").
			WillReturnRows(sqlmock.NewRows(constraintColumns).
				AddRow("HR", "JOB_ID_PK", "P", "JOBS", nil, nil, nil, "HR", "JOB_ID_PK", "JOB_ID", 1))

		ref, err := conn.ReferencedConstraint(context.Background(), &catalog.Constraint{RefOwner: "HR", RefName: "JOB_ID_PK", RefTable: "JOBS"})
		require.NoError(t, err)
		assert.Equal(t, "JOB_ID_PK", ref.Name)
	})

	t.Run("outside the catalog", func(t *testing.T) {
		mock.ExpectQuery(`all_constraints`).
			WithArgs("XX", "GONE_PK").
			WillReturnRows(sqlmock.NewRows(constraintColumns))

		_, err := conn.ReferencedConstraint(context.Background(), &catalog.Constraint{RefOwner: "XX", RefName: "GONE_PK"})
		assert.True(t, catalog.IsNotFound(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_IndexesOf(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	mock.ExpectQuery(`FROM all_indexes i`).
		WithArgs("HR", "EMPLOYEES").
		WillReturnRows(sqlmock.NewRows(indexColumns).
			AddRow("HR", "EMP_EMP_ID_PK", "HR", "EMPLOYEES", "UNIQUE", "NORMAL", "EMPLOYEE_ID", 1, "ASC").
			AddRow("HR", "EMP_NAME_IX", "HR", "EMPLOYEES", "NONUNIQUE", "NORMAL", "LAST_NAME", 1, "ASC").
			AddRow("HR", "EMP_NAME_IX", "HR", "EMPLOYEES", "NONUNIQUE", "NORMAL", "FIRST_NAME", 2, "DESC").
			AddRow("HR", "SYS_IL0000", "HR", "EMPLOYEES", "UNIQUE", "LOB", "RESUME", 1, "ASC"))

	indexes, err := conn.IndexesOf(context.Background(), catalog.TableRef{Owner: "HR", Name: "EMPLOYEES"})
	require.NoError(t, err)
	require.Len(t, indexes, 3)

	assert.True(t, indexes[0].Unique)
	assert.Equal(t, []string{"LAST_NAME", "FIRST_NAME"}, indexes[1].ColumnNames())
	assert.True(t, indexes[1].Columns[1].Descending)
	assert.Equal(t, catalog.IndexLob, indexes[2].Kind)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_CommentsOf(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	mock.ExpectQuery(`all_tab_comments .* UNION ALL .* all_col_comments`).
		WithArgs("HR", "JOBS", "HR", "JOBS").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "comments"}).
			AddRow(nil, "Job titles").
			AddRow("MIN_SALARY", "Lowest pay"))

	comments, err := conn.CommentsOf(context.Background(), catalog.TableRef{Owner: "HR", Name: "JOBS"})
	require.NoError(t, err)
	assert.Equal(t, "Job titles", comments.Table)
	assert.Equal(t, "Lowest pay", comments.Columns["MIN_SALARY"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_QueryError(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Oracle)

	mock.ExpectQuery(`FROM all_tables t`).WillReturnError(errors.New("ORA-00942: table or view does not exist"))

	_, err := conn.TablesOwnedBy(context.Background(), "HR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORA-00942")
	assert.False(t, catalog.IsNotFound(err))
}

func TestConnector_PostgresFoldsAndNormalizes(t *testing.T) {
	db, mock := setupTestDB(t)
	conn := New(db, Postgres)

	mock.ExpectQuery(`FROM information_schema\.tables t .* WHERE t\.table_schema = \$1`).
		WithArgs("sales").
		WillReturnRows(sqlmock.NewRows(tableColumns).
			AddRow("sales", "orders", "code", 1, "bpchar", 3, nil, nil, "N").
			AddRow("sales", "orders", "placed_at", 2, "timestamptz", nil, nil, nil, "Y"))

	tables, err := conn.TablesOwnedBy(context.Background(), "SALES")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "CHAR", tables[0].Columns[0].DataType)
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", tables[0].Columns[1].DataType)

	assert.NoError(t, mock.ExpectationsWereMet())
}
