package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/catalog/catalogtest"
)

func sampleCatalog(t *testing.T) *Catalog {
	t.Helper()

	customers := catalogtest.Table("SH", "CUSTOMERS",
		catalogtest.Number("CUSTOMER_ID", 10, false),
		catalogtest.Varchar2("NAME", 80, false),
	)
	customersPK := catalogtest.PrimaryKey(customers, "CUSTOMER_ID")

	orders := catalogtest.Table("SH", "ORDERS",
		catalogtest.Number("ORDER_ID", 10, false),
		catalogtest.Number("CUSTOMER_ID", 10, true),
	)
	catalogtest.PrimaryKey(orders, "ORDER_ID")
	catalogtest.ForeignKey(orders, "ORDERS_CUSTOMERS_FK", customersPK, "CUSTOMER_ID")
	catalogtest.Index(orders, "ORDERS_CUSTOMER_IX", false, "CUSTOMER_ID")
	orders.Comment = "Customer orders"
	orders.Columns[0].Comment = "Surrogate key"

	regions := catalogtest.Table("HR", "REGIONS", catalogtest.Number("REGION_ID", 4, false))

	c, err := New(orders, customers, regions)
	require.NoError(t, err)
	return c
}

func TestNew_Duplicate(t *testing.T) {
	a := catalogtest.Table("SH", "ORDERS")
	b := catalogtest.Table("sh", "orders")

	_, err := New(a, b)
	assert.Error(t, err)
}

func TestCatalog_TablesOwnedBy(t *testing.T) {
	c := sampleCatalog(t)
	ctx := context.Background()

	tables, err := c.TablesOwnedBy(ctx, "SH")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "CUSTOMERS", tables[0].Name)
	assert.Equal(t, "ORDERS", tables[1].Name)

	none, err := c.TablesOwnedBy(ctx, "OE")
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Equal(t, []string{"HR", "SH"}, c.Owners())
	assert.Equal(t, 3, c.Len())
}

func TestCatalog_Table(t *testing.T) {
	c := sampleCatalog(t)

	table, err := c.Table(context.Background(), catalog.TableRef{Owner: "sh", Name: "orders"})
	require.NoError(t, err)
	assert.Equal(t, "ORDERS", table.Name)

	_, err = c.Table(context.Background(), catalog.TableRef{Owner: "SH", Name: "MISSING"})
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestCatalog_PrimaryKeyOf(t *testing.T) {
	c := sampleCatalog(t)
	ctx := context.Background()

	pk, err := c.PrimaryKeyOf(ctx, catalog.TableRef{Owner: "SH", Name: "ORDERS"})
	require.NoError(t, err)
	assert.Equal(t, "ORDERS_PK", pk.Name)
	assert.Equal(t, []string{"ORDER_ID"}, pk.ColumnNames())

	_, err = c.PrimaryKeyOf(ctx, catalog.TableRef{Owner: "HR", Name: "REGIONS"})
	assert.True(t, catalog.IsNotFound(err))
}

func TestCatalog_PrimaryKeyOf_Multiple(t *testing.T) {
	table := catalogtest.Table("SH", "BROKEN", catalogtest.Number("ID", 10, false))
	catalogtest.PrimaryKey(table, "ID")
	table.Constraints = append(table.Constraints, &catalog.Constraint{
		Name: "BROKEN_PK2",
		Kind: catalog.ConstraintPrimaryKey,
	})
	c := MustNew(table)

	_, err := c.PrimaryKeyOf(context.Background(), table.Ref())
	assert.True(t, errors.Is(err, catalog.ErrInvariant))
}

func TestCatalog_ForeignKeysAndReferences(t *testing.T) {
	c := sampleCatalog(t)
	ctx := context.Background()

	fks, err := c.ForeignKeysOf(ctx, catalog.TableRef{Owner: "SH", Name: "ORDERS"})
	require.NoError(t, err)
	require.Len(t, fks, 1)

	ref, err := c.ReferencedConstraint(ctx, fks[0])
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMERS_PK", ref.Name)
	assert.Equal(t, catalog.TableRef{Owner: "SH", Name: "CUSTOMERS"}, ref.Table())

	_, err = c.ReferencedConstraint(ctx, &catalog.Constraint{RefOwner: "XX", RefName: "NOPE"})
	assert.True(t, catalog.IsNotFound(err))
}

func TestCatalog_ReferencedConstraint_ByTable(t *testing.T) {
	// MySQL names every primary key PRIMARY, so the table disambiguates
	a := catalogtest.Table("APP", "A", catalogtest.Number("ID", 10, false))
	a.Constraints = append(a.Constraints, &catalog.Constraint{Name: "PRIMARY", Kind: catalog.ConstraintPrimaryKey})
	b := catalogtest.Table("APP", "B", catalogtest.Number("ID", 10, false))
	b.Constraints = append(b.Constraints, &catalog.Constraint{Name: "PRIMARY", Kind: catalog.ConstraintPrimaryKey})
	c := MustNew(a, b)

	ref, err := c.ReferencedConstraint(context.Background(), &catalog.Constraint{
		RefOwner: "APP", RefName: "PRIMARY", RefTable: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "B", ref.TableName)
}

func TestCatalog_IndexesOf(t *testing.T) {
	c := sampleCatalog(t)

	indexes, err := c.IndexesOf(context.Background(), catalog.TableRef{Owner: "SH", Name: "ORDERS"})
	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.Equal(t, "ORDERS_CUSTOMER_IX", indexes[0].Name)
	assert.Equal(t, "ORDERS_PK", indexes[1].Name)
}

func TestCatalog_CommentsOf(t *testing.T) {
	c := sampleCatalog(t)

	comments, err := c.CommentsOf(context.Background(), catalog.TableRef{Owner: "SH", Name: "ORDERS"})
	require.NoError(t, err)
	assert.Equal(t, "Customer orders", comments.Table)
	assert.Equal(t, map[string]string{"ORDER_ID": "Surrogate key"}, comments.Columns)
}
