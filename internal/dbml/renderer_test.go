package dbml

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/dictgen/internal/catalog"
	"github.com/conduit-lang/dictgen/internal/catalog/catalogtest"
	"github.com/conduit-lang/dictgen/internal/catalog/memory"
	"github.com/conduit-lang/dictgen/internal/graph"
)

func ordersCatalog(t *testing.T) (*memory.Catalog, []*catalog.Table) {
	t.Helper()

	customers := catalogtest.Table("SH", "CUSTOMERS",
		catalogtest.Number("CUSTOMER_ID", 10, false),
		catalogtest.Varchar2("NAME", 80, true),
	)
	customersPK := catalogtest.PrimaryKey(customers, "CUSTOMER_ID")

	orders := catalogtest.Table("SH", "ORDERS",
		catalogtest.Number("ORDER_ID", 10, true),
		catalogtest.Number("CUSTOMER_ID", 10, true),
		catalogtest.Date("ORDER_DATE", false),
	)
	catalogtest.PrimaryKey(orders, "ORDER_ID")
	catalogtest.ForeignKey(orders, "ORDERS_CUSTOMERS_FK", customersPK, "CUSTOMER_ID")

	cat, err := memory.New(customers, orders)
	require.NoError(t, err)
	return cat, []*catalog.Table{customers, orders}
}

func newRegistry(t *testing.T, conn catalog.Connector, owners ...string) *catalog.Registry {
	t.Helper()
	reg := catalog.NewRegistry()
	for _, owner := range owners {
		require.NoError(t, reg.Register(owner, conn))
	}
	return reg
}

func TestRender_Orders(t *testing.T) {
	cat, tables := ordersCatalog(t)
	r := NewRenderer(newRegistry(t, cat, "SH"))

	got, err := r.Render(context.Background(), tables)
	require.NoError(t, err)

	want := `Table sh.customers {
  customer_id number(10) [not null]
  name varchar2(80)
  Indexes {
    (customer_id) [pk]
  }
}

Table sh.orders {
  order_id number(10)
  customer_id number(10)
  order_date date [not null]
  Indexes {
    (order_id) [pk]
  }
}
Ref: sh.customers.customer_id < sh.orders.customer_id
`
	assert.Equal(t, want, got)
}

func TestRender_Idempotent(t *testing.T) {
	cat, tables := ordersCatalog(t)
	r := NewRenderer(newRegistry(t, cat, "SH"))

	first, err := r.Render(context.Background(), tables)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), tables)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRender_Unqualified(t *testing.T) {
	cat, tables := ordersCatalog(t)
	r := NewRenderer(newRegistry(t, cat, "SH"), WithQualifyOwner(false))

	got, err := r.Render(context.Background(), tables)
	require.NoError(t, err)

	assert.Contains(t, got, "Table orders {\n")
	assert.Contains(t, got, "Ref: customers.customer_id < orders.customer_id\n")
	assert.NotContains(t, got, "sh.")
}

func TestRender_UnqualifiedNameClash(t *testing.T) {
	remote := catalogtest.Table("R", "ORDERS", catalogtest.Number("ID", 10, false))
	remotePK := catalogtest.PrimaryKey(remote, "ID")

	local := catalogtest.Table("S", "ORDERS",
		catalogtest.Number("ID", 10, false),
		catalogtest.Number("R_ID", 10, true),
	)
	catalogtest.PrimaryKey(local, "ID")
	catalogtest.ForeignKey(local, "ORDERS_R_FK", remotePK, "R_ID")

	reg := newRegistry(t, memory.MustNew(local, remote), "S", "R")
	tables, err := graph.NewResolver(reg).Resolve(context.Background(), "S")
	require.NoError(t, err)

	got, err := NewRenderer(reg, WithQualifyOwner(false)).Render(context.Background(), tables)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(got, "Table orders {\n"))
	assert.Equal(t, 1, strings.Count(got, "Table r.orders {\n"))
	assert.Contains(t, got, "Ref: r.orders.id < orders.r_id\n")
}

func TestRender_SkipsTableWithoutColumns(t *testing.T) {
	empty := catalogtest.Table("OE", "PRODUCT_REF_LIST_NESTEDTAB")
	empty.Columns = nil
	emptyPK := catalogtest.PrimaryKey(empty, "ID")

	products := catalogtest.Table("OE", "PRODUCTS",
		catalogtest.Number("PRODUCT_ID", 6, false),
		catalogtest.Number("REF_ID", 6, true),
	)
	catalogtest.PrimaryKey(products, "PRODUCT_ID")
	catalogtest.ForeignKey(products, "PRODUCTS_REF_FK", emptyPK, "REF_ID")

	// an outgoing reference from the empty table
	catalogtest.ForeignKey(empty, "REF_PRODUCTS_FK", products.Constraints[0], "ID")

	cat := memory.MustNew(empty, products)
	r := NewRenderer(newRegistry(t, cat, "OE"))

	got, err := r.Render(context.Background(), []*catalog.Table{empty, products})
	require.NoError(t, err)

	assert.NotContains(t, got, "product_ref_list_nestedtab")
	assert.NotContains(t, got, "Ref:")
	assert.True(t, strings.HasPrefix(got, "Table oe.products {\n"))
}

func TestRender_Indexes(t *testing.T) {
	items := catalogtest.Table("OE", "ORDER_ITEMS",
		catalogtest.Number("ORDER_ID", 12, false),
		catalogtest.Number("LINE_ITEM_ID", 3, false),
		catalogtest.Number("PRODUCT_ID", 6, false),
	)
	catalogtest.PrimaryKey(items, "ORDER_ID", "LINE_ITEM_ID")
	catalogtest.Index(items, "ITEM_ORDER_IX", false, "ORDER_ID")
	catalogtest.Index(items, "ITEM_PRODUCT_UK", true, "PRODUCT_ID", "ORDER_ID")
	bitmap := catalogtest.Index(items, "ITEM_BITMAP_IX", false, "PRODUCT_ID")
	bitmap.Kind = catalog.IndexBitmap

	r := NewRenderer(newRegistry(t, memory.MustNew(items), "OE"))

	got, err := r.Render(context.Background(), []*catalog.Table{items})
	require.NoError(t, err)

	want := `Table oe.order_items {
  order_id number(12) [not null]
  line_item_id number(3) [not null]
  product_id number(6) [not null]
  Indexes {
    (order_id,line_item_id) [pk]
    (order_id)
    (product_id,order_id) [unique]
  }
}
`
	assert.Equal(t, want, got)
}

func TestRender_NoIndexesBlock(t *testing.T) {
	log := catalogtest.Table("HR", "AUDIT_LOG", catalogtest.Varchar2("MESSAGE", 4000, true))

	r := NewRenderer(newRegistry(t, memory.MustNew(log), "HR"))

	got, err := r.Render(context.Background(), []*catalog.Table{log})
	require.NoError(t, err)
	assert.Equal(t, "Table hr.audit_log {\n  message varchar2(4000)\n}\n", got)
}

func TestRender_CompositeReference(t *testing.T) {
	orders := catalogtest.Table("OE", "ORDERS",
		catalogtest.Number("ORDER_ID", 12, false),
		catalogtest.Number("LINE_NO", 3, false),
	)
	pk := catalogtest.PrimaryKey(orders, "ORDER_ID", "LINE_NO")

	notes := catalogtest.Table("OE", "NOTES",
		catalogtest.Number("ORDER_ID", 12, false),
		catalogtest.Number("LINE_NO", 3, false),
	)
	catalogtest.ForeignKey(notes, "NOTES_ORDERS_FK", pk, "ORDER_ID", "LINE_NO")

	r := NewRenderer(newRegistry(t, memory.MustNew(orders, notes), "OE"))

	got, err := r.Render(context.Background(), []*catalog.Table{notes, orders})
	require.NoError(t, err)
	assert.Contains(t, got, "Ref: oe.orders.(order_id,line_no) < oe.notes.(order_id,line_no)\n")
}

func TestRender_DollarIdentifiers(t *testing.T) {
	table := catalogtest.Table("SYS", "AQ$_QUEUES", catalogtest.Varchar2("NAME$", 30, false))

	r := NewRenderer(newRegistry(t, memory.MustNew(table), "SYS"))

	got, err := r.Render(context.Background(), []*catalog.Table{table})
	require.NoError(t, err)
	assert.Equal(t, "Table sys.\"aq$_queues\" {\n  \"name$\" varchar2(30) [not null]\n}\n", got)
}

func TestRender_WithResolvedGraph(t *testing.T) {
	c := catalogtest.Table("R", "C", catalogtest.Number("C_ID", 10, false))
	cPK := catalogtest.PrimaryKey(c, "C_ID")

	a := catalogtest.Table("S", "A",
		catalogtest.Number("A_ID", 10, false),
		catalogtest.Number("C_ID", 10, true),
	)
	catalogtest.PrimaryKey(a, "A_ID")
	catalogtest.ForeignKey(a, "A_C_FK", cPK, "C_ID")
	b := catalogtest.Table("S", "B", catalogtest.Number("B_ID", 10, false))

	cat := memory.MustNew(a, b, c)

	t.Run("known owner", func(t *testing.T) {
		reg := newRegistry(t, cat, "S", "R")
		tables, err := graph.NewResolver(reg).Resolve(context.Background(), "S")
		require.NoError(t, err)

		got, err := NewRenderer(reg).Render(context.Background(), tables)
		require.NoError(t, err)
		assert.Contains(t, got, "Table r.c {\n")
		assert.Contains(t, got, "Ref: r.c.c_id < s.a.c_id\n")
	})

	t.Run("unregistered owner", func(t *testing.T) {
		reg := newRegistry(t, cat, "S")
		tables, err := graph.NewResolver(reg).Resolve(context.Background(), "S")
		require.NoError(t, err)

		got, err := NewRenderer(reg).Render(context.Background(), tables)
		require.NoError(t, err)
		assert.NotContains(t, got, "r.c")
		assert.NotContains(t, got, "Ref:")
	})
}

func TestColumnDeclaration(t *testing.T) {
	tests := []struct {
		name string
		col  *catalog.Column
		want string
	}{
		{"varchar2", &catalog.Column{Name: "NAME", DataType: "VARCHAR2", Length: 80, Nullable: true}, "name varchar2(80)"},
		{"nchar", &catalog.Column{Name: "CODE", DataType: "NCHAR", Length: 2}, "code nchar(2) [not null]"},
		{"raw", &catalog.Column{Name: "GUID", DataType: "RAW", Length: 16, Nullable: true}, "guid raw(16)"},
		{"number without precision", &catalog.Column{Name: "ID", DataType: "NUMBER", Length: 22, Nullable: true}, "id number"},
		{"number scale zero", &catalog.Column{Name: "ID", DataType: "NUMBER", Precision: catalogtest.Int(10), Scale: catalogtest.Int(0), Nullable: true}, "id number(10)"},
		{"number with scale", &catalog.Column{Name: "PRICE", DataType: "NUMBER", Precision: catalogtest.Int(8), Scale: catalogtest.Int(2), Nullable: true}, "price number(8,2)"},
		{"float", &catalog.Column{Name: "RATIO", DataType: "FLOAT", Precision: catalogtest.Int(126), Nullable: true}, "ratio float(126)"},
		{"float without precision", &catalog.Column{Name: "RATIO", DataType: "FLOAT", Nullable: true}, "ratio float"},
		{"timestamp", &catalog.Column{Name: "CREATED", DataType: "TIMESTAMP", Precision: catalogtest.Int(6), Nullable: true}, "created timestamp"},
		{"type with spaces", &catalog.Column{Name: "AT", DataType: "TIMESTAMP(6) WITH TIME ZONE", Nullable: true}, `at "timestamp(6) with time zone"`},
		{"other", &catalog.Column{Name: "BODY", DataType: "CLOB", Nullable: true}, "body clob"},
		{"no type", &catalog.Column{Name: "GHOST"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColumnDeclaration(tt.col))
		})
	}
}
