package plsql

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/dictgen/internal/catalog"
)

// Operation names
const (
	InsertRow       = "insert_row"
	UpdateRow       = "update_row"
	DeleteRow       = "delete_row"
	JSONObjectToRow = "json_object_to_rowtype"
	RowToJSONObject = "to_json_object"
)

const (
	rowParam          = "p_row"
	jsonParam         = "p_json"
	jsonObjectType    = "json_object_t"
	statementIndent   = "    "
	continuedIndent   = "        "
	updateFirstIndent = " "
	updateNextIndent  = "           "
)

// Generator builds CRUD and JSON procedures for tables
type Generator struct {
	logger *zap.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the generator logger
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Insert builds insert_row. With a sequence strategy the record parameter is
// in out, the key is drawn from the sequence and returned into the record.
func (g *Generator) Insert(spec *TableSpec) (*Procedure, error) {
	key, err := spec.keyColumn()
	if err != nil {
		return nil, err
	}

	strategy := spec.Strategy
	if strategy.Kind == KeySequence && strings.TrimSpace(strategy.Sequence) == "" {
		return nil, &catalog.InvariantError{Table: spec.Table.Ref(), Invariant: "sequence strategy requires a sequence name"}
	}

	table := spec.tableName()
	keyName := strings.ToLower(key.Name)

	banner := []string{fmt.Sprintf("Insert a row into the %s table using its rowtype.", table)}
	mode := "in"
	if strategy.Kind == KeySequence {
		mode = "in out"
		banner = append(banner,
			fmt.Sprintf("The primary key is generated using the sequence %s.", strings.ToLower(strategy.Sequence)),
			fmt.Sprintf("The value will be populated and returned in field %s.%s.", rowParam, keyName),
		)
	}

	columns := spec.payloadColumns()
	names := make([]string, len(columns))
	values := make([]string, len(columns))
	for i, c := range columns {
		name := strings.ToLower(c.Name)
		names[i] = name
		if strings.EqualFold(c.Name, key.Name) && strategy.Kind == KeySequence {
			values[i] = strings.ToLower(strategy.Sequence) + ".nextval"
		} else {
			values[i] = rowParam + "." + name
		}
	}

	body := []string{
		statementIndent + "INSERT INTO " + table,
		statementIndent + "(",
	}
	body = append(body, listLines(names)...)
	body = append(body, statementIndent+") VALUES (")
	body = append(body, listLines(values)...)
	if strategy.Kind == KeySequence {
		body = append(body,
			statementIndent+")",
			fmt.Sprintf("%sreturning %s into %s.%s;", statementIndent, keyName, rowParam, keyName),
		)
	} else {
		body = append(body, statementIndent+");")
	}

	return &Procedure{
		Kind:   KindProcedure,
		Name:   InsertRow,
		Banner: banner,
		Params: []Param{{Name: rowParam, Mode: mode, Type: spec.rowtype()}},
		Body:   body,
	}, nil
}

// Update builds update_row. Every non-audit, non-key column is assigned from
// the record; the key only appears in the WHERE clause.
func (g *Generator) Update(spec *TableSpec) (*Procedure, error) {
	key, err := spec.keyColumn()
	if err != nil {
		return nil, err
	}

	var columns []*catalog.Column
	width := 0
	for _, c := range spec.payloadColumns() {
		if strings.EqualFold(c.Name, key.Name) {
			continue
		}
		columns = append(columns, c)
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}
	if len(columns) == 0 {
		return nil, &catalog.InvariantError{
			Table:     spec.Table.Ref(),
			Invariant: "table has no updatable columns",
			Detail:    "every column is the primary key or an audit column",
		}
	}

	table := spec.tableName()
	keyName := strings.ToLower(key.Name)

	body := []string{statementIndent + "UPDATE " + table}
	for i, c := range columns {
		name := strings.ToLower(c.Name)
		prefix := updateNextIndent
		if i == 0 {
			prefix = statementIndent + "   SET" + updateFirstIndent
		}
		line := fmt.Sprintf("%s%-*s = %s.%s", prefix, width, name, rowParam, name)
		if i < len(columns)-1 {
			line += ","
		}
		body = append(body, line)
	}
	body = append(body, fmt.Sprintf("%s WHERE %s = %s.%s;", statementIndent, keyName, rowParam, keyName))

	return &Procedure{
		Kind:   KindProcedure,
		Name:   UpdateRow,
		Banner: []string{fmt.Sprintf("Update a row in the %s table using its rowtype.", table)},
		Params: []Param{{Name: rowParam, Mode: "in", Type: spec.rowtype()}},
		Body:   body,
	}, nil
}

// Delete builds delete_row, filtering on the primary key only
func (g *Generator) Delete(spec *TableSpec) (*Procedure, error) {
	key, err := spec.keyColumn()
	if err != nil {
		return nil, err
	}

	table := spec.tableName()
	keyName := strings.ToLower(key.Name)

	return &Procedure{
		Kind: KindProcedure,
		Name: DeleteRow,
		Banner: []string{
			fmt.Sprintf("Delete a row from the %s table using its rowtype.", table),
			"Only the primary key columns are used in the WHERE clause.",
		},
		Params: []Param{{Name: rowParam, Mode: "in", Type: spec.rowtype()}},
		Body: []string{
			statementIndent + "DELETE",
			statementIndent + "  FROM " + table,
			fmt.Sprintf("%s WHERE %s = %s.%s;", statementIndent, keyName, rowParam, keyName),
		},
	}, nil
}

// JSONToRowtype builds json_object_to_rowtype. Each non-audit column is
// copied only when the JSON object has its key, so absent fields are left
// untouched.
func (g *Generator) JSONToRowtype(spec *TableSpec) (*Procedure, error) {
	if _, err := spec.keyColumn(); err != nil {
		return nil, err
	}

	table := spec.tableName()

	var body []string
	for _, c := range spec.payloadColumns() {
		name := strings.ToLower(c.Name)
		body = append(body,
			fmt.Sprintf("%sif %s.has('%s') then", statementIndent, jsonParam, name),
			fmt.Sprintf("%s%s.%s := %s.%s('%s');", continuedIndent, rowParam, name, jsonParam, JSONGetter(c), name),
			statementIndent+"end if;",
		)
	}

	return &Procedure{
		Kind: KindProcedure,
		Name: JSONObjectToRow,
		Banner: []string{
			fmt.Sprintf("Extract the fields from a json_object_t into record of type %s", table),
			"Only the fields that exist in the JSON object will be written to the record.",
			"Fields not in the JSON object will not be modified.",
		},
		Params: []Param{
			{Name: jsonParam, Type: jsonObjectType},
			{Name: rowParam, Mode: "in out", Type: spec.rowtype()},
		},
		Body: body,
	}, nil
}

// ToJSON builds the to_json_object function serializing every non-audit column
func (g *Generator) ToJSON(spec *TableSpec) (*Procedure, error) {
	if _, err := spec.keyColumn(); err != nil {
		return nil, err
	}

	table := spec.tableName()

	body := []string{statementIndent + "l_json := json_object_t();"}
	for _, c := range spec.payloadColumns() {
		name := strings.ToLower(c.Name)
		body = append(body, fmt.Sprintf("%sl_json.put('%s', %s.%s);", statementIndent, name, rowParam, name))
	}
	body = append(body, statementIndent+"RETURN l_json;")

	return &Procedure{
		Kind:    KindFunction,
		Name:    RowToJSONObject,
		Banner:  []string{fmt.Sprintf("Convert a row from the %s table to a json_object_t.", table)},
		Params:  []Param{{Name: rowParam, Type: spec.rowtype()}},
		Returns: jsonObjectType,
		Locals:  []string{"l_json " + jsonObjectType + ";"},
		Body:    body,
	}, nil
}

// Operations builds every operation of one table in package order
func (g *Generator) Operations(spec *TableSpec, includeToJSON bool) ([]*Procedure, error) {
	builders := []func(*TableSpec) (*Procedure, error){
		g.Insert,
		g.Update,
		g.Delete,
		g.JSONToRowtype,
	}
	if includeToJSON {
		builders = append(builders, g.ToJSON)
	}

	procs := make([]*Procedure, 0, len(builders))
	for _, build := range builders {
		p, err := build(spec)
		if err != nil {
			return nil, err
		}
		procs = append(procs, p)
	}

	g.logger.Debug("generated table operations",
		zap.String("table", spec.Table.Ref().String()),
		zap.Stringer("strategy", spec.Strategy),
		zap.Int("operations", len(procs)),
	)
	return procs, nil
}

// JSONGetter returns the json_object_t accessor for a column's type
func JSONGetter(c *catalog.Column) string {
	family := c.Family()
	switch {
	case family.IsNumber():
		return "get_number"
	case family == catalog.FamilyDate:
		return "get_date"
	default:
		return "get_string"
	}
}

// listLines renders items one per line, comma-separated
func listLines(items []string) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = continuedIndent + item
		if i < len(items)-1 {
			lines[i] += ","
		}
	}
	return lines
}
