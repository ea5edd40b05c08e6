package plsql

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PackageOptions controls bundling of table operations into a package
type PackageOptions struct {
	// Name of the package. Defaults to <owner>_table_interface.
	Name string
	// Now supplies the header date. Defaults to time.Now.
	Now func() time.Time
	// IncludeToJSON adds the to_json_object function for every table
	IncludeToJSON bool
}

const dateLayout = "2006-01-02 15:04"

var tableRule = "-- " + strings.Repeat("=", 80)

type tableOperations struct {
	spec  *TableSpec
	procs []*Procedure
}

// Package renders a package specification followed by its body for the
// given tables, sorted by name. Every table is generated before anything is
// written, so an invariant violation on any table returns no text.
func (g *Generator) Package(specs []*TableSpec, opts PackageOptions) (string, error) {
	if len(specs) == 0 {
		return "", errors.New("no tables to generate")
	}

	sorted := make([]*TableSpec, len(specs))
	copy(sorted, specs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Table.Name < sorted[j].Table.Name
	})

	owner := sorted[0].Table.Owner
	for _, s := range sorted[1:] {
		if !strings.EqualFold(s.Table.Owner, owner) {
			return "", fmt.Errorf("package tables must share one owner: found %s and %s", owner, s.Table.Owner)
		}
	}
	for i := 1; i < len(sorted); i++ {
		if strings.EqualFold(sorted[i].Table.Name, sorted[i-1].Table.Name) {
			return "", fmt.Errorf("table %s is listed more than once", sorted[i].Table.Ref())
		}
	}
	owner = strings.ToLower(owner)

	name := opts.Name
	if name == "" {
		name = owner + "_table_interface"
	}
	name = strings.ToLower(name)

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	date := now().Format(dateLayout)

	tables := make([]tableOperations, 0, len(sorted))
	for _, s := range sorted {
		procs, err := g.Operations(s, opts.IncludeToJSON)
		if err != nil {
			return "", err
		}
		tables = append(tables, tableOperations{spec: s, procs: procs})
	}

	var sb strings.Builder
	writeSection(&sb, "PACKAGE", name, owner, date, tables, ModeSpecification)
	sb.WriteString("\n")
	writeSection(&sb, "PACKAGE BODY", name, owner, date, tables, ModeBody)

	g.logger.Info("generated package",
		zap.String("package", name),
		zap.Int("tables", len(tables)),
	)
	return sb.String(), nil
}

func writeSection(sb *strings.Builder, kind, name, owner, date string, tables []tableOperations, mode Mode) {
	fmt.Fprintf(sb, "CREATE OR REPLACE %s %s\n", kind, name)
	sb.WriteString("AS\n\n")
	sb.WriteString("-- This package contains procedures for creating, updating and deleting\n")
	fmt.Fprintf(sb, "-- rows from the %s schema.\n", owner)
	fmt.Fprintf(sb, "-- Date: %s\n\n", date)

	for _, t := range tables {
		sb.WriteString(tableRule + "\n")
		fmt.Fprintf(sb, "-- Operations on the %s table\n", t.spec.tableName())
		sb.WriteString(tableRule + "\n\n")
		for _, p := range t.procs {
			sb.WriteString(p.Text(mode))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("END;\n/\n")
}
