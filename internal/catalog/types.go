package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeFamily groups declared column types that render and convert alike
type TypeFamily int

const (
	FamilyOther TypeFamily = iota
	FamilyCharacter
	FamilyNumeric
	FamilyFloat
	FamilyInteger
	FamilyReal
	FamilyTimestamp
	FamilyDate
)

// String returns the family name
func (f TypeFamily) String() string {
	switch f {
	case FamilyCharacter:
		return "character"
	case FamilyNumeric:
		return "numeric"
	case FamilyFloat:
		return "float"
	case FamilyInteger:
		return "integer"
	case FamilyReal:
		return "real"
	case FamilyTimestamp:
		return "timestamp"
	case FamilyDate:
		return "date"
	default:
		return "other"
	}
}

var families = map[string]TypeFamily{
	"CHAR":      FamilyCharacter,
	"VARCHAR":   FamilyCharacter,
	"VARCHAR2":  FamilyCharacter,
	"NCHAR":     FamilyCharacter,
	"NVARCHAR":  FamilyCharacter,
	"NVARCHAR2": FamilyCharacter,
	"RAW":       FamilyCharacter,

	"NUMBER":  FamilyNumeric,
	"NUMERIC": FamilyNumeric,
	"DECIMAL": FamilyNumeric,

	"FLOAT": FamilyFloat,

	"INTEGER":   FamilyInteger,
	"INT":       FamilyInteger,
	"SMALLINT":  FamilyInteger,
	"TINYINT":   FamilyInteger,
	"MEDIUMINT": FamilyInteger,
	"BIGINT":    FamilyInteger,
	"INT2":      FamilyInteger,
	"INT4":      FamilyInteger,
	"INT8":      FamilyInteger,

	"FLOAT4":        FamilyReal,
	"FLOAT8":        FamilyReal,
	"REAL":          FamilyReal,
	"DOUBLE":        FamilyReal,
	"BINARY_FLOAT":  FamilyReal,
	"BINARY_DOUBLE": FamilyReal,

	"TIMESTAMP": FamilyTimestamp,

	"DATE": FamilyDate,
}

// FamilyOf classifies a declared base type. Matching is case-insensitive and exact:
// parameterised forms such as TIMESTAMP(6) belong to FamilyOther.
func FamilyOf(dataType string) TypeFamily {
	if f, ok := families[strings.ToUpper(strings.TrimSpace(dataType))]; ok {
		return f
	}
	return FamilyOther
}

// IsNumber reports whether values of the family are numbers
func (f TypeFamily) IsNumber() bool {
	switch f {
	case FamilyNumeric, FamilyFloat, FamilyInteger, FamilyReal:
		return true
	}
	return false
}

// DeclaredType is a column declaration split into base type and arguments
type DeclaredType struct {
	Base string
	Args []int
}

// ParseDeclaredType splits a declaration such as "VARCHAR(20)" or "numeric(10, 2)" into
// its upper-cased base type and integer arguments. Declarations with non-numeric
// arguments keep the whole text as the base type.
func ParseDeclaredType(decl string) (DeclaredType, error) {
	decl = strings.TrimSpace(decl)
	open := strings.IndexByte(decl, '(')
	if open < 0 {
		return DeclaredType{Base: strings.ToUpper(decl)}, nil
	}

	end := strings.LastIndexByte(decl, ')')
	if end < open {
		return DeclaredType{}, fmt.Errorf("unbalanced type declaration: %q", decl)
	}

	base := strings.ToUpper(strings.TrimSpace(decl[:open]))
	var args []int
	for _, part := range strings.Split(decl[open+1:end], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return DeclaredType{Base: strings.ToUpper(decl)}, nil
		}
		args = append(args, n)
	}

	// trailing qualifiers (e.g. "TIMESTAMP(6) WITH TIME ZONE") keep the declaration whole
	if rest := strings.TrimSpace(decl[end+1:]); rest != "" {
		return DeclaredType{Base: strings.ToUpper(decl)}, nil
	}

	return DeclaredType{Base: base, Args: args}, nil
}

// Apply copies the declaration into a column following the dictionary conventions:
// character types carry a length, numeric and float types a precision and scale.
func (d DeclaredType) Apply(col *Column) {
	col.DataType = d.Base
	switch FamilyOf(d.Base) {
	case FamilyCharacter:
		if len(d.Args) > 0 {
			col.Length = d.Args[0]
		}
	case FamilyNumeric, FamilyFloat:
		if len(d.Args) > 0 {
			p := d.Args[0]
			col.Precision = &p
		}
		if len(d.Args) > 1 {
			s := d.Args[1]
			col.Scale = &s
		}
	}
}
