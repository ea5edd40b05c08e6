// Package plsql generates PL/SQL CRUD and JSON procedures from catalog metadata.
//
// Each generated operation is built once as a Procedure and projected either
// as a declaration for a package specification or as a full definition for a
// package body.
package plsql

import (
	"strings"
)

// Mode selects the textual projection of a Procedure
type Mode int

const (
	// ModeSpecification renders the signature followed by a terminator
	ModeSpecification Mode = iota
	// ModeBody renders the signature with locals and body statements
	ModeBody
)

// Kind distinguishes procedures from functions
type Kind int

const (
	KindProcedure Kind = iota
	KindFunction
)

func (k Kind) keyword() string {
	if k == KindFunction {
		return "FUNCTION"
	}
	return "PROCEDURE"
}

// Param is one formal parameter. Mode is empty, "in", "out" or "in out".
type Param struct {
	Name string
	Mode string
	Type string
}

func (p Param) String() string {
	if p.Mode == "" {
		return p.Name + " " + p.Type
	}
	return p.Name + " " + p.Mode + " " + p.Type
}

// Procedure is the structured form of one generated operation
type Procedure struct {
	Kind    Kind
	Name    string
	Banner  []string
	Params  []Param
	Returns string
	Locals  []string
	Body    []string
}

// bannerRule delimits the comment banner above every operation
var bannerRule = "-- " + strings.Repeat("-", 80)

// Signature renders the header. Parameters after the first are aligned
// under the opening parenthesis.
func (p *Procedure) Signature() string {
	var sb strings.Builder

	head := p.Kind.keyword() + " " + p.Name + "("
	sb.WriteString(head)
	indent := strings.Repeat(" ", len(head))
	for i, param := range p.Params {
		if i > 0 {
			sb.WriteString(",\n")
			sb.WriteString(indent)
		}
		sb.WriteString(param.String())
	}
	sb.WriteString(")")

	if p.Kind == KindFunction && p.Returns != "" {
		sb.WriteString(" RETURN ")
		sb.WriteString(p.Returns)
	}
	return sb.String()
}

// Declaration renders the banner and signature terminated by a semicolon
func (p *Procedure) Declaration() string {
	var sb strings.Builder
	p.writeBanner(&sb)
	sb.WriteString(p.Signature())
	sb.WriteString(";\n")
	return sb.String()
}

// Definition renders the banner, signature, locals and body
func (p *Procedure) Definition() string {
	var sb strings.Builder
	p.writeBanner(&sb)
	sb.WriteString(p.Signature())
	sb.WriteString(" IS\n")
	for _, local := range p.Locals {
		sb.WriteString("    ")
		sb.WriteString(local)
		sb.WriteString("\n")
	}
	sb.WriteString("BEGIN\n")
	for _, line := range p.Body {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("END;\n")
	return sb.String()
}

// Text renders the projection selected by mode
func (p *Procedure) Text(mode Mode) string {
	if mode == ModeSpecification {
		return p.Declaration()
	}
	return p.Definition()
}

func (p *Procedure) writeBanner(sb *strings.Builder) {
	if len(p.Banner) == 0 {
		return
	}
	sb.WriteString(bannerRule)
	sb.WriteString("\n")
	for _, line := range p.Banner {
		sb.WriteString("-- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(bannerRule)
	sb.WriteString("\n")
}
