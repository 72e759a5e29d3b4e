package types

import (
	"errors"
	"go/token"
)

// DeclKind represents the category of a declaration carrying a doc comment
type DeclKind string

const (
	KindFunction DeclKind = "function"
	KindType     DeclKind = "type"
	KindMethod   DeclKind = "method"
	KindField    DeclKind = "field"
)

// DeclScope represents the visibility scope of a declaration
type DeclScope string

const (
	ScopeExported   DeclScope = "exported"
	ScopeUnexported DeclScope = "unexported"
)

// Position represents a location in source code
type Position struct {
	Line   int
	Column int
}

// Declaration is a Go declaration together with the raw text of its doc comment
type Declaration struct {
	// Identification
	Name    string
	Kind    DeclKind
	Package string
	File    string

	// Owner is the declaring type for methods and fields
	Owner string

	// DocComment holds raw comment text: "//" markers stripped per line,
	// block comments verbatim, each comment newline-terminated.
	DocComment string
	// HasDoc is false when the declaration has no doc comment at all
	HasDoc bool

	// Embeds lists embedded type names of struct and interface types in
	// declaration order. Pointers are stripped; types from other packages
	// keep their package qualifier ("io.Reader").
	Embeds []string

	Scope DeclScope

	// Location
	Start Position
	End   Position
}

// QualifiedName returns Owner::Name for members and Name otherwise
func (d *Declaration) QualifiedName() string {
	if d.Owner != "" {
		return d.Owner + "::" + d.Name
	}
	return d.Name
}

// ValidateKind checks if the declaration kind is valid
func (d *Declaration) ValidateKind() error {
	switch d.Kind {
	case KindFunction, KindType, KindMethod, KindField:
		return nil
	default:
		return errors.New("invalid declaration kind")
	}
}

// IsExported returns true if the declaration is visible outside its package
func (d *Declaration) IsExported() bool {
	return d.Scope == ScopeExported && token.IsExported(d.Name)
}

// Validate performs comprehensive validation of the declaration
func (d *Declaration) Validate() error {
	if d.Name == "" {
		return errors.New("declaration name is required")
	}

	if err := d.ValidateKind(); err != nil {
		return err
	}

	if d.Package == "" {
		return errors.New("package name is required")
	}

	// Methods and fields belong to a type
	if (d.Kind == KindMethod || d.Kind == KindField) && d.Owner == "" {
		return errors.New("methods and fields must have an owner type")
	}

	if d.Kind != KindMethod && d.Kind != KindField && d.Owner != "" {
		return errors.New("only methods and fields can have an owner type")
	}

	if d.Kind != KindType && len(d.Embeds) > 0 {
		return errors.New("only types can embed other types")
	}

	if !d.HasDoc && d.DocComment != "" {
		return errors.New("doc comment text without doc comment")
	}

	if d.Start.Line <= 0 || d.End.Line <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}

	if d.Start.Line > d.End.Line {
		return errors.New("invalid position: start line must be before or equal to end line")
	}

	return nil
}
