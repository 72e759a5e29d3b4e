package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/docanno-mcp/pkg/types"
)

// Catalog indexes the declarations of one Go package by name
type Catalog struct {
	pkg       string
	functions map[string]types.Declaration
	types     map[string]types.Declaration
	methods   map[string]map[string]types.Declaration
	fields    map[string]map[string]types.Declaration
	errors    []types.ParseError
}

// NewCatalog builds a catalog from parse results of files in a single
// package. The first declaration seen for a name wins.
func NewCatalog(results ...*types.ParseResult) *Catalog {
	c := &Catalog{
		functions: make(map[string]types.Declaration),
		types:     make(map[string]types.Declaration),
		methods:   make(map[string]map[string]types.Declaration),
		fields:    make(map[string]map[string]types.Declaration),
	}

	for _, result := range results {
		if result == nil {
			continue
		}
		if c.pkg == "" {
			c.pkg = result.PackageName
		}
		c.errors = append(c.errors, result.Errors...)
		for _, decl := range result.Declarations {
			c.add(decl)
		}
	}

	return c
}

func (c *Catalog) add(decl types.Declaration) {
	switch decl.Kind {
	case types.KindFunction:
		if _, ok := c.functions[decl.Name]; !ok {
			c.functions[decl.Name] = decl
		}
	case types.KindType:
		if _, ok := c.types[decl.Name]; !ok {
			c.types[decl.Name] = decl
		}
	case types.KindMethod:
		addMember(c.methods, decl)
	case types.KindField:
		addMember(c.fields, decl)
	}
}

func addMember(members map[string]map[string]types.Declaration, decl types.Declaration) {
	byName, ok := members[decl.Owner]
	if !ok {
		byName = make(map[string]types.Declaration)
		members[decl.Owner] = byName
	}
	if _, ok := byName[decl.Name]; !ok {
		byName[decl.Name] = decl
	}
}

// LoadPackage parses every Go file of the package in dir. Test files are
// included only when includeTests is set; external test packages
// (package foo_test) are always skipped.
func LoadPackage(dir string, includeTests bool) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if !includeTests && strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}

	return LoadFiles(files)
}

// LoadFiles parses the given files of one package into a catalog
func LoadFiles(files []string) (*Catalog, error) {
	sort.Strings(files)

	p := New()
	results := make([]*types.ParseResult, 0, len(files))
	pkg := ""
	for _, file := range files {
		result, err := p.ParseFile(file)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(result.PackageName, "_test") {
			continue
		}
		if pkg == "" {
			pkg = result.PackageName
		}
		if result.PackageName != "" && result.PackageName != pkg {
			continue
		}
		results = append(results, result)
	}

	return NewCatalog(results...), nil
}

// Package returns the package name
func (c *Catalog) Package() string {
	return c.pkg
}

// Errors returns syntax errors recorded while parsing the package
func (c *Catalog) Errors() []types.ParseError {
	return c.errors
}

// Function looks up a package-level function
func (c *Catalog) Function(name string) (types.Declaration, bool) {
	decl, ok := c.functions[name]
	return decl, ok
}

// Type looks up a type declaration
func (c *Catalog) Type(name string) (types.Declaration, bool) {
	decl, ok := c.types[name]
	return decl, ok
}

// Method looks up a method declared directly on typeName
func (c *Catalog) Method(typeName, method string) (types.Declaration, bool) {
	decl, ok := c.methods[typeName][method]
	return decl, ok
}

// Field looks up a named field declared directly on typeName
func (c *Catalog) Field(typeName, field string) (types.Declaration, bool) {
	decl, ok := c.fields[typeName][field]
	return decl, ok
}

// Parent returns the first embedded type of typeName that is declared in
// this package
func (c *Catalog) Parent(typeName string) (string, bool) {
	decl, ok := c.types[typeName]
	if !ok {
		return "", false
	}
	for _, embedded := range decl.Embeds {
		if embedded == typeName {
			continue
		}
		if _, ok := c.types[embedded]; ok {
			return embedded, true
		}
	}
	return "", false
}

// Declarations returns every declaration in a stable order: types first
// with their members, then functions, each group sorted by name.
func (c *Catalog) Declarations() []types.Declaration {
	var out []types.Declaration

	for _, name := range sortedKeys(c.types) {
		out = append(out, c.types[name])
		for _, field := range sortedKeys(c.fields[name]) {
			out = append(out, c.fields[name][field])
		}
		for _, method := range sortedKeys(c.methods[name]) {
			out = append(out, c.methods[name][method])
		}
	}

	// Methods on types declared elsewhere (e.g. in an excluded file)
	for _, owner := range sortedKeys(c.methods) {
		if _, ok := c.types[owner]; ok {
			continue
		}
		for _, method := range sortedKeys(c.methods[owner]) {
			out = append(out, c.methods[owner][method])
		}
	}

	for _, name := range sortedKeys(c.functions) {
		out = append(out, c.functions[name])
	}

	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
