package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"

	"github.com/dshills/docanno-mcp/pkg/types"
)

// Parser handles AST-based extraction of doc comments from Go source files
type Parser struct {
	fset *token.FileSet
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseFile parses a Go source file and extracts its declarations
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(filePath, content)
}

// ParseSource parses Go source held in memory. filename is used for
// positions and error messages only.
func (p *Parser) ParseSource(filename string, src []byte) (*types.ParseResult, error) {
	result := &types.ParseResult{}

	file, err := parser.ParseFile(p.fset, filename, src, parser.ParseComments)
	if err != nil {
		// Syntax errors are non-fatal - record error but continue with partial AST
		result.AddError(filename, 0, 0, fmt.Sprintf("syntax error: %v", err))
	}

	if file == nil {
		return result, nil
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}

	extractor := &declExtractor{
		fset:        p.fset,
		filePath:    filename,
		packageName: result.PackageName,
	}

	// Only top-level declarations carry doc comments worth extracting
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			extractor.extractFunction(d)
		case *ast.GenDecl:
			extractor.extractGenDecl(d)
		}
	}
	result.Declarations = extractor.decls

	return result, nil
}

// declExtractor collects declarations from one file
type declExtractor struct {
	fset        *token.FileSet
	filePath    string
	packageName string
	decls       []types.Declaration
}

// extractFunction extracts function and method declarations
func (e *declExtractor) extractFunction(funcDecl *ast.FuncDecl) {
	decl := e.newDeclaration(funcDecl.Name.Name, funcDecl.Doc, funcDecl.Pos(), funcDecl.End())

	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		decl.Kind = types.KindMethod
		decl.Owner = receiverTypeName(funcDecl.Recv.List[0].Type)
		if decl.Owner == "" {
			return
		}
	} else {
		decl.Kind = types.KindFunction
	}

	e.decls = append(e.decls, decl)
}

// extractGenDecl extracts type declarations; const and var blocks carry no
// annotations we look up
func (e *declExtractor) extractGenDecl(genDecl *ast.GenDecl) {
	if genDecl.Tok != token.TYPE {
		return
	}

	for _, spec := range genDecl.Specs {
		typeSpec, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		// A lone spec without parentheses documents itself through the decl
		doc := typeSpec.Doc
		if doc == nil && !genDecl.Lparen.IsValid() {
			doc = genDecl.Doc
		}
		e.extractTypeSpec(typeSpec, doc)
	}
}

// extractTypeSpec extracts a type and, for structs, its named fields
func (e *declExtractor) extractTypeSpec(typeSpec *ast.TypeSpec, doc *ast.CommentGroup) {
	decl := e.newDeclaration(typeSpec.Name.Name, doc, typeSpec.Pos(), typeSpec.End())
	decl.Kind = types.KindType

	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		decl.Embeds = embeddedNames(t.Fields)
		e.decls = append(e.decls, decl)
		e.extractStructFields(typeSpec.Name.Name, t)
	case *ast.InterfaceType:
		decl.Embeds = embeddedNames(t.Methods)
		e.decls = append(e.decls, decl)
		e.extractInterfaceMethods(typeSpec.Name.Name, t)
	default:
		e.decls = append(e.decls, decl)
	}
}

// extractStructFields extracts named field declarations from a struct
func (e *declExtractor) extractStructFields(structName string, structType *ast.StructType) {
	if structType.Fields == nil {
		return
	}

	for _, field := range structType.Fields.List {
		for _, name := range field.Names {
			decl := e.newDeclaration(name.Name, field.Doc, field.Pos(), field.End())
			decl.Kind = types.KindField
			decl.Owner = structName
			e.decls = append(e.decls, decl)
		}
	}
}

// extractInterfaceMethods extracts method declarations from an interface
func (e *declExtractor) extractInterfaceMethods(ifaceName string, ifaceType *ast.InterfaceType) {
	if ifaceType.Methods == nil {
		return
	}

	for _, method := range ifaceType.Methods.List {
		for _, name := range method.Names {
			decl := e.newDeclaration(name.Name, method.Doc, method.Pos(), method.End())
			decl.Kind = types.KindMethod
			decl.Owner = ifaceName
			e.decls = append(e.decls, decl)
		}
	}
}

func (e *declExtractor) newDeclaration(name string, doc *ast.CommentGroup, start, end token.Pos) types.Declaration {
	text, ok := rawDocComment(doc)
	return types.Declaration{
		Name:       name,
		Package:    e.packageName,
		File:       e.filePath,
		DocComment: text,
		HasDoc:     ok,
		Scope:      determineScope(name),
		Start:      e.positionFromToken(start),
		End:        e.positionFromToken(end),
	}
}

// positionFromToken converts a token position to our Position type
func (e *declExtractor) positionFromToken(pos token.Pos) types.Position {
	position := e.fset.Position(pos)
	return types.Position{
		Line:   position.Line,
		Column: position.Column,
	}
}

// rawDocComment rebuilds the doc comment text for the annotation parser.
//
// Line comments lose their "//" marker; block comments are kept verbatim so
// the normalizer can strip "/**", "*/" and "*" continuation prefixes. Every
// comment ends with a newline so a tag on the last line is terminated.
func rawDocComment(doc *ast.CommentGroup) (string, bool) {
	if doc == nil || len(doc.List) == 0 {
		return "", false
	}

	var b strings.Builder
	for _, c := range doc.List {
		if strings.HasPrefix(c.Text, "//") {
			b.WriteString(c.Text[2:])
		} else {
			b.WriteString(c.Text)
		}
		b.WriteByte('\n')
	}
	return b.String(), true
}

// embeddedNames lists the type names of anonymous fields in order
func embeddedNames(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}

	var names []string
	for _, field := range fields.List {
		if len(field.Names) > 0 {
			continue
		}
		if name := baseTypeName(field.Type); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// receiverTypeName extracts the receiver type name from a method
func receiverTypeName(expr ast.Expr) string {
	return baseTypeName(expr)
}

// baseTypeName strips pointers and type arguments; names from other
// packages keep their qualifier
func baseTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return baseTypeName(t.X)
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			return pkg.Name + "." + t.Sel.Name
		}
		return ""
	case *ast.IndexExpr:
		return baseTypeName(t.X)
	case *ast.IndexListExpr:
		return baseTypeName(t.X)
	case *ast.ParenExpr:
		return baseTypeName(t.X)
	}
	return ""
}

// determineScope determines if a declaration is exported or unexported
func determineScope(name string) types.DeclScope {
	if token.IsExported(name) {
		return types.ScopeExported
	}
	return types.ScopeUnexported
}
