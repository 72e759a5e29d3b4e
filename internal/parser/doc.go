// Package parser supplies raw doc comment text for Go declarations.
//
// The parser uses Go's standard library (go/parser, go/ast, go/token) to read
// functions, methods, types, interface methods and struct fields together
// with the comment text attached to them. It stands in for runtime
// reflection: comments are associated with declarations once, when source is
// read, and the annotation parser consumes the text later.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParseFile("/path/to/file.go")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, decl := range result.Declarations {
//	    fmt.Printf("%s %s has doc: %v\n", decl.Kind, decl.QualifiedName(), decl.HasDoc)
//	}
//
// # Comment Text
//
// Line comments have their "//" marker removed; block comments are passed
// through untouched so "/**" and " * " continuation prefixes are stripped by
// the annotation normalizer. Each comment is terminated by a newline:
//
//	// @route(method = GET)      ->  " @route(method = GET)\n"
//	/** @deprecated */           ->  "/** @deprecated */\n"
//
// A declaration without any doc comment reports HasDoc == false, which is
// distinct from a present but empty comment.
//
// # Catalogs
//
// A Catalog indexes the declarations of one package and answers the lookups
// the extractor needs:
//
//	catalog, err := parser.LoadPackage("./internal/api", false)
//	decl, ok := catalog.Method("Handler", "ServeHTTP")
//	parent, ok := catalog.Parent("Handler") // first embedded local type
//
// Go has no class inheritance; the first embedded type declared in the same
// package plays the role of the parent.
//
// # Error Handling
//
// Syntax errors are non-fatal:
//
//	result, err := p.ParseFile("broken.go")
//	// err is nil even for syntax errors
//
//	if result.HasErrors() {
//	    for _, parseErr := range result.Errors {
//	        fmt.Printf("Parse error: %v\n", parseErr)
//	    }
//	}
//
// Declarations recovered from the partial AST are still returned.
package parser
