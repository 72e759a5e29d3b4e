// Package types provides shared type definitions for docanno.
//
// # Declarations
//
// Declaration is a Go function, type, method or struct field extracted from
// source via AST parsing, together with the raw text of its doc comment:
//
//	decl := types.Declaration{
//	    Name:       "ServeHTTP",
//	    Kind:       types.KindMethod,
//	    Owner:      "Handler",
//	    Package:    "api",
//	    DocComment: " @route(method = GET, path = \"/\")\n",
//	    HasDoc:     true,
//	}
//
// HasDoc distinguishes a declaration without any doc comment from one whose
// comment is empty. Only the former short-circuits annotation parsing.
//
// # Lookup Errors
//
// Failing to locate a declaration yields a *LookupError with a stable code:
//
//	CodeMethodNotFound   0x301
//	CodeClassNotFound    0x302
//	CodePropertyNotFound 0x303
//	CodeFunctionNotFound 0x304
//
// Errors match their sentinel by code:
//
//	if errors.Is(err, types.ErrMethodNotFound) {
//	    ...
//	}
package types
