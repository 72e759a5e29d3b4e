// Package extractor looks up functions, types, methods and struct fields in
// a parsed package and returns the annotations of their doc comments.
//
// Embedding plays the role of inheritance: the first embedded type declared
// in the same package is a type's parent. When asked, the doc comments of
// parents are concatenated ahead of the child's before parsing, so
//
//	// @test2(val = 5)
//	func (A) Method() {}
//
//	type B struct{ A }
//
//	// @test(val = 2)
//	func (B) Method() {}
//
//	type C struct{ B }
//
// yields both test2 and test for C.Method.
//
// A declaration that cannot be located produces a *types.LookupError whose
// code identifies what was missing.
package extractor
