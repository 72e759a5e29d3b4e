// Package annotation parses tag-style annotations out of documentation comments.
//
// An annotation is an @name marker at the start of a comment line, optionally
// followed by trailing text or a parenthesized argument list:
//
//	/**
//	 * @author angus
//	 * @deprecated
//	 * @route(method = GET, path = "/users/{id}")
//	 */
//
// # Basic Usage
//
//	result := annotation.Parse(comment)
//	for _, name := range result.Names() {
//	    fmt.Println(name, result.Get(name))
//	}
//
// # Values
//
// Each occurrence of a tag produces one Value:
//   - @name or @name() is a boolean marker (KindBool)
//   - @name some text is the trimmed rest of the line (KindString)
//   - @name(a, key = "b") is an ordered argument list (KindArgs)
//
// Repeated tags accumulate in document order. Within one argument list a
// repeated key overwrites the earlier entry in place; across occurrences
// nothing is merged.
//
// # Quoting
//
// Quoted values keep their interior spacing exactly and drop one backslash
// per escape sequence, so "a\"b" yields a"b. Unquoted values are trimmed. An
// '=' inside quotes is part of the value.
//
// # Error Handling
//
// Parse is total: it never returns an error and never panics on malformed
// input. A tag whose argument list or quoted string is never closed, or
// which is cut off by the end of input before its newline, is dropped.
// Callers who want to know about those cases use ParseStrict, which returns
// the same Result together with a joined list of *SyntaxError.
//
// # Concurrency
//
// Parse keeps all scanning state local to the call and is safe for
// concurrent use.
package annotation
