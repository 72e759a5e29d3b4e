// Package mcp implements the Model Context Protocol (MCP) server for docanno.
//
// The server exposes five tools to AI coding assistants:
//   - parse_annotations: Parse @annotations out of raw comment text
//   - get_annotations: Read the annotations of one declaration from source
//   - index_annotations: Index every declaration of a Go project
//   - find_annotations: List indexed declarations carrying an annotation
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport. The server is
// typically started via the serve command:
//
//	docanno serve
//
// It then listens on stdin for MCP protocol messages and writes responses to
// stdout. Logs go to stderr.
//
// # Tool: parse_annotations
//
//	Request:
//	{
//	  "name": "parse_annotations",
//	  "arguments": {"text": "/** @entity(table = users)\n * @deprecated\n */", "strict": true}
//	}
//
//	Response:
//	{
//	  "annotations": {"entity": [{"table": "users"}], "deprecated": [true]},
//	  "valid": true,
//	  "errors": []
//	}
//
// Every name maps to the list of its values in document order. A value is
// true for a bare tag, a string for free text, and an array or object for an
// argument list.
//
// # Tool: get_annotations
//
// Reads the package in path directly, so it works without an index:
//
//	{
//	  "name": "get_annotations",
//	  "arguments": {
//	    "path": "/path/to/project/internal/model",
//	    "kind": "method",
//	    "name": "Save",
//	    "type": "User",
//	    "with_parents": true
//	  }
//	}
//
// Methods and fields also accept a qualified name ("User::Save") instead of
// the type argument.
//
// # Tool: index_annotations
//
//	{
//	  "name": "index_annotations",
//	  "arguments": {"path": "/path/to/project", "with_parents": true}
//	}
//
// Packages whose files are unchanged since the last run are skipped unless
// force_reindex is set or with_parents differs from the stored mode.
//
// # Tool: find_annotations
//
//	{
//	  "name": "find_annotations",
//	  "arguments": {"path": "/path/to/project", "name": "entity", "limit": 20}
//	}
//
// Results are ordered by file and position and carry the matching value.
//
// # Error Handling
//
// Errors are returned as *MCPError values:
//
//	-32602  Invalid params (missing path, relative path, bad kind or limit)
//	-32603  Internal error (storage failure, indexing failed)
//	-32002  Indexing already in progress
//	-32003  Project not indexed
//	-32005  Declaration not found; data.code holds the lookup code
//	        (0x301 method, 0x302 type, 0x303 field, 0x304 function)
package mcp
