package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Limits for find_annotations
const (
	defaultFindLimit = 100
	maxFindLimit     = 1000
)

// parseAnnotationsTool returns the tool definition for parse_annotations
func parseAnnotationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "parse_annotations",
		Description: "Parse @annotations out of a raw doc comment",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Doc comment text; /** */ block markup is stripped, // markers are not",
				},
				"strict": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, also report malformed annotations",
					"default":     false,
				},
			},
			Required: []string{"text"},
		},
	}
}

// getAnnotationsTool returns the tool definition for get_annotations
func getAnnotationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_annotations",
		Description: "Read the annotations of a function, type, method or field straight from a package's source",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the package directory",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Declaration kind",
					"enum":        []string{"function", "type", "method", "field"},
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Declaration name; methods and fields also accept Type::name",
				},
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Owning type for methods and fields",
				},
				"with_parents": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, merge annotations of embedded parent types (types and methods only)",
					"default":     false,
				},
			},
			Required: []string{"path", "kind", "name"},
		},
	}
}

// indexAnnotationsTool returns the tool definition for index_annotations
func indexAnnotationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_annotations",
		Description: "Index the annotations of every declaration in a Go project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go project root (must contain .go files)",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index all packages ignoring file hashes (full rebuild)",
					"default":     false,
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
					"default":     false,
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index vendor/ directory",
					"default":     false,
				},
				"with_parents": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, store annotations merged with embedded parent types",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// findAnnotationsTool returns the tool definition for find_annotations
func findAnnotationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_annotations",
		Description: "List indexed declarations carrying an annotation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to indexed Go project",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Annotation name without the leading @",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-1000)",
					"default":     defaultFindLimit,
					"minimum":     1,
					"maximum":     maxFindLimit,
				},
			},
			Required: []string{"path", "name"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a Go project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to Go project",
				},
			},
			Required: []string{"path"},
		},
	}
}
