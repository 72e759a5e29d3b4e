package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docanno-mcp/internal/annotation"
	"github.com/dshills/docanno-mcp/internal/extractor"
	"github.com/dshills/docanno-mcp/internal/indexer"
	"github.com/dshills/docanno-mcp/internal/parser"
	"github.com/dshills/docanno-mcp/internal/storage"
	"github.com/dshills/docanno-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams       = -32602 // Invalid method parameters
	ErrorCodeInternalError       = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress  = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed          = -32003 // Project not indexed
	ErrorCodeDeclarationNotFound = -32005 // Lookup failed; data carries the lookup code
)

// handleParseAnnotations handles the parse_annotations tool invocation
func (s *Server) handleParseAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or not a string",
		})
	}

	if !getBoolDefault(args, "strict", false) {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"annotations": annotation.Parse(text),
		})), nil
	}

	result, err := annotation.ParseStrict(text)
	syntaxErrors := make([]map[string]interface{}, 0)
	for _, se := range annotation.SyntaxErrors(err) {
		syntaxErrors = append(syntaxErrors, map[string]interface{}{
			"offset":  se.Offset,
			"tag":     se.Tag,
			"message": se.Message,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"annotations": result,
		"valid":       len(syntaxErrors) == 0,
		"errors":      syntaxErrors,
	})), nil
}

// handleGetAnnotations handles the get_annotations tool invocation
func (s *Server) handleGetAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	kind := types.DeclKind(getStringDefault(args, "kind", ""))
	name := getStringDefault(args, "name", "")
	if name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}
	typeName := getStringDefault(args, "type", "")
	withParents := getBoolDefault(args, "with_parents", false)

	catalog, err := parser.LoadPackage(path, false)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load package", map[string]interface{}{
			"error": err.Error(),
		})
	}
	ext := extractor.New(catalog)

	var result annotation.Result
	switch kind {
	case types.KindFunction:
		result, err = ext.FromFunction(name)
	case types.KindType:
		result, err = ext.FromType(name, withParents)
	case types.KindMethod:
		result, err = ext.FromMethod(name, typeName, withParents)
	case types.KindField:
		result, err = ext.FromProperty(typeName, name)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
			"param":   "kind",
			"value":   string(kind),
			"allowed": []string{"function", "type", "method", "field"},
		})
	}

	if err != nil {
		var lookupErr *types.LookupError
		if errors.As(err, &lookupErr) {
			return nil, newMCPError(ErrorCodeDeclarationNotFound, lookupErr.Message(), map[string]interface{}{
				"code":      fmt.Sprintf("0x%x", uint32(lookupErr.Code())),
				"code_name": lookupErr.Code().String(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "extraction failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"package":     catalog.Package(),
		"kind":        string(kind),
		"name":        name,
		"annotations": result,
	}
	if typeName != "" {
		response["type"] = typeName
	}
	if parseErrors := catalog.Errors(); len(parseErrors) > 0 {
		response["parse_errors"] = len(parseErrors)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexAnnotations handles the index_annotations tool invocation
func (s *Server) handleIndexAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	config := &indexer.Config{
		IncludeTests:  getBoolDefault(args, "include_tests", false),
		IncludeVendor: getBoolDefault(args, "include_vendor", false),
		WithParents:   getBoolDefault(args, "with_parents", false),
		Force:         getBoolDefault(args, "force_reindex", false),
	}

	stats, err := s.indexer.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		s.logger.Error("indexing failed", slog.String("path", path), slog.Any("error", err))
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":             true,
		"packages_indexed":    stats.PackagesIndexed,
		"packages_skipped":    stats.PackagesSkipped,
		"files_indexed":       stats.FilesIndexed,
		"files_skipped":       stats.FilesSkipped,
		"files_failed":        stats.FilesFailed,
		"files_removed":       stats.FilesRemoved,
		"declarations_stored": stats.DeclarationsStored,
		"annotations_stored":  stats.AnnotationsStored,
		"with_parents":        config.WithParents,
		"duration_ms":         stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindAnnotations handles the find_annotations tool invocation
func (s *Server) handleFindAnnotations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	name, ok := args["name"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or not a string",
		})
	}
	name = strings.TrimPrefix(name, "@")

	limit := getIntDefault(args, "limit", defaultFindLimit)
	if limit < 1 || limit > maxFindLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", maxFindLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	project, err := s.indexedProject(ctx, path)
	if err != nil {
		return nil, err
	}

	matches, err := s.storage.FindAnnotations(ctx, project.ID, name, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to find annotations", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(matches))
	for _, match := range matches {
		results = append(results, map[string]interface{}{
			"file":        match.FilePath,
			"line":        match.Declaration.StartLine,
			"package":     match.Declaration.PackageName,
			"kind":        string(match.Declaration.Kind),
			"declaration": match.Declaration.QualifiedName(),
			"value":       match.Annotation.Value(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"name":    name,
		"count":   len(results),
		"results": results,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		// Project not indexed
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_annotations tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":            project.RootPath,
			"module_name":     project.ModuleName,
			"go_version":      project.GoVersion,
			"with_parents":    project.WithParents,
			"last_indexed_at": project.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"files_count":        status.FilesCount,
			"declarations_count": status.DeclarationsCount,
			"documented_count":   status.DocumentedCount,
			"annotations_count":  status.AnnotationsCount,
			"distinct_names":     status.DistinctNames,
			"index_size_mb":      fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"schema_version":      status.Health.SchemaVersion,
			"driver":              storage.DriverName,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// requirePath extracts and validates the path parameter
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return filepath.Clean(path), nil
}

// indexedProject loads the project at path or reports it as not indexed
func (s *Server) indexedProject(ctx context.Context, path string) (*storage.Project, error) {
	project, err := s.storage.GetProject(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{
			"path": path,
			"hint": "run index_annotations first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return project, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Stop at the first Go file
	errFound := errors.New("found")
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(p, ".go") {
			return errFound
		}
		return nil
	})
	if !errors.Is(err, errFound) {
		return ErrNoGoFiles
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoGoFiles       = errors.New("directory does not contain Go files")
)
