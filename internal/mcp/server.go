package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/docanno-mcp/internal/indexer"
	"github.com/dshills/docanno-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "docanno-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.docanno/index.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	indexer *indexer.Indexer
	logger  *slog.Logger
}

// NewServer creates a new MCP server backed by the database file at dbPath
func NewServer(dbPath string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbPath, err := ExpandPath(dbPath)
	if err != nil {
		return nil, err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:     mcpServer,
		storage: store,
		indexer: indexer.New(store).WithLogger(logger),
		logger:  logger,
	}

	// Register tools
	s.registerTools()

	logger.Debug("mcp server ready", slog.String("db", dbPath), slog.String("driver", storage.DriverName))
	return s, nil
}

// ExpandPath resolves the default and "~/" database paths against the
// home directory
func ExpandPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if dbPath != "~" && !strings.HasPrefix(dbPath, "~/") {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(dbPath, "~")), nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()

	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the database
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(parseAnnotationsTool(), s.handleParseAnnotations)
	s.mcp.AddTool(getAnnotationsTool(), s.handleGetAnnotations)
	s.mcp.AddTool(indexAnnotationsTool(), s.handleIndexAnnotations)
	s.mcp.AddTool(findAnnotationsTool(), s.handleFindAnnotations)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
