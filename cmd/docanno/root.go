package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/docanno-mcp/internal/mcp"
	"github.com/dshills/docanno-mcp/internal/storage"
)

// Environment fallbacks for the persistent flags
const (
	envDBPath    = "DOCANNO_DB_PATH"
	envLogLevel  = "DOCANNO_LOG_LEVEL"
	envLogFormat = "DOCANNO_LOG_FORMAT"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	dbPath    string
	logLevel  string
	logFormat string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "docanno",
		Short: "Parse and index @annotations in Go doc comments",
		Long: `docanno reads @annotations from Go doc comments.

It parses comment text directly, extracts the annotations of a single
declaration (optionally merged with embedded parent types), indexes whole
projects into sqlite and serves everything to MCP clients over stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			opts.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dbPath, "db", envDefault(envDBPath, mcp.DefaultDBPath), "path to the index database (env "+envDBPath+")")
	flags.StringVar(&opts.logLevel, "log-level", envDefault(envLogLevel, "info"), "log level: debug, info, warn, error (env "+envLogLevel+")")
	flags.StringVar(&opts.logFormat, "log-format", envDefault(envLogFormat, "text"), "log format: text or json (env "+envLogFormat+")")

	cmd.AddCommand(
		newServeCmd(opts),
		newParseCmd(opts),
		newExtractCmd(opts),
		newIndexCmd(opts),
		newFindCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger builds the stderr logger; stdout carries command output and the
// MCP protocol
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
}

// openStorage opens the index database, creating its directory
func (o *rootOptions) openStorage() (*storage.SQLiteStorage, error) {
	dbPath, err := mcp.ExpandPath(o.dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	o.logger.Debug("opened index", slog.String("db", dbPath), slog.String("driver", storage.DriverName))
	return store, nil
}

// projectPath resolves the optional path argument to an absolute directory
func projectPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}
