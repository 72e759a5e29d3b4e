package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bndr/gotabulate"
	"github.com/spf13/cobra"

	"github.com/dshills/docanno-mcp/internal/annotation"
	"github.com/dshills/docanno-mcp/internal/extractor"
	"github.com/dshills/docanno-mcp/internal/indexer"
	"github.com/dshills/docanno-mcp/internal/mcp"
	"github.com/dshills/docanno-mcp/internal/parser"
	"github.com/dshills/docanno-mcp/internal/storage"
	"github.com/dshills/docanno-mcp/internal/watcher"
	"github.com/dshills/docanno-mcp/pkg/types"
)

// errInvalidAnnotations is returned by parse --strict when defects were found
var errInvalidAnnotations = errors.New("malformed annotations found")

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcp.NewServer(opts.dbPath, opts.logger)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, stop := signalContext()
			defer stop()

			opts.logger.Info("MCP server ready, listening on stdio",
				slog.String("version", version),
				slog.String("build_mode", storage.BuildMode))
			err = server.Serve(ctx)
			if errors.Is(err, context.Canceled) {
				opts.logger.Info("server stopped")
				return nil
			}
			return err
		},
	}
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse annotations from comment text",
		Long:  "Parse annotations from a file, or from stdin when the argument is - or missing, and print them as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			if !strict {
				return writeJSON(cmd.OutOrStdout(), annotation.Parse(text))
			}

			result, parseErr := annotation.ParseStrict(text)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			syntaxErrors := annotation.SyntaxErrors(parseErr)
			for _, se := range syntaxErrors {
				fmt.Fprintln(cmd.ErrOrStderr(), se.Error())
			}
			if len(syntaxErrors) > 0 {
				return fmt.Errorf("%w: %d", errInvalidAnnotations, len(syntaxErrors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "report malformed annotations and exit non-zero")
	return cmd
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var (
		typeName     string
		withParents  bool
		includeTests bool
	)

	cmd := &cobra.Command{
		Use:   "extract <package-dir> <function|type|method|field> <name>",
		Short: "Print the annotations of one declaration",
		Example: `  docanno extract ./internal/model type User --with-parents
  docanno extract ./internal/model method User::Save
  docanno extract ./internal/model field ID --type User`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := parser.LoadPackage(args[0], includeTests)
			if err != nil {
				return err
			}
			for _, pe := range catalog.Errors() {
				opts.logger.Warn("parse error", slog.String("file", pe.File), slog.String("error", pe.Message))
			}

			result, err := extract(extractor.New(catalog), types.DeclKind(args[1]), args[2], typeName, withParents)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "owning type of a method or field")
	cmd.Flags().BoolVar(&withParents, "with-parents", false, "merge annotations of embedded parent types")
	cmd.Flags().BoolVar(&includeTests, "include-tests", false, "include _test.go files of the package")
	return cmd
}

func extract(ext *extractor.Extractor, kind types.DeclKind, name, typeName string, withParents bool) (annotation.Result, error) {
	switch kind {
	case types.KindFunction:
		return ext.FromFunction(name)
	case types.KindType:
		return ext.FromType(name, withParents)
	case types.KindMethod:
		return ext.FromMethod(name, typeName, withParents)
	case types.KindField:
		return ext.FromProperty(typeName, name)
	default:
		return annotation.Result{}, fmt.Errorf("invalid kind %q: want function, type, method or field", kind)
	}
}

// indexFlags are shared by index and watch
type indexFlags struct {
	includeTests  bool
	includeVendor bool
	withParents   bool
	force         bool
	workers       int
}

func (f *indexFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.includeTests, "include-tests", false, "index _test.go files")
	cmd.Flags().BoolVar(&f.includeVendor, "include-vendor", false, "index the vendor directory")
	cmd.Flags().BoolVar(&f.withParents, "with-parents", false, "store annotations merged with embedded parent types")
	cmd.Flags().BoolVar(&f.force, "force", false, "re-index every package ignoring file hashes")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "packages parsed concurrently (default: number of CPUs)")
}

func (f *indexFlags) config() *indexer.Config {
	return &indexer.Config{
		Workers:       f.workers,
		IncludeTests:  f.includeTests,
		IncludeVendor: f.includeVendor,
		WithParents:   f.withParents,
		Force:         f.force,
	}
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	flags := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index the annotations of a Go project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectPath(args)
			if err != nil {
				return err
			}
			store, err := opts.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx, stop := signalContext()
			defer stop()

			stats, err := indexer.New(store).WithLogger(opts.logger).IndexProject(ctx, root, flags.config())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printStats(w io.Writer, stats *indexer.Statistics) {
	fmt.Fprintf(w, "Packages: %d indexed, %d skipped\n", stats.PackagesIndexed, stats.PackagesSkipped)
	fmt.Fprintf(w, "Files: %d indexed, %d skipped, %d failed, %d removed\n",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.FilesRemoved)
	fmt.Fprintf(w, "Declarations: %d, annotations: %d\n", stats.DeclarationsStored, stats.AnnotationsStored)
	fmt.Fprintf(w, "Duration: %v\n", stats.Duration)
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
}

func newFindCmd(opts *rootOptions) *cobra.Command {
	var (
		path  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "find <name|@name>",
		Short: "List indexed declarations carrying an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectPath([]string{path})
			if err != nil {
				return err
			}
			store, err := opts.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			project, err := store.GetProject(ctx, root)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%s is not indexed; run docanno index first", root)
			}
			if err != nil {
				return err
			}

			name := strings.TrimPrefix(args[0], "@")
			matches, err := store.FindAnnotations(ctx, project.ID, name, limit)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No declarations carry @%s\n", name)
				return nil
			}
			return renderMatches(cmd.OutOrStdout(), matches)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "project root")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of results")
	return cmd
}

// renderMatches prints find results as a grid table
func renderMatches(w io.Writer, matches []storage.AnnotationMatch) error {
	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		value, err := json.Marshal(match.Annotation.Value())
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			match.FilePath + ":" + strconv.Itoa(match.Declaration.StartLine),
			match.Declaration.QualifiedName(),
			string(match.Declaration.Kind),
			string(value),
		})
	}

	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"Location", "Declaration", "Kind", "Value"})
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(60)
	_, err := fmt.Fprint(w, t.Render("grid"))
	return err
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	flags := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Index a project and re-index it whenever Go files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectPath(args)
			if err != nil {
				return err
			}
			store, err := opts.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx, stop := signalContext()
			defer stop()

			idx := indexer.New(store).WithLogger(opts.logger)
			config := flags.config()
			stats, err := idx.IndexProject(ctx, root, config)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)

			// Hashes decide what changed from here on
			config.Force = false
			w, err := watcher.New(root, watcher.Config{
				IncludeVendor: config.IncludeVendor,
				IncludeTests:  config.IncludeTests,
			}, func(ctx context.Context, files []string) error {
				stats, err := idx.IndexProject(ctx, root, config)
				if err != nil {
					return err
				}
				opts.logger.Info("re-indexed",
					slog.Int("changed", len(files)),
					slog.Int("packages", stats.PackagesIndexed),
					slog.Int("annotations", stats.AnnotationsStored))
				return nil
			}, opts.logger)
			if err != nil {
				return err
			}

			opts.logger.Info("watching", slog.String("root", root), slog.Int("dirs", len(w.Dirs())))
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "docanno MCP Server\n")
			fmt.Fprintf(w, "Version: %s\n", version)
			fmt.Fprintf(w, "Build Time: %s\n", buildTime)
			fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
		},
	}
}

// readInput reads the named file, or stdin for "-" or no argument
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
