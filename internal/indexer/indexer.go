package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docanno-mcp/internal/extractor"
	"github.com/dshills/docanno-mcp/internal/parser"
	"github.com/dshills/docanno-mcp/internal/storage"
	"github.com/dshills/docanno-mcp/pkg/types"
)

// ErrIndexingInProgress is returned when IndexProject is called while another
// run on the same Indexer has not finished
var ErrIndexingInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: parse -> extract -> store
type Indexer struct {
	storage storage.Storage
	logger  *slog.Logger
	lock    IndexLock

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers       int  // Number of packages parsed concurrently (default: runtime.NumCPU())
	IncludeTests  bool // Whether to index test files
	IncludeVendor bool // Whether to index vendor directory (default: false)
	WithParents   bool // Merge doc comments of embedded parents for types and methods
	Force         bool // Re-index packages even when no file changed
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	PackagesIndexed    int
	PackagesSkipped    int
	FilesIndexed       int
	FilesSkipped       int
	FilesFailed        int
	FilesRemoved       int
	DeclarationsStored int
	AnnotationsStored  int
	Duration           time.Duration
	ErrorMessages      []string
}

// New creates a new Indexer instance
func New(store storage.Storage) *Indexer {
	return &Indexer{
		storage: store,
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
	}
}

// WithLogger sets the logger used for progress and per-file failures
func (idx *Indexer) WithLogger(logger *slog.Logger) *Indexer {
	if logger != nil {
		idx.logger = logger
	}
	return idx
}

// IndexProject indexes every package of a Go project
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{
			Workers:       runtime.NumCPU(),
			IncludeTests:  false,
			IncludeVendor: false,
		}
	}

	workers := config.Workers
	if workers <= 0 {
		workers = idx.workers
	}

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	project, err := idx.getOrCreateProject(ctx, rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	packages, err := discoverPackages(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	existing, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed files: %w", err)
	}
	known := make(map[string]*storage.File, len(existing))
	for _, file := range existing {
		known[file.FilePath] = file
	}

	// A change of merge mode invalidates every stored annotation
	force := config.Force || project.WithParents != config.WithParents

	idx.logger.Info("indexing project",
		slog.String("root", rootPath),
		slog.Int("packages", len(packages)),
		slog.Int("workers", workers),
		slog.Bool("force", force))

	if err := idx.indexPackages(ctx, project, packages, known, config.WithParents, force, workers, stats); err != nil {
		return nil, fmt.Errorf("failed to index packages: %w", err)
	}

	if err := idx.removeStaleFiles(ctx, project, packages, known, stats); err != nil {
		return nil, fmt.Errorf("failed to remove deleted files: %w", err)
	}

	project.WithParents = config.WithParents
	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	idx.logger.Info("indexing complete",
		slog.Int("packages_indexed", stats.PackagesIndexed),
		slog.Int("packages_skipped", stats.PackagesSkipped),
		slog.Int("annotations", stats.AnnotationsStored),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string, config *Config) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}

	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
		WithParents:  config.WithParents,
	}

	// Try to extract module info from go.mod
	if modInfo, err := parseGoMod(filepath.Join(rootPath, "go.mod")); err == nil {
		project.ModuleName = modInfo.Module
		project.GoVersion = modInfo.GoVersion
	}

	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// goPackage is one directory of Go files
type goPackage struct {
	Dir   string   // Relative to project root, "." for the root
	Files []string // Absolute paths, sorted
}

// discoverPackages finds all Go files in the project grouped by directory
func discoverPackages(rootPath string, config *Config) ([]goPackage, error) {
	byDir := make(map[string][]string)

	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == rootPath {
				return nil
			}
			// Skip vendor unless explicitly included
			if !config.IncludeVendor && d.Name() == "vendor" {
				return filepath.SkipDir
			}
			// Skip hidden directories and testdata
			if strings.HasPrefix(d.Name(), ".") || d.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		// Skip test files unless explicitly included
		if !config.IncludeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(rootPath, filepath.Dir(path))
		if err != nil {
			return err
		}
		dir := filepath.ToSlash(rel)
		byDir[dir] = append(byDir[dir], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	packages := make([]goPackage, 0, len(byDir))
	for dir, files := range byDir {
		sort.Strings(files)
		packages = append(packages, goPackage{Dir: dir, Files: files})
	}
	sort.Slice(packages, func(i, j int) bool { return packages[i].Dir < packages[j].Dir })
	return packages, nil
}

// indexPackages parses packages concurrently; each package is written in
// its own transaction
func (idx *Indexer) indexPackages(ctx context.Context, project *storage.Project, packages []goPackage,
	known map[string]*storage.File, withParents, force bool, workers int, stats *Statistics) error {

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var mu sync.Mutex // Protects stats

	for _, pkg := range packages {
		g.Go(func() error {
			result, err := idx.indexPackage(gctx, project, pkg, known, withParents, force)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			result.addTo(stats)
			return nil
		})
	}

	return g.Wait()
}

// packageResult collects the outcome of one package
type packageResult struct {
	skipped      bool
	indexed      int
	skippedFiles int
	failed       int
	declarations int
	annotations  int
	errors       []string
}

func (r *packageResult) addTo(stats *Statistics) {
	if r.skipped {
		stats.PackagesSkipped++
	} else {
		stats.PackagesIndexed++
	}
	stats.FilesIndexed += r.indexed
	stats.FilesSkipped += r.skippedFiles
	stats.FilesFailed += r.failed
	stats.DeclarationsStored += r.declarations
	stats.AnnotationsStored += r.annotations
	stats.ErrorMessages = append(stats.ErrorMessages, r.errors...)
}

func (r *packageResult) fail(path string, err error) {
	r.failed++
	r.errors = append(r.errors, fmt.Sprintf("%s: %v", path, err))
}

// sourceFile is a discovered file with its content hash
type sourceFile struct {
	absPath   string
	relPath   string
	hash      [32]byte
	modTime   time.Time
	sizeBytes int64
}

// indexPackage re-indexes a package when any of its files changed. Parent
// merging crosses file boundaries, so the package is the unit of work.
func (idx *Indexer) indexPackage(ctx context.Context, project *storage.Project, pkg goPackage,
	known map[string]*storage.File, withParents, force bool) (*packageResult, error) {

	result := &packageResult{}

	files := make([]sourceFile, 0, len(pkg.Files))
	for _, path := range pkg.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		relPath, err := filepath.Rel(project.RootPath, path)
		if err != nil {
			result.fail(path, err)
			continue
		}
		hash, modTime, sizeBytes, err := computeFileHash(path)
		if err != nil {
			idx.logger.Warn("failed to read file", slog.String("file", path), slog.Any("error", err))
			result.fail(path, err)
			continue
		}
		files = append(files, sourceFile{
			absPath:   path,
			relPath:   filepath.ToSlash(relPath),
			hash:      hash,
			modTime:   modTime,
			sizeBytes: sizeBytes,
		})
	}

	if !force && packageUnchanged(pkg.Dir, files, known) {
		result.skipped = true
		result.skippedFiles = len(files)
		return result, nil
	}

	// Parse every file; files of an external test package get their own catalog
	p := parser.New()
	parsed := make([]*types.ParseResult, len(files))
	byPackage := make(map[string][]*types.ParseResult)
	for i, file := range files {
		res, err := p.ParseFile(file.absPath)
		if err != nil {
			result.fail(file.relPath, err)
			continue
		}
		parsed[i] = res
		byPackage[res.PackageName] = append(byPackage[res.PackageName], res)
	}

	extractors := make(map[string]*extractor.Extractor, len(byPackage))
	for name, results := range byPackage {
		extractors[name] = extractor.New(parser.NewCatalog(results...))
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, file := range files {
		res := parsed[i]
		if res == nil {
			continue
		}

		record := &storage.File{
			ProjectID:   project.ID,
			FilePath:    file.relPath,
			PackageDir:  pkg.Dir,
			PackageName: res.PackageName,
			ContentHash: file.hash,
			ModTime:     file.modTime,
			SizeBytes:   file.sizeBytes,
		}
		if len(res.Errors) > 0 {
			errMsg := res.Errors[0].Message
			record.ParseError = &errMsg
		}

		if err := tx.UpsertFile(ctx, record); err != nil {
			return nil, err
		}
		if err := tx.DeleteDeclarationsByFile(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("failed to delete old declarations: %w", err)
		}

		ext := extractors[res.PackageName]
		for _, decl := range res.Declarations {
			anns := ext.Declaration(decl, withParents)

			stored := storage.FromTypesDeclaration(decl, record.ID)
			if err := tx.InsertDeclaration(ctx, stored); err != nil {
				return nil, err
			}
			result.declarations++

			for _, row := range storage.AnnotationsFromResult(stored.ID, anns) {
				if err := tx.InsertAnnotation(ctx, row); err != nil {
					return nil, err
				}
				result.annotations++
			}
		}
		result.indexed++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	idx.logger.Debug("indexed package",
		slog.String("dir", pkg.Dir),
		slog.Int("files", result.indexed),
		slog.Int("declarations", result.declarations),
		slog.Int("annotations", result.annotations))
	return result, nil
}

// packageUnchanged reports whether every file of the package is stored with
// the same hash and no stored file of the package has disappeared
func packageUnchanged(dir string, files []sourceFile, known map[string]*storage.File) bool {
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		stored, ok := known[file.relPath]
		if !ok || stored.ContentHash != file.hash {
			return false
		}
		seen[file.relPath] = true
	}
	for path, stored := range known {
		if stored.PackageDir == dir && !seen[path] {
			return false
		}
	}
	return true
}

// removeStaleFiles deletes stored files that no longer exist in the project
func (idx *Indexer) removeStaleFiles(ctx context.Context, project *storage.Project, packages []goPackage,
	known map[string]*storage.File, stats *Statistics) error {

	present := make(map[string]bool)
	for _, pkg := range packages {
		for _, path := range pkg.Files {
			if rel, err := filepath.Rel(project.RootPath, path); err == nil {
				present[filepath.ToSlash(rel)] = true
			}
		}
	}

	var stale []*storage.File
	for path, file := range known {
		if !present[path] {
			stale = append(stale, file)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, file := range stale {
		if err := tx.DeleteFile(ctx, file.ID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	stats.FilesRemoved = len(stale)
	return nil
}

// updateProjectStats updates the project's stored totals
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.TotalFiles = status.FilesCount
	project.TotalDeclarations = status.DeclarationsCount
	project.TotalAnnotations = status.AnnotationsCount
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// computeFileHash computes SHA-256 hash of a file
func computeFileHash(filePath string) ([32]byte, time.Time, int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	var result [32]byte
	copy(result[:], hash.Sum(nil))

	return result, info.ModTime(), info.Size(), nil
}

// goModInfo contains parsed go.mod information
type goModInfo struct {
	Module    string
	GoVersion string
}

// parseGoMod extracts the module path and go directive from a go.mod file
func parseGoMod(goModPath string) (*goModInfo, error) {
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, err
	}

	f, err := modfile.ParseLax(goModPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}

	info := &goModInfo{}
	if f.Module != nil {
		info.Module = f.Module.Mod.Path
	}
	if f.Go != nil {
		info.GoVersion = f.Go.Version
	}
	return info, nil
}
