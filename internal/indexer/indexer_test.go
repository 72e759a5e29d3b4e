package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docanno-mcp/internal/annotation"
	"github.com/dshills/docanno-mcp/internal/storage"
	"github.com/dshills/docanno-mcp/pkg/types"
)

const modelsSource = `package models

// Base is the common parent
//
// @version 1
type Base struct{}

// @tx
func (Base) Save() {}

// User is a user
//
// @entity(table = users)
type User struct {
	Base
	// @column(primary)
	ID int
}

// @factory
func NewUser() *User { return nil }
`

// setupTestStorage creates an in-memory SQLite database for testing
func setupTestStorage(t testing.TB) storage.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "Failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// createTestFile creates a temporary Go file for testing
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

func createModelsProject(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	createTestFile(t, dir, "go.mod", "module example.com/shop\n\ngo 1.22\n")
	createTestFile(t, dir, "models/models.go", modelsSource)
	return dir
}

// annotationsOf loads the stored annotations of one declaration
func annotationsOf(t *testing.T, store storage.Storage, rootPath string, kind types.DeclKind, owner, name string) annotation.Result {
	t.Helper()
	ctx := context.Background()

	project, err := store.GetProject(ctx, rootPath)
	require.NoError(t, err)
	decl, err := store.FindDeclaration(ctx, project.ID, kind, owner, name)
	require.NoError(t, err)
	rows, err := store.ListAnnotations(ctx, decl.ID)
	require.NoError(t, err)
	return storage.ResultFromAnnotations(rows)
}

func TestNew(t *testing.T) {
	store := setupTestStorage(t)

	idx := New(store)
	require.NotNil(t, idx)
	assert.Equal(t, runtime.NumCPU(), idx.workers)
	assert.NotNil(t, idx.logger)
	assert.Same(t, idx, idx.WithLogger(nil))
}

func TestDiscoverPackages(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "main.go", "package main\n")
	createTestFile(t, dir, "main_test.go", "package main\n")
	createTestFile(t, dir, "README.md", "# readme\n")
	createTestFile(t, dir, "pkg/a/a.go", "package a\n")
	createTestFile(t, dir, "pkg/a/b.go", "package a\n")
	createTestFile(t, dir, "vendor/dep/dep.go", "package dep\n")
	createTestFile(t, dir, ".git/hook.go", "package hook\n")
	createTestFile(t, dir, "pkg/a/testdata/fixture.go", "package fixture\n")

	dirsOf := func(packages []goPackage) []string {
		dirs := make([]string, 0, len(packages))
		for _, pkg := range packages {
			dirs = append(dirs, pkg.Dir)
		}
		return dirs
	}

	tests := []struct {
		name      string
		config    Config
		wantDirs  []string
		wantFiles int
	}{
		{"defaults", Config{}, []string{".", "pkg/a"}, 3},
		{"include tests", Config{IncludeTests: true}, []string{".", "pkg/a"}, 4},
		{"include vendor", Config{IncludeVendor: true}, []string{".", "pkg/a", "vendor/dep"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packages, err := discoverPackages(dir, &tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDirs, dirsOf(packages))

			total := 0
			for _, pkg := range packages {
				total += len(pkg.Files)
			}
			assert.Equal(t, tt.wantFiles, total)
		})
	}

	packages, err := discoverPackages(dir, &Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "pkg/a/a.go"), filepath.Join(dir, "pkg/a/b.go")}, packages[1].Files)
}

func TestComputeFileHash(t *testing.T) {
	dir := t.TempDir()
	a := createTestFile(t, dir, "a.go", "package a\n")
	b := createTestFile(t, dir, "b.go", "package b\n")

	hashA, _, size, err := computeFileHash(a)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	again, _, _, err := computeFileHash(a)
	require.NoError(t, err)
	assert.Equal(t, hashA, again)

	hashB, _, _, err := computeFileHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)

	_, _, _, err = computeFileHash(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func TestParseGoMod(t *testing.T) {
	dir := t.TempDir()
	path := createTestFile(t, dir, "go.mod", "module github.com/test/project\n\ngo 1.21\n\nrequire github.com/stretchr/testify v1.9.0\n")

	info, err := parseGoMod(path)
	require.NoError(t, err)
	assert.Equal(t, "github.com/test/project", info.Module)
	assert.Equal(t, "1.21", info.GoVersion)

	_, err = parseGoMod(filepath.Join(dir, "missing.mod"))
	assert.Error(t, err)
}

func TestIndexProject_Success(t *testing.T) {
	dir := createModelsProject(t)
	store := setupTestStorage(t)
	ctx := context.Background()

	stats, err := New(store).IndexProject(ctx, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PackagesIndexed)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
	// Base, Base::Save, User, User::ID, NewUser
	assert.Equal(t, 5, stats.DeclarationsStored)
	assert.Equal(t, 5, stats.AnnotationsStored)
	assert.Empty(t, stats.ErrorMessages)

	project, err := store.GetProject(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", project.ModuleName)
	assert.Equal(t, "1.22", project.GoVersion)
	assert.Equal(t, 1, project.TotalFiles)
	assert.Equal(t, 5, project.TotalDeclarations)
	assert.Equal(t, 5, project.TotalAnnotations)
	assert.False(t, project.LastIndexedAt.IsZero())

	file, err := store.GetFile(ctx, project.ID, "models/models.go")
	require.NoError(t, err)
	assert.Equal(t, "models", file.PackageDir)
	assert.Equal(t, "models", file.PackageName)
	assert.Nil(t, file.ParseError)

	user := annotationsOf(t, store, dir, types.KindType, "", "User")
	assert.True(t, user.Has("entity"))
	assert.False(t, user.Has("version"), "parents are not merged by default")

	entity, ok := user.First("entity")
	require.True(t, ok)
	table, ok := entity.Args().Get("table")
	require.True(t, ok)
	assert.Equal(t, "users", table)

	column := annotationsOf(t, store, dir, types.KindField, "User", "ID")
	assert.True(t, column.Has("column"))

	factory := annotationsOf(t, store, dir, types.KindFunction, "", "NewUser")
	assert.True(t, factory.Has("factory"))
}

func TestIndexProject_WithParents(t *testing.T) {
	dir := createModelsProject(t)
	store := setupTestStorage(t)
	ctx := context.Background()
	idx := New(store)

	stats, err := idx.IndexProject(ctx, dir, &Config{WithParents: true})
	require.NoError(t, err)
	assert.Equal(t, 6, stats.AnnotationsStored)

	user := annotationsOf(t, store, dir, types.KindType, "", "User")
	assert.Equal(t, []string{"version", "entity"}, user.Names())

	project, err := store.GetProject(ctx, dir)
	require.NoError(t, err)
	assert.True(t, project.WithParents)

	// Switching the mode back re-indexes even though nothing changed on disk
	stats, err = idx.IndexProject(ctx, dir, &Config{WithParents: false})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PackagesIndexed)
	assert.Equal(t, 0, stats.PackagesSkipped)

	user = annotationsOf(t, store, dir, types.KindType, "", "User")
	assert.Equal(t, []string{"entity"}, user.Names())
}

func TestIndexProject_EmptyProject(t *testing.T) {
	dir := t.TempDir()
	store := setupTestStorage(t)

	stats, err := New(store).IndexProject(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PackagesIndexed)
	assert.Equal(t, 0, stats.FilesIndexed)
}

func TestIndexProject_IncrementalUpdate(t *testing.T) {
	dir := createModelsProject(t)
	createTestFile(t, dir, "util/util.go", "package util\n\n// @helper\nfunc Help() {}\n")
	store := setupTestStorage(t)
	ctx := context.Background()
	idx := New(store)

	stats, err := idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PackagesIndexed)

	// Nothing changed: every package is skipped
	stats, err = idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PackagesIndexed)
	assert.Equal(t, 2, stats.PackagesSkipped)
	assert.Equal(t, 2, stats.FilesSkipped)

	// Only the modified package is re-indexed
	createTestFile(t, dir, "util/util.go", "package util\n\n// @helper(fast)\nfunc Help() {}\n")
	stats, err = idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PackagesIndexed)
	assert.Equal(t, 1, stats.PackagesSkipped)

	helper := annotationsOf(t, store, dir, types.KindFunction, "", "Help")
	value, ok := helper.First("helper")
	require.True(t, ok)
	assert.Equal(t, annotation.KindArgs, value.Kind())
	assert.Equal(t, []string{"fast"}, value.Args().Positional())

	// Force re-indexes everything
	stats, err = idx.IndexProject(ctx, dir, &Config{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PackagesIndexed)
	assert.Equal(t, 0, stats.PackagesSkipped)
}

func TestIndexProject_NewFileInPackage(t *testing.T) {
	dir := createModelsProject(t)
	store := setupTestStorage(t)
	ctx := context.Background()
	idx := New(store)

	_, err := idx.IndexProject(ctx, dir, &Config{WithParents: true})
	require.NoError(t, err)

	// A parent defined in a new file changes the merged annotations of User
	createTestFile(t, dir, "models/admin.go", "package models\n\n// @role(admin)\ntype Admin struct{ User }\n")
	stats, err := idx.IndexProject(ctx, dir, &Config{WithParents: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PackagesIndexed)
	assert.Equal(t, 2, stats.FilesIndexed)

	admin := annotationsOf(t, store, dir, types.KindType, "", "Admin")
	assert.Equal(t, []string{"version", "entity", "role"}, admin.Names())
}

func TestIndexProject_RemovedFiles(t *testing.T) {
	dir := createModelsProject(t)
	extra := createTestFile(t, dir, "models/extra.go", "package models\n\n// @extra\nfunc Extra() {}\n")
	store := setupTestStorage(t)
	ctx := context.Background()
	idx := New(store)

	_, err := idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(extra))
	stats, err := idx.IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRemoved)
	assert.Equal(t, 1, stats.PackagesIndexed, "a package losing a file is re-indexed")

	project, err := store.GetProject(ctx, dir)
	require.NoError(t, err)
	_, err = store.GetFile(ctx, project.ID, "models/extra.go")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.FindDeclaration(ctx, project.ID, types.KindFunction, "", "Extra")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, project.TotalFiles)
}

func TestIndexProject_WithParseErrors(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "good.go", "package main\n\n// @ok\nfunc Good() {}\n")
	createTestFile(t, dir, "bad.go", "package main\n\n// @broken\nfunc Bad( {\n")
	store := setupTestStorage(t)
	ctx := context.Background()

	stats, err := New(store).IndexProject(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)

	project, err := store.GetProject(ctx, dir)
	require.NoError(t, err)

	bad, err := store.GetFile(ctx, project.ID, "bad.go")
	require.NoError(t, err)
	require.NotNil(t, bad.ParseError)
	assert.NotEmpty(t, *bad.ParseError)

	good := annotationsOf(t, store, dir, types.KindFunction, "", "Good")
	assert.True(t, good.Has("ok"))
}

func TestIndexProject_ExternalTestPackage(t *testing.T) {
	dir := t.TempDir()
	createTestFile(t, dir, "lib.go", "package lib\n\n// @lib\ntype Thing struct{}\n")
	createTestFile(t, dir, "lib_test.go", "package lib_test\n\n// @fixture\ntype Thing struct{}\n")
	store := setupTestStorage(t)
	ctx := context.Background()

	stats, err := New(store).IndexProject(ctx, dir, &Config{IncludeTests: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Empty(t, stats.ErrorMessages)

	project, err := store.GetProject(ctx, dir)
	require.NoError(t, err)
	testFile, err := store.GetFile(ctx, project.ID, "lib_test.go")
	require.NoError(t, err)
	assert.Equal(t, "lib_test", testFile.PackageName)

	decls, err := store.ListDeclarationsByFile(ctx, testFile.ID)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	rows, err := store.ListAnnotations(ctx, decls[0].ID)
	require.NoError(t, err)
	assert.True(t, storage.ResultFromAnnotations(rows).Has("fixture"))
}

func TestIndexProject_ConcurrentCalls(t *testing.T) {
	dir := createModelsProject(t)
	store := setupTestStorage(t)
	idx := New(store)

	// Simulate a run in flight
	require.True(t, idx.lock.TryAcquire())
	_, err := idx.IndexProject(context.Background(), dir, nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)

	idx.lock.Release()
	_, err = idx.IndexProject(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.False(t, idx.lock.Held())
}

func TestIndexProject_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		createTestFile(t, dir, fmt.Sprintf("pkg%d/file.go", i),
			fmt.Sprintf("package pkg%d\n\n// @n(%d)\nfunc Func() {}\n", i, i))
	}
	store := setupTestStorage(t)
	idx := New(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.IndexProject(ctx, dir, &Config{Workers: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, idx.lock.Held(), "lock is released on failure")
}

func TestIndexProject_WorkerConcurrency(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		createTestFile(t, dir, fmt.Sprintf("pkg%d/file.go", i),
			fmt.Sprintf("package pkg%d\n\n// @n(%d)\nfunc Func() {}\n", i, i))
	}

	for _, workers := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			store := setupTestStorage(t)
			stats, err := New(store).IndexProject(context.Background(), dir, &Config{Workers: workers})
			require.NoError(t, err)
			assert.Equal(t, 12, stats.PackagesIndexed)
			assert.Equal(t, 12, stats.AnnotationsStored)
		})
	}
}

func TestGetOrCreateProject(t *testing.T) {
	dir := createModelsProject(t)
	store := setupTestStorage(t)
	ctx := context.Background()
	idx := New(store)

	created, err := idx.getOrCreateProject(ctx, dir, &Config{WithParents: true})
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.True(t, created.WithParents)
	assert.Equal(t, storage.CurrentSchemaVersion, created.IndexVersion)

	existing, err := idx.getOrCreateProject(ctx, dir, &Config{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, existing.ID)
	assert.True(t, existing.WithParents, "stored mode is kept until the next run")
}
