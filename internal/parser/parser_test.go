package parser

import (
	"go/ast"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/docanno-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findDecl(t *testing.T, result *types.ParseResult, kind types.DeclKind, qualified string) types.Declaration {
	t.Helper()
	for _, decl := range result.Declarations {
		if decl.Kind == kind && decl.QualifiedName() == qualified {
			return decl
		}
	}
	t.Fatalf("declaration %s %s not found", kind, qualified)
	return types.Declaration{}
}

func TestNew(t *testing.T) {
	p := New()
	assert.NotNil(t, p)
	assert.NotNil(t, p.fset)
}

func TestParseFile_ValidGoFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.go")

	content := `package testpkg

// User represents a user in the system
//
// @entity(table = users)
type User struct {
	// @column(name = id, primary)
	ID   int
	Name string
}

// GetName returns the user's name
// @deprecated
func (u *User) GetName() string {
	return u.Name
}

// NewUser creates a new user
func NewUser(id int, name string) *User {
	return &User{ID: id, Name: name}
}
`

	err := os.WriteFile(testFile, []byte(content), 0644)
	require.NoError(t, err)

	p := New()
	result, err := p.ParseFile(testFile)

	require.NoError(t, err)
	assert.Equal(t, "testpkg", result.PackageName)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Declarations, 5)

	user := findDecl(t, result, types.KindType, "User")
	assert.True(t, user.HasDoc)
	assert.Equal(t, " User represents a user in the system\n\n @entity(table = users)\n", user.DocComment)
	assert.Equal(t, testFile, user.File)
	assert.Equal(t, types.ScopeExported, user.Scope)
	assert.Equal(t, 6, user.Start.Line)

	id := findDecl(t, result, types.KindField, "User::ID")
	assert.Equal(t, " @column(name = id, primary)\n", id.DocComment)

	name := findDecl(t, result, types.KindField, "User::Name")
	assert.False(t, name.HasDoc)
	assert.Empty(t, name.DocComment)

	getName := findDecl(t, result, types.KindMethod, "User::GetName")
	assert.Equal(t, "User", getName.Owner)
	assert.Equal(t, " GetName returns the user's name\n @deprecated\n", getName.DocComment)

	newUser := findDecl(t, result, types.KindFunction, "NewUser")
	assert.True(t, newUser.HasDoc)

	for _, decl := range result.Declarations {
		assert.NoError(t, decl.Validate(), decl.QualifiedName())
	}
}

func TestParseSource_BlockComments(t *testing.T) {
	src := `package testpkg

/**
 * @author angus
 *
 * @test ( comment=1 )
 */
func test() {}
`

	p := New()
	result, err := p.ParseSource("block.go", []byte(src))
	require.NoError(t, err)

	decl := findDecl(t, result, types.KindFunction, "test")
	assert.Equal(t, "/**\n * @author angus\n *\n * @test ( comment=1 )\n */\n", decl.DocComment)
	assert.Equal(t, types.ScopeUnexported, decl.Scope)
}

func TestParseSource_EmbeddedTypes(t *testing.T) {
	src := `package testpkg

import "io"

type A struct{}

type B struct {
	*A
	io.Reader
	name string
}

type List[T any] struct{}

type C struct {
	List[int]
	B
}

type RW interface {
	io.Reader
	// Flush drains buffers
	// @blocking
	Flush() error
}
`

	p := New()
	result, err := p.ParseSource("embed.go", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "io.Reader"}, findDecl(t, result, types.KindType, "B").Embeds)
	assert.Equal(t, []string{"List", "B"}, findDecl(t, result, types.KindType, "C").Embeds)
	assert.Equal(t, []string{"io.Reader"}, findDecl(t, result, types.KindType, "RW").Embeds)
	assert.Nil(t, findDecl(t, result, types.KindType, "A").Embeds)

	flush := findDecl(t, result, types.KindMethod, "RW::Flush")
	assert.Equal(t, " Flush drains buffers\n @blocking\n", flush.DocComment)
}

func TestParseSource_GroupedTypeDocs(t *testing.T) {
	src := `package testpkg

// @group
type (
	// @first
	First struct{}

	Second struct{}
)

// @lone
type Lone int
`

	p := New()
	result, err := p.ParseSource("group.go", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, " @first\n", findDecl(t, result, types.KindType, "First").DocComment)
	assert.False(t, findDecl(t, result, types.KindType, "Second").HasDoc)
	assert.Equal(t, " @lone\n", findDecl(t, result, types.KindType, "Lone").DocComment)
}

func TestParseSource_GenericReceiver(t *testing.T) {
	src := `package testpkg

type Box[T any] struct{ v T }

// @getter
func (b *Box[T]) Get() T { return b.v }
`

	p := New()
	result, err := p.ParseSource("generic.go", []byte(src))
	require.NoError(t, err)

	get := findDecl(t, result, types.KindMethod, "Box::Get")
	assert.Equal(t, "Box", get.Owner)
}

func TestParseFile_SyntaxError(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "invalid.go")

	content := `package main

// @ok
func fine() {}

func incomplete( {
	// Missing closing parenthesis
}
`

	err := os.WriteFile(testFile, []byte(content), 0644)
	require.NoError(t, err)

	p := New()
	result, err := p.ParseFile(testFile)

	// Parser should not return error, but result should have errors
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0].Message, "syntax error")
	assert.Equal(t, "main", result.PackageName)
}

func TestParseFile_NonExistentFile(t *testing.T) {
	p := New()
	_, err := p.ParseFile("/nonexistent/file.go")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestParseFile_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "empty.go")

	err := os.WriteFile(testFile, []byte(""), 0644)
	require.NoError(t, err)

	p := New()
	result, err := p.ParseFile(testFile)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Errors) // Empty file is a syntax error
	assert.Empty(t, result.Declarations)
}

func TestParseSource_SkipsConstAndVar(t *testing.T) {
	src := `package testpkg

// @ignored
const Max = 1

// @ignored
var Name = "x"
`

	p := New()
	result, err := p.ParseSource("values.go", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, result.Declarations)
}

func TestRawDocComment(t *testing.T) {
	text, ok := rawDocComment(nil)
	assert.False(t, ok)
	assert.Empty(t, text)

	text, ok = rawDocComment(&ast.CommentGroup{List: []*ast.Comment{
		{Text: "//"},
		{Text: "// @a"},
		{Text: "/* @b */"},
	}})
	assert.True(t, ok)
	assert.Equal(t, "\n @a\n/* @b */\n", text)
}
