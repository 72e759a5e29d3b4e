package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/docanno-mcp/internal/annotation"
	"github.com/dshills/docanno-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying indexed annotations
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Declaration operations
	InsertDeclaration(ctx context.Context, decl *Declaration) error
	ListDeclarationsByFile(ctx context.Context, fileID int64) ([]*Declaration, error)
	DeleteDeclarationsByFile(ctx context.Context, fileID int64) error
	FindDeclaration(ctx context.Context, projectID int64, kind types.DeclKind, owner, name string) (*Declaration, error)

	// Annotation operations
	InsertAnnotation(ctx context.Context, ann *Annotation) error
	ListAnnotations(ctx context.Context, declarationID int64) ([]*Annotation, error)
	FindAnnotations(ctx context.Context, projectID int64, name string, limit int) ([]AnnotationMatch, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents an indexed Go codebase
type Project struct {
	ID                int64
	RootPath          string
	ModuleName        string
	GoVersion         string
	TotalFiles        int
	TotalDeclarations int
	TotalAnnotations  int
	IndexVersion      string
	// WithParents records whether the last index merged embedded parents
	WithParents   bool
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a tracked Go source file
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string // Relative to project root
	PackageDir    string // Relative to project root, "." for the root package
	PackageName   string
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	ParseError    *string // Nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Declaration is a stored declaration with its raw doc comment
type Declaration struct {
	ID          int64
	FileID      int64
	Name        string
	Kind        types.DeclKind
	PackageName string
	Owner       string
	DocComment  string
	HasDoc      bool
	Embeds      []string
	Scope       types.DeclScope
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
	CreatedAt   time.Time
}

// Annotation is a single annotation value. Ordinal preserves document order
// across all values of one declaration.
type Annotation struct {
	ID            int64
	DeclarationID int64
	Name          string
	Ordinal       int
	Kind          annotation.Kind
	Text          string
	Args          annotation.Args
	CreatedAt     time.Time
}

// AnnotationMatch is a FindAnnotations hit joined with its declaration
type AnnotationMatch struct {
	Annotation  Annotation
	Declaration Declaration
	FilePath    string
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project           *Project
	FilesCount        int
	DeclarationsCount int
	DocumentedCount   int
	AnnotationsCount  int
	DistinctNames     int
	IndexSizeMB       float64
	LastIndexedAt     time.Time
	Health            HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	SchemaVersion      string
}

// QualifiedName returns "Owner::Name" for members and Name otherwise
func (d *Declaration) QualifiedName() string {
	if d.Owner != "" {
		return d.Owner + "::" + d.Name
	}
	return d.Name
}

// ToTypesDeclaration converts a stored declaration to types.Declaration
func (d *Declaration) ToTypesDeclaration(file string) types.Declaration {
	return types.Declaration{
		Name:       d.Name,
		Kind:       d.Kind,
		Package:    d.PackageName,
		File:       file,
		Owner:      d.Owner,
		DocComment: d.DocComment,
		HasDoc:     d.HasDoc,
		Embeds:     d.Embeds,
		Scope:      d.Scope,
		Start: types.Position{
			Line:   d.StartLine,
			Column: d.StartCol,
		},
		End: types.Position{
			Line:   d.EndLine,
			Column: d.EndCol,
		},
	}
}

// FromTypesDeclaration converts types.Declaration to a storage Declaration
func FromTypesDeclaration(d types.Declaration, fileID int64) *Declaration {
	return &Declaration{
		FileID:      fileID,
		Name:        d.Name,
		Kind:        d.Kind,
		PackageName: d.Package,
		Owner:       d.Owner,
		DocComment:  d.DocComment,
		HasDoc:      d.HasDoc,
		Embeds:      d.Embeds,
		Scope:       d.Scope,
		StartLine:   d.Start.Line,
		StartCol:    d.Start.Column,
		EndLine:     d.End.Line,
		EndCol:      d.End.Column,
	}
}

// AnnotationsFromResult flattens a parse result into rows, numbering values
// in name order then occurrence order
func AnnotationsFromResult(declarationID int64, result annotation.Result) []*Annotation {
	var rows []*Annotation
	ordinal := 0
	for _, name := range result.Names() {
		for _, value := range result.Get(name) {
			rows = append(rows, &Annotation{
				DeclarationID: declarationID,
				Name:          name,
				Ordinal:       ordinal,
				Kind:          value.Kind(),
				Text:          value.Text(),
				Args:          value.Args(),
			})
			ordinal++
		}
	}
	return rows
}

// ResultFromAnnotations rebuilds a parse result from rows sorted by ordinal
func ResultFromAnnotations(rows []*Annotation) annotation.Result {
	var result annotation.Result
	for _, row := range rows {
		result.Add(row.Name, row.Value())
	}
	return result
}

// Value converts the row back into an annotation value
func (a *Annotation) Value() annotation.Value {
	switch a.Kind {
	case annotation.KindString:
		return annotation.String(a.Text)
	case annotation.KindArgs:
		return annotation.ArgsValue(a.Args)
	default:
		return annotation.Bool()
	}
}

func encodeArgs(args annotation.Args) (*string, error) {
	if args == nil {
		return nil, nil
	}
	// Arg has plain struct json tags; Args.MarshalJSON is the presentation form
	data, err := json.Marshal([]annotation.Arg(args))
	if err != nil {
		return nil, fmt.Errorf("failed to encode args: %w", err)
	}
	s := string(data)
	return &s, nil
}

func decodeArgs(data *string) (annotation.Args, error) {
	if data == nil {
		return nil, nil
	}
	var args []annotation.Arg
	if err := json.Unmarshal([]byte(*data), &args); err != nil {
		return nil, fmt.Errorf("failed to decode args: %w", err)
	}
	return annotation.Args(args), nil
}

func encodeEmbeds(embeds []string) string {
	return strings.Join(embeds, ",")
}

func decodeEmbeds(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
