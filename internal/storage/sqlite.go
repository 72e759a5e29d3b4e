package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/docanno-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

const projectColumns = `id, root_path, module_name, go_version, total_files, total_declarations,
		       total_annotations, index_version, with_parents, last_indexed_at, created_at, updated_at`

func scanProject(row scanner) (*Project, error) {
	var project Project
	var moduleName, goVersion sql.NullString
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &moduleName, &goVersion,
		&project.TotalFiles, &project.TotalDeclarations, &project.TotalAnnotations,
		&project.IndexVersion, &project.WithParents,
		&lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	project.ModuleName = moduleName.String
	project.GoVersion = goVersion.String
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

// createProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, module_name, go_version, index_version, with_parents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.RootPath, project.ModuleName, project.GoVersion,
		project.IndexVersion, project.WithParents, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

// getProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

// getProjectByID retrieves a project by ID
func (s *SQLiteStorage) getProjectByID(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

// updateProjectWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET module_name = ?, go_version = ?, total_files = ?, total_declarations = ?,
		    total_annotations = ?, index_version = ?, with_parents = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		project.ModuleName, project.GoVersion, project.TotalFiles, project.TotalDeclarations,
		project.TotalAnnotations, project.IndexVersion, project.WithParents,
		project.LastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// File operations

const fileColumns = `id, project_id, file_path, package_dir, package_name, content_hash, mod_time,
		       size_bytes, parse_error, last_indexed_at, created_at, updated_at`

func scanFile(row scanner) (*File, error) {
	var file File
	var hash []byte
	var packageName, parseError sql.NullString
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &file.PackageDir, &packageName,
		&hash, &file.ModTime, &file.SizeBytes, &parseError,
		&file.LastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	file.PackageName = packageName.String
	copy(file.ContentHash[:], hash)
	if parseError.Valid {
		file.ParseError = &parseError.String
	}
	return &file, nil
}

// upsertFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, package_dir, package_name, content_hash, mod_time, size_bytes, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			package_dir = excluded.package_dir,
			package_name = excluded.package_name,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.PackageDir, file.PackageName, file.ContentHash[:],
		file.ModTime, file.SizeBytes, file.ParseError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

// getFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

// deleteFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM files WHERE id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

// listFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// Declaration operations

const declarationColumns = `d.id, d.file_id, d.name, d.kind, d.package_name, d.owner, d.doc_comment,
		       d.has_doc, d.embeds, d.scope, d.start_line, d.start_col, d.end_line, d.end_col, d.created_at`

func scanDeclaration(row scanner, extra ...interface{}) (*Declaration, error) {
	var decl Declaration
	var docComment, embeds, scope sql.NullString
	dest := []interface{}{
		&decl.ID, &decl.FileID, &decl.Name, &decl.Kind, &decl.PackageName, &decl.Owner,
		&docComment, &decl.HasDoc, &embeds, &scope,
		&decl.StartLine, &decl.StartCol, &decl.EndLine, &decl.EndCol, &decl.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	decl.DocComment = docComment.String
	decl.Embeds = decodeEmbeds(embeds.String)
	decl.Scope = types.DeclScope(scope.String)
	return &decl, nil
}

// insertDeclarationWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertDeclarationWithQuerier(ctx context.Context, q querier, decl *Declaration) error {
	query := `
		INSERT INTO declarations (
			file_id, name, kind, package_name, owner, doc_comment, has_doc, embeds, scope,
			start_line, start_col, end_line, end_col, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		decl.FileID, decl.Name, decl.Kind, decl.PackageName, decl.Owner,
		decl.DocComment, decl.HasDoc, encodeEmbeds(decl.Embeds), decl.Scope,
		decl.StartLine, decl.StartCol, decl.EndLine, decl.EndCol, now,
	).Scan(&decl.ID)
	if err != nil {
		return fmt.Errorf("failed to insert declaration: %w", err)
	}
	decl.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertDeclaration(ctx context.Context, decl *Declaration) error {
	return s.insertDeclarationWithQuerier(ctx, s.querier(), decl)
}

// listDeclarationsByFileWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listDeclarationsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Declaration, error) {
	query := `SELECT ` + declarationColumns + ` FROM declarations d WHERE d.file_id = ? ORDER BY d.start_line, d.start_col`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	decls := make([]*Declaration, 0)
	for rows.Next() {
		decl, err := scanDeclaration(rows)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, rows.Err()
}

func (s *SQLiteStorage) ListDeclarationsByFile(ctx context.Context, fileID int64) ([]*Declaration, error) {
	return s.listDeclarationsByFileWithQuerier(ctx, s.querier(), fileID)
}

// deleteDeclarationsByFileWithQuerier removes declarations and, by cascade,
// their annotations
func (s *SQLiteStorage) deleteDeclarationsByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	query := `DELETE FROM declarations WHERE file_id = ?`
	_, err := q.ExecContext(ctx, query, fileID)
	return err
}

func (s *SQLiteStorage) DeleteDeclarationsByFile(ctx context.Context, fileID int64) error {
	return s.deleteDeclarationsByFileWithQuerier(ctx, s.querier(), fileID)
}

// findDeclarationWithQuerier looks a declaration up by kind, owner and name.
// When several packages declare the same name the first by file path wins.
func (s *SQLiteStorage) findDeclarationWithQuerier(ctx context.Context, q querier, projectID int64, kind types.DeclKind, owner, name string) (*Declaration, error) {
	query := `
		SELECT ` + declarationColumns + `
		FROM declarations d
		JOIN files f ON d.file_id = f.id
		WHERE f.project_id = ? AND d.kind = ? AND d.owner = ? AND d.name = ?
		ORDER BY f.file_path, d.start_line
		LIMIT 1
	`
	return scanDeclaration(q.QueryRowContext(ctx, query, projectID, kind, owner, name))
}

func (s *SQLiteStorage) FindDeclaration(ctx context.Context, projectID int64, kind types.DeclKind, owner, name string) (*Declaration, error) {
	return s.findDeclarationWithQuerier(ctx, s.querier(), projectID, kind, owner, name)
}

// Annotation operations

func scanAnnotation(row scanner, ann *Annotation) error {
	var text, argsJSON sql.NullString
	err := row.Scan(
		&ann.ID, &ann.DeclarationID, &ann.Name, &ann.Ordinal, &ann.Kind,
		&text, &argsJSON, &ann.CreatedAt,
	)
	if err != nil {
		return err
	}
	ann.Text = text.String
	if argsJSON.Valid {
		ann.Args, err = decodeArgs(&argsJSON.String)
	}
	return err
}

// insertAnnotationWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertAnnotationWithQuerier(ctx context.Context, q querier, ann *Annotation) error {
	argsJSON, err := encodeArgs(ann.Args)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO annotations (declaration_id, name, ordinal, value_kind, value_text, args_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		ann.DeclarationID, ann.Name, ann.Ordinal, ann.Kind, ann.Text, argsJSON, now,
	).Scan(&ann.ID)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	ann.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertAnnotation(ctx context.Context, ann *Annotation) error {
	return s.insertAnnotationWithQuerier(ctx, s.querier(), ann)
}

// listAnnotationsWithQuerier returns the values of one declaration in ordinal order
func (s *SQLiteStorage) listAnnotationsWithQuerier(ctx context.Context, q querier, declarationID int64) ([]*Annotation, error) {
	query := `
		SELECT id, declaration_id, name, ordinal, value_kind, value_text, args_json, created_at
		FROM annotations
		WHERE declaration_id = ?
		ORDER BY ordinal
	`
	rows, err := q.QueryContext(ctx, query, declarationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	anns := make([]*Annotation, 0)
	for rows.Next() {
		var ann Annotation
		if err := scanAnnotation(rows, &ann); err != nil {
			return nil, err
		}
		anns = append(anns, &ann)
	}
	return anns, rows.Err()
}

func (s *SQLiteStorage) ListAnnotations(ctx context.Context, declarationID int64) ([]*Annotation, error) {
	return s.listAnnotationsWithQuerier(ctx, s.querier(), declarationID)
}

// findAnnotationsWithQuerier returns every value of the named annotation in a
// project, ordered by file, position and ordinal
func (s *SQLiteStorage) findAnnotationsWithQuerier(ctx context.Context, q querier, projectID int64, name string, limit int) ([]AnnotationMatch, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT a.id, a.declaration_id, a.name, a.ordinal, a.value_kind, a.value_text, a.args_json, a.created_at,
		       ` + declarationColumns + `, f.file_path
		FROM annotations a
		JOIN declarations d ON a.declaration_id = d.id
		JOIN files f ON d.file_id = f.id
		WHERE f.project_id = ? AND a.name = ?
		ORDER BY f.file_path, d.start_line, d.start_col, a.ordinal
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, projectID, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find annotations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make([]AnnotationMatch, 0)
	for rows.Next() {
		var match AnnotationMatch
		var text, argsJSON sql.NullString
		decl, err := scanDeclaration(rowPrefix{
			rows: rows,
			prefix: []interface{}{
				&match.Annotation.ID, &match.Annotation.DeclarationID, &match.Annotation.Name,
				&match.Annotation.Ordinal, &match.Annotation.Kind, &text, &argsJSON,
				&match.Annotation.CreatedAt,
			},
		}, &match.FilePath)
		if err != nil {
			return nil, err
		}
		match.Annotation.Text = text.String
		if argsJSON.Valid {
			if match.Annotation.Args, err = decodeArgs(&argsJSON.String); err != nil {
				return nil, err
			}
		}
		match.Declaration = *decl
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func (s *SQLiteStorage) FindAnnotations(ctx context.Context, projectID int64, name string, limit int) ([]AnnotationMatch, error) {
	return s.findAnnotationsWithQuerier(ctx, s.querier(), projectID, name, limit)
}

// rowPrefix scans leading columns into prefix before handing the rest to
// the wrapped destination list
type rowPrefix struct {
	rows   *sql.Rows
	prefix []interface{}
}

func (r rowPrefix) Scan(dest ...interface{}) error {
	return r.rows.Scan(append(r.prefix, dest...)...)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByID(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastIndexedAt: project.LastIndexedAt,
	}

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE project_id = ?", projectID).Scan(&status.FilesCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(d.has_doc), 0) FROM declarations d
		JOIN files f ON d.file_id = f.id
		WHERE f.project_id = ?
	`, projectID).Scan(&status.DeclarationsCount, &status.DocumentedCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT a.name) FROM annotations a
		JOIN declarations d ON a.declaration_id = d.id
		JOIN files f ON d.file_id = f.id
		WHERE f.project_id = ?
	`, projectID).Scan(&status.AnnotationsCount, &status.DistinctNames)
	if err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{DatabaseAccessible: true}
	if version, err := SchemaVersion(ctx, q); err == nil {
		status.Health.SchemaVersion = version.String()
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

// Transaction implementations route every statement through the open tx

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) InsertDeclaration(ctx context.Context, decl *Declaration) error {
	return t.storage.insertDeclarationWithQuerier(ctx, t.querier(), decl)
}

func (t *sqliteTx) ListDeclarationsByFile(ctx context.Context, fileID int64) ([]*Declaration, error) {
	return t.storage.listDeclarationsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteDeclarationsByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteDeclarationsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) FindDeclaration(ctx context.Context, projectID int64, kind types.DeclKind, owner, name string) (*Declaration, error) {
	return t.storage.findDeclarationWithQuerier(ctx, t.querier(), projectID, kind, owner, name)
}

func (t *sqliteTx) InsertAnnotation(ctx context.Context, ann *Annotation) error {
	return t.storage.insertAnnotationWithQuerier(ctx, t.querier(), ann)
}

func (t *sqliteTx) ListAnnotations(ctx context.Context, declarationID int64) ([]*Annotation, error) {
	return t.storage.listAnnotationsWithQuerier(ctx, t.querier(), declarationID)
}

func (t *sqliteTx) FindAnnotations(ctx context.Context, projectID int64, name string, limit int) ([]AnnotationMatch, error) {
	return t.storage.findAnnotationsWithQuerier(ctx, t.querier(), projectID, name, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
