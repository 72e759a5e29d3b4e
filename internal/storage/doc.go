// Package storage provides SQLite-based persistence for indexed annotations.
//
// # Database Schema
//
// Tables:
//   - projects: Project metadata (root path, module name, totals)
//   - files: File paths, owning package directory and SHA-256 hashes
//   - declarations: Functions, types, methods and fields with raw doc text
//   - annotations: One row per annotation value; ordinal keeps document order
//
// Argument lists are stored as JSON in annotations.args_json so that keyed
// and positional entries keep their order.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.docanno/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	decl := storage.FromTypesDeclaration(d, file.ID)
//	if err := tx.InsertDeclaration(ctx, decl); err != nil {
//	    return err
//	}
//	for _, ann := range storage.AnnotationsFromResult(decl.ID, result) {
//	    if err := tx.InsertAnnotation(ctx, ann); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Queries
//
//	matches, err := store.FindAnnotations(ctx, project.ID, "route", 50)
//	for _, m := range matches {
//	    fmt.Println(m.FilePath, m.Declaration.QualifiedName())
//	}
//
// # Migrations
//
// Schema versions are semantic versions compared with
// github.com/Masterminds/semver/v3; ApplyMigrations runs every migration newer
// than the highest recorded version.
//
// # Build Tags
//
// CGO Build (sqlite_vec tag) uses github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_vec"
//
// Pure Go Build (default, or purego tag) uses modernc.org/sqlite:
//
//	CGO_ENABLED=0 go build -tags "purego"
package storage
