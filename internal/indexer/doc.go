// Package indexer stores the annotations of every declaration in a Go
// project.
//
// # Basic Usage
//
//	idx := indexer.New(store).WithLogger(logger)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", &indexer.Config{
//	    IncludeTests: true,
//	    WithParents:  true,
//	})
//
// # Pipeline
//
//  1. Discovery: walk the project and group .go files by directory, skipping
//     vendor, testdata and hidden directories
//  2. Incremental decision: a package whose files all keep their SHA-256
//     hash is skipped unless Config.Force is set
//  3. Parse: declarations and raw doc comments come from go/ast
//  4. Extract: annotation values are computed per declaration, merging the
//     docs of embedded parents when Config.WithParents is set
//  5. Store: each package is written in one transaction
//
// The package is the unit of work because parent merging reads doc comments
// from any file of the package. Changing WithParents between runs re-indexes
// everything.
//
// # Errors
//
// IndexProject only fails on storage errors or cancellation. Unreadable files
// and syntax errors are counted in Statistics.FilesFailed or stored on the
// file record, and indexing continues.
//
// Only one run per Indexer may be in flight; a concurrent call returns
// ErrIndexingInProgress.
package indexer
