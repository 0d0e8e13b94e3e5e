// Package catalog keeps a SQLite ledger of archived identifiers and pipeline
// runs.
//
// The filesystem is the source of truth for the archive; the catalog is
// bookkeeping that survives between runs and feeds the status command with
// source filenames and run history. Every write is best-effort from the
// pipeline's point of view: a catalog failure is logged and never aborts a
// run.
package catalog
