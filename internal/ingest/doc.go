// Package ingest consumes raw inbox files and turns each into an archived
// video: a numbered high-quality copy, a derived low-quality copy, and a
// preview frame.
//
// Identifier assignment is strictly sequential and reproducible: inbox files
// are processed in lexicographic order and an identifier is consumed only
// once the high-quality copy lands in the archive. Every per-file failure is
// narrated and recoverable; a partially ingested video (high-quality copy
// present, derived artifacts missing) is finished by the healing pass.
package ingest
