// Package library models the on-disk archive tree.
//
// One logical video is a positive integer identifier shared by up to three
// artifacts in parallel directories: the high-quality copy (vidHQ), the
// low-quality copy (vidLQ), and the preview frame (previews). The filesystem
// is the source of truth; this package only reads directory listings and
// derives paths, it never writes.
package library
