// Package workflow orchestrates one maintenance pass over the video
// library: ingest raw inbox files, heal missing derived artifacts, and
// publish the archive to its git remote.
package workflow
