// Package ffmpeg wraps the ffmpeg command line for deriving low-quality
// archive copies and preview frames.
//
// The Client builds fixed argument vectors from configured settings and runs
// them through an injectable Executor, keeping the subprocess boundary
// testable without a real ffmpeg installation.
package ffmpeg
