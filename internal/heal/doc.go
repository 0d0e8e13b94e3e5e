// Package heal reconciles the archive by deriving missing low-quality copies
// and preview frames for videos that already have a high-quality copy.
//
// Healing makes the pipeline resumable: a run interrupted mid-derivation, or
// an ingestion whose transcode step failed, leaves a gap that the next
// healing pass fills. With nothing missing the pass performs no transcoder
// invocations at all.
package heal
