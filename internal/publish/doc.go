// Package publish syncs the archive tree to its git remote after a run that
// changed it.
//
// The sequence is stage-all, commit, push; each step is independently
// fail-able and a failure aborts the rest without rolling anything back.
package publish
