// Package git wraps the git command line for publishing the archive tree.
//
// The Client scopes every invocation to a single work tree via `git -C` and
// exposes exactly the steps the publish stage performs: a porcelain dirty
// check, stage-all, commit, and push. An injectable Executor keeps the
// subprocess boundary testable.
package git
