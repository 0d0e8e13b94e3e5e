// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that attach the failing
//     component, operation, and path to every surfaced failure.
//   - Thin abstractions (per-tool subpackages) that make command execution
//     from external binaries testable.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
