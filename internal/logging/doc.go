// Package logging builds the slog loggers used by the shelver CLI.
//
// Two output formats are supported: a compact console format for interactive
// runs and JSON for machine consumption. The "auto" format picks console when
// stderr is a terminal. Attribute helpers and standardized field keys keep
// log records consistent across pipeline stages.
package logging
