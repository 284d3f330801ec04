// Package logging builds the slog loggers used across the catalog.
//
// Two output formats are supported: a console handler that renders
// "TIME LEVEL component: message key=value" lines for interactive use, and
// a JSON handler for machine consumption. Component loggers carry a
// standardized component attribute so log lines can be traced back to the
// store, search engine, or lifecycle manager that emitted them.
package logging
