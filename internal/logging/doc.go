// Package logging constructs slog loggers from application configuration.
//
// Output format and level are environment-configurable and have no bearing
// on tracker correctness; components receive a logger and never construct
// their own. Field name constants keep structured output consistent across
// packages.
package logging
