// Package constants holds process-wide environment variable names for the
// reference CLI and PDP wiring. No package in this module imports it: the
// core evaluation packages, cmd/aspen and pdp all leave these variables
// unread.
package constants

const (
	EnvLogLevel     = "ASPEN_LOG_LEVEL"
	EnvOtelEnabled  = "ASPEN_OTEL_ENABLED"
	EnvOtelEndpoint = "ASPEN_OTEL_ENDPOINT"
	EnvConfigDir    = "ASPEN_CONFIG_DIR"
	EnvPoliciesDir  = "ASPEN_POLICIES_DIR"
)
