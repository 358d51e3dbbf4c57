package config

// Application constants
const (
	// Application Info
	AppName = "cgmdose"

	// EnvPrefix namespaces every environment variable, e.g.
	// CGM_DATABASE_HOST or CGM_ANALYTICS_TARGET.
	EnvPrefix = "CGM"

	// Storage
	DefaultSchema = "public"
	DefaultTable  = "clarity_records"

	// Analytics
	DefaultTarget = 120.0
	DefaultDays   = 14

	// Ingest
	DefaultWorkers = 4

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
