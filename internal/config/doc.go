// Package config provides centralized configuration management for cgmdose.
//
// # Configuration Sources
//
// Configuration is assembled in increasing order of precedence:
//
//  1. Default values (Default)
//  2. A YAML file: CGM_CONFIG_FILE, else config.yaml or configs/config.yaml
//  3. Environment variables, after loading an optional .env file
//
// # Environment Variables
//
// Variables use the CGM_ prefix followed by the section and field:
//
//	CGM_DATABASE_HOST=db.internal
//	CGM_DATABASE_TABLE=clarity_records
//	CGM_LOGGING_FORMAT=console
//	CGM_TELEMETRY_PUSHGATEWAY_URL=http://pushgateway:9091
//	CGM_ANALYTICS_TARGET=110
//	CGM_INGEST_WORKERS=8
//
// # Validation
//
// The merged configuration is validated with struct tags. Database
// connection fields are not required here; the storage gateway checks them
// when a command actually connects.
package config
