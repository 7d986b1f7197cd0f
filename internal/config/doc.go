// Package config provides configuration loading for the panel pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml / configs/config.yaml, or the file named by PANEL_CONFIG_FILE
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PANEL_*:
//
//	PANEL_LOGGING_LEVEL=debug
//	PANEL_PATHS_DATA_DIR=/data/raw
//	PANEL_PATHS_OUTPUT_DIR=/data/clean
//	PANEL_TELEMETRY_TRACE_EXPORTER=stdout
//	PANEL_ANALYSIS_SKIP=true
//
// # File Names
//
// Input and output file names are fixed constants (see paths.go); only the
// directories holding them are configurable.
package config
