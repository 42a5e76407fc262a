// Package config provides centralized configuration management for the
// AutoFlow runtime. Configuration is loaded from a JSON file at startup
// and missing fields are filled with sensible defaults.
package config
