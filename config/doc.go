// Package config loads service configuration from YAML files, .env files,
// and environment variables, in that precedence order (env wins).
//
// Each package owning configuration exposes its own Config struct with
// ApplyDefaults and Validate methods; the service binary aggregates them
// around ServiceConfig and loads everything once at startup.
package config
