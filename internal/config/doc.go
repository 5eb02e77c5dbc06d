// Package config provides environment-based configuration.
//
// Loads plain environment variables into a Config struct, applies defaults,
// and validates required fields.
package config
