// Package config loads and validates the application configuration from a
// yaml file.
package config
