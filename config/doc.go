// Package config loads the engine configuration from YAML files and
// environment variables and converts it into guard and runner settings.
package config
