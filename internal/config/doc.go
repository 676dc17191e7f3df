// Package config provides configuration structures and utilities for
// websentry. It defines the options shared by the CLI and the HTTP
// service: scan pipeline tuning, report output preferences, storage
// paths, and per-domain overrides loaded from a YAML file.
package config
