// Package config provides configuration structures and utilities for stackscan.
// It defines the main configuration options for crawling websites,
// per-site request settings, catalog extensions and report preferences.
package config
