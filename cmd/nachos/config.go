package main

import (
	"os"

	"github.com/Weheineman/nachOS/pkg/config"
)

var errWriter = os.Stderr

// loadConfig loads path via pkg/config, or falls back to config.Default()
// when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
