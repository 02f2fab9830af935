package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/kipubank/kipu-atm/internal/logger"
)

// LoadEnvironment loads variables from .env files in the current directory and
// next to the executable. Variables already set in the process win.
// It returns the files that were loaded.
func LoadEnvironment() []string {
	candidates := []string{".env"}

	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	} else {
		logger.Debug("Could not determine executable path: %v", err)
	}

	var loaded []string
	for _, path := range candidates {
		if err := godotenv.Load(path); err != nil {
			logger.Debug("No .env file loaded from %s: %v", path, err)
			continue
		}
		logger.Debug("Loaded environment from %s", path)
		loaded = append(loaded, path)
	}

	return loaded
}
