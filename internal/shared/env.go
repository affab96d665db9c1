package shared

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given dotenv files into the process environment.
//
// Missing files are skipped. Variables already set in the environment win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides config fields that carry an `env` tag with the matching environment variables.
//
// Unset variables leave the loaded value untouched.
func ApplyEnv(config *Config) error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("%w: failed to read environment: %v", ErrInvalidConfig, err)
	}
	return nil
}
