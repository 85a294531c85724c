package config

import (
	"errors"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// dotenvFile is loaded, if it exists, before the environment is read.
// Variables already set in the process win over the file.
var dotenvFile = ".env"

// parseEnv overlays Config with BLOG_* environment variables. Unset
// variables leave the current values alone. Panics on malformed values,
// like the other loaders.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
