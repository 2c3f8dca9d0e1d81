package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/dotnet/docfx-sub027/internal/logfields"
)

// envFiles are loaded from the config directory, most specific first.
// Variables already in the environment are never overwritten, so earlier
// files win over later ones.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles(dir string) []string {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
		loaded = append(loaded, path)
	}
	return loaded
}
