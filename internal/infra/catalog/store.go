// Package catalog loads the product list the assistant answers from.
package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"shop-assistant/internal/domain"
)

// Load reads the catalog file at path, falling back to data/<file> when the
// primary path does not exist. The catalog is read once at startup and
// never reloaded. A missing or unreadable file is degraded mode, not a
// startup failure: the assistant still converses, it just cannot match
// products.
func Load(path string, logger *slog.Logger) []domain.Product {
	resolved := path
	if _, err := os.Stat(resolved); err != nil {
		resolved = filepath.Join("data", filepath.Base(path))
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		logger.Warn("catalog not available, running without products", "path", path, "error", err)
		return []domain.Product{}
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		logger.Warn("catalog file unreadable, running without products", "path", resolved, "error", err)
		return []domain.Product{}
	}

	logger.Info("catalog loaded", "path", resolved, "products", len(products))
	return products
}
