// Package layout detects the on-disk layout the engine operates on.
package layout

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"go.trai.ch/hops/internal/core/domain"
)

// Environment overrides, mainly used by tests and sandboxed installs.
const (
	envPrefix  = "HOPS_PREFIX"
	envCellar  = "HOPS_CELLAR"
	envCache   = "HOPS_CACHE"
	envCatalog = "HOPS_CATALOG"
)

// Build-time path markers baked into bottles, rewritten by the patcher to
// the final install locations.
const (
	placeholderPrefix = "@@HOPS_PREFIX@@"
	placeholderCellar = "@@HOPS_CELLAR@@"
)

// Detect returns the engine configuration, honoring environment overrides
// and falling back to XDG locations for a per-user install.
func Detect() domain.Config {
	prefix := os.Getenv(envPrefix)
	if prefix == "" {
		prefix = filepath.Join(xdg.DataHome, "hops", "prefix")
	}

	cellar := os.Getenv(envCellar)
	if cellar == "" {
		cellar = filepath.Join(prefix, "Cellar")
	}

	cache := os.Getenv(envCache)
	if cache == "" {
		cache = filepath.Join(xdg.CacheHome, "hops", "downloads")
	}

	catalog := os.Getenv(envCatalog)
	if catalog == "" {
		catalog = filepath.Join(xdg.DataHome, "hops", "formulae")
	}

	return domain.Config{
		Prefix:            prefix,
		Cellar:            cellar,
		CacheDir:          cache,
		CatalogDir:        catalog,
		ApplicationsDir:   filepath.Join(prefix, "Applications"),
		Parallelism:       runtime.NumCPU(),
		PlaceholderPrefix: placeholderPrefix,
		PlaceholderCellar: placeholderCellar,
	}
}
