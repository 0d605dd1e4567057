package domain

import "path/filepath"

// Config carries the filesystem layout and scheduling limits for one engine
// instance. It is threaded explicitly into each component's constructor;
// there are no process-wide mutable defaults.
type Config struct {
	// Prefix is the shared prefix the linker projects installed files into.
	Prefix string
	// Cellar is the versioned store root, one directory per name/version.
	Cellar string
	// CacheDir holds verified downloaded artifacts.
	CacheDir string
	// CatalogDir holds the formula documents the catalog snapshot is loaded from.
	CatalogDir string
	// ApplicationsDir is where bundle-style app stanzas are materialized.
	ApplicationsDir string

	// Parallelism bounds the scheduler's worker pool.
	Parallelism int

	// PlaceholderPrefix and PlaceholderCellar are the build-time path markers
	// the binary patcher rewrites to Prefix and Cellar.
	PlaceholderPrefix string
	PlaceholderCellar string
}

// KegDir returns the install directory for one name+version pair.
func (c Config) KegDir(name, version string) string {
	return filepath.Join(c.Cellar, name, version)
}

// PackageDir returns the per-name directory holding that package's kegs.
func (c Config) PackageDir(name string) string {
	return filepath.Join(c.Cellar, name)
}

// OptDir returns the directory of stable per-package links maintained by the
// linker, one entry per installed name pointing at its current keg.
func (c Config) OptDir() string {
	return filepath.Join(c.Prefix, "opt")
}

// OptLink returns the stable link path for one package name.
func (c Config) OptLink(name string) string {
	return filepath.Join(c.OptDir(), name)
}

// Replacements returns the placeholder-to-final-path map handed to the
// binary patcher for one keg.
func (c Config) Replacements(name, version string) map[string]string {
	return map[string]string{
		c.PlaceholderCellar: c.KegDir(name, version),
		c.PlaceholderPrefix: c.Prefix,
	}
}
