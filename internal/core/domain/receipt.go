package domain

import "time"

// ReceiptFilename is the name of the receipt file inside each keg directory.
const ReceiptFilename = "INSTALL_RECEIPT.json"

// Receipt is the persisted record of one installed keg. It exists exactly
// when the name+version pair was fully installed; a partially materialized
// keg never carries one. Owned by the cellar installer, read-only elsewhere.
type Receipt struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Files   []string `json:"files"`

	// Dependencies lists the package names this keg was installed against,
	// used for reference counting on uninstall.
	Dependencies []string `json:"dependencies,omitempty"`

	// FlagsHash fingerprints the build flags the keg was produced with, so a
	// re-install with different flags is not short-circuited.
	FlagsHash string `json:"flags_hash,omitempty"`

	// BuiltFromSource records whether the keg came from a source build.
	BuiltFromSource bool `json:"built_from_source,omitempty"`

	InstalledAt time.Time `json:"installed_at"`
}

// References reports whether the receipt lists name as a dependency.
func (r *Receipt) References(name string) bool {
	for _, d := range r.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}
