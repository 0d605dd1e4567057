package ports

import (
	"context"

	"go.trai.ch/hops/internal/core/domain"
)

// InstallRecord carries the bookkeeping the cellar persists alongside a keg.
type InstallRecord struct {
	// Dependencies are the package names the keg was installed against.
	Dependencies []string
	// FlagsHash fingerprints the install flags, see domain.FlagsFingerprint.
	FlagsHash string
	// BuiltFromSource records the node's action.
	BuiltFromSource bool
}

// Cellar materializes staged trees into the versioned store and removes
// installed kegs. Install is atomic: the staged tree is renamed into place
// and the receipt written only after the rename succeeds, so a failure at
// any earlier point leaves the store untouched.
//
//go:generate go run go.uber.org/mock/mockgen -source=cellar.go -destination=mocks/mock_cellar.go -package=mocks
type Cellar interface {
	// Install moves the staged tree into <cellar>/<name>/<version> and
	// writes the receipt.
	Install(ctx context.Context, spec *domain.PackageSpec, stageDir string, rec InstallRecord) (*domain.Receipt, error)

	// Uninstall removes the named package's keg and receipt. If another
	// installed receipt still references name, it fails with
	// domain.ErrReferenceStillExists unless force is set.
	Uninstall(ctx context.Context, name string, force bool) error
}
