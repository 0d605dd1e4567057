package ports

import (
	"context"

	"go.trai.ch/hops/internal/core/domain"
)

// Linker projects an installed keg's files into the shared prefix, either as
// symlinks or as generated wrapper scripts when the spec declares runtime
// environment. Prefix entries owned by anything else are never overwritten;
// a collision surfaces as domain.ErrLinkConflict.
//
//go:generate go run go.uber.org/mock/mockgen -source=linker.go -destination=mocks/mock_linker.go -package=mocks
type Linker interface {
	// Link creates the prefix entries for the keg described by the receipt.
	Link(ctx context.Context, spec *domain.PackageSpec, receipt *domain.Receipt) error

	// Unlink removes the prefix entries owned by the keg. Entries owned by
	// other packages are left alone.
	Unlink(ctx context.Context, receipt *domain.Receipt) error
}
