package ports

import (
	"context"

	"go.trai.ch/hops/internal/core/domain"
)

// Builder turns an unpacked source tree into an installed tree under stageDir.
// Implementations dispatch on the spec's declared build system and run the
// tools in a sanitized environment inside a scoped temporary working
// directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Build compiles srcDir and installs the result into stageDir.
	// A non-zero tool exit returns domain.ErrBuildFailed carrying the exit
	// code and a bounded log excerpt. Builds are never retried.
	Build(ctx context.Context, spec *domain.PackageSpec, srcDir, stageDir string) error
}
