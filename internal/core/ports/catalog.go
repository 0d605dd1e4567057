// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/hops/internal/core/domain"

// Catalog is the immutable metadata snapshot the resolver works against.
//
//go:generate go run go.uber.org/mock/mockgen -source=catalog.go -destination=mocks/mock_catalog.go -package=mocks
type Catalog interface {
	// Spec returns the package spec for the given name.
	// Returns domain.ErrUnknownPackage if the name is absent.
	Spec(name string) (*domain.PackageSpec, error)

	// Names returns all package names in the snapshot, sorted.
	Names() []string
}
