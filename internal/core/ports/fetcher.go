package ports

import (
	"context"

	"go.trai.ch/hops/internal/core/domain"
)

// Fetcher retrieves and verifies package artifacts.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch downloads the artifact selected by action and verifies its
	// checksum, returning the path of the cached archive. Verified downloads
	// are cached by name+version+checksum, so repeated fetches of an
	// identical artifact perform no network I/O.
	//
	// A checksum mismatch returns domain.ErrChecksumMismatch and is never
	// retried; network failures are retried with bounded backoff before
	// domain.ErrDownloadFailed is returned.
	Fetch(ctx context.Context, spec *domain.PackageSpec, action domain.Action) (string, error)

	// Unpack extracts a fetched archive into dest.
	Unpack(ctx context.Context, archive, dest string) error
}
