package ports

import "go.trai.ch/hops/internal/core/domain"

// ReceiptStore reads the persisted receipts of installed kegs.
//
//go:generate go run go.uber.org/mock/mockgen -source=receipts.go -destination=mocks/mock_receipts.go -package=mocks
type ReceiptStore interface {
	// Get returns the receipt of the newest installed keg for name.
	// Returns nil, nil when the package is not installed.
	Get(name string) (*domain.Receipt, error)

	// List returns the receipts of every installed keg, sorted by name.
	List() ([]*domain.Receipt, error)

	// Dependents returns the names of installed packages whose receipts
	// list name as a dependency.
	Dependents(name string) ([]string, error)
}
