// Package cellar materializes kegs into the versioned store and manages
// their receipts.
package cellar

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store reads and writes keg receipts. Receipts live inside their keg
// (<cellar>/<name>/<version>/INSTALL_RECEIPT.json), so the cellar is
// self-describing and a keg directory without a receipt is recognizably
// incomplete. The store scans on demand rather than caching: concurrent
// workers may install while another resolution reads.
type Store struct {
	cellar string
}

// NewStore creates a Store over cfg.Cellar.
func NewStore(cfg domain.Config) *Store {
	return &Store{cellar: cfg.Cellar}
}

// Get returns the receipt of the newest installed keg for name, or nil, nil
// when the package is not installed.
func (s *Store) Get(name string) (*domain.Receipt, error) {
	dir := filepath.Join(s.cellar, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read cellar"), "package", name)
	}

	var newest *domain.Receipt
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		receipt, err := s.read(filepath.Join(dir, entry.Name(), domain.ReceiptFilename))
		if err != nil {
			return nil, err
		}
		if receipt == nil {
			// Keg directory without a receipt: an interrupted install's
			// leftovers, never treated as installed.
			continue
		}
		if newest == nil || receipt.Version > newest.Version {
			newest = receipt
		}
	}
	return newest, nil
}

// List returns the receipts of every installed keg, sorted by name.
func (s *Store) List() ([]*domain.Receipt, error) {
	entries, err := os.ReadDir(s.cellar)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, "failed to read cellar")
	}

	var receipts []*domain.Receipt
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		receipt, err := s.Get(entry.Name())
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			receipts = append(receipts, receipt)
		}
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].Name < receipts[j].Name })
	return receipts, nil
}

// Dependents returns the names of installed packages whose receipts list
// name as a dependency.
func (s *Store) Dependents(name string) ([]string, error) {
	receipts, err := s.List()
	if err != nil {
		return nil, err
	}
	var dependents []string
	for _, receipt := range receipts {
		if receipt.Name != name && receipt.References(name) {
			dependents = append(dependents, receipt.Name)
		}
	}
	return dependents, nil
}

// read loads one receipt file, returning nil when it does not exist.
func (s *Store) read(path string) (*domain.Receipt, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is confined to the cellar
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read receipt"), "path", path)
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse receipt"), "path", path)
	}
	return &receipt, nil
}

// write persists a receipt into its keg directory. The write goes through a
// temp file and rename so a concurrent reader never sees a partial receipt.
func (s *Store) write(receipt *domain.Receipt) error {
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal receipt")
	}

	kegDir := filepath.Join(s.cellar, receipt.Name, receipt.Version)
	tmp, err := os.CreateTemp(kegDir, domain.ReceiptFilename+".tmp-")
	if err != nil {
		return zerr.Wrap(err, "failed to create receipt file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Scoped cleanup on every exit path

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write receipt")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to finalize receipt")
	}
	return os.Rename(tmp.Name(), filepath.Join(kegDir, domain.ReceiptFilename))
}
