package cellar

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Installer moves staged trees into the cellar. A keg only becomes visible
// under its final path through a single rename, and its receipt is written
// only after that rename succeeds, so every observable keg is complete.
type Installer struct {
	cfg    domain.Config
	store  *Store
	logger ports.Logger
	locks  *nameLocks
}

// NewInstaller creates an Installer writing into cfg.Cellar.
func NewInstaller(cfg domain.Config, logger ports.Logger) *Installer {
	return &Installer{
		cfg:    cfg,
		store:  NewStore(cfg),
		logger: logger,
		locks:  newNameLocks(),
	}
}

// Install moves the staged tree for spec into <cellar>/<name>/<version> and
// writes its receipt. An existing keg of the same version is replaced.
func (i *Installer) Install(ctx context.Context, spec *domain.PackageSpec, stageDir string, rec ports.InstallRecord) (*domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := spec.Name.String()
	version := spec.Version.String()
	unlock := i.locks.acquire(name)
	defer unlock()

	packageDir := i.cfg.PackageDir(name)
	if err := os.MkdirAll(packageDir, 0o755); err != nil {
		return nil, permission(zerr.Wrap(err, "failed to create cellar directory"), packageDir)
	}

	// Stage a sibling of the final keg so the last step is a same-filesystem
	// rename. The fetch and build stages hand over trees from the system
	// temp directory, which may live on another filesystem.
	tmp, err := os.MkdirTemp(packageDir, ".tmp-"+version+"-")
	if err != nil {
		return nil, permission(zerr.Wrap(err, "failed to create staging directory"), packageDir)
	}
	defer os.RemoveAll(tmp) //nolint:errcheck // Scoped cleanup on every exit path

	if err := moveTree(stageDir, tmp); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stage keg"), "package", name)
	}

	files, err := collectFiles(tmp)
	if err != nil {
		return nil, zerr.With(err, "package", name)
	}

	kegDir := i.cfg.KegDir(name, version)
	if err := i.replaceKeg(kegDir, tmp); err != nil {
		return nil, zerr.With(err, "package", name)
	}

	receipt := &domain.Receipt{
		Name:            name,
		Version:         version,
		Files:           files,
		Dependencies:    rec.Dependencies,
		FlagsHash:       rec.FlagsHash,
		BuiltFromSource: rec.BuiltFromSource,
		InstalledAt:     time.Now().UTC(),
	}
	if err := i.store.write(receipt); err != nil {
		// Without a receipt the keg counts as an interrupted install. Remove
		// it rather than leave a directory the store will skip forever.
		_ = os.RemoveAll(kegDir)
		return nil, zerr.With(err, "package", name)
	}

	i.logger.Info("installed keg", "package", name, "version", version, "files", len(files))
	return receipt, nil
}

// replaceKeg swaps tmp into place at kegDir, removing any previous keg of
// the same version first.
func (i *Installer) replaceKeg(kegDir, tmp string) error {
	if _, err := os.Lstat(kegDir); err == nil {
		i.logger.Warn("replacing existing keg", "path", kegDir)
		if err := os.RemoveAll(kegDir); err != nil {
			return permission(zerr.Wrap(err, "failed to remove previous keg"), kegDir)
		}
	}
	if err := os.Rename(tmp, kegDir); err != nil {
		return permission(zerr.Wrap(err, "failed to finalize keg"), kegDir)
	}
	return nil
}

// Uninstall removes the installed keg for name. When other installed
// packages still list name as a dependency the removal is refused unless
// force is set.
func (i *Installer) Uninstall(ctx context.Context, name string, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := i.locks.acquire(name)
	defer unlock()

	receipt, err := i.store.Get(name)
	if err != nil {
		return err
	}
	if receipt == nil {
		return zerr.With(domain.ErrNotInstalled, "package", name)
	}

	dependents, err := i.store.Dependents(name)
	if err != nil {
		return err
	}
	if len(dependents) > 0 {
		if !force {
			err := zerr.With(domain.ErrReferenceStillExists, "package", name)
			return zerr.With(err, "dependents", strings.Join(dependents, ", "))
		}
		i.logger.Warn("removing package despite dependents", "package", name, "dependents", strings.Join(dependents, ", "))
	}

	kegDir := i.cfg.KegDir(name, receipt.Version)
	if err := os.RemoveAll(kegDir); err != nil {
		return permission(zerr.With(zerr.Wrap(err, "failed to remove keg"), "package", name), kegDir)
	}
	// The package directory stays around when older kegs remain.
	_ = os.Remove(i.cfg.PackageDir(name))

	i.logger.Info("uninstalled keg", "package", name, "version", receipt.Version)
	return nil
}

// moveTree relocates the contents of src into dst, preferring rename and
// falling back to a copy when src lives on another filesystem.
func moveTree(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if err := os.Rename(from, to); err == nil {
			continue
		}
		if err := copyEntry(from, to); err != nil {
			return err
		}
	}
	return nil
}

func copyEntry(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	switch {
	case info.IsDir():
		if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		return moveTree(src, dst)
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	case info.Mode().IsRegular():
		return copyFile(src, dst, info.Mode().Perm())
	default:
		return zerr.With(zerr.New("unsupported file type in staged tree"), "path", src)
	}
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // Path originates from our own staging directory
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Read-only file

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm) //nolint:gosec // Path is confined to the cellar
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// collectFiles returns the sorted relative paths of all regular files and
// symlinks under root.
func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to index keg contents")
	}
	sort.Strings(files)
	return files, nil
}

// permission maps filesystem permission failures onto the dedicated
// sentinel so callers can distinguish them from transient errors.
func permission(err error, path string) error {
	if errors.Is(err, fs.ErrPermission) {
		return zerr.With(errors.Join(domain.ErrInsufficientPermissions, err), "path", path)
	}
	return err
}
