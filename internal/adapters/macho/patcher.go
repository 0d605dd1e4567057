package macho

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Patcher relocates placeholder install paths inside staged Mach-O
// binaries. Files the codec does not recognize or cannot parse are
// skipped; only a path that overflows its reserved space fails a keg.
type Patcher struct {
	logger ports.Logger
}

// New creates a Patcher.
func New(logger ports.Logger) *Patcher {
	return &Patcher{logger: logger}
}

// RelocateTree walks root and rewrites the load commands of every Mach-O
// file whose paths reference a replacement key. It returns the number of
// files rewritten. A path that does not fit its reserved space fails the
// walk and leaves that file untouched on disk.
func (p *Patcher) RelocateTree(root string, replacements map[string]string) (int, error) {
	if len(replacements) == 0 {
		return 0, nil
	}

	patched := 0
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		changed, err := p.patchFile(path, replacements)
		if err != nil {
			if errors.Is(err, errNotMachO) {
				return nil
			}
			return zerr.With(err, "file", path)
		}
		if changed {
			patched++
		}
		return nil
	})
	if err != nil {
		return patched, err
	}
	return patched, nil
}

// patchFile rewrites one binary in place. The write goes through a sibling
// temp file and rename, so a failure partway never corrupts the original.
func (p *Patcher) patchFile(path string, replacements map[string]string) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from walking our own staging tree
	if err != nil {
		return false, zerr.Wrap(err, "failed to read binary")
	}
	if !isMachO(data) {
		return false, errNotMachO
	}

	changed, err := patchBuffer(data, replacements)
	if err != nil {
		if errors.Is(err, errMalformed) {
			p.logger.Warn("skipping unparseable mach-o file", "file", path)
			return false, errNotMachO
		}
		return false, err
	}
	if !changed {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, zerr.Wrap(err, "failed to stat binary")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".patch-")
	if err != nil {
		return false, zerr.Wrap(err, "failed to create patch file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Scoped cleanup on every exit path

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, zerr.Wrap(err, "failed to write patched binary")
	}
	if err := tmp.Close(); err != nil {
		return false, zerr.Wrap(err, "failed to finalize patched binary")
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return false, zerr.Wrap(err, "failed to restore binary permissions")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, zerr.Wrap(err, "failed to replace binary")
	}
	return true, nil
}
