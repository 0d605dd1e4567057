// Package link projects installed kegs into the shared prefix.
package link

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// linkedDirs are the keg subdirectories whose contents get projected into
// the prefix. Everything else stays private to the keg.
var linkedDirs = []string{"bin", "sbin", "lib", "include", "share", "etc"}

// wrapperMarker identifies wrapper scripts generated by the linker so
// Unlink never removes a script it did not write.
const wrapperMarker = "# hops wrapper"

// Linker creates symlinks (or wrapper scripts for executables that need a
// runtime environment) from the prefix into a keg, plus the stable
// <prefix>/opt/<name> link other packages resolve against.
type Linker struct {
	cfg    domain.Config
	logger ports.Logger
}

// New creates a Linker for cfg.Prefix.
func New(cfg domain.Config, logger ports.Logger) *Linker {
	return &Linker{cfg: cfg, logger: logger}
}

// Link creates the prefix entries for the keg described by receipt. Entries
// that already exist and belong to anything other than this package surface
// as domain.ErrLinkConflict; re-linking over this package's own entries is
// allowed so upgrades and repairs are idempotent.
func (l *Linker) Link(ctx context.Context, spec *domain.PackageSpec, receipt *domain.Receipt) error {
	kegDir := l.cfg.KegDir(receipt.Name, receipt.Version)
	linked := 0

	for _, rel := range receipt.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !linkable(rel) {
			continue
		}

		src := filepath.Join(kegDir, rel)
		dst := filepath.Join(l.cfg.Prefix, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create prefix directory"), "path", filepath.Dir(dst))
		}
		if err := l.clearOwned(dst, receipt.Name); err != nil {
			return err
		}

		if len(spec.RuntimeEnv) > 0 && isExecutableDir(rel) {
			if err := l.writeWrapper(dst, src, receipt.Name, spec.RuntimeEnv); err != nil {
				return zerr.With(err, "package", receipt.Name)
			}
		} else if err := os.Symlink(src, dst); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to link"), "path", dst)
		}
		linked++
	}

	if err := l.linkOpt(receipt); err != nil {
		return err
	}

	l.logger.Info("linked keg", "package", receipt.Name, "version", receipt.Version, "links", linked)
	return nil
}

// Unlink removes the prefix entries owned by the keg, including its opt
// link. Entries that meanwhile point elsewhere are left alone.
func (l *Linker) Unlink(ctx context.Context, receipt *domain.Receipt) error {
	for _, rel := range receipt.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !linkable(rel) {
			continue
		}

		dst := filepath.Join(l.cfg.Prefix, rel)
		owned, err := l.owns(dst, receipt.Name)
		if err != nil {
			return err
		}
		if !owned {
			continue
		}
		if err := os.Remove(dst); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to unlink"), "path", dst)
		}
		l.pruneEmptyDirs(filepath.Dir(dst))
	}

	opt := l.cfg.OptLink(receipt.Name)
	if owned, err := l.owns(opt, receipt.Name); err != nil {
		return err
	} else if owned {
		if err := os.Remove(opt); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to remove opt link"), "path", opt)
		}
	}
	return nil
}

// linkOpt points <prefix>/opt/<name> at the keg, replacing a previous
// version's link.
func (l *Linker) linkOpt(receipt *domain.Receipt) error {
	opt := l.cfg.OptLink(receipt.Name)
	if err := os.MkdirAll(l.cfg.OptDir(), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create opt directory"), "path", l.cfg.OptDir())
	}
	if err := l.clearOwned(opt, receipt.Name); err != nil {
		return err
	}
	kegDir := l.cfg.KegDir(receipt.Name, receipt.Version)
	if err := os.Symlink(kegDir, opt); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create opt link"), "path", opt)
	}
	return nil
}

// clearOwned removes an existing entry at dst when this package owns it, and
// reports ErrLinkConflict when the entry belongs to something else.
func (l *Linker) clearOwned(dst, name string) error {
	if _, err := os.Lstat(dst); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to inspect prefix entry"), "path", dst)
	}

	owned, err := l.owns(dst, name)
	if err != nil {
		return err
	}
	if !owned {
		err := zerr.With(domain.ErrLinkConflict, "path", dst)
		return zerr.With(err, "package", name)
	}
	return os.Remove(dst)
}

// owns reports whether the entry at path belongs to the named package: a
// symlink resolving into its cellar directory, or a wrapper script the
// linker generated for it.
func (l *Linker) owns(path, name string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to inspect prefix entry"), "path", path)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return false, zerr.With(zerr.Wrap(err, "failed to read link"), "path", path)
		}
		packageDir := l.cfg.PackageDir(name) + string(filepath.Separator)
		return strings.HasPrefix(target, packageDir), nil
	}

	if info.Mode().IsRegular() {
		data, err := os.ReadFile(path) //nolint:gosec // Path is confined to the prefix
		if err != nil {
			return false, zerr.With(zerr.Wrap(err, "failed to read prefix entry"), "path", path)
		}
		return bytes.Contains(data, []byte(wrapperMarker+" "+name+"\n")), nil
	}
	return false, nil
}

// writeWrapper emits a shell script that exports the package's runtime
// environment before handing off to the keg binary.
func (l *Linker) writeWrapper(dst, target, name string, env map[string]string) error {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&script, "%s %s\n", wrapperMarker, name)
	for _, key := range keys {
		fmt.Fprintf(&script, "export %s=%q\n", key, env[key])
	}
	fmt.Fprintf(&script, "exec %q \"$@\"\n", target)

	if err := os.WriteFile(dst, []byte(script.String()), 0o755); err != nil { //nolint:gosec // Wrapper must be executable
		return zerr.With(zerr.Wrap(err, "failed to write wrapper script"), "path", dst)
	}
	return nil
}

// pruneEmptyDirs removes now-empty directories up to, but never including,
// the prefix root.
func (l *Linker) pruneEmptyDirs(dir string) {
	for dir != l.cfg.Prefix && strings.HasPrefix(dir, l.cfg.Prefix) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// linkable reports whether a keg-relative path lives under a directory that
// gets projected into the prefix.
func linkable(rel string) bool {
	top, _, found := strings.Cut(filepath.ToSlash(rel), "/")
	if !found {
		return false
	}
	for _, dir := range linkedDirs {
		if top == dir {
			return true
		}
	}
	return false
}

// isExecutableDir reports whether rel lives in a directory holding
// executables.
func isExecutableDir(rel string) bool {
	top, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return top == "bin" || top == "sbin"
}
