package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Unpack extracts a gzipped tar archive into dest, preserving file modes and
// symlinks. Entries that would escape dest are rejected.
func (d *Downloader) Unpack(ctx context.Context, archive, dest string) error {
	f, err := os.Open(archive) //nolint:gosec // Archive path comes from the verified cache
	if err != nil {
		return zerr.Wrap(err, "failed to open archive")
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	gz, err := gzip.NewReader(f)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read archive"), "archive", archive)
	}
	defer gz.Close() //nolint:errcheck // Best effort close in defer

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read archive entry"), "archive", archive)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o750); err != nil {
				return zerr.Wrap(err, "failed to create directory")
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
				return zerr.Wrap(err, "failed to create directory")
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return zerr.Wrap(err, "failed to create symlink")
			}
		default:
			// Other entry types (devices, fifos) have no business in a
			// package archive.
			return zerr.With(zerr.New("unsupported archive entry type"), "entry", hdr.Name)
		}
	}
}

// safeJoin joins name under dest, rejecting traversal outside dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.Clean(name))
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", zerr.With(zerr.New("archive entry escapes destination"), "entry", name)
	}
	return target, nil
}

func extractFile(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory")
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()) //nolint:gosec // Target is confined by safeJoin
	if err != nil {
		return zerr.Wrap(err, "failed to create file")
	}
	if _, err := io.Copy(out, r); err != nil { //nolint:gosec // Archive size is bounded by the verified download
		_ = out.Close()
		return zerr.Wrap(err, "failed to extract file")
	}
	return out.Close()
}
