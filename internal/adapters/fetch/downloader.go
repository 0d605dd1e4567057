// Package fetch downloads and verifies package artifacts.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
)

// Downloader implements ports.Fetcher over HTTP with an on-disk cache.
// Verified downloads are cached by name+version+checksum; concurrent fetches
// of the same artifact are deduplicated through a singleflight group.
type Downloader struct {
	client   *http.Client
	cacheDir string
	logger   ports.Logger
	group    singleflight.Group
}

// NewDownloader creates a Downloader caching into cfg.CacheDir.
func NewDownloader(cfg domain.Config, logger ports.Logger) *Downloader {
	return &Downloader{
		client:   &http.Client{Timeout: 10 * time.Minute},
		cacheDir: cfg.CacheDir,
		logger:   logger,
	}
}

// Fetch downloads the artifact selected by action and verifies its sha256,
// returning the cached archive path.
func (d *Downloader) Fetch(ctx context.Context, spec *domain.PackageSpec, action domain.Action) (string, error) {
	art, err := selectArtifact(spec, action)
	if err != nil {
		return "", err
	}

	path := d.cachePath(spec, art)
	key := path

	v, err, _ := d.group.Do(key, func() (any, error) {
		if _, statErr := os.Stat(path); statErr == nil {
			// Cache hit: the file was verified when it was written.
			return path, nil
		}
		if mkErr := os.MkdirAll(d.cacheDir, 0o750); mkErr != nil {
			return nil, zerr.Wrap(mkErr, "failed to create download cache")
		}
		if dlErr := d.download(ctx, art, path); dlErr != nil {
			return nil, zerr.With(dlErr, "package", spec.Name.String())
		}
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// selectArtifact picks the bottle or source artifact for the node's action.
func selectArtifact(spec *domain.PackageSpec, action domain.Action) (*domain.Artifact, error) {
	var art *domain.Artifact
	if action == domain.ActionUseBottle {
		art = spec.Bottle
	} else {
		art = spec.Source
	}
	if art == nil {
		err := zerr.With(domain.ErrNoArtifact, "package", spec.Name.String())
		return nil, zerr.With(err, "action", string(action))
	}
	return art, nil
}

// cachePath keys cache entries by name, version and a hash of URL+checksum,
// so a changed artifact never collides with a stale cache file.
func (d *Downloader) cachePath(spec *domain.PackageSpec, art *domain.Artifact) string {
	h := xxhash.New()
	_, _ = h.WriteString(art.URL)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(art.SHA256)
	name := fmt.Sprintf("%s-%s-%016x.tar.gz", spec.Name.String(), spec.Version.String(), h.Sum64())
	return filepath.Join(d.cacheDir, name)
}

// download retrieves the artifact with bounded retries and verifies it.
// Checksum mismatches are fatal and never retried.
func (d *Downloader) download(ctx context.Context, art *domain.Artifact, dest string) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := d.attempt(ctx, art, dest)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrChecksumMismatch) || ctx.Err() != nil {
			return err
		}

		lastErr = err
		d.logger.Warn(fmt.Sprintf("download attempt %d/%d failed for %s: %v", attempt, maxAttempts, art.URL, err))

		if attempt < maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}

	err := zerr.With(errors.Join(domain.ErrDownloadFailed, lastErr), "url", art.URL)
	return zerr.With(err, "attempts", maxAttempts)
}

// attempt performs one download into a temp file, verifies the digest, and
// only then moves the file to its cache path.
func (d *Downloader) attempt(ctx context.Context, art *domain.Artifact, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, art.URL, nil)
	if err != nil {
		return zerr.Wrap(err, "failed to build request")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode != http.StatusOK {
		return zerr.With(zerr.New("unexpected response status"), "status", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(d.cacheDir, filepath.Base(dest)+".part-")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp download file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Scoped cleanup on every exit path

	digest := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, digest), resp.Body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to finalize download file")
	}

	actual := hex.EncodeToString(digest.Sum(nil))
	if actual != art.SHA256 {
		err := zerr.With(domain.ErrChecksumMismatch, "url", art.URL)
		err = zerr.With(err, "expected", art.SHA256)
		return zerr.With(err, "actual", actual)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return zerr.Wrap(err, "failed to move download into cache")
	}
	return nil
}
