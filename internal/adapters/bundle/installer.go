// Package bundle interprets declarative artifact stanzas for bundle-style
// packages.
package bundle

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Installer executes a package's stanza list against its staged extraction
// directory. Each stanza either succeeds or carries its own error in the
// result; the caller decides what a partial outcome means.
type Installer struct {
	cfg    domain.Config
	logger ports.Logger
}

// New creates an Installer.
func New(cfg domain.Config, logger ports.Logger) *Installer {
	return &Installer{cfg: cfg, logger: logger}
}

// InstallBundle runs every stanza in order and returns one result per
// stanza. Execution stops early only on context cancellation.
func (i *Installer) InstallBundle(ctx context.Context, stanzas []domain.Stanza, stageDir string) ([]domain.StanzaResult, error) {
	results := make([]domain.StanzaResult, 0, len(stanzas))
	for _, stanza := range stanzas {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, domain.StanzaResult{
			Stanza: stanza,
			Err:    i.run(stanza, stageDir),
		})
	}
	return results, nil
}

func (i *Installer) run(stanza domain.Stanza, stageDir string) error {
	switch stanza.Kind {
	case "app":
		return i.move(stanza, stageDir, i.cfg.ApplicationsDir)
	case "binary":
		return i.move(stanza, stageDir, filepath.Join(i.cfg.Prefix, "bin"))
	default:
		return zerr.With(zerr.New("unknown artifact stanza"), "kind", stanza.Kind)
	}
}

// move relocates the stanza's source out of the staged tree into destDir.
func (i *Installer) move(stanza domain.Stanza, stageDir, destDir string) error {
	src := filepath.Join(stageDir, stanza.Source)
	if _, err := os.Lstat(src); err != nil {
		return zerr.With(zerr.Wrap(err, "artifact missing from staged tree"), "source", stanza.Source)
	}

	target := stanza.Target
	if target == "" {
		target = filepath.Base(stanza.Source)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create destination"), "path", destDir)
	}

	dst := filepath.Join(destDir, target)
	if err := os.RemoveAll(dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clear destination"), "path", dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to place artifact"), "path", dst)
	}

	i.logger.Info("installed artifact", "kind", stanza.Kind, "target", dst)
	return nil
}
