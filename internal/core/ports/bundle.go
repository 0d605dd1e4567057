package ports

import (
	"context"

	"go.trai.ch/hops/internal/core/domain"
)

// BundleInstaller is the collaborator that interprets declarative artifact
// stanzas for bundle-style packages. The orchestrator invokes it after
// staging and consumes the per-stanza results as an opaque terminal outcome
// for the node's install stage.
//
//go:generate go run go.uber.org/mock/mockgen -source=bundle.go -destination=mocks/mock_bundle.go -package=mocks
type BundleInstaller interface {
	InstallBundle(ctx context.Context, stanzas []domain.Stanza, stageDir string) ([]domain.StanzaResult, error)
}
