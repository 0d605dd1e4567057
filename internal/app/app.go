// Package app implements the application layer for hops.
package app

import (
	"context"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/hops/internal/engine/resolver"
	"go.trai.ch/hops/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App wires the resolver and scheduler behind the operations the CLI
// exposes.
type App struct {
	resolver  *resolver.Resolver
	scheduler *scheduler.Scheduler
	catalog   ports.Catalog
	cellar    ports.Cellar
	receipts  ports.ReceiptStore
	linker    ports.Linker
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	res *resolver.Resolver,
	sched *scheduler.Scheduler,
	catalog ports.Catalog,
	cellar ports.Cellar,
	receipts ports.ReceiptStore,
	linker ports.Linker,
	logger ports.Logger,
) *App {
	return &App{
		resolver:  res,
		scheduler: sched,
		catalog:   catalog,
		cellar:    cellar,
		receipts:  receipts,
		linker:    linker,
		logger:    logger,
	}
}

// Install resolves the requested packages and runs the install plan. With
// DryRun set it stops after resolution and reports the plan without touching
// the filesystem.
func (a *App) Install(ctx context.Context, names []string, flags domain.InstallFlags) (*domain.Report, error) {
	plan, err := a.resolver.Resolve(names, flags)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve install plan")
	}

	if flags.DryRun {
		return planReport(plan), nil
	}

	report, err := a.scheduler.Run(ctx, plan, flags)
	if err != nil {
		return report, zerr.Wrap(err, "install execution failed")
	}
	return report, nil
}

// Uninstall removes the named package's keg and its prefix links. Installed
// dependents block the removal unless force is set.
func (a *App) Uninstall(ctx context.Context, name string, force bool) error {
	receipt, err := a.receipts.Get(name)
	if err != nil {
		return err
	}
	if receipt == nil {
		return zerr.With(domain.ErrNotInstalled, "package", name)
	}

	dependents, err := a.receipts.Dependents(name)
	if err != nil {
		return err
	}
	if len(dependents) > 0 && !force {
		return zerr.With(domain.ErrReferenceStillExists, "package", name)
	}

	// Unlink before the keg disappears so link targets still resolve while
	// ownership is checked.
	if err := a.linker.Unlink(ctx, receipt); err != nil {
		return zerr.Wrap(err, "failed to unlink package")
	}
	return a.cellar.Uninstall(ctx, name, force)
}

// List returns the receipts of all installed packages, sorted by name.
func (a *App) List(_ context.Context) ([]*domain.Receipt, error) {
	return a.receipts.List()
}

// PackageInfo pairs a catalog spec with the receipt of its installed keg,
// when one exists.
type PackageInfo struct {
	Spec    *domain.PackageSpec
	Receipt *domain.Receipt
}

// Info returns the catalog entry for name along with its install state.
func (a *App) Info(_ context.Context, name string) (*PackageInfo, error) {
	spec, err := a.catalog.Spec(name)
	if err != nil {
		return nil, err
	}
	receipt, err := a.receipts.Get(name)
	if err != nil {
		return nil, err
	}
	return &PackageInfo{Spec: spec, Receipt: receipt}, nil
}

// planReport renders a resolved plan as a report without executing it.
func planReport(plan *domain.InstallPlan) *domain.Report {
	report := &domain.Report{}
	for _, node := range plan.Nodes {
		report.Entries = append(report.Entries, domain.ReportEntry{
			Name:    node.Name(),
			Version: node.Spec.Version.String(),
			Action:  node.Action,
			Status:  domain.StatusPending,
		})
	}
	return report
}
