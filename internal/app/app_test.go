package app_test

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/hops/internal/app"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/hops/internal/core/ports/mocks"
	"go.trai.ch/hops/internal/engine/resolver"
	"go.trai.ch/hops/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type appTestMocks struct {
	catalog  *mocks.MockCatalog
	fetcher  *mocks.MockFetcher
	builder  *mocks.MockBuilder
	cellar   *mocks.MockCellar
	receipts *mocks.MockReceiptStore
	patcher  *mocks.MockPatcher
	linker   *mocks.MockLinker
	bundles  *mocks.MockBundleInstaller
}

// setupAppTest assembles an App over a real resolver and scheduler with all
// collaborators mocked.
func setupAppTest(t *testing.T) (*app.App, appTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := appTestMocks{
		catalog:  mocks.NewMockCatalog(ctrl),
		fetcher:  mocks.NewMockFetcher(ctrl),
		builder:  mocks.NewMockBuilder(ctrl),
		cellar:   mocks.NewMockCellar(ctrl),
		receipts: mocks.NewMockReceiptStore(ctrl),
		patcher:  mocks.NewMockPatcher(ctrl),
		linker:   mocks.NewMockLinker(ctrl),
		bundles:  mocks.NewMockBundleInstaller(ctrl),
	}

	tracer := mocks.NewMockTracer(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).Return(0, nil).AnyTimes()

	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()

	logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	res := resolver.New(m.catalog)
	sched := scheduler.New(m.fetcher, m.builder, m.cellar, m.receipts, m.patcher, m.linker, m.bundles, tracer, logger, domain.Config{Parallelism: 2})
	a := app.New(res, sched, m.catalog, m.cellar, m.receipts, m.linker, logger)
	return a, m
}

func catalogSpec(name, version string, deps ...domain.Dependency) *domain.PackageSpec {
	return &domain.PackageSpec{
		Name:         domain.NewInternedString(name),
		Version:      domain.NewInternedString(version),
		Dependencies: deps,
		Bottle:       &domain.Artifact{URL: "https://example.com/" + name + ".tar.gz", SHA256: "0000"},
	}
}

func TestApp_Install(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		a, m := setupAppTest(t)

		spec := catalogSpec("jq", "1.7")
		m.catalog.EXPECT().Spec("jq").Return(spec, nil)

		m.receipts.EXPECT().Get("jq").Return(nil, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), spec, domain.ActionUseBottle).Return("/cache/jq.tar.gz", nil)
		m.fetcher.EXPECT().Unpack(gomock.Any(), "/cache/jq.tar.gz", gomock.Any()).Return(nil)
		m.patcher.EXPECT().RelocateTree(gomock.Any(), gomock.Any()).Return(0, nil)
		m.cellar.EXPECT().Install(gomock.Any(), spec, gomock.Any(), gomock.Any()).Return(&domain.Receipt{Name: "jq", Version: "1.7"}, nil)
		m.linker.EXPECT().Link(gomock.Any(), spec, gomock.Any()).Return(nil)

		report, err := a.Install(context.Background(), []string{"jq"}, domain.InstallFlags{})
		require.NoError(t, err)
		require.True(t, report.AllSucceeded())
		require.Len(t, report.Entries, 1)
		require.Equal(t, domain.StatusInstalled, report.Entries[0].Status)
	})
}

func TestApp_Install_DryRunStopsAfterResolution(t *testing.T) {
	a, m := setupAppTest(t)

	specZlib := catalogSpec("zlib", "1.3")
	specCurl := catalogSpec("curl", "8.0", domain.Dependency{
		Name: domain.NewInternedString("zlib"),
		Kind: domain.KindRequired,
	})
	m.catalog.EXPECT().Spec("curl").Return(specCurl, nil)
	m.catalog.EXPECT().Spec("zlib").Return(specZlib, nil)

	// No fetcher, cellar or linker expectations: a dry run must not reach
	// the scheduler.
	report, err := a.Install(context.Background(), []string{"curl"}, domain.InstallFlags{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	require.Equal(t, "zlib", report.Entries[0].Name)
	require.Equal(t, "curl", report.Entries[1].Name)
	for _, entry := range report.Entries {
		require.Equal(t, domain.StatusPending, entry.Status)
	}
}

func TestApp_Install_UnknownPackage(t *testing.T) {
	a, m := setupAppTest(t)

	m.catalog.EXPECT().Spec("ghost").Return(nil, domain.ErrUnknownPackage)

	_, err := a.Install(context.Background(), []string{"ghost"}, domain.InstallFlags{})
	require.ErrorIs(t, err, domain.ErrUnknownPackage)
}

func TestApp_Uninstall(t *testing.T) {
	a, m := setupAppTest(t)

	receipt := &domain.Receipt{Name: "jq", Version: "1.7"}
	m.receipts.EXPECT().Get("jq").Return(receipt, nil)
	m.receipts.EXPECT().Dependents("jq").Return(nil, nil)
	gomock.InOrder(
		m.linker.EXPECT().Unlink(gomock.Any(), receipt).Return(nil),
		m.cellar.EXPECT().Uninstall(gomock.Any(), "jq", false).Return(nil),
	)

	require.NoError(t, a.Uninstall(context.Background(), "jq", false))
}

func TestApp_Uninstall_NotInstalled(t *testing.T) {
	a, m := setupAppTest(t)

	m.receipts.EXPECT().Get("jq").Return(nil, nil)

	err := a.Uninstall(context.Background(), "jq", false)
	require.ErrorIs(t, err, domain.ErrNotInstalled)
}

func TestApp_Uninstall_BlockedByDependents(t *testing.T) {
	a, m := setupAppTest(t)

	receipt := &domain.Receipt{Name: "zlib", Version: "1.3"}
	m.receipts.EXPECT().Get("zlib").Return(receipt, nil)
	m.receipts.EXPECT().Dependents("zlib").Return([]string{"curl"}, nil)

	err := a.Uninstall(context.Background(), "zlib", false)
	require.ErrorIs(t, err, domain.ErrReferenceStillExists)
}

func TestApp_Uninstall_ForceOverridesDependents(t *testing.T) {
	a, m := setupAppTest(t)

	receipt := &domain.Receipt{Name: "zlib", Version: "1.3"}
	m.receipts.EXPECT().Get("zlib").Return(receipt, nil)
	m.receipts.EXPECT().Dependents("zlib").Return([]string{"curl"}, nil)
	m.linker.EXPECT().Unlink(gomock.Any(), receipt).Return(nil)
	m.cellar.EXPECT().Uninstall(gomock.Any(), "zlib", true).Return(nil)

	require.NoError(t, a.Uninstall(context.Background(), "zlib", true))
}

func TestApp_Info(t *testing.T) {
	a, m := setupAppTest(t)

	spec := catalogSpec("jq", "1.7")
	receipt := &domain.Receipt{Name: "jq", Version: "1.7"}
	m.catalog.EXPECT().Spec("jq").Return(spec, nil)
	m.receipts.EXPECT().Get("jq").Return(receipt, nil)

	info, err := a.Info(context.Background(), "jq")
	require.NoError(t, err)
	require.Same(t, spec, info.Spec)
	require.Same(t, receipt, info.Receipt)
}

func TestApp_List(t *testing.T) {
	a, m := setupAppTest(t)

	receipts := []*domain.Receipt{
		{Name: "curl", Version: "8.0"},
		{Name: "zlib", Version: "1.3"},
	}
	m.receipts.EXPECT().List().Return(receipts, nil)

	got, err := a.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, receipts, got)
}
