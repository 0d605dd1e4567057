package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/hops/internal/core/ports/mocks"
	"go.trai.ch/hops/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	fetcher  *mocks.MockFetcher
	builder  *mocks.MockBuilder
	cellar   *mocks.MockCellar
	receipts *mocks.MockReceiptStore
	patcher  *mocks.MockPatcher
	linker   *mocks.MockLinker
	bundles  *mocks.MockBundleInstaller
}

// setupSchedulerTest creates a scheduler and common mocks.
func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
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

	// Default optimistic mocks to reduce noise in specific tests.
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

	cfg := domain.Config{Parallelism: 2}
	s := scheduler.New(m.fetcher, m.builder, m.cellar, m.receipts, m.patcher, m.linker, m.bundles, tracer, logger, cfg)
	return s, m
}

func bottleSpec(name, version string, deps ...domain.Dependency) *domain.PackageSpec {
	return &domain.PackageSpec{
		Name:         domain.NewInternedString(name),
		Version:      domain.NewInternedString(version),
		Dependencies: deps,
		Bottle:       &domain.Artifact{URL: "https://example.com/" + name + ".tar.gz", SHA256: "0000"},
	}
}

func dep(name string, kind domain.DependencyKind) domain.Dependency {
	return domain.Dependency{Name: domain.NewInternedString(name), Kind: kind}
}

// makePlan builds a plan in dependency-first order, the order the resolver
// produces.
func makePlan(specs ...*domain.PackageSpec) *domain.InstallPlan {
	plan := &domain.InstallPlan{}
	for _, s := range specs {
		plan.Nodes = append(plan.Nodes, &domain.PlanNode{
			Spec:   s,
			Action: domain.ActionUseBottle,
			Status: domain.StatusPending,
		})
	}
	return plan
}

// expectBottleInstall wires the happy path for one node.
func expectBottleInstall(m schedulerTestMocks, s *domain.PackageSpec) {
	name := s.Name.String()
	m.receipts.EXPECT().Get(name).Return(nil, nil)
	m.fetcher.EXPECT().Fetch(gomock.Any(), s, domain.ActionUseBottle).Return("/cache/"+name+".tar.gz", nil)
	m.fetcher.EXPECT().Unpack(gomock.Any(), "/cache/"+name+".tar.gz", gomock.Any()).Return(nil)
	m.patcher.EXPECT().RelocateTree(gomock.Any(), gomock.Any()).Return(0, nil)
	m.cellar.EXPECT().Install(gomock.Any(), s, gomock.Any(), gomock.Any()).Return(&domain.Receipt{
		Name:    name,
		Version: s.Version.String(),
	}, nil)
	m.linker.EXPECT().Link(gomock.Any(), s, gomock.Any()).Return(nil)
}

func TestScheduler_Run_InstallsInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specZlib := bottleSpec("zlib", "1.3")
		specCurl := bottleSpec("curl", "8.0", dep("zlib", domain.KindRequired))
		plan := makePlan(specZlib, specCurl)

		expectBottleInstall(m, specZlib)
		expectBottleInstall(m, specCurl)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{})
		require.NoError(t, err)
		require.True(t, report.AllSucceeded())
		require.Len(t, report.Entries, 2)
		for _, entry := range report.Entries {
			require.Equal(t, domain.StatusInstalled, entry.Status)
		}
	})
}

func TestScheduler_Run_FailureSkipsDependents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		// curl depends on zlib; jq is independent and must still install.
		specZlib := bottleSpec("zlib", "1.3")
		specCurl := bottleSpec("curl", "8.0", dep("zlib", domain.KindRequired))
		specJq := bottleSpec("jq", "1.7")
		plan := makePlan(specZlib, specCurl, specJq)

		fetchErr := errors.New("connection reset")
		m.receipts.EXPECT().Get("zlib").Return(nil, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), specZlib, domain.ActionUseBottle).Return("", fetchErr)
		expectBottleInstall(m, specJq)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{})
		require.Error(t, err)
		require.ErrorIs(t, err, fetchErr)

		statuses := map[string]domain.Status{}
		for _, entry := range report.Entries {
			statuses[entry.Name] = entry.Status
		}
		require.Equal(t, domain.StatusFailed, statuses["zlib"])
		require.Equal(t, domain.StatusSkipped, statuses["curl"])
		require.Equal(t, domain.StatusInstalled, statuses["jq"])
	})
}

func TestScheduler_Run_SoftDependencyFailureDoesNotSkip(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		// vim recommends ncurses. The recommended edge does not gate vim, so
		// a ncurses failure must not skip it.
		specNcurses := bottleSpec("ncurses", "6.4")
		specVim := bottleSpec("vim", "9.1", dep("ncurses", domain.KindRecommended))
		plan := makePlan(specNcurses, specVim)

		m.receipts.EXPECT().Get("ncurses").Return(nil, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), specNcurses, domain.ActionUseBottle).Return("", errors.New("mirror down"))
		expectBottleInstall(m, specVim)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{})
		require.Error(t, err)

		statuses := map[string]domain.Status{}
		for _, entry := range report.Entries {
			statuses[entry.Name] = entry.Status
		}
		require.Equal(t, domain.StatusFailed, statuses["ncurses"])
		require.Equal(t, domain.StatusInstalled, statuses["vim"])
	})
}

func TestScheduler_Run_AlreadyInstalled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specZlib := bottleSpec("zlib", "1.3")
		plan := makePlan(specZlib)

		fingerprint := domain.FlagsFingerprint(domain.ActionUseBottle, domain.InstallFlags{})
		m.receipts.EXPECT().Get("zlib").Return(&domain.Receipt{
			Name:      "zlib",
			Version:   "1.3",
			FlagsHash: fingerprint,
		}, nil)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{})
		require.NoError(t, err)
		require.Len(t, report.Entries, 1)
		require.Equal(t, domain.StatusAlreadyInstalled, report.Entries[0].Status)
	})
}

func TestScheduler_Run_ForceReinstallsOverMatchingKeg(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specZlib := bottleSpec("zlib", "1.3")
		plan := makePlan(specZlib)

		// No receipts.Get expectation: forcing must bypass the receipt
		// check entirely and run the full install.
		m.fetcher.EXPECT().Fetch(gomock.Any(), specZlib, domain.ActionUseBottle).Return("/cache/zlib.tar.gz", nil)
		m.fetcher.EXPECT().Unpack(gomock.Any(), "/cache/zlib.tar.gz", gomock.Any()).Return(nil)
		m.patcher.EXPECT().RelocateTree(gomock.Any(), gomock.Any()).Return(0, nil)
		m.cellar.EXPECT().Install(gomock.Any(), specZlib, gomock.Any(), gomock.Any()).Return(&domain.Receipt{
			Name:    "zlib",
			Version: "1.3",
		}, nil)
		m.linker.EXPECT().Link(gomock.Any(), specZlib, gomock.Any()).Return(nil)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{Force: true})
		require.NoError(t, err)
		require.Len(t, report.Entries, 1)
		require.Equal(t, domain.StatusInstalled, report.Entries[0].Status)
	})
}

func TestScheduler_Run_ReinstallsWhenFlagsDiffer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specZlib := bottleSpec("zlib", "1.3")
		plan := makePlan(specZlib)

		// The existing keg was installed with different flags, so the
		// receipt must not short-circuit the install.
		m.receipts.EXPECT().Get("zlib").Return(&domain.Receipt{
			Name:      "zlib",
			Version:   "1.3",
			FlagsHash: "different",
		}, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), specZlib, domain.ActionUseBottle).Return("/cache/zlib.tar.gz", nil)
		m.fetcher.EXPECT().Unpack(gomock.Any(), "/cache/zlib.tar.gz", gomock.Any()).Return(nil)
		m.patcher.EXPECT().RelocateTree(gomock.Any(), gomock.Any()).Return(0, nil)
		m.cellar.EXPECT().Install(gomock.Any(), specZlib, gomock.Any(), gomock.Any()).Return(&domain.Receipt{Name: "zlib", Version: "1.3"}, nil)
		m.linker.EXPECT().Link(gomock.Any(), specZlib, gomock.Any()).Return(nil)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{})
		require.NoError(t, err)
		require.Equal(t, domain.StatusInstalled, report.Entries[0].Status)
	})
}

func TestScheduler_Run_BuildFromSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specJq := &domain.PackageSpec{
			Name:        domain.NewInternedString("jq"),
			Version:     domain.NewInternedString("1.7"),
			Source:      &domain.Artifact{URL: "https://example.com/jq-src.tar.gz", SHA256: "1111"},
			BuildSystem: domain.BuildAutotools,
		}
		plan := &domain.InstallPlan{Nodes: []*domain.PlanNode{{
			Spec:   specJq,
			Action: domain.ActionBuildFromSource,
			Status: domain.StatusPending,
		}}}

		m.receipts.EXPECT().Get("jq").Return(nil, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), specJq, domain.ActionBuildFromSource).Return("/cache/jq-src.tar.gz", nil)
		m.fetcher.EXPECT().Unpack(gomock.Any(), "/cache/jq-src.tar.gz", gomock.Any()).Return(nil)
		m.builder.EXPECT().Build(gomock.Any(), specJq, gomock.Any(), gomock.Any()).Return(nil)
		m.patcher.EXPECT().RelocateTree(gomock.Any(), gomock.Any()).Return(2, nil)
		m.cellar.EXPECT().Install(gomock.Any(), specJq, gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ *domain.PackageSpec, _ string, rec ports.InstallRecord) (*domain.Receipt, error) {
				require.True(t, rec.BuiltFromSource)
				return &domain.Receipt{Name: "jq", Version: "1.7"}, nil
			},
		)
		m.linker.EXPECT().Link(gomock.Any(), specJq, gomock.Any()).Return(nil)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{BuildFromSource: true})
		require.NoError(t, err)
		require.Equal(t, domain.StatusInstalled, report.Entries[0].Status)
	})
}

func TestScheduler_Run_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specZlib := bottleSpec("zlib", "1.3")
		specCurl := bottleSpec("curl", "8.0", dep("zlib", domain.KindRequired))
		plan := makePlan(specZlib, specCurl)

		ctx, cancel := context.WithCancel(context.Background())

		m.receipts.EXPECT().Get("zlib").Return(nil, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), specZlib, domain.ActionUseBottle).DoAndReturn(
			func(ctx context.Context, _ *domain.PackageSpec, _ domain.Action) (string, error) {
				cancel()
				return "", ctx.Err()
			},
		)

		report, err := s.Run(ctx, plan, domain.InstallFlags{})
		require.Error(t, err)
		require.ErrorIs(t, err, context.Canceled)
		for _, entry := range report.Entries {
			require.Equal(t, domain.StatusSkipped, entry.Status)
		}
	})
}

func TestScheduler_Run_BundleStanzas(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		specApp := bottleSpec("somecask", "2.0")
		specApp.Artifacts = []domain.Stanza{{Kind: "app", Source: "Some.app"}}
		plan := makePlan(specApp)

		m.receipts.EXPECT().Get("somecask").Return(nil, nil)
		m.fetcher.EXPECT().Fetch(gomock.Any(), specApp, domain.ActionUseBottle).Return("/cache/somecask.tar.gz", nil)
		m.fetcher.EXPECT().Unpack(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.patcher.EXPECT().RelocateTree(gomock.Any(), gomock.Any()).Return(0, nil)
		m.bundles.EXPECT().InstallBundle(gomock.Any(), specApp.Artifacts, gomock.Any()).Return(
			[]domain.StanzaResult{{Stanza: specApp.Artifacts[0]}}, nil)
		m.cellar.EXPECT().Install(gomock.Any(), specApp, gomock.Any(), gomock.Any()).Return(&domain.Receipt{Name: "somecask", Version: "2.0"}, nil)
		m.linker.EXPECT().Link(gomock.Any(), specApp, gomock.Any()).Return(nil)

		report, err := s.Run(context.Background(), plan, domain.InstallFlags{})
		require.NoError(t, err)
		require.Equal(t, domain.StatusInstalled, report.Entries[0].Status)
	})
}
