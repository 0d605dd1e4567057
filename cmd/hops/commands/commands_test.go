package commands_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/hops/cmd/hops/commands"
	"go.trai.ch/hops/internal/app"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports/mocks"
	"go.trai.ch/hops/internal/engine/resolver"
	"go.trai.ch/hops/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type cliTestMocks struct {
	catalog  *mocks.MockCatalog
	cellar   *mocks.MockCellar
	receipts *mocks.MockReceiptStore
	linker   *mocks.MockLinker
}

// setupCLITest builds a CLI over an app whose collaborators are all mocked.
// The scheduler is wired but only dry-run and non-install commands are
// exercised here; execution paths are covered by the scheduler tests.
func setupCLITest(t *testing.T) (*commands.CLI, *bytes.Buffer, cliTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := cliTestMocks{
		catalog:  mocks.NewMockCatalog(ctrl),
		cellar:   mocks.NewMockCellar(ctrl),
		receipts: mocks.NewMockReceiptStore(ctrl),
		linker:   mocks.NewMockLinker(ctrl),
	}

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	res := resolver.New(m.catalog)
	sched := scheduler.New(
		mocks.NewMockFetcher(ctrl), mocks.NewMockBuilder(ctrl), m.cellar, m.receipts,
		mocks.NewMockPatcher(ctrl), m.linker, mocks.NewMockBundleInstaller(ctrl),
		tracer, logger, domain.Config{Parallelism: 1},
	)
	a := app.New(res, sched, m.catalog, m.cellar, m.receipts, m.linker, logger)

	cli := commands.New(a)
	out := &bytes.Buffer{}
	cli.SetOutput(out)
	return cli, out, m
}

func TestInstall_DryRun(t *testing.T) {
	cli, out, m := setupCLITest(t)

	spec := &domain.PackageSpec{
		Name:    domain.NewInternedString("jq"),
		Version: domain.NewInternedString("1.7"),
		Bottle:  &domain.Artifact{URL: "https://example.com/jq.tar.gz", SHA256: "0000"},
	}
	m.catalog.EXPECT().Spec("jq").Return(spec, nil)

	cli.SetArgs([]string{"install", "--dry-run", "jq"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "would install jq 1.7 (bottle)")
}

func TestInstall_UnknownPackage(t *testing.T) {
	cli, _, m := setupCLITest(t)

	m.catalog.EXPECT().Spec("ghost").Return(nil, domain.ErrUnknownPackage)

	cli.SetArgs([]string{"install", "ghost"})
	err := cli.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrUnknownPackage)
}

func TestInstall_NoArgsShowsHelp(t *testing.T) {
	cli, out, _ := setupCLITest(t)

	cli.SetArgs([]string{"install"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "Install packages and their dependencies")
}

func TestUninstall(t *testing.T) {
	cli, out, m := setupCLITest(t)

	receipt := &domain.Receipt{Name: "jq", Version: "1.7"}
	m.receipts.EXPECT().Get("jq").Return(receipt, nil)
	m.receipts.EXPECT().Dependents("jq").Return(nil, nil)
	m.linker.EXPECT().Unlink(gomock.Any(), receipt).Return(nil)
	m.cellar.EXPECT().Uninstall(gomock.Any(), "jq", false).Return(nil)

	cli.SetArgs([]string{"uninstall", "jq"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "uninstalled jq")
}

func TestList(t *testing.T) {
	cli, out, m := setupCLITest(t)

	m.receipts.EXPECT().List().Return([]*domain.Receipt{
		{Name: "curl", Version: "8.0"},
		{Name: "zlib", Version: "1.3"},
	}, nil)

	cli.SetArgs([]string{"list"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "curl 8.0")
	require.Contains(t, out.String(), "zlib 1.3")
}

func TestInfo(t *testing.T) {
	cli, out, m := setupCLITest(t)

	spec := &domain.PackageSpec{
		Name:    domain.NewInternedString("curl"),
		Version: domain.NewInternedString("8.0"),
		Dependencies: []domain.Dependency{
			{Name: domain.NewInternedString("zlib"), Kind: domain.KindRequired},
		},
		Bottle: &domain.Artifact{URL: "https://example.com/curl.tar.gz", SHA256: "0000"},
	}
	receipt := &domain.Receipt{
		Name:        "curl",
		Version:     "8.0",
		Files:       []string{"bin/curl"},
		InstalledAt: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
	}
	m.catalog.EXPECT().Spec("curl").Return(spec, nil)
	m.receipts.EXPECT().Get("curl").Return(receipt, nil)

	cli.SetArgs([]string{"info", "curl"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "curl 8.0")
	require.Contains(t, out.String(), "dependencies: zlib (required)")
	require.Contains(t, out.String(), "artifacts: bottle")
	require.Contains(t, out.String(), "installed: 8.0 (1 files, 2026-08-01 12:30)")
}

func TestInfo_NotInstalled(t *testing.T) {
	cli, out, m := setupCLITest(t)

	spec := &domain.PackageSpec{
		Name:    domain.NewInternedString("jq"),
		Version: domain.NewInternedString("1.7"),
		Bottle:  &domain.Artifact{URL: "https://example.com/jq.tar.gz", SHA256: "0000"},
	}
	m.catalog.EXPECT().Spec("jq").Return(spec, nil)
	m.receipts.EXPECT().Get("jq").Return(nil, nil)

	cli.SetArgs([]string{"info", "jq"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "not installed")
}

func TestVersion(t *testing.T) {
	cli, out, _ := setupCLITest(t)

	cli.SetArgs([]string{"version"})
	require.NoError(t, cli.Execute(context.Background()))
	require.Contains(t, out.String(), "hops version")
}
