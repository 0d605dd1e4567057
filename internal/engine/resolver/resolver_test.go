package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports/mocks"
	"go.trai.ch/hops/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

type catalogBuilder struct {
	specs map[string]*domain.PackageSpec
}

func newCatalog() *catalogBuilder {
	return &catalogBuilder{specs: make(map[string]*domain.PackageSpec)}
}

func (c *catalogBuilder) add(name string, deps ...domain.Dependency) *catalogBuilder {
	c.specs[name] = &domain.PackageSpec{
		Name:         domain.NewInternedString(name),
		Version:      domain.NewInternedString("1.0"),
		Dependencies: deps,
		Bottle:       &domain.Artifact{URL: "https://example.com/" + name + ".tar.gz", SHA256: "0000"},
	}
	return c
}

func (c *catalogBuilder) mock(t *testing.T) *mocks.MockCatalog {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mocks.NewMockCatalog(ctrl)
	for name, spec := range c.specs {
		m.EXPECT().Spec(name).Return(spec, nil).AnyTimes()
	}
	m.EXPECT().Spec(gomock.Any()).DoAndReturn(func(name string) (*domain.PackageSpec, error) {
		return nil, domain.ErrUnknownPackage
	}).AnyTimes()
	return m
}

func dep(name string, kind domain.DependencyKind) domain.Dependency {
	return domain.Dependency{Name: domain.NewInternedString(name), Kind: kind}
}

func planNames(plan *domain.InstallPlan) []string {
	names := make([]string, 0, len(plan.Nodes))
	for _, node := range plan.Nodes {
		names = append(names, node.Name())
	}
	return names
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestResolver_Resolve_TopologicalOrder(t *testing.T) {
	cat := newCatalog().
		add("openssl").
		add("zlib").
		add("curl", dep("openssl", domain.KindRequired), dep("zlib", domain.KindRequired)).
		add("git", dep("curl", domain.KindRequired), dep("zlib", domain.KindRequired))

	r := resolver.New(cat.mock(t))
	plan, err := r.Resolve([]string{"git"}, domain.InstallFlags{})
	require.NoError(t, err)

	names := planNames(plan)
	require.Len(t, names, 4)
	require.Less(t, indexOf(names, "openssl"), indexOf(names, "curl"))
	require.Less(t, indexOf(names, "zlib"), indexOf(names, "curl"))
	require.Less(t, indexOf(names, "curl"), indexOf(names, "git"))
}

func TestResolver_Resolve_DiamondDeduplicates(t *testing.T) {
	cat := newCatalog().
		add("zlib").
		add("libpng", dep("zlib", domain.KindRequired)).
		add("freetype", dep("zlib", domain.KindRequired)).
		add("imagemagick", dep("libpng", domain.KindRequired), dep("freetype", domain.KindRequired))

	r := resolver.New(cat.mock(t))
	plan, err := r.Resolve([]string{"imagemagick"}, domain.InstallFlags{})
	require.NoError(t, err)

	names := planNames(plan)
	require.Len(t, names, 4)
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	require.Equal(t, 1, seen["zlib"])
}

func TestResolver_Resolve_Deterministic(t *testing.T) {
	cat := newCatalog().
		add("a").
		add("b").
		add("c").
		add("root", dep("c", domain.KindRequired), dep("a", domain.KindRequired), dep("b", domain.KindRequired))

	r := resolver.New(cat.mock(t))
	first, err := r.Resolve([]string{"root"}, domain.InstallFlags{})
	require.NoError(t, err)
	for range 10 {
		again, err := r.Resolve([]string{"root"}, domain.InstallFlags{})
		require.NoError(t, err)
		require.Equal(t, planNames(first), planNames(again))
	}
}

func TestResolver_Resolve_UnknownPackage(t *testing.T) {
	cat := newCatalog().add("zlib")

	r := resolver.New(cat.mock(t))
	_, err := r.Resolve([]string{"nosuchthing"}, domain.InstallFlags{})
	require.ErrorIs(t, err, domain.ErrUnknownPackage)
}

func TestResolver_Resolve_UnknownTransitiveDependency(t *testing.T) {
	cat := newCatalog().add("curl", dep("missing", domain.KindRequired))

	r := resolver.New(cat.mock(t))
	_, err := r.Resolve([]string{"curl"}, domain.InstallFlags{})
	require.ErrorIs(t, err, domain.ErrUnknownPackage)
}

func TestResolver_Resolve_CycleDetected(t *testing.T) {
	cat := newCatalog().
		add("a", dep("b", domain.KindRequired)).
		add("b", dep("c", domain.KindRequired)).
		add("c", dep("a", domain.KindRequired))

	r := resolver.New(cat.mock(t))
	_, err := r.Resolve([]string{"a"}, domain.InstallFlags{})
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestResolver_Resolve_SoftEdgeCycleAllowed(t *testing.T) {
	// a requires b; b recommends a. The recommended back-edge must not
	// count as a cycle.
	cat := newCatalog().
		add("a", dep("b", domain.KindRequired)).
		add("b", dep("a", domain.KindRecommended))

	r := resolver.New(cat.mock(t))
	plan, err := r.Resolve([]string{"a"}, domain.InstallFlags{})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, planNames(plan))
}

func TestResolver_Resolve_OptionalOffByDefault(t *testing.T) {
	cat := newCatalog().
		add("extra").
		add("rec").
		add("tool", dep("extra", domain.KindOptional), dep("rec", domain.KindRecommended))

	r := resolver.New(cat.mock(t))

	plan, err := r.Resolve([]string{"tool"}, domain.InstallFlags{})
	require.NoError(t, err)
	names := planNames(plan)
	require.NotContains(t, names, "extra")
	require.Contains(t, names, "rec")

	plan, err = r.Resolve([]string{"tool"}, domain.InstallFlags{IncludeOptional: true, SkipRecommended: true})
	require.NoError(t, err)
	names = planNames(plan)
	require.Contains(t, names, "extra")
	require.NotContains(t, names, "rec")
}

func TestResolver_Resolve_TestEdgesExcluded(t *testing.T) {
	cat := newCatalog().
		add("testdep").
		add("tool", dep("testdep", domain.KindTest))

	r := resolver.New(cat.mock(t))
	plan, err := r.Resolve([]string{"tool"}, domain.InstallFlags{IncludeOptional: true})
	require.NoError(t, err)
	require.Equal(t, []string{"tool"}, planNames(plan))
}

func TestResolver_Resolve_NoPackages(t *testing.T) {
	r := resolver.New(newCatalog().mock(t))
	_, err := r.Resolve(nil, domain.InstallFlags{})
	require.ErrorIs(t, err, domain.ErrNoPackagesSpecified)
}

func TestResolver_Resolve_ActionSelection(t *testing.T) {
	sourceOnly := &domain.PackageSpec{
		Name:        domain.NewInternedString("srconly"),
		Version:     domain.NewInternedString("1.0"),
		Source:      &domain.Artifact{URL: "https://example.com/srconly.tar.gz", SHA256: "1111"},
		BuildSystem: domain.BuildAutotools,
	}
	bottleOnly := &domain.PackageSpec{
		Name:    domain.NewInternedString("bottled"),
		Version: domain.NewInternedString("1.0"),
		Bottle:  &domain.Artifact{URL: "https://example.com/bottled.tar.gz", SHA256: "2222"},
	}

	cat := newCatalog()
	cat.specs["srconly"] = sourceOnly
	cat.specs["bottled"] = bottleOnly

	r := resolver.New(cat.mock(t))

	plan, err := r.Resolve([]string{"srconly", "bottled"}, domain.InstallFlags{})
	require.NoError(t, err)
	actions := map[string]domain.Action{}
	for _, node := range plan.Nodes {
		actions[node.Name()] = node.Action
	}
	require.Equal(t, domain.ActionBuildFromSource, actions["srconly"])
	require.Equal(t, domain.ActionUseBottle, actions["bottled"])

	// A bottle-only package cannot honor a source build request.
	_, err = r.Resolve([]string{"bottled"}, domain.InstallFlags{BuildFromSource: true})
	require.ErrorIs(t, err, domain.ErrNoArtifact)
}
