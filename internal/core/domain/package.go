// Package domain contains the core domain models for the install engine.
package domain

import "sort"

// DependencyKind classifies an edge in the dependency graph.
type DependencyKind string

const (
	// KindRequired marks a runtime dependency that must be installed first.
	KindRequired DependencyKind = "required"
	// KindBuild marks a dependency only needed while building from source.
	KindBuild DependencyKind = "build"
	// KindOptional marks a dependency installed on explicit request only.
	KindOptional DependencyKind = "optional"
	// KindRecommended marks a dependency installed by default but skippable.
	KindRecommended DependencyKind = "recommended"
	// KindTest marks a dependency used by the package's test suite only.
	KindTest DependencyKind = "test"
)

// Blocking reports whether edges of this kind must reach a terminal success
// state before the dependent may begin its own install.
func (k DependencyKind) Blocking() bool {
	return k == KindRequired || k == KindBuild
}

// Valid reports whether k is one of the known edge kinds.
func (k DependencyKind) Valid() bool {
	switch k {
	case KindRequired, KindBuild, KindOptional, KindRecommended, KindTest:
		return true
	}
	return false
}

// Dependency is a single edge from a dependent package to the named target.
type Dependency struct {
	Name InternedString
	Kind DependencyKind
}

// Artifact describes a downloadable archive and its expected content digest.
type Artifact struct {
	URL    string
	SHA256 string
}

// BuildSystem selects the build strategy declared by a package's recipe.
type BuildSystem string

const (
	// BuildAutotools runs the classic configure / make / make install dance.
	BuildAutotools BuildSystem = "autotools"
	// BuildCMake configures and installs through cmake.
	BuildCMake BuildSystem = "cmake"
	// BuildMeson configures and installs through meson.
	BuildMeson BuildSystem = "meson"
	// BuildNone is used by bottle-only packages without a source recipe.
	BuildNone BuildSystem = ""
)

// Stanza is one declarative artifact instruction for bundle-style packages,
// interpreted by the bundle installer collaborator.
type Stanza struct {
	// Kind selects the interpreter entry ("app", "binary").
	Kind string
	// Source is the path of the artifact relative to the staged extraction dir.
	Source string
	// Target is the destination name; empty means keep the source name.
	Target string
}

// StanzaResult is the opaque per-stanza outcome returned by the bundle installer.
type StanzaResult struct {
	Stanza Stanza
	Err    error
}

// PackageSpec describes how to obtain or build one package.
// It is produced by the catalog loader and immutable afterwards.
type PackageSpec struct {
	Name         InternedString
	Version      InternedString
	Dependencies []Dependency

	// Bottle is the precompiled artifact, nil when the package has none.
	Bottle *Artifact
	// Source is the buildable source artifact, nil for bottle-only packages.
	Source *Artifact

	BuildSystem BuildSystem

	// RuntimeEnv lists environment variables the package's executables need at
	// launch. A non-empty map makes the linker emit wrapper scripts instead of
	// plain symlinks for the keg's executables.
	RuntimeEnv map[string]string

	// Artifacts is the stanza list for bundle-style packages; empty otherwise.
	Artifacts []Stanza
}

// DependenciesOfKind returns the spec's edges matching any of the given kinds,
// sorted by target name.
func (s *PackageSpec) DependenciesOfKind(kinds ...DependencyKind) []Dependency {
	var out []Dependency
	for _, d := range s.Dependencies {
		for _, k := range kinds {
			if d.Kind == k {
				out = append(out, d)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name.String() < out[j].Name.String()
	})
	return out
}

// BlockingDependencies returns the Required and Build edges sorted by name.
func (s *PackageSpec) BlockingDependencies() []Dependency {
	return s.DependenciesOfKind(KindRequired, KindBuild)
}
