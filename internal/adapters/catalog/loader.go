// Package catalog loads formula documents into an immutable metadata snapshot.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Snapshot is an immutable set of package specs keyed by name. It implements
// ports.Catalog.
type Snapshot struct {
	specs map[string]*domain.PackageSpec
}

// Spec returns the package spec for the given name.
func (s *Snapshot) Spec(name string) (*domain.PackageSpec, error) {
	spec, ok := s.specs[name]
	if !ok {
		return nil, zerr.With(domain.ErrUnknownPackage, "package", name)
	}
	return spec, nil
}

// Names returns all package names in the snapshot, sorted.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.specs))
	for name := range s.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every formula document under dir into a snapshot.
func Load(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read catalog directory"), "dir", dir)
	}

	snap := &Snapshot{specs: make(map[string]*domain.PackageSpec)}
	for _, entry := range entries {
		if entry.IsDir() || !isFormulaFile(entry.Name()) {
			continue
		}
		spec, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, exists := snap.specs[spec.Name.String()]; exists {
			return nil, zerr.With(zerr.New("duplicate formula"), "package", spec.Name.String())
		}
		snap.specs[spec.Name.String()] = spec
	}
	return snap, nil
}

func isFormulaFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func loadFile(path string) (*domain.PackageSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the configured catalog dir
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read formula"), "path", path)
	}

	var doc formulaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse formula"), "path", path)
	}

	spec, err := doc.toSpec()
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return spec, nil
}

// toSpec validates the document and maps it onto the domain model.
func (d *formulaDoc) toSpec() (*domain.PackageSpec, error) {
	if d.Name == "" {
		return nil, zerr.New("formula is missing a name")
	}
	if d.Version == "" {
		return nil, zerr.With(zerr.New("formula is missing a version"), "package", d.Name)
	}
	if d.Bottle == nil && d.Source == nil {
		return nil, zerr.With(domain.ErrNoArtifact, "package", d.Name)
	}

	spec := &domain.PackageSpec{
		Name:       domain.NewInternedString(d.Name),
		Version:    domain.NewInternedString(d.Version),
		RuntimeEnv: d.RuntimeEnv,
	}

	for _, dep := range d.Dependencies {
		kind := domain.DependencyKind(dep.Kind)
		if dep.Kind == "" {
			kind = domain.KindRequired
		}
		if !kind.Valid() {
			err := zerr.With(zerr.New("unknown dependency kind"), "package", d.Name)
			return nil, zerr.With(err, "kind", dep.Kind)
		}
		spec.Dependencies = append(spec.Dependencies, domain.Dependency{
			Name: domain.NewInternedString(dep.Name),
			Kind: kind,
		})
	}

	if d.Bottle != nil {
		art, err := d.Bottle.toArtifact(d.Name, "bottle")
		if err != nil {
			return nil, err
		}
		spec.Bottle = art
	}
	if d.Source != nil {
		art, err := d.Source.toArtifact(d.Name, "source")
		if err != nil {
			return nil, err
		}
		spec.Source = art

		system := domain.BuildSystem(d.Build)
		switch system {
		case domain.BuildAutotools, domain.BuildCMake, domain.BuildMeson:
			spec.BuildSystem = system
		default:
			err := zerr.With(zerr.New("unknown build system"), "package", d.Name)
			return nil, zerr.With(err, "build", d.Build)
		}
	}

	for _, st := range d.Artifacts {
		spec.Artifacts = append(spec.Artifacts, domain.Stanza{
			Kind:   st.Kind,
			Source: st.Source,
			Target: st.Target,
		})
	}

	return spec, nil
}

func (a *artifactDoc) toArtifact(pkg, which string) (*domain.Artifact, error) {
	if a.URL == "" || a.SHA256 == "" {
		err := zerr.With(zerr.New("artifact is missing url or sha256"), "package", pkg)
		return nil, zerr.With(err, "artifact", which)
	}
	return &domain.Artifact{URL: a.URL, SHA256: a.SHA256}, nil
}
