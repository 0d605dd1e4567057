// Package resolver builds install plans from the dependency graph.
package resolver

import (
	"strings"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver constructs the transitive dependency graph of the requested roots
// and produces a deterministic, topologically ordered install plan.
type Resolver struct {
	catalog ports.Catalog
}

// New creates a Resolver over the given catalog snapshot.
func New(catalog ports.Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Three-color DFS marks.
const (
	unvisited = 0
	visiting  = 1
	done      = 2
)

// Resolve returns the install plan for the given roots. Every node's blocking
// dependencies appear earlier in the sequence and each package appears at
// most once. It fails with domain.ErrUnknownPackage for names absent from the
// catalog and domain.ErrCycleDetected for cycles among Required/Build edges;
// both abort before any filesystem mutation.
func (r *Resolver) Resolve(roots []string, flags domain.InstallFlags) (*domain.InstallPlan, error) {
	if len(roots) == 0 {
		return nil, domain.ErrNoPackagesSpecified
	}

	color := make(map[string]int)
	var path []string
	var order []*domain.PackageSpec

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = visiting
		path = append(path, name)

		spec, err := r.catalog.Spec(name)
		if err != nil {
			return err
		}

		for _, dep := range r.edges(spec, flags) {
			target := dep.Name.String()
			switch color[target] {
			case visiting:
				// Back-edge. Only blocking edges constitute a cycle; a soft
				// edge into an in-progress node is simply not followed.
				if dep.Kind.Blocking() {
					return cycleError(path, target)
				}
			case unvisited:
				if err := visit(target); err != nil {
					return err
				}
			}
		}

		color[name] = done
		path = path[:len(path)-1]
		order = append(order, spec)
		return nil
	}

	for _, root := range roots {
		if color[root] == unvisited {
			if err := visit(root); err != nil {
				return nil, err
			}
		}
	}

	plan := &domain.InstallPlan{Nodes: make([]*domain.PlanNode, 0, len(order))}
	for _, spec := range order {
		action, err := chooseAction(spec, flags)
		if err != nil {
			return nil, err
		}
		plan.Nodes = append(plan.Nodes, &domain.PlanNode{
			Spec:   spec,
			Action: action,
			Status: domain.StatusPending,
		})
	}
	return plan, nil
}

// edges returns the dependency edges to follow for this resolution, sorted by
// target name for deterministic traversal. Test edges are excluded from
// install-time graphs entirely; Optional and Recommended participation is
// controlled by flags.
func (r *Resolver) edges(spec *domain.PackageSpec, flags domain.InstallFlags) []domain.Dependency {
	kinds := []domain.DependencyKind{domain.KindRequired, domain.KindBuild}
	if flags.IncludeOptional {
		kinds = append(kinds, domain.KindOptional)
	}
	if !flags.SkipRecommended {
		kinds = append(kinds, domain.KindRecommended)
	}
	return spec.DependenciesOfKind(kinds...)
}

// chooseAction picks the artifact source for one node.
func chooseAction(spec *domain.PackageSpec, flags domain.InstallFlags) (domain.Action, error) {
	if spec.Bottle != nil && !flags.BuildFromSource {
		return domain.ActionUseBottle, nil
	}
	if spec.Source != nil {
		return domain.ActionBuildFromSource, nil
	}
	err := zerr.With(domain.ErrNoArtifact, "package", spec.Name.String())
	if flags.BuildFromSource {
		err = zerr.With(err, "reason", "build from source requested but no source artifact declared")
	}
	return "", err
}

// cycleError constructs an error carrying the cycle path metadata.
func cycleError(path []string, target string) error {
	start := 0
	for i, node := range path {
		if node == target {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, path[start:]...), target)
	return zerr.With(domain.ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}
