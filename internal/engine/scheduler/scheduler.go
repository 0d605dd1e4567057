// Package scheduler implements the concurrent install orchestrator.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/hops/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler drives plan nodes through their lifecycle on a bounded worker
// pool, respecting the plan's partial order. A single node's
// fetch→build→install→patch→link sequence runs on one worker without
// internal parallelism; parallelism exists across independent nodes.
type Scheduler struct {
	fetcher  ports.Fetcher
	builder  ports.Builder
	cellar   ports.Cellar
	receipts ports.ReceiptStore
	patcher  ports.Patcher
	linker   ports.Linker
	bundles  ports.BundleInstaller
	tracer   ports.Tracer
	logger   ports.Logger
	cfg      domain.Config

	mu sync.Mutex
}

// New creates a Scheduler with the given collaborators.
func New(
	fetcher ports.Fetcher,
	builder ports.Builder,
	cellar ports.Cellar,
	receipts ports.ReceiptStore,
	patcher ports.Patcher,
	linker ports.Linker,
	bundles ports.BundleInstaller,
	tracer ports.Tracer,
	logger ports.Logger,
	cfg domain.Config,
) *Scheduler {
	return &Scheduler{
		fetcher:  fetcher,
		builder:  builder,
		cellar:   cellar,
		receipts: receipts,
		patcher:  patcher,
		linker:   linker,
		bundles:  bundles,
		tracer:   tracer,
		logger:   logger,
		cfg:      cfg,
	}
}

// setStatus advances a node's lifecycle under the scheduler's lock.
func (s *Scheduler) setStatus(node *domain.PlanNode, status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := node.SetStatus(status); err != nil {
		s.logger.Error(err)
	}
}

func (s *Scheduler) status(node *domain.PlanNode) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return node.Status
}

// Run executes the plan and returns the final per-node report. Nodes that
// fail are reported individually; their transitive dependents terminate as
// Skipped without being dispatched, while independent branches proceed.
func (s *Scheduler) Run(ctx context.Context, plan *domain.InstallPlan, flags domain.InstallFlags) (*domain.Report, error) {
	s.tracer.EmitPlan(ctx, plan.Names())

	state := s.newRunState(ctx, plan, flags)

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil {
			if state.active == 0 {
				break
			}
			// Cancelled with workers in flight: wait for them to drain.
			state.handleResult(<-state.resultsCh)
			continue
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	// Queued and undispatched nodes terminate as Skipped, under cancellation
	// as well as after upstream failures.
	for _, node := range plan.Nodes {
		if !s.status(node).Terminal() {
			s.setStatus(node, domain.StatusSkipped)
		}
	}

	report := state.report()
	errs := state.errs
	if state.ctx.Err() != nil {
		errs = errors.Join(errs, state.ctx.Err())
	}
	return report, errs
}

type result struct {
	name string
	err  error
}

type runState struct {
	s     *Scheduler
	ctx   context.Context
	flags domain.InstallFlags

	plan       *domain.InstallPlan
	nodes      map[string]*domain.PlanNode
	inDegree   map[string]int
	dependents map[string][]string
	nodeErrs   map[string]error

	ready       []string
	active      int
	resultsCh   chan result
	errs        error
	parallelism int
}

func (s *Scheduler) newRunState(ctx context.Context, plan *domain.InstallPlan, flags domain.InstallFlags) *runState {
	parallelism := max(s.cfg.Parallelism, 1)

	state := &runState{
		s:           s,
		ctx:         ctx,
		flags:       flags,
		plan:        plan,
		nodes:       make(map[string]*domain.PlanNode, len(plan.Nodes)),
		inDegree:    make(map[string]int, len(plan.Nodes)),
		dependents:  make(map[string][]string),
		nodeErrs:    make(map[string]error),
		resultsCh:   make(chan result, parallelism),
		parallelism: parallelism,
	}

	for _, node := range plan.Nodes {
		state.nodes[node.Name()] = node
	}

	// Count only blocking edges whose target is part of the plan. Optional
	// and Recommended dependencies never gate their dependents.
	for _, node := range plan.Nodes {
		name := node.Name()
		degree := 0
		for _, dep := range node.Spec.BlockingDependencies() {
			target := dep.Name.String()
			if _, ok := state.nodes[target]; ok {
				degree++
				state.dependents[target] = append(state.dependents[target], name)
			}
		}
		state.inDegree[name] = degree
	}

	// Seed the ready queue in plan order for deterministic dispatch.
	for _, node := range plan.Nodes {
		if state.inDegree[node.Name()] == 0 {
			state.ready = append(state.ready, node.Name())
		}
	}

	return state
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]
		state.active++

		go func(node *domain.PlanNode) {
			state.resultsCh <- result{name: node.Name(), err: state.s.runNode(state.ctx, node, state.flags)}
		}(state.nodes[name])
	}
}

func (state *runState) handleResult(res result) {
	state.active--
	node := state.nodes[res.name]

	if res.err != nil {
		if state.ctx.Err() != nil && errors.Is(res.err, context.Canceled) {
			// Cancelled mid-flight after its last atomic step: not a failure.
			state.s.setStatus(node, domain.StatusSkipped)
			return
		}
		wrapped := zerr.With(zerr.Wrap(res.err, "package install failed"), "package", res.name)
		state.errs = errors.Join(state.errs, wrapped)
		state.nodeErrs[res.name] = res.err
		state.s.setStatus(node, domain.StatusFailed)
		state.skipDependents(res.name)
		return
	}

	for _, dep := range state.dependents[res.name] {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// skipDependents marks every transitive blocking dependent of name Skipped.
// None of them has been dispatched: their in-degree never reached zero.
func (state *runState) skipDependents(name string) {
	stack := append([]string{}, state.dependents[name]...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := state.nodes[next]
		if state.s.status(node).Terminal() {
			continue
		}
		state.s.setStatus(node, domain.StatusSkipped)
		stack = append(stack, state.dependents[next]...)
	}
}

func (state *runState) report() *domain.Report {
	report := &domain.Report{Entries: make([]domain.ReportEntry, 0, len(state.plan.Nodes))}
	for _, node := range state.plan.Nodes {
		report.Entries = append(report.Entries, domain.ReportEntry{
			Name:    node.Name(),
			Version: node.Spec.Version.String(),
			Action:  node.Action,
			Status:  state.s.status(node),
			Err:     state.nodeErrs[node.Name()],
		})
	}
	return report
}

// runNode drives a single node through fetch → build → install → patch →
// link. The cancellation signal is checked between stages, never inside a
// filesystem mutation, so the cellar invariant holds under cancellation.
func (s *Scheduler) runNode(ctx context.Context, node *domain.PlanNode, flags domain.InstallFlags) (err error) {
	name := node.Name()
	version := node.Spec.Version.String()

	ctx, span := s.tracer.Start(ctx, "install "+name)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
	}()
	span.SetAttribute("version", version)
	span.SetAttribute("action", string(node.Action))

	fingerprint := domain.FlagsFingerprint(node.Action, flags)

	// Force reinstalls over a matching keg, so the receipt check only
	// short-circuits without it.
	if !flags.Force {
		existing, err := s.receipts.Get(name)
		if err != nil {
			return err
		}
		if existing != nil && existing.Version == version && existing.FlagsHash == fingerprint {
			s.setStatus(node, domain.StatusAlreadyInstalled)
			span.SetAttribute("cached", true)
			return nil
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	s.setStatus(node, domain.StatusFetching)
	archive, err := s.fetcher.Fetch(ctx, node.Spec, node.Action)
	if err != nil {
		return err
	}

	stage, err := os.MkdirTemp("", "hops-stage-"+name+"-")
	if err != nil {
		return zerr.Wrap(err, "failed to create stage directory")
	}
	defer os.RemoveAll(stage) //nolint:errcheck // Scoped cleanup on every exit path

	if node.Action == domain.ActionBuildFromSource {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.setStatus(node, domain.StatusBuilding)
		if err := s.buildInto(ctx, node, archive, stage); err != nil {
			return err
		}
	} else if err := s.fetcher.Unpack(ctx, archive, stage); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	s.setStatus(node, domain.StatusInstalling)

	patched, err := s.patcher.RelocateTree(stage, s.cfg.Replacements(name, version))
	if err != nil {
		return err
	}
	if patched > 0 {
		_, _ = fmt.Fprintf(span, "relocated %d binaries\n", patched)
	}

	if len(node.Spec.Artifacts) > 0 {
		if err := s.installBundle(ctx, node, stage, span); err != nil {
			return err
		}
	}

	receipt, err := s.cellar.Install(ctx, node.Spec, stage, ports.InstallRecord{
		Dependencies:    runtimeDependencyNames(node.Spec, flags),
		FlagsHash:       fingerprint,
		BuiltFromSource: node.Action == domain.ActionBuildFromSource,
	})
	if err != nil {
		return err
	}

	if err := s.linker.Link(ctx, node.Spec, receipt); err != nil {
		return err
	}

	s.setStatus(node, domain.StatusInstalled)
	_, _ = fmt.Fprintf(span, "installed %s %s\n", name, version)
	return nil
}

// buildInto unpacks the source archive and runs the declared build strategy,
// installing the result into stage.
func (s *Scheduler) buildInto(ctx context.Context, node *domain.PlanNode, archive, stage string) error {
	src, err := os.MkdirTemp("", "hops-src-"+node.Name()+"-")
	if err != nil {
		return zerr.Wrap(err, "failed to create source directory")
	}
	defer os.RemoveAll(src) //nolint:errcheck // Scoped cleanup on every exit path

	if err := s.fetcher.Unpack(ctx, archive, src); err != nil {
		return err
	}
	return s.builder.Build(ctx, node.Spec, src, stage)
}

// installBundle hands the resolved stanza list to the bundle installer and
// folds the per-stanza results into a single terminal outcome for the node.
func (s *Scheduler) installBundle(ctx context.Context, node *domain.PlanNode, stage string, span ports.Span) error {
	results, err := s.bundles.InstallBundle(ctx, node.Spec.Artifacts, stage)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			err := zerr.Wrap(res.Err, "artifact stanza failed")
			return zerr.With(err, "stanza", res.Stanza.Kind)
		}
		_, _ = fmt.Fprintf(span, "installed %s artifact %s\n", res.Stanza.Kind, res.Stanza.Source)
	}
	return nil
}

// runtimeDependencyNames returns the dependency names recorded in the keg's
// receipt for uninstall reference counting: Required edges plus the soft
// edges this resolution actually pulled in.
func runtimeDependencyNames(spec *domain.PackageSpec, flags domain.InstallFlags) []string {
	kinds := []domain.DependencyKind{domain.KindRequired}
	if flags.IncludeOptional {
		kinds = append(kinds, domain.KindOptional)
	}
	if !flags.SkipRecommended {
		kinds = append(kinds, domain.KindRecommended)
	}
	deps := spec.DependenciesOfKind(kinds...)
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name.String())
	}
	return names
}
