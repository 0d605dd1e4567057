package domain

import "go.trai.ch/zerr"

// Action selects how a plan node's files are obtained.
type Action string

const (
	// ActionUseBottle installs the precompiled artifact.
	ActionUseBottle Action = "bottle"
	// ActionBuildFromSource compiles the source artifact before installing.
	ActionBuildFromSource Action = "source"
)

// Status is the lifecycle state of a plan node. The lifecycle only moves
// forward, and nothing leaves a terminal state.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusFetching         Status = "Fetching"
	StatusBuilding         Status = "Building"
	StatusInstalling       Status = "Installing"
	StatusInstalled        Status = "Installed"
	StatusFailed           Status = "Failed"
	StatusSkipped          Status = "Skipped"
	StatusAlreadyInstalled Status = "AlreadyInstalled"
)

// statusRank orders the forward-only progression of live states.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusFetching:   1,
	StatusBuilding:   2,
	StatusInstalling: 3,
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusInstalled, StatusFailed, StatusSkipped, StatusAlreadyInstalled:
		return true
	}
	return false
}

// Success reports whether s is a terminal state that satisfies dependents.
func (s Status) Success() bool {
	return s == StatusInstalled || s == StatusAlreadyInstalled
}

// CanTransition reports whether moving from s to t keeps the lifecycle
// monotonic. Terminal states accept no transition; live states accept any
// terminal state or a later live state.
func (s Status) CanTransition(t Status) bool {
	if s.Terminal() {
		return false
	}
	if t.Terminal() {
		return true
	}
	return statusRank[t] > statusRank[s]
}

// PlanNode is one package in an install plan.
type PlanNode struct {
	Spec   *PackageSpec
	Action Action
	Status Status
}

// Name returns the node's package name.
func (n *PlanNode) Name() string { return n.Spec.Name.String() }

// SetStatus advances the node's lifecycle, rejecting backward moves and
// transitions out of a terminal state.
func (n *PlanNode) SetStatus(t Status) error {
	if !n.Status.CanTransition(t) {
		err := zerr.With(ErrInvalidTransition, "package", n.Name())
		err = zerr.With(err, "from", string(n.Status))
		return zerr.With(err, "to", string(t))
	}
	n.Status = t
	return nil
}

// InstallPlan is the ordered result of a resolution: every node's blocking
// dependencies appear earlier in the sequence, and each package name appears
// at most once.
type InstallPlan struct {
	Nodes []*PlanNode
}

// Node returns the plan node for the given package name, or nil.
func (p *InstallPlan) Node(name string) *PlanNode {
	for _, n := range p.Nodes {
		if n.Name() == name {
			return n
		}
	}
	return nil
}

// Names returns the package names in plan order.
func (p *InstallPlan) Names() []string {
	names := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		names[i] = n.Name()
	}
	return names
}

// InstallFlags carries the caller's per-invocation choices.
type InstallFlags struct {
	// BuildFromSource forces ActionBuildFromSource even when a bottle exists.
	BuildFromSource bool
	// DryRun resolves the plan without mutating the store.
	DryRun bool
	// Force overrides reference checks on uninstall.
	Force bool
	// IncludeOptional pulls Optional edges into the plan.
	IncludeOptional bool
	// SkipRecommended leaves Recommended edges out of the plan.
	SkipRecommended bool
}
