package domain

// ReportEntry is the terminal outcome of one plan node.
type ReportEntry struct {
	Name    string
	Version string
	Action  Action
	Status  Status
	// Err is the causal error for Failed entries, nil otherwise.
	Err error
}

// Report is the final per-node status summary returned by the orchestrator,
// in plan order.
type Report struct {
	Entries []ReportEntry
}

// Failed returns the entries that terminated as Failed.
func (r *Report) Failed() []ReportEntry {
	var out []ReportEntry
	for _, e := range r.Entries {
		if e.Status == StatusFailed {
			out = append(out, e)
		}
	}
	return out
}

// AllSucceeded reports whether every entry ended in a success state.
func (r *Report) AllSucceeded() bool {
	for _, e := range r.Entries {
		if !e.Status.Success() {
			return false
		}
	}
	return true
}
