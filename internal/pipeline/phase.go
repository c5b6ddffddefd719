package pipeline

// Phase tracks a run through its state machine. A run that fails before
// PhasePersisted leaves the prior watermark untouched, so retrying from
// the last good state is always safe.
type Phase int

const (
	PhaseFresh Phase = iota
	PhaseSeeded
	PhaseGenerating
	PhaseReconciling
	PhaseValidating
	PhasePersisted
)

func (p Phase) String() string {
	switch p {
	case PhaseFresh:
		return "fresh"
	case PhaseSeeded:
		return "seeded"
	case PhaseGenerating:
		return "generating"
	case PhaseReconciling:
		return "reconciling"
	case PhaseValidating:
		return "validating"
	case PhasePersisted:
		return "persisted"
	default:
		return "unknown"
	}
}

// Run statuses recorded in the run log.
const (
	StatusClean        = "clean"
	StatusDegraded     = "degraded"
	StatusInconsistent = "inconsistent"
)
