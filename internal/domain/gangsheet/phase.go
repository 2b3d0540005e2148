package gangsheet

// JobPhase represents where a gangsheet job is in its pipeline
type JobPhase string

const (
	JobPhasePending         JobPhase = "PENDING"
	JobPhaseFetchingDesigns JobPhase = "FETCHING_DESIGNS"
	JobPhaseCalculating     JobPhase = "CALCULATING"
	JobPhaseGenerating      JobPhase = "GENERATING"
	JobPhaseUploading       JobPhase = "UPLOADING"
	JobPhaseCompleted       JobPhase = "COMPLETED"
	JobPhaseFailed          JobPhase = "FAILED"
	JobPhaseCancelled       JobPhase = "CANCELLED"
)

// IsValid checks if the phase is a valid JobPhase
func (p JobPhase) IsValid() bool {
	switch p {
	case JobPhasePending, JobPhaseFetchingDesigns, JobPhaseCalculating,
		JobPhaseGenerating, JobPhaseUploading, JobPhaseCompleted,
		JobPhaseFailed, JobPhaseCancelled:
		return true
	}
	return false
}

// String returns the string representation of JobPhase
func (p JobPhase) String() string {
	return string(p)
}

// IsTerminal reports whether no further transitions are allowed
func (p JobPhase) IsTerminal() bool {
	return p == JobPhaseCompleted || p == JobPhaseFailed || p == JobPhaseCancelled
}

// CanTransitionTo checks if the phase can transition to the target phase.
// The happy path is strictly linear; FAILED and CANCELLED are reachable
// from any non-terminal phase.
func (p JobPhase) CanTransitionTo(target JobPhase) bool {
	if p.IsTerminal() {
		return false
	}
	if target == JobPhaseFailed || target == JobPhaseCancelled {
		return true
	}
	switch p {
	case JobPhasePending:
		return target == JobPhaseFetchingDesigns
	case JobPhaseFetchingDesigns:
		return target == JobPhaseCalculating
	case JobPhaseCalculating:
		return target == JobPhaseGenerating
	case JobPhaseGenerating:
		return target == JobPhaseUploading
	case JobPhaseUploading:
		return target == JobPhaseCompleted
	}
	return false
}
