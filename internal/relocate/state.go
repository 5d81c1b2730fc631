package relocate

const (
	// StateValidated means the request passed input checks.
	StateValidated State = iota
	// StatePlanned means the relocation plan was computed and checked.
	StatePlanned
	// StateMoved means the descriptor and its directory are at the target.
	StateMoved
	// StateReferencesRepaired means every descriptor resolves again.
	StateReferencesRepaired
	// StateManifestsRepaired means every solution entry was rewritten.
	StateManifestsRepaired
	// StateDone is the terminal success state.
	StateDone
	// StateFailed is the terminal failure state, reachable from any other.
	StateFailed
)

// State is a step of a relocation run.
type State int

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateValidated:
		return "validated"
	case StatePlanned:
		return "planned"
	case StateMoved:
		return "moved"
	case StateReferencesRepaired:
		return "references-repaired"
	case StateManifestsRepaired:
		return "manifests-repaired"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
