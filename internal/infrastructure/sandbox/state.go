package sandbox

import "fmt"

// State is a sandbox's position in its lifecycle, Created through one of
// three terminal failure states or Completed, finally Destroyed once its
// wazero runtime is closed.
type State int

const (
	StateCreated State = iota
	StateReady
	StateRunning
	StateCompleted
	StateFailedPolicy
	StateFailedResource
	StateFailedTrap
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailedPolicy:
		return "failed_policy"
	case StateFailedResource:
		return "failed_resource"
	case StateFailedTrap:
		return "failed_trap"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// terminal reports whether a state has no valid outgoing transition except
// to Destroyed.
func (s State) terminal() bool {
	switch s {
	case StateCompleted, StateFailedPolicy, StateFailedResource, StateFailedTrap:
		return true
	default:
		return false
	}
}

var validTransitions = map[State][]State{
	StateCreated:  {StateReady},
	StateReady:    {StateRunning},
	StateRunning:  {StateCompleted, StateFailedPolicy, StateFailedResource, StateFailedTrap},
}

// transition validates and applies a state change, returning an error if
// the move isn't one this sandbox's lifecycle allows. A terminal state can
// still move to Destroyed from any point via destroy(), which bypasses
// this table deliberately: cleanup must always be possible.
func (s *State) transition(to State) error {
	for _, allowed := range validTransitions[*s] {
		if allowed == to {
			*s = to
			return nil
		}
	}
	return fmt.Errorf("sandbox: invalid state transition from %s to %s", *s, to)
}

func (s *State) destroy() {
	*s = StateDestroyed
}
