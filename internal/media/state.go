package media

import "strings"

// State represents the lifecycle of a media object.
type State string

const (
	StateImported            State = "imported"
	StateTranscribing        State = "transcribing"
	StateTranscribed         State = "transcribed"
	StateTranscriptionFailed State = "transcription_failed"
	StateProcessing          State = "processing"
	StateProcessed           State = "processed"
	StateProcessingFailed    State = "processing_failed"
	StateExported            State = "exported"
)

var allStates = []State{
	StateImported,
	StateTranscribing,
	StateTranscribed,
	StateTranscriptionFailed,
	StateProcessing,
	StateProcessed,
	StateProcessingFailed,
	StateExported,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// inFlightStates reflect an operation against an external backend.
var inFlightStates = map[State]struct{}{
	StateTranscribing: {},
	StateProcessing:   {},
}

// transitions is the closed set of legal state changes. Failed states
// transition back to their in-flight state on retry.
var transitions = map[State][]State{
	StateImported:            {StateTranscribing},
	StateTranscribing:        {StateTranscribed, StateTranscriptionFailed},
	StateTranscriptionFailed: {StateTranscribing},
	StateTranscribed:         {StateProcessing, StateExported},
	StateProcessing:          {StateProcessed, StateProcessingFailed},
	StateProcessingFailed:    {StateProcessing},
	StateProcessed:           {StateExported},
	StateExported:            {StateExported},
}

// stageRank orders the success path for monotonic advancement checks.
// Failed states keep the rank of the stage they fell out of.
var stageRank = map[State]int{
	StateImported:            0,
	StateTranscribing:        1,
	StateTranscriptionFailed: 1,
	StateTranscribed:         2,
	StateProcessing:          3,
	StateProcessingFailed:    3,
	StateProcessed:           4,
	StateExported:            5,
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := stateSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// IsInFlight reports whether a state reflects an operation in progress.
func (s State) IsInFlight() bool {
	_, ok := inFlightStates[s]
	return ok
}

// IsFailed reports whether a state is a retryable failure terminal.
func (s State) IsFailed() bool {
	return s == StateTranscriptionFailed || s == StateProcessingFailed
}

// CanTransition reports whether moving from s to next is a legal step of
// the lifecycle state machine.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rank returns the success-path position of the state. Higher ranks are
// later stages; failed states share the rank of their in-flight stage.
func (s State) Rank() int {
	return stageRank[s]
}
