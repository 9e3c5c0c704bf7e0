package session

// State is the phase of a practice conversation.
type State int

const (
	Idle State = iota
	AwaitingTutorStart
	AwaitingAnswer
	AwaitingTutorReply
	Complete
)

var stateNames = map[State]string{
	Idle:               "idle",
	AwaitingTutorStart: "awaiting_tutor_start",
	AwaitingAnswer:     "awaiting_answer",
	AwaitingTutorReply: "awaiting_tutor_reply",
	Complete:           "complete",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name. Unknown names decode to Idle.
func (s *State) UnmarshalText(b []byte) error {
	for st, name := range stateNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	*s = Idle
	return nil
}

// transitions lists the legal moves. Tutor failures fall back to the state
// the turn started from so the caller can retry.
var transitions = map[State][]State{
	Idle:               {AwaitingTutorStart},
	AwaitingTutorStart: {AwaitingAnswer, Idle},
	AwaitingAnswer:     {AwaitingTutorReply},
	AwaitingTutorReply: {AwaitingAnswer, Complete},
}

// CanTransition reports whether moving from one state to another is legal.
// Complete is terminal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
