package live

import "encoding/json"

// SessionState represents the lifecycle state of a Session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateListening
	StateClosing
	StateError
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SessionState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "idle":
		*s = StateIdle
	case "connecting":
		*s = StateConnecting
	case "listening":
		*s = StateListening
	case "closing":
		*s = StateClosing
	case "error":
		*s = StateError
	default:
		*s = StateIdle
	}
	return nil
}
