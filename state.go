package musicpd

// State is the position of a session in its lifecycle.
//
//	Disconnected -> Connecting -> Ready <-> AwaitingResponse
//	                              Ready <-> IdlePending
//	                              Ready <-> CommandList
//	any -> Disconnected on transport failure (terminal)
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateAwaitingResponse
	StateIdlePending
	StateCommandList
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateIdlePending:
		return "idle-pending"
	case StateCommandList:
		return "command-list"
	default:
		return "unknown"
	}
}
