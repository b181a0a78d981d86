package reconciler

// Mode is the backend selected by the capability probe.
type Mode int

const (
	ModeUninitialized Mode = iota
	ModeRemote
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeFallback:
		return "fallback"
	default:
		return "uninitialized"
	}
}

// State is whether an identity is currently authenticated.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}
