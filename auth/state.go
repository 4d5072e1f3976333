package auth

// State is the lifecycle stage of the session.
type State int

const (
	Anonymous State = iota
	Authenticated
	Refreshing
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Destination is where the user interface should go after a session change.
type Destination string

const (
	DestinationHome  Destination = "home"
	DestinationLogin Destination = "login"
)

// RefreshPolicy decides what happens to the refresh token after a refresh.
type RefreshPolicy int

const (
	// RotateIfPresent stores the refresh token returned by the server, keeping
	// the old one when the response has none.
	RotateIfPresent RefreshPolicy = iota
	// Reuse always keeps the refresh token obtained at login.
	Reuse
)

// ParseRefreshPolicy accepts "rotate" and "reuse".
func ParseRefreshPolicy(s string) (RefreshPolicy, bool) {
	switch s {
	case "", "rotate":
		return RotateIfPresent, true
	case "reuse":
		return Reuse, true
	default:
		return RotateIfPresent, false
	}
}

func (p RefreshPolicy) String() string {
	if p == Reuse {
		return "reuse"
	}
	return "rotate"
}
