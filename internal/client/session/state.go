package session

type State int32

const (
	Unauthenticated State = iota
	Authenticated
	RefreshInFlight
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case RefreshInFlight:
		return "refreshing"
	default:
		return "unknown"
	}
}
