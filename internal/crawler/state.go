package crawler

// State is the lifecycle state of a Spider.
//
// A crawl moves Idle → Fetching → Extracting → Fetching → … → Done.
// A Spider in Done may crawl again.
type State int

const (
	// StateIdle means no crawl has started.
	StateIdle State = iota
	// StateFetching means a page request is in flight.
	StateFetching
	// StateExtracting means a fetched page is being classified.
	StateExtracting
	// StateDone means the last crawl has returned.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
