package crawl

// StopReason names why a crawl reached the Stopped state.
type StopReason string

const (
	StopDateWindow   StopReason = "date-window"
	StopEndOfArchive StopReason = "end-of-archive"
	StopStructural   StopReason = "structural"
	StopRecordLimit  StopReason = "record-limit"
	StopSinkFailure  StopReason = "sink-failure"
	StopCancelled    StopReason = "cancelled"
)

type Phase int

const (
	Running Phase = iota
	Stopped
)

func (p Phase) String() string {
	if p == Stopped {
		return "stopped"
	}
	return "running"
}

// State is the per-run crawl state. Only the controller mutates it: visited
// grows monotonically and Running -> Stopped happens at most once.
type State struct {
	visited map[string]struct{}
	phase   Phase
	reason  StopReason
	emitted int
	// out-of-window candidates passed over without stopping
	tolerated int
}

func newState() *State {
	return &State{visited: make(map[string]struct{})}
}

func (s *State) Running() bool {
	return s.phase == Running
}

func (s *State) Phase() Phase { return s.phase }

func (s *State) Visited(url string) bool {
	_, ok := s.visited[url]
	return ok
}

// markVisited reports false if url was already present.
func (s *State) markVisited(url string) bool {
	if s.Visited(url) {
		return false
	}
	s.visited[url] = struct{}{}
	return true
}

// stop is the single Running -> Stopped transition. Later calls keep the first reason.
func (s *State) stop(reason StopReason) bool {
	if s.phase == Stopped {
		return false
	}
	s.phase = Stopped
	s.reason = reason
	return true
}

func (s *State) Reason() StopReason { return s.reason }

func (s *State) Emitted() int { return s.emitted }

func (s *State) VisitedCount() int { return len(s.visited) }
