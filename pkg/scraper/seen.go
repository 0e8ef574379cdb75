package scraper

import "sync"

// Default bounds for the processed-id set.
const (
	defaultSeenCap   = 1000
	defaultSeenPrune = 500
)

// SeenSet is a bounded set of processed mention ids preserving insertion
// order. When the cap is exceeded the oldest entries are pruned, keeping
// the newest half; ids older than the bounded recency window the scraper
// can see are gone from the page anyway.
type SeenSet struct {
	mu    sync.Mutex
	order []string
	ids   map[string]struct{}
	cap   int
	keep  int
}

// NewSeenSet creates a set pruning to cap/2 once cap is exceeded.
// A non-positive cap uses the default (1000, pruned to newest 500).
func NewSeenSet(cap int) *SeenSet {
	keep := cap / 2
	if cap <= 0 {
		cap = defaultSeenCap
		keep = defaultSeenPrune
	}
	return &SeenSet{
		ids:  make(map[string]struct{}),
		cap:  cap,
		keep: keep,
	}
}

// Seen reports whether id was already recorded.
func (s *SeenSet) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Add records id. Adding an id twice is a no-op.
func (s *SeenSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)

	if len(s.order) > s.cap {
		drop := s.order[:len(s.order)-s.keep]
		for _, old := range drop {
			delete(s.ids, old)
		}
		kept := make([]string, s.keep)
		copy(kept, s.order[len(s.order)-s.keep:])
		s.order = kept
	}
}

// Len returns the number of ids currently held.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Newest returns the most recently added id, or "".
func (s *SeenSet) Newest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return ""
	}
	return s.order[len(s.order)-1]
}
