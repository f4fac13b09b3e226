package worker

import "strings"

// stopMatcher finds stop sequences across fragment boundaries. Only the
// fragments overlapping a possible start of a stop sequence are held back;
// everything before that point is released as soon as it arrives, one
// fragment at a time.
type stopMatcher struct {
	stops   []string
	pending []string
}

func newStopMatcher(stops []string) *stopMatcher {
	return &stopMatcher{stops: stops}
}

// push adds a fragment and returns the fragments that are safe to emit. hit
// reports that a stop sequence matched; the returned text then ends right
// before it and the matcher must not be used further. Only the fragment the
// match cuts through is shortened.
func (s *stopMatcher) push(fragment string) (emit []string, hit bool) {
	if len(s.stops) == 0 {
		return []string{fragment}, false
	}
	s.pending = append(s.pending, fragment)
	joined := strings.Join(s.pending, "")
	if i := s.index(joined); i >= 0 {
		off := 0
		for _, f := range s.pending {
			if off+len(f) <= i {
				emit = append(emit, f)
			} else {
				if i > off {
					emit = append(emit, f[:i-off])
				}
				break
			}
			off += len(f)
		}
		s.pending = nil
		return emit, true
	}
	start := s.partial(joined)
	if start < 0 {
		emit, s.pending = s.pending, nil
		return emit, false
	}
	// release whole fragments that end before the possible match
	off, n := 0, 0
	for _, f := range s.pending {
		if off+len(f) > start {
			break
		}
		off += len(f)
		n++
	}
	emit = append(emit, s.pending[:n]...)
	s.pending = append([]string(nil), s.pending[n:]...)
	return emit, false
}

// flush returns whatever is still held back.
func (s *stopMatcher) flush() []string {
	out := s.pending
	s.pending = nil
	return out
}

// index returns the earliest position of any stop sequence in text, or -1.
func (s *stopMatcher) index(text string) int {
	best := -1
	for _, stop := range s.stops {
		if i := strings.Index(text, stop); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}

// partial returns where the longest suffix of text that is a proper prefix of
// a stop sequence begins, or -1 if there is none.
func (s *stopMatcher) partial(text string) int {
	best := -1
	for _, stop := range s.stops {
		for n := len(stop) - 1; n > 0; n-- {
			if n <= len(text) && strings.HasSuffix(text, stop[:n]) {
				if start := len(text) - n; best < 0 || start < best {
					best = start
				}
				break
			}
		}
	}
	return best
}
