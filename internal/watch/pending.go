package watch

import "sync"

// pendingSet tracks paths currently queued or in flight so duplicate
// notifications for the same file coalesce into one processing attempt.
type pendingSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{paths: make(map[string]struct{})}
}

// admit reports whether path was newly admitted. A false return means
// the path is already pending and the notification should be ignored.
func (s *pendingSet) admit(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

func (s *pendingSet) release(path string) {
	s.mu.Lock()
	delete(s.paths, path)
	s.mu.Unlock()
}
