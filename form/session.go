package form

import (
	"sync"
	"time"
)

// DraftDebounce is the quiet period after the last edit before the draft
// is mirrored to the store.
const DraftDebounce = 600 * time.Millisecond

// Session owns the in-memory state of one open form. Every mutation
// schedules a trailing-debounce draft write; a new edit always cancels the
// previous pending timer first, so at most one write is ever pending.
// State is owned exclusively by one rendering session; the mutex only
// serializes edits against the timer callback.
type Session struct {
	mu       sync.Mutex
	key      string
	store    Store
	debounce time.Duration
	timer    *time.Timer
	closed   bool
	values   map[string]any
}

func NewSession(key string, store Store, initial map[string]any) *Session {
	if initial == nil {
		initial = map[string]any{}
	}
	return &Session{
		key:      key,
		store:    store,
		debounce: DraftDebounce,
		values:   initial,
	}
}

// Values returns a snapshot of the current state.
func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.values)
}

// Set records one field edit and schedules the debounced draft write.
func (s *Session) Set(section, field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	values, ok := s.values[section].(map[string]any)
	if !ok {
		values = map[string]any{}
		s.values[section] = values
	}
	values[field] = value
	s.schedule()
}

// SetInstance records an edit inside one repeated-section instance,
// growing the instance list as needed.
func (s *Session) SetInstance(section string, index int, field string, value any) {
	if index < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	instances, _ := s.values[section].([]any)
	for len(instances) <= index {
		instances = append(instances, map[string]any{})
	}
	values, ok := instances[index].(map[string]any)
	if !ok {
		values = map[string]any{}
		instances[index] = values
	}
	values[field] = value
	s.values[section] = instances
	s.schedule()
}

// Replace swaps the whole state, e.g. after a bulk client update.
func (s *Session) Replace(values map[string]any) {
	if values == nil {
		values = map[string]any{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.values = values
	s.schedule()
}

// Flush cancels any pending timer and writes the draft immediately.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelTimer()
	key, snapshot := s.key, cloneValues(s.values)
	s.mu.Unlock()

	s.store.Write(key, snapshot)
}

// Close tears the session down, cancelling any pending draft write so
// nothing lands in the store afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimer()
	s.closed = true
}

// schedule must be called with the mutex held.
func (s *Session) schedule() {
	s.cancelTimer()
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

func (s *Session) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	key, snapshot := s.key, cloneValues(s.values)
	s.mu.Unlock()

	s.store.Write(key, snapshot)
}

func cloneValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch v := v.(type) {
		case map[string]any:
			out[k] = cloneValues(v)
		case []any:
			instances := make([]any, len(v))
			for i, inst := range v {
				if m, ok := inst.(map[string]any); ok {
					instances[i] = cloneValues(m)
				} else {
					instances[i] = inst
				}
			}
			out[k] = instances
		default:
			out[k] = v
		}
	}
	return out
}
