package config

import "sync"

// Store is the shared current Config. Writers (panel, file watcher) go through Update;
// the render loop reads one Snapshot per frame.
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	version  uint64
	onChange []func(Config)
}

// NewStore creates a Store holding a clamped copy of cfg.
func NewStore(cfg Config) *Store {
	cfg.Clamp()
	return &Store{cfg: cfg}
}

// Snapshot returns a copy of the current Config.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Version increments on every Update or Replace.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Update applies fn to the current Config, clamps, and notifies listeners.
//
// Parameters:
//   - fn: mutation applied under the write lock
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	fn(&s.cfg)
	s.cfg.Clamp()
	s.version++
	cfg, listeners := s.cfg, s.onChange
	s.mu.Unlock()

	for _, l := range listeners {
		l(cfg)
	}
}

// Replace swaps in a whole new Config.
func (s *Store) Replace(cfg Config) {
	s.Update(func(c *Config) { *c = cfg })
}

// OnChange registers a listener called after each Update with the new value.
// Listeners run on the writer's goroutine.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	s.onChange = append(s.onChange, fn)
	s.mu.Unlock()
}
