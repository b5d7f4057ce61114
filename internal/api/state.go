package api

import (
	"sync"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// runsCache maps run IDs to their actors. Runs from separate browser tabs
// land here concurrently, hence the lock.
type runsCache struct {
	mu  sync.RWMutex
	ids map[uuid.UUID]*actor.PID
}

func newRunsCache() *runsCache {
	return &runsCache{
		ids: map[uuid.UUID]*actor.PID{},
	}
}

func (s *runsCache) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *runsCache) add(id uuid.UUID, pid *actor.PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = pid
}

func (s *runsCache) get(id uuid.UUID) (*actor.PID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.ids[id]
	return pid, ok
}
