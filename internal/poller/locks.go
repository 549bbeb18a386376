package poller

import "sync"

// guildLocks serializes polls per guild so a scheduled tick and a
// setup-triggered poll for the same guild never run concurrently.
type guildLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (g *guildLocks) lock(guildID string) func() {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[string]*sync.Mutex)
	}
	l, ok := g.m[guildID]
	if !ok {
		l = &sync.Mutex{}
		g.m[guildID] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}
