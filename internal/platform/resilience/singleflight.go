package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution. It keeps no cache: once the winning call returns, the key
// is released and the next caller executes fresh.
type SingleFlight struct {
	mu       sync.Mutex
	inFlight map[string]*flightCall
}

type flightCall struct {
	done sync.WaitGroup
	val  any
	err  error
}

// Do runs fn once per key at a time. The shared return value reports
// whether this caller piggybacked on another caller's execution.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, shared bool) {
	g.mu.Lock()
	if g.inFlight == nil {
		g.inFlight = make(map[string]*flightCall)
	}

	if c, ok := g.inFlight[key]; ok {
		g.mu.Unlock()
		c.done.Wait()
		return c.val, c.err, true
	}

	c := &flightCall{}
	c.done.Add(1)
	g.inFlight[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	c.done.Done()

	g.mu.Lock()
	delete(g.inFlight, key)
	g.mu.Unlock()

	return c.val, c.err, false
}
