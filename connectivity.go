package vikasyatra

import (
	"context"
	"sync"
	"time"
)

// HealthChecker is anything that can tell whether the backend is reachable.
// *Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Connectivity tracks the online/offline state. Every transition is
// delivered to subscribers immediately; repeated reports of the same state
// are not.
type Connectivity struct {
	mu     sync.Mutex
	online bool
	subs   map[int]func(online bool)
	nextID int
	log    *Logger
}

func NewConnectivity(online bool, log *Logger) *Connectivity {
	return &Connectivity{online: online, subs: make(map[int]func(bool)), log: orNop(log)}
}

func (c *Connectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Set records the current state and notifies subscribers on change.
func (c *Connectivity) Set(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	handlers := make([]func(bool), 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	c.log.Info("connectivity changed", "online", online)
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Warn("connectivity subscriber panicked", "panic", r)
				}
			}()
			h(online)
		}()
	}
}

// Subscribe registers fn for transitions. Call the returned func to stop.
func (c *Connectivity) Subscribe(fn func(online bool)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Probe runs one health check and records the result.
func (c *Connectivity) Probe(ctx context.Context, hc HealthChecker) bool {
	err := hc.Health(ctx)
	if ctx.Err() != nil {
		// cancelled probes say nothing about the network
		return c.Online()
	}
	if err != nil {
		c.log.Debug("health probe failed", "error", err)
	}
	c.Set(err == nil)
	return err == nil
}

// Watch probes immediately and then every interval until ctx is done.
func (c *Connectivity) Watch(ctx context.Context, hc HealthChecker, interval time.Duration) {
	c.Probe(ctx, hc)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Probe(ctx, hc)
		}
	}
}
