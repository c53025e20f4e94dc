package scan

import (
	"context"
	"sync"

	"purepick/internal/models"
)

// ProductResolver is satisfied by *Resolver.
type ProductResolver interface {
	Resolve(ctx context.Context, code string, catalog []models.Product, categories []string) (*models.Resolution, error)
}

type activeScan struct {
	id     uint64
	cancel context.CancelFunc
}

// Coordinator allows one in-flight scan per session. Starting a scan cancels
// the previous one for the same session, and a result that arrives after it
// was replaced is discarded with ErrSuperseded.
type Coordinator struct {
	resolver ProductResolver

	mu     sync.Mutex
	nextID uint64
	active map[string]activeScan
}

func NewCoordinator(resolver ProductResolver) *Coordinator {
	return &Coordinator{
		resolver: resolver,
		active:   make(map[string]activeScan),
	}
}

func (c *Coordinator) Scan(ctx context.Context, session, code string, catalog []models.Product, categories []string) (*models.Resolution, error) {
	scanCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if prev, ok := c.active[session]; ok {
		prev.cancel()
	}
	c.nextID++
	id := c.nextID
	c.active[session] = activeScan{id: id, cancel: cancel}
	c.mu.Unlock()

	res, err := c.resolver.Resolve(scanCtx, code, catalog, categories)

	c.mu.Lock()
	current, ok := c.active[session]
	superseded := !ok || current.id != id
	if !superseded {
		delete(c.active, session)
	}
	c.mu.Unlock()
	cancel()

	if superseded {
		return nil, ErrSuperseded
	}
	return res, err
}

// InFlight reports how many sessions have a scan running.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}
