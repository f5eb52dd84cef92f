package services

import (
	"context"
	"fmt"
	"sync"
)

// Guard is the single processing slot shared by every operation that talks
// to the registrar on behalf of a record. At most one record holds it.
type Guard struct {
	slot chan struct{}

	mu      sync.Mutex
	current string
}

func NewGuard() *Guard {
	return &Guard{slot: make(chan struct{}, 1)}
}

// TryBegin claims the slot for id or fails with ErrBusy.
func (g *Guard) TryBegin(id string) (release func(), err error) {
	select {
	case g.slot <- struct{}{}:
		return g.hold(id), nil
	default:
		// the holder may not have recorded its id yet
		if cur := g.Current(); cur != "" {
			return nil, fmt.Errorf("%w: record %s is processing", ErrBusy, cur)
		}
		return nil, ErrBusy
	}
}

// Begin waits for the slot.
func (g *Guard) Begin(ctx context.Context, id string) (release func(), err error) {
	select {
	case g.slot <- struct{}{}:
		return g.hold(id), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Current returns the id of the record being processed, or "".
func (g *Guard) Current() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// WhileIdle runs fn unless id holds the slot. An empty id means no record
// may hold it. hold waits for fn to return, so an operation claiming id
// afterwards sees whatever fn wrote. fn must not call back into g.
func (g *Guard) WhileIdle(id string, fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case id == "" && g.current != "":
		return fmt.Errorf("%w: record %s is processing", ErrBusy, g.current)
	case id != "" && g.current == id:
		return fmt.Errorf("%w: record %s is processing", ErrBusy, id)
	}
	return fn()
}

func (g *Guard) hold(id string) func() {
	g.mu.Lock()
	g.current = id
	g.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.current = ""
			g.mu.Unlock()
			<-g.slot
		})
	}
}
