package catalog

import (
	"context"
	"log"
	"sync"
	"time"
)

// Provider serves the latest catalog snapshot and refreshes it on a ticker.
// A failed refresh keeps the previous snapshot; requests only fail while no
// snapshot has ever been loaded.
type Provider struct {
	src      Source
	interval time.Duration

	mu   sync.RWMutex
	snap *Snapshot

	// OnReload, if set, is invoked after every successful refresh.
	OnReload func(*Snapshot)

	stop chan struct{}
	once sync.Once
}

func NewProvider(src Source, interval time.Duration) *Provider {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Provider{src: src, interval: interval, stop: make(chan struct{})}
}

// Refresh loads a snapshot now. The first successful call makes the provider
// ready.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.src == nil {
		return nil
	}
	snap, err := p.src.Load(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()
	if p.OnReload != nil {
		p.OnReload(snap)
	}
	return nil
}

// Start begins periodic refreshing until Stop is called.
func (p *Provider) Start() {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := p.Refresh(ctx); err != nil {
					log.Printf("catalog refresh failed: %v", err)
				}
				cancel()
			}
		}
	}()
}

func (p *Provider) Stop() { p.once.Do(func() { close(p.stop) }) }

// Snapshot returns the current snapshot, or ErrUnavailable if none has been
// loaded yet.
func (p *Provider) Snapshot() (*Snapshot, error) {
	p.mu.RLock()
	snap := p.snap
	p.mu.RUnlock()
	if snap == nil {
		return nil, ErrUnavailable
	}
	return snap, nil
}

// Static returns a provider pre-seeded with a fixed snapshot. Used by tests
// and by callers that already hold the data.
func Static(snap *Snapshot) *Provider {
	p := NewProvider(nil, time.Hour)
	p.snap = snap
	return p
}
