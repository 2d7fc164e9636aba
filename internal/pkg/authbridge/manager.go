package authbridge

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/shopfox/shopfox/internal/pkg/clientstore"
	"github.com/shopfox/shopfox/internal/pkg/notify"
	"github.com/shopfox/shopfox/internal/pkg/provider"
)

// Bridges idle longer than idleTTL are evicted by the sweeper. Matches the
// provider's session TTL so an evicted bridge never outlives its session.
const (
	idleTTL       = 24 * time.Hour
	sweepInterval = 10 * time.Minute
)

// Manager owns one Bridge per storefront client. Bridges are created lazily on
// the client's first request and closed on shutdown, explicit removal or after
// sitting idle past idleTTL.
type Manager struct {
	provider    provider.Client
	rdb         *redis.Client
	store       clientstore.Store
	redirectURL string

	mu      sync.Mutex
	bridges map[string]*bridgeEntry
}

type bridgeEntry struct {
	bridge   *Bridge
	lastSeen time.Time
}

// NewManager creates a bridge registry.
func NewManager(p provider.Client, rdb *redis.Client, store clientstore.Store, redirectURL string) *Manager {
	return &Manager{
		provider:    p,
		rdb:         rdb,
		store:       store,
		redirectURL: redirectURL,
		bridges:     make(map[string]*bridgeEntry),
	}
}

// GetOrCreate returns the client's bridge, starting a new one if needed, and
// marks it as recently used.
func (m *Manager) GetOrCreate(clientID string) *Bridge {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.bridges[clientID]; ok {
		e.lastSeen = time.Now()
		return e.bridge
	}

	notifier := notify.NewRedisNotifier(m.rdb, clientID)
	b := New(m.provider, notifier, m.store, clientID, m.redirectURL)
	b.Start(context.Background())
	m.bridges[clientID] = &bridgeEntry{bridge: b, lastSeen: time.Now()}

	return b
}

// Remove closes and drops the client's bridge.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.bridges[clientID]; ok {
		e.bridge.Close()
		delete(m.bridges, clientID)
	}
}

// Sweep evicts every bridge that has not served a request within idleTTL and
// returns how many were closed.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for clientID, e := range m.bridges {
		if e.lastSeen.Before(cutoff) {
			e.bridge.Close()
			delete(m.bridges, clientID)
			evicted++
		}
	}
	if evicted > 0 {
		log.Infof("authbridge: evicted %d idle client bridges", evicted)
	}
	return evicted
}

// StartSweeper runs Sweep periodically until the context is cancelled.
func (m *Manager) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// CloseAll releases every bridge. Called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Infof("authbridge: closing %d client bridges", len(m.bridges))
	for clientID, e := range m.bridges {
		e.bridge.Close()
		delete(m.bridges, clientID)
	}
}
