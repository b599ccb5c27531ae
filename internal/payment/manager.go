package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"payu-adapter/internal/money"
)

// Manager dispatches payment operations to the registered providers by name.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewManager(providers ...Provider) *Manager {
	m := &Manager{providers: make(map[string]Provider)}
	for _, p := range providers {
		m.Register(p)
	}
	return m
}

func providerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (m *Manager) Register(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[providerKey(p.Name())] = p
}

func (m *Manager) Provider(name string) (Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.providers[providerKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

func (m *Manager) StartPayment(ctx context.Context, provider string, price money.Price, req StartRequest) (*URLResponse, error) {
	p, err := m.Provider(provider)
	if err != nil {
		return nil, err
	}
	return p.StartPayment(ctx, price, req)
}

func (m *Manager) HandleResponse(ctx context.Context, provider string, payload []byte, lookup OrderLookup) (*Status, error) {
	p, err := m.Provider(provider)
	if err != nil {
		return nil, err
	}
	return p.HandleResponse(ctx, payload, lookup)
}
