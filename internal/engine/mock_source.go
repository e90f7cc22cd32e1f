package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// MockUser is one user served by MockSource.
type MockUser struct {
	Signals *model.BehaviorSignals
	Profile model.FinancialProfile
	Consent bool
}

// MockSource is an in-memory ProfileSource for tests and demos.
type MockSource struct {
	users        map[string]MockUser
	signalsCalls map[string]int
	mu           sync.Mutex
}

// NewMockSource creates a source serving users.
func NewMockSource(users map[string]MockUser) *MockSource {
	return &MockSource{
		users:        users,
		signalsCalls: make(map[string]int),
	}
}

// Consent implements ProfileSource.
func (m *MockSource) Consent(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return false, fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	return u.Consent, nil
}

// Signals implements ProfileSource.
func (m *MockSource) Signals(_ context.Context, userID string, _ int) (*model.BehaviorSignals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.signalsCalls[userID]++
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	if u.Signals == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrSignalsNotFound, userID)
	}
	return u.Signals, nil
}

// Profile implements ProfileSource.
func (m *MockSource) Profile(_ context.Context, userID string) (model.FinancialProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return model.FinancialProfile{}, fmt.Errorf("%w: %s", common.ErrUserNotFound, userID)
	}
	return u.Profile, nil
}

// SignalsCalls returns how many times signals were read for userID.
func (m *MockSource) SignalsCalls(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signalsCalls[userID]
}
