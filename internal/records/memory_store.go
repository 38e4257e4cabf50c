package records

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]*User         // keyed by user ID
	bySession   map[string]string        // session ID -> user ID
	predictions map[string][]*Prediction // keyed by user ID, append order
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*User),
		bySession:   make(map[string]string),
		predictions: make(map[string][]*Prediction),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySession[user.SessionID]; exists {
		return ErrSessionExists
	}
	u := *user
	m.users[u.ID] = &u
	m.bySession[u.SessionID] = u.ID
	return nil
}

func (m *MemoryStore) GetUserBySession(ctx context.Context, sessionID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySession[sessionID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *m.users[id]
	u.PredictionsCount = len(m.predictions[id])
	return &u, nil
}

func (m *MemoryStore) CreatePrediction(ctx context.Context, pred *Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[pred.UserID]; !ok {
		return ErrUserNotFound
	}
	p := *pred
	p.Features = make(map[string]float64, len(pred.Features))
	for k, v := range pred.Features {
		p.Features[k] = v
	}
	m.predictions[p.UserID] = append(m.predictions[p.UserID], &p)
	return nil
}

func (m *MemoryStore) ListBySession(ctx context.Context, sessionID string) ([]*Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySession[sessionID]
	if !ok {
		return nil, ErrUserNotFound
	}

	stored := m.predictions[id]
	out := make([]*Prediction, len(stored))
	for i, p := range stored {
		cp := *p
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		TotalUsers:       len(m.users),
		RiskDistribution: make(map[string]int),
	}
	cutoff := recentCutoff()
	for _, preds := range m.predictions {
		stats.TotalPredictions += len(preds)
		for _, p := range preds {
			stats.RiskDistribution[p.Results.RiskLevel]++
			if p.CreatedAt.After(cutoff) {
				stats.Recent24h++
			}
		}
	}
	return stats, nil
}
