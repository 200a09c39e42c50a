package generation

import (
	"context"
	"sort"
	"sync"
	"time"

	"vidgen/internal/domain"
	"vidgen/internal/providers/wavespeed"
)

// memProfiles mirrors the conditional-update semantics of the PostgreSQL
// ledger: the balance check and the decrement happen under one lock.
type memProfiles struct {
	mu      sync.Mutex
	credits map[string]int
	refunds map[string]int
}

func newMemProfiles() *memProfiles {
	return &memProfiles{credits: map[string]int{}, refunds: map[string]int{}}
}

func (m *memProfiles) Ensure(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credits[userID]; !ok {
		m.credits[userID] = 0
	}
	return &domain.Profile{UserID: userID, Credits: m.credits[userID]}, nil
}

func (m *memProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credits[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Profile{UserID: userID, Credits: c}, nil
}

func (m *memProfiles) Deduct(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credits[userID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if c < 1 {
		return 0, domain.ErrInsufficientCredits
	}
	m.credits[userID] = c - 1
	return c - 1, nil
}

func (m *memProfiles) Refund(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.credits[userID]; !ok {
		return domain.ErrNotFound
	}
	m.credits[userID]++
	m.refunds[userID]++
	return nil
}

func (m *memProfiles) Grant(_ context.Context, userID string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credits[userID] += amount
	return m.credits[userID], nil
}

func (m *memProfiles) balance(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credits[userID]
}

func (m *memProfiles) refundCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refunds[userID]
}

// memGenerations keeps records in memory with the same pending-only guard on
// terminal transitions as the SQL repository.
type memGenerations struct {
	mu   sync.Mutex
	byID map[string]*domain.Generation
}

func newMemGenerations() *memGenerations {
	return &memGenerations{byID: map[string]*domain.Generation{}}
}

func (m *memGenerations) Create(_ context.Context, g *domain.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	clone := *g
	m.byID[g.ID] = &clone
	return nil
}

func (m *memGenerations) AttachProviderID(_ context.Context, id, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byID[id]
	if !ok || g.ProviderID != "" {
		return domain.ErrNotFound
	}
	g.ProviderID = providerID
	return nil
}

func (m *memGenerations) MarkFailed(_ context.Context, id, errMsg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byID[id]
	if !ok || g.Status != domain.GenerationPending {
		return false, nil
	}
	g.Status = domain.GenerationFailed
	g.ErrorMessage = errMsg
	return true, nil
}

func (m *memGenerations) CompleteByProviderID(_ context.Context, providerID, videoURL string) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.findByProvider(providerID)
	if g == nil || g.Status != domain.GenerationPending {
		return nil, nil
	}
	g.Status = domain.GenerationCompleted
	g.OutputVideoURL = videoURL
	clone := *g
	return &clone, nil
}

func (m *memGenerations) FailByProviderID(_ context.Context, providerID, errMsg string) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.findByProvider(providerID)
	if g == nil || g.Status != domain.GenerationPending {
		return nil, nil
	}
	g.Status = domain.GenerationFailed
	g.ErrorMessage = errMsg
	clone := *g
	return &clone, nil
}

func (m *memGenerations) GetByID(_ context.Context, id string) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *g
	return &clone, nil
}

func (m *memGenerations) GetByProviderID(_ context.Context, providerID string) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.findByProvider(providerID)
	if g == nil {
		return nil, domain.ErrNotFound
	}
	clone := *g
	return &clone, nil
}

func (m *memGenerations) ListByUser(_ context.Context, userID string) ([]domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Generation
	for _, g := range m.byID {
		if g.UserID == userID {
			items = append(items, *g)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *memGenerations) ListPendingBefore(_ context.Context, createdBefore time.Time, limit int) ([]domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Generation
	for _, g := range m.byID {
		if g.Status == domain.GenerationPending && g.ProviderID != "" && g.CreatedAt.Before(createdBefore) {
			items = append(items, *g)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memGenerations) ExpirePending(_ context.Context, createdBefore time.Time, errMsg string) ([]domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Generation
	for _, g := range m.byID {
		if g.Status == domain.GenerationPending && g.CreatedAt.Before(createdBefore) {
			g.Status = domain.GenerationFailed
			g.ErrorMessage = errMsg
			items = append(items, *g)
		}
	}
	return items, nil
}

func (m *memGenerations) findByProvider(providerID string) *domain.Generation {
	for _, g := range m.byID {
		if g.ProviderID == providerID {
			return g
		}
	}
	return nil
}

func (m *memGenerations) setCreatedAt(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.byID[id]; ok {
		g.CreatedAt = at
	}
}

// stubClient scripts provider responses.
type stubClient struct {
	mu            sync.Mutex
	createResult  *wavespeed.CreateResult
	createErr     error
	createCalls   int
	statusResults map[string]*wavespeed.Callback
	statusErrs    map[string]error
	statusCalls   []string
}

func newStubClient() *stubClient {
	return &stubClient{
		statusResults: map[string]*wavespeed.Callback{},
		statusErrs:    map[string]error{},
	}
}

func (s *stubClient) CreateGeneration(context.Context, wavespeed.CreateRequest) (*wavespeed.CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.createResult != nil {
		return s.createResult, nil
	}
	return &wavespeed.CreateResult{ID: "stub-job"}, nil
}

func (s *stubClient) GetStatus(_ context.Context, providerID string) (*wavespeed.Callback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls = append(s.statusCalls, providerID)
	if err, ok := s.statusErrs[providerID]; ok {
		return nil, err
	}
	if cb, ok := s.statusResults[providerID]; ok {
		clone := *cb
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls
}

var (
	_ domain.ProfileRepository    = (*memProfiles)(nil)
	_ domain.GenerationRepository = (*memGenerations)(nil)
	_ Client                      = (*stubClient)(nil)
)
