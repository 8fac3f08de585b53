package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockAgentCaller mocks the AgentCaller interface so relay tests can assert
// exactly which outbound calls happen.
type MockAgentCaller struct {
	mock.Mock
}

func (m *MockAgentCaller) Ping(ctx context.Context, agent *domain.Agent) error {
	args := m.Called(ctx, agent)
	return args.Error(0)
}

func (m *MockAgentCaller) ListCaches(ctx context.Context, agent *domain.Agent, serviceName string) (*domain.CacheSnapshot, error) {
	args := m.Called(ctx, agent, serviceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheSnapshot), args.Error(1)
}

func (m *MockAgentCaller) GetCacheKey(ctx context.Context, agent *domain.Agent, key string) (*domain.CacheEntry, error) {
	args := m.Called(ctx, agent, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheEntry), args.Error(1)
}

func (m *MockAgentCaller) FlushAll(ctx context.Context, agent *domain.Agent) (*domain.FlushResult, error) {
	args := m.Called(ctx, agent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlushResult), args.Error(1)
}

func (m *MockAgentCaller) ClearKey(ctx context.Context, agent *domain.Agent, key string) error {
	args := m.Called(ctx, agent, key)
	return args.Error(0)
}

// mockCacheStore implements domain.CacheStore for testing.
type mockCacheStore struct {
	caches map[uuid.UUID]*domain.Cache
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{caches: make(map[uuid.UUID]*domain.Cache)}
}

func (m *mockCacheStore) Create(ctx context.Context, c *domain.Cache) error {
	c.ID = uuid.New()
	m.caches[c.ID] = c
	return nil
}

func (m *mockCacheStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cache, error) {
	c, ok := m.caches[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *mockCacheStore) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*domain.Cache, error) {
	var out []*domain.Cache
	for _, c := range m.caches {
		if c.ServiceID == serviceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCacheStore) GetAll(ctx context.Context) ([]*domain.Cache, error) {
	out := make([]*domain.Cache, 0, len(m.caches))
	for _, c := range m.caches {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCacheStore) Update(ctx context.Context, c *domain.Cache) error {
	if _, ok := m.caches[c.ID]; !ok {
		return store.ErrNotFound
	}
	m.caches[c.ID] = c
	return nil
}

func (m *mockCacheStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.caches[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.caches, id)
	return nil
}

type cacheFixture struct {
	svc      *CacheService
	caller   *MockAgentCaller
	agents   *mockAgentStore
	services *mockServiceStore
}

func newCacheFixture() *cacheFixture {
	caller := &MockAgentCaller{}
	agents := newMockAgentStore()
	services := newMockServiceStore()
	return &cacheFixture{
		svc:      NewCacheService(newMockCacheStore(), services, agents, caller, zap.NewNop()),
		caller:   caller,
		agents:   agents,
		services: services,
	}
}

func (f *cacheFixture) seedService(t *testing.T, withAgent, active bool) *domain.Service {
	t.Helper()
	ctx := context.Background()

	svc := &domain.Service{Name: "svc1", Status: domain.ServiceStatusOnline}
	if withAgent {
		agent := &domain.Agent{Name: "edge-1", URL: "http://edge-1:9090", APIKey: "cf_key", Active: active}
		if err := f.agents.Create(ctx, agent); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
		agentID := agent.ID
		svc.AgentID = &agentID
	}
	if err := f.services.Create(ctx, svc); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return svc
}

func TestCacheService_FlushAll_NoAgentAssigned(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, false, false)

	_, err := f.svc.FlushAll(context.Background(), svc.ID)
	assert.ErrorIs(t, err, ErrServiceHasNoAgent)

	// The pre-check must fail before any network activity.
	f.caller.AssertNotCalled(t, "FlushAll", mock.Anything, mock.Anything)
}

func TestCacheService_FlushAll_InactiveAgent(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, true, false)

	_, err := f.svc.FlushAll(context.Background(), svc.ID)
	assert.ErrorIs(t, err, ErrAgentInactive)
	f.caller.AssertNotCalled(t, "FlushAll", mock.Anything, mock.Anything)
}

func TestCacheService_FlushAll_UnknownService(t *testing.T) {
	f := newCacheFixture()

	_, err := f.svc.FlushAll(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrServiceNotFound)
	f.caller.AssertNotCalled(t, "FlushAll", mock.Anything, mock.Anything)
}

func TestCacheService_FlushAll_Relays(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, true, true)

	f.caller.On("FlushAll", mock.Anything, mock.Anything).Return(&domain.FlushResult{Flushed: 7}, nil)

	result, err := f.svc.FlushAll(context.Background(), svc.ID)
	assert.NoError(t, err)
	assert.Equal(t, 7, result.Flushed)
	f.caller.AssertExpectations(t)
}

func TestCacheService_FlushAll_AgentDown(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, true, true)

	f.caller.On("FlushAll", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := f.svc.FlushAll(context.Background(), svc.ID)
	assert.ErrorIs(t, err, ErrAgentUnavailable)
}

func TestCacheService_ClearKey_NoAgentAssigned(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, false, false)

	err := f.svc.ClearKey(context.Background(), svc.ID, "user:42")
	assert.ErrorIs(t, err, ErrServiceHasNoAgent)
	f.caller.AssertNotCalled(t, "ClearKey", mock.Anything, mock.Anything, mock.Anything)
}

func TestCacheService_ClearKey_Relays(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, true, true)

	f.caller.On("ClearKey", mock.Anything, mock.Anything, "user:42").Return(nil)

	err := f.svc.ClearKey(context.Background(), svc.ID, "user:42")
	assert.NoError(t, err)
	f.caller.AssertExpectations(t)
}

func TestCacheService_LiveCaches(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, true, true)

	snapshot := &domain.CacheSnapshot{
		ServiceName: "svc1",
		Keys:        []string{"user:42", "session:9"},
	}
	f.caller.On("ListCaches", mock.Anything, mock.Anything, "svc1").Return(snapshot, nil)

	got, err := f.svc.LiveCaches(context.Background(), svc.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"user:42", "session:9"}, got.Keys)
}

func TestCacheService_LiveCacheKey_AgentDown(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, true, true)

	f.caller.On("GetCacheKey", mock.Anything, mock.Anything, "user:42").Return(nil, errors.New("timeout"))

	_, err := f.svc.LiveCacheKey(context.Background(), svc.ID, "user:42")
	assert.ErrorIs(t, err, ErrAgentUnavailable)
}

func TestCacheService_Create_UnknownService(t *testing.T) {
	f := newCacheFixture()

	err := f.svc.Create(context.Background(), &domain.Cache{Name: "sessions", ServiceID: uuid.New()})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCacheService_GetByID_NotFound(t *testing.T) {
	f := newCacheFixture()

	_, err := f.svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheService_CRUD(t *testing.T) {
	f := newCacheFixture()
	svc := f.seedService(t, false, false)
	ctx := context.Background()

	cache := &domain.Cache{Name: "sessions", Size: 1024, Type: "memory", Status: "active", ServiceID: svc.ID}
	assert.NoError(t, f.svc.Create(ctx, cache))

	got, err := f.svc.GetByID(ctx, cache.ID)
	assert.NoError(t, err)
	assert.Equal(t, "sessions", got.Name)

	got.Size = 2048
	updated, err := f.svc.Update(ctx, got)
	assert.NoError(t, err)
	assert.Equal(t, int64(2048), updated.Size)

	assert.NoError(t, f.svc.Delete(ctx, cache.ID))
	_, err = f.svc.GetByID(ctx, cache.ID)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}
