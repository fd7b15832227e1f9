package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"afisha/internal/domain"
)

// In-memory fakes shared by the service tests in this package.

type mockEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	nextID int
	err    error
}

func newMockEventRepo(events ...*domain.Event) *mockEventRepo {
	m := &mockEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockEventRepo) Create(ctx context.Context, event *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = fmt.Sprintf("ev-%d", m.nextID)
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.ID]; !ok {
		return domain.ErrNotFound
	}
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepo) ListByInitiator(ctx context.Context, initiatorID string, limit, offset int) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Event
	for _, e := range m.events {
		if e.InitiatorID == initiatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) SearchAdmin(ctx context.Context, filter domain.AdminSearchFilter) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Event
	for _, e := range m.events {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockEventRepo) SearchPublic(ctx context.Context, filter domain.PublicSearchFilter) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Event
	for _, e := range m.events {
		if e.State != domain.EventStatePublished {
			continue
		}
		if filter.Text != "" &&
			!strings.Contains(strings.ToLower(e.Annotation), strings.ToLower(filter.Text)) &&
			!strings.Contains(strings.ToLower(e.Description), strings.ToLower(filter.Text)) {
			continue
		}
		if filter.RangeStart != nil && e.EventDate.Before(*filter.RangeStart) {
			continue
		}
		if filter.RangeEnd != nil && e.EventDate.After(*filter.RangeEnd) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ParticipationRequest
	order    []string
	nextID   int
	err      error
}

func newMockRequestRepo(reqs ...*domain.ParticipationRequest) *mockRequestRepo {
	m := &mockRequestRepo{requests: make(map[string]*domain.ParticipationRequest)}
	for _, r := range reqs {
		m.requests[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return m
}

func (m *mockRequestRepo) Create(ctx context.Context, req *domain.ParticipationRequest) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req.ID = fmt.Sprintf("req-%d", m.nextID)
	m.requests[req.ID] = req
	m.order = append(m.order, req.ID)
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *domain.ParticipationRequest) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; !ok {
		return domain.ErrNotFound
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepo) UpdateAll(ctx context.Context, reqs []*domain.ParticipationRequest) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range reqs {
		if _, ok := m.requests[r.ID]; !ok {
			return domain.ErrNotFound
		}
	}
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
	return nil
}

func (m *mockRequestRepo) CountByEventAndStatus(ctx context.Context, eventID string, status domain.RequestStatus) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockRequestRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ParticipationRequest
	for _, id := range m.order {
		if r := m.requests[id]; r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) ListByRequester(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ParticipationRequest
	for _, id := range m.order {
		if r := m.requests[id]; r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.ParticipationRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ParticipationRequest
	for _, id := range ids {
		if r, ok := m.requests[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRequestRepo) ExistsActiveByEventAndRequester(ctx context.Context, eventID, requesterID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.EventID == eventID && r.RequesterID == requesterID && r.Status != domain.RequestStatusCanceled {
			return true, nil
		}
	}
	return false, nil
}

type mockUserRepo struct {
	users map[string]*domain.User
	err   error
}

func newMockUserRepo(ids ...string) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*domain.User)}
	for _, id := range ids {
		m.users[id] = &domain.User{ID: id, Email: id + "@example.com"}
	}
	return m
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.users[id]
	return ok, nil
}

type mockCategoryRepo struct {
	ids map[string]struct{}
	err error
}

func newMockCategoryRepo(ids ...string) *mockCategoryRepo {
	m := &mockCategoryRepo{ids: make(map[string]struct{})}
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return m
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.ids[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Category{ID: id, Name: "cat " + id}, nil
}

func (m *mockCategoryRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.ids[id]
	return ok, nil
}

type mockStatsClient struct {
	mu    sync.Mutex
	hits  []domain.EndpointHit
	stats []domain.ViewStats
	err   error
}

func (m *mockStatsClient) RecordHit(ctx context.Context, hit domain.EndpointHit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.hits = append(m.hits, hit)
	return nil
}

func (m *mockStatsClient) QueryStats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]domain.ViewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

type mockEmailService struct {
	mu   sync.Mutex
	sent []*domain.RequestDecisionEmailData
	err  error
}

func (m *mockEmailService) SendRequestDecision(ctx context.Context, data *domain.RequestDecisionEmailData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, data)
	return nil
}
