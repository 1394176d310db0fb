package repository

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

// MemoryStore keeps everything in process memory. Used by tests and DB_DRIVER=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	bills    map[string]map[uuid.UUID]*entity.Bill
	profiles map[string]*entity.Profile
	now      func() time.Time
	logger   *slog.Logger
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		bills:    make(map[string]map[uuid.UUID]*entity.Bill),
		profiles: make(map[string]*entity.Profile),
		now:      time.Now,
		logger:   logger,
	}
}

func (s *MemoryStore) Bills() BillRepository       { return memoryBills{s} }
func (s *MemoryStore) Profiles() ProfileRepository { return memoryProfiles{s} }
func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close() error                { return nil }

type memoryBills struct{ s *MemoryStore }

func (r memoryBills) Create(_ context.Context, userID string, in entity.BillInput) (*entity.Bill, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b := newBill(userID, in, s.now().UTC())
	if s.bills[userID] == nil {
		s.bills[userID] = make(map[uuid.UUID]*entity.Bill)
	}
	s.bills[userID][b.ID] = b
	out := *b
	return &out, nil
}

func (r memoryBills) Get(_ context.Context, userID string, id uuid.UUID) (*entity.Bill, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bills[userID][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r memoryBills) List(_ context.Context, userID string, filter entity.BillFilter) ([]*entity.Bill, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Bill, 0, len(s.bills[userID]))
	for _, b := range s.bills[userID] {
		if filter.Matches(b) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memoryBills) Update(_ context.Context, userID string, id uuid.UUID, update entity.BillUpdate) (*entity.Bill, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bills[userID][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	update.Apply(b)
	b.DueDate = dateOnly(b.DueDate)
	b.UpdatedAt = s.now().UTC()
	out := *b
	return &out, nil
}

func (r memoryBills) Delete(_ context.Context, userID string, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[userID][id]; !ok {
		return common.ErrNotFound
	}
	delete(s.bills[userID], id)
	return nil
}

type memoryProfiles struct{ s *MemoryStore }

func (r memoryProfiles) Get(_ context.Context, userID string) (*entity.Profile, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r memoryProfiles) Upsert(_ context.Context, profile *entity.Profile) (*entity.Profile, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *profile
	p.UpdatedAt = s.now().UTC()
	s.profiles[p.UserID] = &p
	out := p
	return &out, nil
}
