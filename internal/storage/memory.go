package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/leeaandrob/roascalc/internal/models"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	leads    map[string]models.Lead
	users    map[string]models.User
	analyses map[string]models.AnalysisRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:    make(map[string]models.Lead),
		users:    make(map[string]models.User),
		analyses: make(map[string]models.AnalysisRecord),
	}
}

func (s *MemoryStore) FindLeadByEmail(_ context.Context, email string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.leads {
		if l.Email == email {
			return &l, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetLead(_ context.Context, id string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (s *MemoryStore) CreateLead(_ context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[lead.ID]; ok {
		return ErrDuplicate
	}
	for _, l := range s.leads {
		if l.Email == lead.Email {
			return ErrDuplicate
		}
	}
	s.leads[lead.ID] = *lead
	return nil
}

func (s *MemoryStore) LinkLeadsToUser(_ context.Context, email, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, l := range s.leads {
		if l.Email == email && l.UserID == nil {
			uid := userID
			l.UserID = &uid
			s.leads[id] = l
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return ErrDuplicate
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) CreateAnalysis(_ context.Context, record *models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analyses[record.ID]; ok {
		return ErrDuplicate
	}
	stored := *record
	stored.Lead = nil
	s.analyses[record.ID] = stored
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, id string) (*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.analyses[id]
	if !ok {
		return nil, ErrNotFound
	}
	if l, ok := s.leads[r.LeadID]; ok {
		r.Lead = l.Ref()
	}
	return &r, nil
}

func (s *MemoryStore) ListAnalysesByUser(_ context.Context, userID string) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AnalysisRecord, 0)
	for _, r := range s.analyses {
		l, ok := s.leads[r.LeadID]
		if !ok || l.UserID == nil || *l.UserID != userID {
			continue
		}
		r.Lead = l.Ref()
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }
