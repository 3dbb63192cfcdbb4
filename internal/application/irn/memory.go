package irn

import (
	"context"
	"strings"
	"sync"

	"invoicehub-backend/internal/domain"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and tooling.
type MemoryStore struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*domain.Organization
	refs map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs: make(map[uuid.UUID]*domain.Organization),
		refs: make(map[string]struct{}),
	}
}

// PutOrganization registers org, assigning an id when missing.
func (m *MemoryStore) PutOrganization(org *domain.Organization) {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs[org.ID] = org
}

// Record marks ref as issued. Issued references are never forgotten.
func (m *MemoryStore) Record(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.refs[ref]; dup {
		return false
	}
	m.refs[ref] = struct{}{}
	return true
}

func (m *MemoryStore) FindOrganization(_ context.Context, id uuid.UUID) (*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	return org, nil
}

func (m *MemoryStore) LatestReference(_ context.Context, stem string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best := ""
	for ref := range m.refs {
		if strings.HasPrefix(ref, stem) && ref > best {
			best = ref
		}
	}
	return best, best != "", nil
}
