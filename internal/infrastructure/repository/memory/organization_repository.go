package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sidelinehq/clubpromo/internal/domain/organization"
)

type OrganizationRepository struct {
	mu    sync.RWMutex
	items map[string]organization.Organization
}

func NewOrganizationRepository(orgs []organization.Organization) *OrganizationRepository {
	items := make(map[string]organization.Organization, len(orgs))
	for _, org := range orgs {
		items[org.Email] = org
	}

	return &OrganizationRepository{items: items}
}

func (r *OrganizationRepository) GetByEmail(_ context.Context, email string) (organization.Organization, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, ok := r.items[email]
	if !ok {
		return organization.Organization{}, false, nil
	}
	return org, true, nil
}

func (r *OrganizationRepository) UpdateCache(_ context.Context, orgID int64, cacheJSON string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for email, org := range r.items {
		if org.ID != orgID {
			continue
		}
		ts := updatedAt
		org.CacheJSON = cacheJSON
		org.CacheUpdatedAt = &ts
		r.items[email] = org
	}
	return nil
}
