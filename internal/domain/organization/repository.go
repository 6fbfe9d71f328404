package organization

import (
	"context"
	"time"
)

// Repository exposes organization row operations. Email matching is exact
// and case-sensitive as stored.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (Organization, bool, error)
	UpdateCache(ctx context.Context, orgID int64, cacheJSON string, updatedAt time.Time) error
}

// ImageLogRepository records image-generation attempts. Writes are
// best-effort; callers log and continue on failure.
type ImageLogRepository interface {
	Insert(ctx context.Context, userEmail, template string) error
}
