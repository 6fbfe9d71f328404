package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sidelinehq/clubpromo/internal/domain/organization"
	qb "github.com/sidelinehq/clubpromo/internal/platform/querybuilder"
)

type OrganizationRepository struct {
	db *sqlx.DB
}

func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetByEmail(ctx context.Context, email string) (organization.Organization, bool, error) {
	query, args, err := qb.Select("*").From("organizations").
		Where(qb.Eq("user_email", email)).
		Limit(1).
		ToSQL()
	if err != nil {
		return organization.Organization{}, false, fmt.Errorf("build select organization query: %w", err)
	}

	var row organizationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return organization.Organization{}, false, nil
		}
		return organization.Organization{}, false, fmt.Errorf("select organization by email: %w", err)
	}

	return row.toDomain(), true, nil
}

// UpdateCache writes the blob and its timestamp in one statement so readers
// never observe one without the other.
func (r *OrganizationRepository) UpdateCache(ctx context.Context, orgID int64, cacheJSON string, updatedAt time.Time) error {
	query, args, err := qb.Update("organizations").
		Set("cache_json", cacheJSON).
		Set("cache_updated_at", updatedAt.UTC()).
		Where(qb.Eq("org_id", orgID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update organization cache query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update organization cache: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update organization cache rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update organization cache: org_id=%d not found", orgID)
	}

	return nil
}
