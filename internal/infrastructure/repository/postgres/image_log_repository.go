package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	qb "github.com/sidelinehq/clubpromo/internal/platform/querybuilder"
)

type ImageLogRepository struct {
	db *sqlx.DB
}

func NewImageLogRepository(db *sqlx.DB) *ImageLogRepository {
	return &ImageLogRepository{db: db}
}

func (r *ImageLogRepository) Insert(ctx context.Context, userEmail, template string) error {
	query, args, err := qb.InsertInto("image_generation_logs").
		Columns("user_email", "selected_template", "created_at").
		Values(userEmail, template, time.Now().UTC()).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert image log query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert image generation log: %w", err)
	}

	return nil
}
