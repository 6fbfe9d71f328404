package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sidelinehq/clubpromo/internal/domain/organization"
	"github.com/sidelinehq/clubpromo/internal/infrastructure/repository/memory"
	qb "github.com/sidelinehq/clubpromo/internal/platform/querybuilder"
)

type organizationSeedModel struct {
	Name           string `db:"org_name"`
	Email          string `db:"user_email"`
	UpstreamOrgID  string `db:"playhq_org_id"`
	APIKey         string `db:"playhq_api_key"`
	Tenant         string `db:"playhq_tenant"`
	PrimaryColor   string `db:"primary_color"`
	SecondaryColor string `db:"secondary_color"`
	TextColor      string `db:"text_color"`
	FontFamily     string `db:"font_family"`
	LogoURL        string `db:"logo_url"`
	SponsorLogoURL string `db:"sponsor_logo_url"`
}

func seedModelFromDomain(org organization.Organization) organizationSeedModel {
	return organizationSeedModel{
		Name:           org.Name,
		Email:          org.Email,
		UpstreamOrgID:  org.UpstreamOrgID,
		APIKey:         org.APIKey,
		Tenant:         org.Tenant,
		PrimaryColor:   org.PrimaryColor,
		SecondaryColor: org.SecondaryColor,
		TextColor:      org.TextColor,
		FontFamily:     org.FontFamily,
		LogoURL:        org.LogoURL,
		SponsorLogoURL: org.SponsorLogoURL,
	}
}

// BootstrapSeed inserts the development organizations when the table is
// empty. Production tables are populated out of band, so a non-empty table
// makes this a no-op.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM organizations`); err != nil {
		return fmt.Errorf("count organizations for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, org := range memory.SeedOrganizations() {
		model := seedModelFromDomain(org)
		query, args, err := qb.InsertModel("organizations", model, "ON CONFLICT (user_email) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build seed organization %s query: %w", org.Email, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed organization %s: %w", org.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
