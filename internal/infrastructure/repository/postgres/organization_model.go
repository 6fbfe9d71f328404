package postgres

import (
	"database/sql"
	"time"

	"github.com/sidelinehq/clubpromo/internal/domain/organization"
)

type organizationTableModel struct {
	ID             int64          `db:"org_id"`
	Name           sql.NullString `db:"org_name"`
	Email          string         `db:"user_email"`
	UpstreamOrgID  sql.NullString `db:"playhq_org_id"`
	APIKey         sql.NullString `db:"playhq_api_key"`
	Tenant         sql.NullString `db:"playhq_tenant"`
	PrimaryColor   sql.NullString `db:"primary_color"`
	SecondaryColor sql.NullString `db:"secondary_color"`
	TextColor      sql.NullString `db:"text_color"`
	FontFamily     sql.NullString `db:"font_family"`
	LogoURL        sql.NullString `db:"logo_url"`
	SponsorLogoURL sql.NullString `db:"sponsor_logo_url"`
	CacheJSON      sql.NullString `db:"cache_json"`
	CacheUpdatedAt sql.NullTime   `db:"cache_updated_at"`
}

func (m organizationTableModel) toDomain() organization.Organization {
	return organization.Organization{
		ID:             m.ID,
		Email:          m.Email,
		Name:           m.Name.String,
		UpstreamOrgID:  m.UpstreamOrgID.String,
		APIKey:         m.APIKey.String,
		Tenant:         m.Tenant.String,
		PrimaryColor:   m.PrimaryColor.String,
		SecondaryColor: m.SecondaryColor.String,
		TextColor:      m.TextColor.String,
		FontFamily:     m.FontFamily.String,
		LogoURL:        m.LogoURL.String,
		SponsorLogoURL: m.SponsorLogoURL.String,
		CacheJSON:      m.CacheJSON.String,
		CacheUpdatedAt: nullTimeToPtr(m.CacheUpdatedAt),
	}
}

func nullTimeToPtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
