package memory

import (
	"github.com/sidelinehq/clubpromo/internal/domain/organization"
)

const (
	OrgEmailRavens  = "media@coastalravens.example"
	OrgEmailHarbour = "promo@harbourcc.example"
)

func SeedOrganizations() []organization.Organization {
	return []organization.Organization{
		{
			ID:             1,
			Email:          OrgEmailRavens,
			Name:           "Coastal Ravens Cricket Club",
			UpstreamOrgID:  "org-ravens",
			APIKey:         "test-key-ravens",
			Tenant:         "ca",
			PrimaryColor:   "#101820",
			SecondaryColor: "#f2aa4c",
			TextColor:      "#ffffff",
			FontFamily:     "Archivo",
			LogoURL:        "https://cdn.example/ravens.png",
			SponsorLogoURL: "https://cdn.example/ravens-sponsor.png",
		},
		{
			ID:             2,
			Email:          OrgEmailHarbour,
			Name:           "Harbour City Cricket Club",
			UpstreamOrgID:  "org-harbour",
			APIKey:         "test-key-harbour",
			Tenant:         "ca",
			PrimaryColor:   "#0b3d2e",
			SecondaryColor: "#ffd166",
			TextColor:      "#f4f4f4",
			FontFamily:     "Inter",
		},
	}
}
