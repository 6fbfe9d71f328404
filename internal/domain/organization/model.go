package organization

import (
	"strings"
	"time"
)

// Organization is one club's stored configuration: the email it is looked
// up by, its upstream credentials, branding consumed by the image
// templates, and the cached aggregate blob.
type Organization struct {
	ID             int64
	Email          string
	Name           string
	UpstreamOrgID  string
	APIKey         string
	Tenant         string
	PrimaryColor   string
	SecondaryColor string
	TextColor      string
	FontFamily     string
	LogoURL        string
	SponsorLogoURL string
	CacheJSON      string
	CacheUpdatedAt *time.Time
}

// HasCache reports whether an aggregate blob has ever been persisted.
func (o Organization) HasCache() bool {
	return strings.TrimSpace(o.CacheJSON) != ""
}

// Branding is the subset of organization fields the templates substitute.
type Branding struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	TextColor      string `json:"textColor"`
	FontFamily     string `json:"fontFamily"`
	LogoURL        string `json:"logoUrl"`
	SponsorLogoURL string `json:"sponsorLogoUrl"`
}

func (o Organization) Branding() Branding {
	return Branding{
		PrimaryColor:   o.PrimaryColor,
		SecondaryColor: o.SecondaryColor,
		TextColor:      o.TextColor,
		FontFamily:     o.FontFamily,
		LogoURL:        o.LogoURL,
		SponsorLogoURL: o.SponsorLogoURL,
	}
}
