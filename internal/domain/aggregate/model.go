package aggregate

import "strings"

// Fixture statuses as reported upstream.
const (
	StatusUpcoming  = "UPCOMING"
	StatusCompleted = "COMPLETED"
)

// NormalizeStatus uppercases and trims an upstream status value.
func NormalizeStatus(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// Fixture is one match as it appears in the cached aggregate. Logos are
// resolved from the season-wide roster; "" means no logo was available.
type Fixture struct {
	FixtureID string `json:"fixtureId"`
	Status    string `json:"status"`
	URL       string `json:"url"`

	RoundName    string `json:"roundName"`
	RoundAbbr    string `json:"roundAbbr"`
	IsFinalRound bool   `json:"isFinalRound"`

	GradeName string `json:"gradeName"`
	GradeURL  string `json:"gradeUrl"`

	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`

	HomeTeam        string `json:"homeTeam"`
	HomeTeamID      string `json:"homeTeamId"`
	HomeTeamScore   *int   `json:"homeTeamScore"`
	HomeTeamOutcome string `json:"homeTeamOutcome"`
	HomeTeamLogo    string `json:"homeTeamLogo"`

	AwayTeam        string `json:"awayTeam"`
	AwayTeamID      string `json:"awayTeamId"`
	AwayTeamScore   *int   `json:"awayTeamScore"`
	AwayTeamOutcome string `json:"awayTeamOutcome"`
	AwayTeamLogo    string `json:"awayTeamLogo"`

	VenueName    string `json:"venueName"`
	VenueSurface string `json:"venueSurface"`
	VenueAddress string `json:"venueAddress"`
}

// Team is an organization-owned team with its in-window fixtures. Teams
// with no fixtures are pruned before the aggregate is returned.
type Team struct {
	TeamID    string    `json:"teamId"`
	TeamName  string    `json:"teamName"`
	GradeName string    `json:"gradeName"`
	GradeID   string    `json:"gradeId"`
	GradeURL  string    `json:"gradeUrl"`
	ClubName  string    `json:"clubName"`
	ClubLogo  string    `json:"clubLogo"`
	Fixtures  []Fixture `json:"fixtures"`
}

type Season struct {
	SeasonID        string `json:"seasonId"`
	SeasonName      string `json:"seasonName"`
	CompetitionName string `json:"competitionName"`
	CompetitionID   string `json:"competitionId"`
	AssociationName string `json:"associationName"`
	AssociationID   string `json:"associationId"`
	AssociationLogo string `json:"associationLogo"`
	Teams           []Team `json:"teams"`
}

type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Result is the full pruned aggregate persisted per organization.
type Result struct {
	Seasons       []Season  `json:"seasons"`
	TotalSeasons  int       `json:"totalSeasons"`
	TotalTeams    int       `json:"totalTeams"`
	TotalFixtures int       `json:"totalFixtures"`
	DateRange     DateRange `json:"dateRange"`
}

// Recount recomputes summary totals from the season tree.
func (r *Result) Recount() {
	r.TotalSeasons = len(r.Seasons)
	r.TotalTeams = 0
	r.TotalFixtures = 0
	for _, season := range r.Seasons {
		r.TotalTeams += len(season.Teams)
		for _, team := range season.Teams {
			r.TotalFixtures += len(team.Fixtures)
		}
	}
}
