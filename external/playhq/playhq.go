package playhq

import (
	"sort"
	"strings"
)

// Wire shapes returned by the PlayHQ public API. Optional relations are
// pointers so an absent object decodes to nil instead of a zero struct.

type Season struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	Competition *Competition `json:"competition"`
	Association *Association `json:"association"`
}

type Competition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Association struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo *Logo  `json:"logo"`
}

type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Grade *Grade `json:"grade"`
	Club  *Club  `json:"club"`
}

type Grade struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Club struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo *Logo  `json:"logo"`
}

type Fixture struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	URL         string       `json:"url"`
	Round       *Round       `json:"round"`
	Grade       *Grade       `json:"grade"`
	Schedule    *Schedule    `json:"schedule"`
	Competitors []Competitor `json:"competitors"`
	Venue       *Venue       `json:"venue"`
}

type Round struct {
	Name            string `json:"name"`
	AbbreviatedName string `json:"abbreviatedName"`
	IsFinalRound    bool   `json:"isFinalRound"`
}

type Schedule struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

type Competitor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsHomeTeam bool   `json:"isHomeTeam"`
	ScoreTotal *int   `json:"scoreTotal"`
	Outcome    string `json:"outcome"`
}

type Venue struct {
	Name        string   `json:"name"`
	SurfaceName string   `json:"surfaceName"`
	Address     *Address `json:"address"`
}

type Address struct {
	Line1    string `json:"line1"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

type Ladder struct {
	GradeID   string      `json:"gradeId"`
	Name      string      `json:"name"`
	Standings []LadderRow `json:"standings"`
}

type LadderRow struct {
	Rank       int     `json:"rank"`
	TeamID     string  `json:"teamId"`
	TeamName   string  `json:"teamName"`
	Logo       *Logo   `json:"logo"`
	Played     int     `json:"played"`
	Won        int     `json:"won"`
	Lost       int     `json:"lost"`
	Drawn      int     `json:"drawn"`
	Byes       int     `json:"byes"`
	Points     int     `json:"points"`
	Percentage float64 `json:"percentage"`
}

type GameSummary struct {
	ID      string       `json:"id"`
	Status  string       `json:"status"`
	Players []GamePlayer `json:"players"`
}

type GamePlayer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ClubName  string `json:"clubName"`
	Number    *int   `json:"number"`
}

type Logo struct {
	Sizes []LogoSize `json:"sizes"`
}

type LogoSize struct {
	URL        string         `json:"url"`
	Dimensions LogoDimensions `json:"dimensions"`
}

type LogoDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LargestURL returns the URL of the widest rendition, or "" when the logo
// or its size list is absent. Callers rely on "" as the no-logo marker.
func (l *Logo) LargestURL() string {
	if l == nil || len(l.Sizes) == 0 {
		return ""
	}
	sizes := make([]LogoSize, len(l.Sizes))
	copy(sizes, l.Sizes)
	sort.SliceStable(sizes, func(i, j int) bool {
		return sizes[i].Dimensions.Width > sizes[j].Dimensions.Width
	})
	return strings.TrimSpace(sizes[0].URL)
}

// AddressLine flattens a venue address into the display form
// "line1, suburb, state postcode". Empty when the address is absent.
func (v *Venue) AddressLine() string {
	if v == nil || v.Address == nil {
		return ""
	}
	a := v.Address
	return a.Line1 + ", " + a.Suburb + ", " + a.State + " " + a.Postcode
}

// HomeAway splits a fixture's competitor slots by the isHomeTeam flag.
// Either side may be nil when the upstream record is incomplete.
func (f Fixture) HomeAway() (home, away *Competitor) {
	for i := range f.Competitors {
		c := &f.Competitors[i]
		if c.IsHomeTeam {
			if home == nil {
				home = c
			}
		} else if away == nil {
			away = c
		}
	}
	return home, away
}

type seasonsEnvelope struct {
	Data []Season `json:"data"`
}

type gradesEnvelope struct {
	Data []Grade `json:"data"`
}

type laddersEnvelope struct {
	Ladders []Ladder `json:"ladders"`
}

type gameSummaryEnvelope struct {
	Data *GameSummary `json:"data"`
}
