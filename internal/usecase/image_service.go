package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/sidelinehq/clubpromo/external/playhq"
	"github.com/sidelinehq/clubpromo/internal/domain/aggregate"
	"github.com/sidelinehq/clubpromo/internal/domain/organization"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
)

// Renderer turns an HTML document into PNG bytes.
type Renderer interface {
	Render(ctx context.Context, markup string, width, height int) ([]byte, error)
}

// Supported promo templates.
const (
	TemplateGameday = "gameday"
	TemplateLineup  = "lineup"
	TemplateLadder  = "ladder"
)

// Rendered card dimensions, portrait social post.
const (
	imageWidth  = 1080
	imageHeight = 1350
)

// Team and player names longer than this are shortened in card markup.
const maxDisplayName = 28

type summaryFetcher interface {
	FetchGameSummary(ctx context.Context, fixtureID string, creds playhq.Credentials) (*playhq.GameSummary, error)
}

type ImageRequest struct {
	Email     string
	Template  string
	FixtureID string
	GradeID   string
}

type ImageService struct {
	orgs      organization.Repository
	orgData   *OrgDataService
	ladders   *LadderService
	summaries summaryFetcher
	renderer  Renderer
	logs      organization.ImageLogRepository
	logger    *logging.Logger
}

func NewImageService(
	orgs organization.Repository,
	orgData *OrgDataService,
	ladders *LadderService,
	summaries summaryFetcher,
	renderer Renderer,
	logs organization.ImageLogRepository,
	logger *logging.Logger,
) *ImageService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ImageService{
		orgs:      orgs,
		orgData:   orgData,
		ladders:   ladders,
		summaries: summaries,
		renderer:  renderer,
		logs:      logs,
		logger:    logger,
	}
}

// Generate renders one promo card as PNG bytes.
func (s *ImageService) Generate(ctx context.Context, req ImageRequest) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImageService.Generate")
	defer span.End()

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	org, exists, err := s.orgs.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: organization=%s", ErrNotFound, email)
	}

	var markup string
	switch strings.TrimSpace(req.Template) {
	case TemplateGameday:
		fixture, err := s.findFixture(ctx, email, req.FixtureID)
		if err != nil {
			return nil, err
		}
		markup = buildGamedayMarkup(org.Branding(), fixture)
	case TemplateLineup:
		fixture, err := s.findFixture(ctx, email, req.FixtureID)
		if err != nil {
			return nil, err
		}
		summary, err := s.summaries.FetchGameSummary(ctx, fixture.FixtureID, playhq.Credentials{APIKey: org.APIKey, Tenant: org.Tenant})
		if err != nil {
			// The card still renders without player stats.
			s.logger.WarnContext(ctx, "fetch game summary failed, rendering lineup without stats",
				"fixture_id", fixture.FixtureID,
				"error", err)
			summary = nil
		}
		markup = buildLineupMarkup(org.Branding(), fixture, summary)
	case TemplateLadder:
		ladders, err := s.ladders.GetLadder(ctx, email, req.GradeID)
		if err != nil {
			return nil, err
		}
		if len(ladders) == 0 {
			return nil, fmt.Errorf("%w: ladder grade=%s", ErrNotFound, req.GradeID)
		}
		markup = buildLadderMarkup(org.Branding(), ladders[0])
	default:
		return nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, req.Template)
	}

	png, err := s.renderer.Render(ctx, markup, imageWidth, imageHeight)
	if err != nil {
		return nil, fmt.Errorf("render %s card: %w", req.Template, err)
	}

	// Audit row is best effort; a logging failure never fails the render.
	if err := s.logs.Insert(ctx, email, req.Template); err != nil {
		s.logger.WarnContext(ctx, "insert image generation log failed",
			"email", email,
			"template", req.Template,
			"error", err)
	}

	return png, nil
}

// findFixture locates a fixture by id inside the organization's aggregate,
// going through the cache path so a repeat render does not refetch upstream.
func (s *ImageService) findFixture(ctx context.Context, email, fixtureID string) (aggregate.Fixture, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return aggregate.Fixture{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	data, err := s.orgData.GetOrgData(ctx, email)
	if err != nil {
		return aggregate.Fixture{}, err
	}

	var result aggregate.Result
	if err := sonic.Unmarshal(data.Payload, &result); err != nil {
		return aggregate.Fixture{}, fmt.Errorf("decode cached aggregate: %w", err)
	}

	for _, season := range result.Seasons {
		for _, team := range season.Teams {
			for _, fixture := range team.Fixtures {
				if fixture.FixtureID == fixtureID {
					return fixture, nil
				}
			}
		}
	}
	return aggregate.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
}

// shortenName trims a display name to max runes, preferring a word boundary,
// and appends an ellipsis when anything was cut.
func shortenName(name string, max int) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= max {
		return name
	}

	runes := []rune(name)
	cut := string(runes[:max])
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

func buildGamedayMarkup(branding organization.Branding, fixture aggregate.Fixture) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeCardHead(buf, branding)
	fmt.Fprintf(buf, `<div class="card gameday">`)
	fmt.Fprintf(buf, `<div class="round">%s</div>`, html.EscapeString(fixture.RoundName))
	writeTeamBlock(buf, fixture.HomeTeam, fixture.HomeTeamLogo)
	fmt.Fprintf(buf, `<div class="vs">VS</div>`)
	writeTeamBlock(buf, fixture.AwayTeam, fixture.AwayTeamLogo)
	fmt.Fprintf(buf, `<div class="when">%s %s</div>`,
		html.EscapeString(fixture.Date), html.EscapeString(fixture.Time))
	fmt.Fprintf(buf, `<div class="where">%s</div>`, html.EscapeString(fixture.VenueName))
	writeCardFoot(buf, branding)

	return buf.String()
}

func buildLineupMarkup(branding organization.Branding, fixture aggregate.Fixture, summary *playhq.GameSummary) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeCardHead(buf, branding)
	fmt.Fprintf(buf, `<div class="card lineup">`)
	fmt.Fprintf(buf, `<div class="round">%s</div>`, html.EscapeString(fixture.RoundName))
	fmt.Fprintf(buf, `<div class="matchup">%s v %s</div>`,
		html.EscapeString(shortenName(fixture.HomeTeam, maxDisplayName)),
		html.EscapeString(shortenName(fixture.AwayTeam, maxDisplayName)))
	fmt.Fprintf(buf, `<ol class="players">`)
	if summary != nil {
		for _, player := range summary.Players {
			name := shortenName(strings.TrimSpace(player.FirstName+" "+player.LastName), maxDisplayName)
			if player.Number != nil {
				fmt.Fprintf(buf, `<li><span class="num">%d</span>%s</li>`, *player.Number, html.EscapeString(name))
				continue
			}
			fmt.Fprintf(buf, `<li>%s</li>`, html.EscapeString(name))
		}
	}
	fmt.Fprintf(buf, `</ol>`)
	writeCardFoot(buf, branding)

	return buf.String()
}

func buildLadderMarkup(branding organization.Branding, ladder playhq.Ladder) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeCardHead(buf, branding)
	fmt.Fprintf(buf, `<div class="card ladder">`)
	fmt.Fprintf(buf, `<div class="round">%s</div>`, html.EscapeString(ladder.Name))
	fmt.Fprintf(buf, `<table><thead><tr><th></th><th>Team</th><th>P</th><th>W</th><th>L</th><th>Pts</th></tr></thead><tbody>`)
	for _, row := range ladder.Standings {
		fmt.Fprintf(buf, `<tr><td>%d</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>`,
			row.Rank,
			html.EscapeString(shortenName(row.TeamName, maxDisplayName)),
			row.Played, row.Won, row.Lost, row.Points)
	}
	fmt.Fprintf(buf, `</tbody></table>`)
	writeCardFoot(buf, branding)

	return buf.String()
}

func writeCardHead(buf *bytebufferpool.ByteBuffer, branding organization.Branding) {
	fmt.Fprintf(buf, `<!DOCTYPE html><html><head><meta charset="utf-8"><style>`)
	fmt.Fprintf(buf, `:root{--primary:%s;--secondary:%s;--text:%s;}`,
		html.EscapeString(branding.PrimaryColor),
		html.EscapeString(branding.SecondaryColor),
		html.EscapeString(branding.TextColor))
	fmt.Fprintf(buf, `body{margin:0;font-family:%s,sans-serif;background:var(--primary);color:var(--text);}`,
		html.EscapeString(branding.FontFamily))
	fmt.Fprintf(buf, `.card{width:%dpx;height:%dpx;display:flex;flex-direction:column;align-items:center;justify-content:center;}`, imageWidth, imageHeight)
	fmt.Fprintf(buf, `.round{font-size:48px;color:var(--secondary);}`)
	fmt.Fprintf(buf, `.team{font-size:64px;text-align:center;}.team img{width:220px;height:220px;object-fit:contain;}`)
	fmt.Fprintf(buf, `.vs{font-size:40px;}.when,.where{font-size:36px;}`)
	fmt.Fprintf(buf, `.players{font-size:40px;list-style:none;padding:0;}.num{margin-right:24px;color:var(--secondary);}`)
	fmt.Fprintf(buf, `table{font-size:36px;border-collapse:collapse;}td,th{padding:8px 24px;}`)
	fmt.Fprintf(buf, `.sponsor img{max-height:120px;}`)
	fmt.Fprintf(buf, `</style></head><body>`)
}

func writeCardFoot(buf *bytebufferpool.ByteBuffer, branding organization.Branding) {
	if branding.SponsorLogoURL != "" {
		fmt.Fprintf(buf, `<div class="sponsor"><img src="%s"></div>`, html.EscapeString(branding.SponsorLogoURL))
	}
	fmt.Fprintf(buf, `</div></body></html>`)
}

func writeTeamBlock(buf *bytebufferpool.ByteBuffer, name, logo string) {
	fmt.Fprintf(buf, `<div class="team">`)
	if logo != "" {
		fmt.Fprintf(buf, `<img src="%s">`, html.EscapeString(logo))
	}
	fmt.Fprintf(buf, `<div>%s</div></div>`, html.EscapeString(shortenName(name, maxDisplayName)))
}
