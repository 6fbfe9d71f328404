package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sidelinehq/clubpromo/external/playhq"
	"github.com/sidelinehq/clubpromo/internal/infrastructure/repository/memory"
)

type fakeRenderer struct {
	lastMarkup string
	lastWidth  int
	lastHeight int
	err        error
}

func (r *fakeRenderer) Render(_ context.Context, markup string, width, height int) ([]byte, error) {
	r.lastMarkup = markup
	r.lastWidth = width
	r.lastHeight = height
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png-bytes"), nil
}

type fakeSummaries struct {
	summary *playhq.GameSummary
	err     error
}

func (f *fakeSummaries) FetchGameSummary(context.Context, string, playhq.Credentials) (*playhq.GameSummary, error) {
	return f.summary, f.err
}

func newImageFixture(t *testing.T) (*ImageService, *fakeRenderer, *memory.ImageLogRepository) {
	t.Helper()

	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	orgData := newOrgDataService(t, repo, seasonOfThreeTeams())
	ladders := NewLadderService(repo, newLadderUpstream(), time.Minute, nil)

	number := 7
	summaries := &fakeSummaries{summary: &playhq.GameSummary{
		ID:     "fx-1",
		Status: "upcoming",
		Players: []playhq.GamePlayer{
			{FirstName: "Tavish", LastName: "Ranatunga-Wickramasinghe", Number: &number},
			{FirstName: "Ori", LastName: "Blake"},
		},
	}}

	renderer := &fakeRenderer{}
	logs := memory.NewImageLogRepository()
	svc := NewImageService(repo, orgData, ladders, summaries, renderer, logs, nil)
	return svc, renderer, logs
}

func TestImageService_Generate_GamedayCard(t *testing.T) {
	svc, renderer, logs := newImageFixture(t)

	png, err := svc.Generate(t.Context(), ImageRequest{
		Email:     memory.OrgEmailRavens,
		Template:  TemplateGameday,
		FixtureID: "fx-1",
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("expected png bytes")
	}
	if renderer.lastWidth != 1080 || renderer.lastHeight != 1350 {
		t.Fatalf("unexpected dimensions: %dx%d", renderer.lastWidth, renderer.lastHeight)
	}

	markup := renderer.lastMarkup
	for _, want := range []string{
		"Ravens U12 Gold",
		"Seagulls U12",
		"Keirle Park",
		"--primary:#101820",
		"https://cdn.example/ravens-sponsor.png",
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("markup missing %q", want)
		}
	}

	entries := logs.Entries()
	if len(entries) != 1 || entries[0].SelectedTemplate != TemplateGameday {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
}

func TestImageService_Generate_LineupCardShortensLongNames(t *testing.T) {
	svc, renderer, _ := newImageFixture(t)

	if _, err := svc.Generate(t.Context(), ImageRequest{
		Email:     memory.OrgEmailRavens,
		Template:  TemplateLineup,
		FixtureID: "fx-1",
	}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if strings.Contains(renderer.lastMarkup, "Ranatunga-Wickramasinghe") {
		t.Fatal("long player name was not shortened")
	}
	if !strings.Contains(renderer.lastMarkup, "…") {
		t.Fatal("shortened name missing ellipsis")
	}
	if !strings.Contains(renderer.lastMarkup, `<span class="num">7</span>`) {
		t.Fatal("player number missing from markup")
	}
	if !strings.Contains(renderer.lastMarkup, "Ori Blake") {
		t.Fatal("short player name should be untouched")
	}
}

func TestImageService_Generate_LineupCardSurvivesSummaryFailure(t *testing.T) {
	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	orgData := newOrgDataService(t, repo, seasonOfThreeTeams())
	ladders := NewLadderService(repo, newLadderUpstream(), time.Minute, nil)
	summaries := &fakeSummaries{err: errors.New("summary endpoint timed out")}
	renderer := &fakeRenderer{}
	svc := NewImageService(repo, orgData, ladders, summaries, renderer, memory.NewImageLogRepository(), nil)

	png, err := svc.Generate(t.Context(), ImageRequest{
		Email:     memory.OrgEmailRavens,
		Template:  TemplateLineup,
		FixtureID: "fx-1",
	})
	if err != nil {
		t.Fatalf("lineup card must render without stats: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("expected png bytes")
	}
	if !strings.Contains(renderer.lastMarkup, "Ravens U12 Gold") {
		t.Fatal("matchup missing from statless lineup card")
	}
	if strings.Contains(renderer.lastMarkup, `<span class="num">`) {
		t.Fatal("statless card should list no players")
	}
}

func TestImageService_Generate_LadderCard(t *testing.T) {
	svc, renderer, _ := newImageFixture(t)

	if _, err := svc.Generate(t.Context(), ImageRequest{
		Email:    memory.OrgEmailRavens,
		Template: TemplateLadder,
		GradeID:  "grade-1",
	}); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if !strings.Contains(renderer.lastMarkup, "Ravens U12 Gold") {
		t.Fatal("ladder markup missing team name")
	}
	if !strings.Contains(renderer.lastMarkup, "<td>44</td>") {
		t.Fatal("ladder markup missing points column")
	}
}

func TestImageService_Generate_Validation(t *testing.T) {
	svc, _, _ := newImageFixture(t)

	cases := []struct {
		name string
		req  ImageRequest
		want error
	}{
		{"missing email", ImageRequest{Template: TemplateGameday, FixtureID: "fx-1"}, ErrInvalidInput},
		{"unknown org", ImageRequest{Email: "nobody@example.com", Template: TemplateGameday, FixtureID: "fx-1"}, ErrNotFound},
		{"unknown template", ImageRequest{Email: memory.OrgEmailRavens, Template: "poster"}, ErrInvalidInput},
		{"missing fixture id", ImageRequest{Email: memory.OrgEmailRavens, Template: TemplateGameday}, ErrInvalidInput},
		{"unknown fixture", ImageRequest{Email: memory.OrgEmailRavens, Template: TemplateGameday, FixtureID: "fx-999"}, ErrNotFound},
		{"unknown ladder", ImageRequest{Email: memory.OrgEmailRavens, Template: TemplateLadder, GradeID: "grade-9"}, ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Generate(t.Context(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestImageService_Generate_AuditFailureDoesNotFailRender(t *testing.T) {
	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	orgData := newOrgDataService(t, repo, seasonOfThreeTeams())
	ladders := NewLadderService(repo, newLadderUpstream(), time.Minute, nil)
	svc := NewImageService(repo, orgData, ladders, &fakeSummaries{}, &fakeRenderer{}, failingImageLogs{}, nil)

	if _, err := svc.Generate(t.Context(), ImageRequest{
		Email:     memory.OrgEmailRavens,
		Template:  TemplateGameday,
		FixtureID: "fx-1",
	}); err != nil {
		t.Fatalf("audit failure must not fail render: %v", err)
	}
}

type failingImageLogs struct{}

func (failingImageLogs) Insert(context.Context, string, string) error {
	return errors.New("insert failed")
}

func TestShortenName(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"Ravens", 28, "Ravens"},
		{"Coastal Ravens Cricket Club Seniors", 28, "Coastal Ravens Cricket Club…"},
		{"Supercalifragilisticexpialidocious", 10, "Supercalif…"},
		{"  padded  ", 28, "padded"},
	}

	for _, tc := range cases {
		if got := shortenName(tc.in, tc.max); got != tc.want {
			t.Fatalf("shortenName(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
