package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/sidelinehq/clubpromo/external/playhq"
	"github.com/sidelinehq/clubpromo/internal/domain/aggregate"
	"github.com/sidelinehq/clubpromo/internal/domain/organization"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
	"github.com/sidelinehq/clubpromo/internal/platform/resilience"
)

// Where an organization's payload came from.
const (
	OrgDataSourceCache = "cache"
	OrgDataSourceFresh = "fresh-fetch"
)

// fixtureFetcher is the slice of the PlayHQ client the aggregation path needs.
type fixtureFetcher interface {
	FetchSeasons(ctx context.Context, orgID string, creds playhq.Credentials) ([]playhq.Season, error)
	FetchAllTeams(ctx context.Context, seasonID string, creds playhq.Credentials) ([]playhq.Team, error)
	FetchAllFixtures(ctx context.Context, teamID string, creds playhq.Credentials) ([]playhq.Fixture, error)
}

// OrgData is a serialized aggregate plus the metadata callers surface
// alongside it.
type OrgData struct {
	Source      string
	Stale       bool
	LastUpdated *time.Time
	Payload     []byte
	Branding    organization.Branding
}

type OrgDataConfig struct {
	CacheMaxAge    time.Duration
	WindowDays     int
	BatchSize      int
	RefreshWorkers int
	BuildTimeout   time.Duration
}

type OrgDataService struct {
	orgs     organization.Repository
	upstream fixtureFetcher
	logger   *logging.Logger

	window       aggregate.Window
	maxAge       time.Duration
	batchSize    int
	buildTimeout time.Duration

	now func() time.Time

	buildFlight resilience.SingleFlight
	refreshPool *ants.Pool
	refreshing  sync.Map

	cacheHits        atomic.Int64
	staleHits        atomic.Int64
	freshBuilds      atomic.Int64
	refreshFailures  atomic.Int64
	upstreamFailures atomic.Int64
}

// OrgDataStats is a point-in-time snapshot of the service counters.
type OrgDataStats struct {
	CacheHits        int64 `json:"cacheHits"`
	StaleHits        int64 `json:"staleHits"`
	FreshBuilds      int64 `json:"freshBuilds"`
	RefreshFailures  int64 `json:"refreshFailures"`
	UpstreamFailures int64 `json:"upstreamFailures"`
}

func NewOrgDataService(orgs organization.Repository, upstream fixtureFetcher, logger *logging.Logger, cfg OrgDataConfig) (*OrgDataService, error) {
	if orgs == nil {
		return nil, crerr.New("organization repository is required")
	}
	if upstream == nil {
		return nil, crerr.New("upstream client is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.CacheMaxAge <= 0 {
		cfg.CacheMaxAge = 6 * time.Hour
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 21
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 2
	}
	if cfg.RefreshWorkers <= 0 {
		cfg.RefreshWorkers = 4
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 2 * time.Minute
	}

	// Nonblocking: a full pool rejects the refresh instead of stalling the
	// request that noticed the stale cache.
	pool, err := ants.NewPool(cfg.RefreshWorkers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create refresh pool: %w", err)
	}

	return &OrgDataService{
		orgs:         orgs,
		upstream:     upstream,
		logger:       logger,
		window:       aggregate.Window{Days: cfg.WindowDays},
		maxAge:       cfg.CacheMaxAge,
		batchSize:    cfg.BatchSize,
		buildTimeout: cfg.BuildTimeout,
		now:          time.Now,
		refreshPool:  pool,
	}, nil
}

// Close releases the background refresh pool. Refreshes already running are
// allowed to finish.
func (s *OrgDataService) Close() {
	s.refreshPool.Release()
}

// GetOrgData returns the aggregate for the organization registered under
// email. A fresh cache is served as-is; a stale cache is served immediately
// while a background refresh is scheduled; an empty cache blocks on a fetch.
func (s *OrgDataService) GetOrgData(ctx context.Context, email string) (OrgData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OrgDataService.GetOrgData")
	defer span.End()

	org, err := s.lookupOrg(ctx, email)
	if err != nil {
		return OrgData{}, err
	}

	if org.HasCache() && org.CacheUpdatedAt != nil {
		cached := OrgData{
			Source:      OrgDataSourceCache,
			LastUpdated: org.CacheUpdatedAt,
			Payload:     []byte(org.CacheJSON),
			Branding:    org.Branding(),
		}
		if s.isFresh(*org.CacheUpdatedAt) {
			s.cacheHits.Add(1)
			return cached, nil
		}
		cached.Stale = true
		s.staleHits.Add(1)
		s.scheduleRefresh(org)
		return cached, nil
	}

	return s.fetchAndStore(ctx, org)
}

// Refresh rebuilds the aggregate for the organization regardless of cache
// freshness and returns the new payload.
func (s *OrgDataService) Refresh(ctx context.Context, email string) (OrgData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OrgDataService.Refresh")
	defer span.End()

	org, err := s.lookupOrg(ctx, email)
	if err != nil {
		return OrgData{}, err
	}
	return s.fetchAndStore(ctx, org)
}

func (s *OrgDataService) lookupOrg(ctx context.Context, email string) (organization.Organization, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return organization.Organization{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	org, exists, err := s.orgs.GetByEmail(ctx, email)
	if err != nil {
		return organization.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	if !exists {
		return organization.Organization{}, fmt.Errorf("%w: organization=%s", ErrNotFound, email)
	}
	return org, nil
}

func (s *OrgDataService) isFresh(updatedAt time.Time) bool {
	return s.now().Sub(updatedAt) < s.maxAge
}

// fetchAndStore builds, persists, and returns a fresh aggregate. Concurrent
// callers for the same organization share a single build.
func (s *OrgDataService) fetchAndStore(ctx context.Context, org organization.Organization) (OrgData, error) {
	key := strconv.FormatInt(org.ID, 10)
	// The build is shared by every caller waiting on the flight, so it must
	// not die with the winning caller's request. buildTimeout still bounds it.
	buildCtx := context.WithoutCancel(ctx)
	value, err, _ := s.buildFlight.Do(key, func() (any, error) {
		return s.rebuild(buildCtx, org)
	})
	if err != nil {
		return OrgData{}, err
	}
	return value.(OrgData), nil
}

func (s *OrgDataService) rebuild(ctx context.Context, org organization.Organization) (OrgData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.buildTimeout)
	defer cancel()

	result, err := s.buildResult(ctx, org)
	if err != nil {
		s.upstreamFailures.Add(1)
		return OrgData{}, mapUpstreamErr(err)
	}

	payload, err := sonic.Marshal(result)
	if err != nil {
		return OrgData{}, fmt.Errorf("marshal aggregate: %w", err)
	}

	updatedAt := s.now().UTC()
	if err := s.orgs.UpdateCache(ctx, org.ID, string(payload), updatedAt); err != nil {
		// The aggregate is already built; a lost cache write only costs the
		// next caller a rebuild.
		s.logger.WarnContext(ctx, "cache write failed, serving uncached result",
			"org_id", org.ID,
			"error", err)
	}

	s.freshBuilds.Add(1)
	return OrgData{
		Source:      OrgDataSourceFresh,
		LastUpdated: &updatedAt,
		Payload:     payload,
		Branding:    org.Branding(),
	}, nil
}

// Stats snapshots the service counters for the dashboard endpoint.
func (s *OrgDataService) Stats() OrgDataStats {
	return OrgDataStats{
		CacheHits:        s.cacheHits.Load(),
		StaleHits:        s.staleHits.Load(),
		FreshBuilds:      s.freshBuilds.Load(),
		RefreshFailures:  s.refreshFailures.Load(),
		UpstreamFailures: s.upstreamFailures.Load(),
	}
}

// scheduleRefresh queues a background rebuild. At most one refresh per
// organization is in flight; a second stale read while one is queued is a
// no-op, as is a read arriving while the pool is saturated.
func (s *OrgDataService) scheduleRefresh(org organization.Organization) {
	if _, busy := s.refreshing.LoadOrStore(org.ID, struct{}{}); busy {
		return
	}

	err := s.refreshPool.Submit(func() {
		defer s.refreshing.Delete(org.ID)

		// Detached from the request that noticed staleness; that request has
		// already been answered from cache.
		ctx, cancel := context.WithTimeout(context.Background(), s.buildTimeout)
		defer cancel()

		if _, err := s.rebuild(ctx, org); err != nil {
			s.refreshFailures.Add(1)
			s.logger.Warn("background cache refresh failed",
				"org_id", org.ID,
				"error", err)
			return
		}
		s.logger.Info("background cache refresh completed", "org_id", org.ID)
	})
	if err != nil {
		s.refreshing.Delete(org.ID)
		s.logger.Warn("refresh pool saturated, skipping refresh",
			"org_id", org.ID,
			"error", err)
	}
}

// buildResult walks the upstream season tree and assembles the pruned
// aggregate for the organization.
func (s *OrgDataService) buildResult(ctx context.Context, org organization.Organization) (*aggregate.Result, error) {
	creds := playhq.Credentials{APIKey: org.APIKey, Tenant: org.Tenant}
	now := s.now()

	seasons, err := s.upstream.FetchSeasons(ctx, org.UpstreamOrgID, creds)
	if err != nil {
		return nil, fmt.Errorf("fetch seasons: %w", err)
	}

	result := &aggregate.Result{Seasons: make([]aggregate.Season, 0, len(seasons))}
	for _, season := range seasons {
		assembled, err := s.buildSeason(ctx, org, season, creds, now)
		if err != nil {
			return nil, err
		}
		if len(assembled.Teams) == 0 {
			continue
		}
		result.Seasons = append(result.Seasons, assembled)
	}

	result.Recount()
	result.DateRange = s.window.Range(now)
	return result, nil
}

func (s *OrgDataService) buildSeason(ctx context.Context, org organization.Organization, season playhq.Season, creds playhq.Credentials, now time.Time) (aggregate.Season, error) {
	roster, err := s.upstream.FetchAllTeams(ctx, season.ID, creds)
	if err != nil {
		return aggregate.Season{}, fmt.Errorf("fetch teams season_id=%s: %w", season.ID, err)
	}

	// Logos come from the full season roster so opponents resolve too, not
	// just the organization's own teams.
	logos := make(map[string]string, len(roster))
	for _, team := range roster {
		if team.Club != nil {
			logos[team.ID] = team.Club.Logo.LargestURL()
		}
	}

	var owned []playhq.Team
	for _, team := range roster {
		if team.Club != nil && team.Club.ID == org.UpstreamOrgID {
			owned = append(owned, team)
		}
	}

	assembled := mapSeason(season)
	if len(owned) == 0 {
		return assembled, nil
	}

	fetched := s.fetchFixturesBatched(ctx, owned, creds)
	for i, team := range owned {
		mapped := mapTeam(team, logos)
		for _, fixture := range fetched[i].fixtures {
			if fixture.Schedule == nil || !s.window.Contains(fixture.Schedule.Date, now) {
				continue
			}
			mapped.Fixtures = append(mapped.Fixtures, mapFixture(fixture, logos))
		}
		if len(mapped.Fixtures) == 0 {
			// Pruned either way; a failed fetch is logged where it happened,
			// a genuinely empty window is not an error.
			continue
		}
		assembled.Teams = append(assembled.Teams, mapped)
	}
	return assembled, nil
}

// teamFetchResult distinguishes a team whose fetch failed from one that
// legitimately has no fixtures.
type teamFetchResult struct {
	fixtures []playhq.Fixture
	failed   bool
}

// fetchFixturesBatched fetches fixtures for each team, batchSize teams at a
// time. Batches run sequentially, teams within a batch concurrently. A failed
// team yields an empty result and the build continues; results keep the input
// order.
func (s *OrgDataService) fetchFixturesBatched(ctx context.Context, teams []playhq.Team, creds playhq.Credentials) []teamFetchResult {
	results := make([]teamFetchResult, len(teams))
	for start := 0; start < len(teams); start += s.batchSize {
		end := start + s.batchSize
		if end > len(teams) {
			end = len(teams)
		}

		var wg conc.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Go(func() {
				fixtures, err := s.upstream.FetchAllFixtures(ctx, teams[i].ID, creds)
				if err != nil {
					s.upstreamFailures.Add(1)
					s.logger.WarnContext(ctx, "fetch fixtures failed, continuing without team",
						"team_id", teams[i].ID,
						"team_name", teams[i].Name,
						"error", err)
					results[i] = teamFetchResult{failed: true}
					return
				}
				results[i] = teamFetchResult{fixtures: fixtures}
			})
		}
		wg.Wait()
	}
	return results
}

func mapSeason(season playhq.Season) aggregate.Season {
	out := aggregate.Season{
		SeasonID:   season.ID,
		SeasonName: season.Name,
	}
	if season.Competition != nil {
		out.CompetitionID = season.Competition.ID
		out.CompetitionName = season.Competition.Name
	}
	if season.Association != nil {
		out.AssociationID = season.Association.ID
		out.AssociationName = season.Association.Name
		out.AssociationLogo = season.Association.Logo.LargestURL()
	}
	return out
}

func mapTeam(team playhq.Team, logos map[string]string) aggregate.Team {
	out := aggregate.Team{
		TeamID:   team.ID,
		TeamName: team.Name,
		ClubLogo: logos[team.ID],
	}
	if team.Grade != nil {
		out.GradeID = team.Grade.ID
		out.GradeName = team.Grade.Name
		out.GradeURL = team.Grade.URL
	}
	if team.Club != nil {
		out.ClubName = team.Club.Name
	}
	return out
}

func mapFixture(fixture playhq.Fixture, logos map[string]string) aggregate.Fixture {
	out := aggregate.Fixture{
		FixtureID: fixture.ID,
		Status:    aggregate.NormalizeStatus(fixture.Status),
		URL:       fixture.URL,
	}
	if fixture.Round != nil {
		out.RoundName = fixture.Round.Name
		out.RoundAbbr = fixture.Round.AbbreviatedName
		out.IsFinalRound = fixture.Round.IsFinalRound
	}
	if fixture.Grade != nil {
		out.GradeName = fixture.Grade.Name
		out.GradeURL = fixture.Grade.URL
	}
	if fixture.Schedule != nil {
		out.Date = fixture.Schedule.Date
		out.Time = fixture.Schedule.Time
		out.Timezone = fixture.Schedule.Timezone
	}
	if fixture.Venue != nil {
		out.VenueName = fixture.Venue.Name
		out.VenueSurface = fixture.Venue.SurfaceName
		out.VenueAddress = fixture.Venue.AddressLine()
	}

	home, away := fixture.HomeAway()
	if home != nil {
		out.HomeTeam = home.Name
		out.HomeTeamID = home.ID
		out.HomeTeamScore = home.ScoreTotal
		out.HomeTeamOutcome = home.Outcome
		out.HomeTeamLogo = logos[home.ID]
	}
	if away != nil {
		out.AwayTeam = away.Name
		out.AwayTeamID = away.ID
		out.AwayTeamScore = away.ScoreTotal
		out.AwayTeamOutcome = away.Outcome
		out.AwayTeamLogo = logos[away.ID]
	}
	return out
}

// mapUpstreamErr converts client-level availability failures into the
// usecase sentinel handlers translate to 503.
func mapUpstreamErr(err error) error {
	if crerr.Is(err, playhq.ErrUnavailable) || crerr.Is(err, playhq.ErrUnreachable) {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return err
}
