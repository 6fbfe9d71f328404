package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sidelinehq/clubpromo/external/playhq"
	"github.com/sidelinehq/clubpromo/internal/domain/organization"
	"github.com/sidelinehq/clubpromo/internal/platform/cache"
	"github.com/sidelinehq/clubpromo/internal/platform/logging"
)

type ladderFetcher interface {
	FetchSeasons(ctx context.Context, orgID string, creds playhq.Credentials) ([]playhq.Season, error)
	FetchGrades(ctx context.Context, seasonID string, creds playhq.Credentials) ([]playhq.Grade, error)
	FetchLadder(ctx context.Context, gradeID string, creds playhq.Credentials) ([]playhq.Ladder, error)
}

// LadderService serves grade listings and ladder standings. Responses are
// short-lived relative to the fixture aggregate, so they go through an
// in-memory TTL cache instead of the database.
type LadderService struct {
	orgs     organization.Repository
	upstream ladderFetcher
	cache    *cache.Store
	logger   *logging.Logger
}

func NewLadderService(orgs organization.Repository, upstream ladderFetcher, ttl time.Duration, logger *logging.Logger) *LadderService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LadderService{
		orgs:     orgs,
		upstream: upstream,
		cache:    cache.NewStore(ttl),
		logger:   logger,
	}
}

// ListGrades returns the grades across every season visible to the
// organization, deduplicated by grade id.
func (s *LadderService) ListGrades(ctx context.Context, email string) ([]playhq.Grade, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LadderService.ListGrades")
	defer span.End()

	org, err := s.lookupOrg(ctx, email)
	if err != nil {
		return nil, err
	}

	key := "grades|" + strconv.FormatInt(org.ID, 10)
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		grades, err := s.loadGrades(ctx, org)
		if err != nil {
			return nil, mapUpstreamErr(err)
		}
		return grades, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]playhq.Grade), nil
}

// GetLadder returns the ladder standings for one grade.
func (s *LadderService) GetLadder(ctx context.Context, email, gradeID string) ([]playhq.Ladder, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LadderService.GetLadder")
	defer span.End()

	org, err := s.lookupOrg(ctx, email)
	if err != nil {
		return nil, err
	}

	gradeID = strings.TrimSpace(gradeID)
	if gradeID == "" {
		return nil, fmt.Errorf("%w: grade id is required", ErrInvalidInput)
	}

	key := "ladder|" + strconv.FormatInt(org.ID, 10) + "|" + gradeID
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		creds := playhq.Credentials{APIKey: org.APIKey, Tenant: org.Tenant}
		ladders, err := s.upstream.FetchLadder(ctx, gradeID, creds)
		if err != nil {
			return nil, mapUpstreamErr(err)
		}
		return ladders, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]playhq.Ladder), nil
}

// Invalidate drops the cached grades and ladders for the organization. It is
// called after an org-data refresh so standings do not lag a rebuilt payload.
func (s *LadderService) Invalidate(ctx context.Context, email string) error {
	org, err := s.lookupOrg(ctx, email)
	if err != nil {
		return err
	}

	orgKey := strconv.FormatInt(org.ID, 10)
	s.cache.Delete(ctx, "grades|"+orgKey)
	s.cache.DeletePrefix(ctx, "ladder|"+orgKey+"|")
	return nil
}

func (s *LadderService) lookupOrg(ctx context.Context, email string) (organization.Organization, error) {
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

func (s *LadderService) loadGrades(ctx context.Context, org organization.Organization) ([]playhq.Grade, error) {
	creds := playhq.Credentials{APIKey: org.APIKey, Tenant: org.Tenant}

	seasons, err := s.upstream.FetchSeasons(ctx, org.UpstreamOrgID, creds)
	if err != nil {
		return nil, fmt.Errorf("fetch seasons: %w", err)
	}

	seen := make(map[string]struct{})
	var grades []playhq.Grade
	for _, season := range seasons {
		seasonGrades, err := s.upstream.FetchGrades(ctx, season.ID, creds)
		if err != nil {
			// A single season failing should not hide every other grade.
			s.logger.WarnContext(ctx, "fetch grades failed, skipping season",
				"season_id", season.ID,
				"error", err)
			continue
		}
		for _, grade := range seasonGrades {
			if _, ok := seen[grade.ID]; ok {
				continue
			}
			seen[grade.ID] = struct{}{}
			grades = append(grades, grade)
		}
	}
	return grades, nil
}
