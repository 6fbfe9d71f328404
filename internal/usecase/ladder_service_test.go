package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sidelinehq/clubpromo/external/playhq"
	"github.com/sidelinehq/clubpromo/internal/infrastructure/repository/memory"
)

type fakeLadderUpstream struct {
	mu sync.Mutex

	seasons        []playhq.Season
	gradesBySeason map[string][]playhq.Grade
	gradeErrs      map[string]error
	laddersByGrade map[string][]playhq.Ladder

	ladderCalls int
}

func (f *fakeLadderUpstream) FetchSeasons(context.Context, string, playhq.Credentials) ([]playhq.Season, error) {
	return f.seasons, nil
}

func (f *fakeLadderUpstream) FetchGrades(_ context.Context, seasonID string, _ playhq.Credentials) ([]playhq.Grade, error) {
	if err := f.gradeErrs[seasonID]; err != nil {
		return nil, err
	}
	return f.gradesBySeason[seasonID], nil
}

func (f *fakeLadderUpstream) FetchLadder(_ context.Context, gradeID string, _ playhq.Credentials) ([]playhq.Ladder, error) {
	f.mu.Lock()
	f.ladderCalls++
	f.mu.Unlock()
	return f.laddersByGrade[gradeID], nil
}

func newLadderUpstream() *fakeLadderUpstream {
	return &fakeLadderUpstream{
		seasons: []playhq.Season{
			{ID: "season-1", Name: "Summer 2025/26"},
			{ID: "season-2", Name: "Winter 2026"},
		},
		gradesBySeason: map[string][]playhq.Grade{
			"season-1": {
				{ID: "grade-1", Name: "U12 Div 1"},
				{ID: "grade-2", Name: "U14 Div 2"},
			},
			"season-2": {
				{ID: "grade-2", Name: "U14 Div 2"},
				{ID: "grade-3", Name: "Opens"},
			},
		},
		laddersByGrade: map[string][]playhq.Ladder{
			"grade-1": {{
				GradeID: "grade-1",
				Name:    "U12 Div 1",
				Standings: []playhq.LadderRow{
					{Rank: 1, TeamID: "team-a", TeamName: "Ravens U12 Gold", Played: 8, Won: 7, Points: 44},
					{Rank: 2, TeamID: "team-x", TeamName: "Seagulls U12", Played: 8, Won: 5, Points: 36},
				},
			}},
		},
	}
}

func TestLadderService_ListGrades_DeduplicatesAcrossSeasons(t *testing.T) {
	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	svc := NewLadderService(repo, newLadderUpstream(), time.Minute, nil)

	grades, err := svc.ListGrades(t.Context(), memory.OrgEmailRavens)
	if err != nil {
		t.Fatalf("list grades failed: %v", err)
	}
	if len(grades) != 3 {
		t.Fatalf("expected 3 unique grades, got %d", len(grades))
	}
	if grades[0].ID != "grade-1" || grades[1].ID != "grade-2" || grades[2].ID != "grade-3" {
		t.Fatalf("unexpected grade order: %v", grades)
	}
}

func TestLadderService_ListGrades_SkipsFailingSeason(t *testing.T) {
	upstream := newLadderUpstream()
	upstream.gradeErrs = map[string]error{"season-1": fmt.Errorf("boom")}

	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	svc := NewLadderService(repo, upstream, time.Minute, nil)

	grades, err := svc.ListGrades(t.Context(), memory.OrgEmailRavens)
	if err != nil {
		t.Fatalf("list grades failed: %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("expected grades from the surviving season, got %d", len(grades))
	}
}

func TestLadderService_GetLadder_CachesByGrade(t *testing.T) {
	upstream := newLadderUpstream()
	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	svc := NewLadderService(repo, upstream, time.Minute, nil)

	for i := 0; i < 3; i++ {
		ladders, err := svc.GetLadder(t.Context(), memory.OrgEmailRavens, "grade-1")
		if err != nil {
			t.Fatalf("get ladder failed: %v", err)
		}
		if len(ladders) != 1 || len(ladders[0].Standings) != 2 {
			t.Fatalf("unexpected ladder shape: %+v", ladders)
		}
	}

	if upstream.ladderCalls != 1 {
		t.Fatalf("expected one upstream ladder call, got %d", upstream.ladderCalls)
	}
}

func TestLadderService_Invalidate_DropsCachedLadders(t *testing.T) {
	upstream := newLadderUpstream()
	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	svc := NewLadderService(repo, upstream, time.Minute, nil)

	if _, err := svc.GetLadder(t.Context(), memory.OrgEmailRavens, "grade-1"); err != nil {
		t.Fatalf("get ladder failed: %v", err)
	}
	if err := svc.Invalidate(t.Context(), memory.OrgEmailRavens); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, err := svc.GetLadder(t.Context(), memory.OrgEmailRavens, "grade-1"); err != nil {
		t.Fatalf("get ladder after invalidate failed: %v", err)
	}

	if upstream.ladderCalls != 2 {
		t.Fatalf("expected a fresh upstream call after invalidation, got %d", upstream.ladderCalls)
	}
}

func TestLadderService_GetLadder_Validation(t *testing.T) {
	repo := memory.NewOrganizationRepository(memory.SeedOrganizations())
	svc := NewLadderService(repo, newLadderUpstream(), time.Minute, nil)

	if _, err := svc.GetLadder(t.Context(), memory.OrgEmailRavens, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.GetLadder(t.Context(), "nobody@example.com", "grade-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
