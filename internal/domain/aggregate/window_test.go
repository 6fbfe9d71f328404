package aggregate

import (
	"testing"
	"time"
)

func TestWindowContains(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)
	window := Window{Days: 21}

	cases := []struct {
		name string
		date string
		want bool
	}{
		{name: "today", date: "2025-06-15", want: true},
		{name: "lower edge inclusive", date: "2025-05-25", want: true},
		{name: "upper edge inclusive", date: "2025-07-06", want: true},
		{name: "one day before lower edge", date: "2025-05-24", want: false},
		{name: "one day after upper edge", date: "2025-07-07", want: false},
		{name: "rfc3339 timestamp inside", date: "2025-06-20T18:00:00Z", want: true},
		{name: "absent date", date: "", want: false},
		{name: "whitespace date", date: "   ", want: false},
		{name: "garbage date", date: "not-a-date", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := window.Contains(tc.date, now); got != tc.want {
				t.Fatalf("Contains(%q) = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}

func TestWindowRadiusIsConfigurable(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	wide := Window{Days: 365}
	if !wide.Contains("2024-09-01", now) {
		t.Fatalf("expected date inside a one-year window")
	}
	narrow := Window{Days: 14}
	if narrow.Contains("2025-05-25", now) {
		t.Fatalf("expected date outside a two-week window")
	}
}

func TestWindowRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 15, 23, 59, 0, 0, time.UTC)
	got := Window{Days: 21}.Range(now)
	if got.From != "2025-05-25" {
		t.Fatalf("unexpected range from: %s", got.From)
	}
	if got.To != "2025-07-06" {
		t.Fatalf("unexpected range to: %s", got.To)
	}
}

func TestResultRecount(t *testing.T) {
	t.Parallel()

	result := Result{Seasons: []Season{
		{Teams: []Team{
			{Fixtures: []Fixture{{}, {}}},
			{Fixtures: []Fixture{{}}},
		}},
		{Teams: []Team{
			{Fixtures: []Fixture{{}}},
		}},
	}}
	result.Recount()

	if result.TotalSeasons != 2 {
		t.Fatalf("expected 2 seasons, got=%d", result.TotalSeasons)
	}
	if result.TotalTeams != 3 {
		t.Fatalf("expected 3 teams, got=%d", result.TotalTeams)
	}
	if result.TotalFixtures != 4 {
		t.Fatalf("expected 4 fixtures, got=%d", result.TotalFixtures)
	}
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	if got := NormalizeStatus("  upcoming "); got != StatusUpcoming {
		t.Fatalf("unexpected normalized status: %s", got)
	}
}
