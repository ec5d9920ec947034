package memory

import (
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/domain/team"
)

const (
	TeamIDNorthHawks  = "team-north-hawks"
	TeamIDBayOrbits   = "team-bay-orbits"
	TeamIDEastCircuit = "team-east-circuit"
	TeamIDWestPixel   = "team-west-pixel"

	MatchIDOpeningRound = "match-opening-round-01"

	JudgeIDMain   = "judge-ayu"
	JudgeIDSecond = "judge-rama"
)

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: TeamIDNorthHawks, Name: "North Hawks", SchoolID: "school-sman-1-utara"},
		{ID: TeamIDBayOrbits, Name: "Bay Orbits", SchoolID: "school-smk-teluk"},
		{ID: TeamIDEastCircuit, Name: "East Circuit", SchoolID: "school-sman-3-timur"},
		{ID: TeamIDWestPixel, Name: "West Pixel", SchoolID: "school-smk-barat"},
	}
}

func SeedMatches() []match.Match {
	scheduledAt := time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)
	return []match.Match{
		{
			ID:          MatchIDOpeningRound,
			HomeTeamID:  TeamIDNorthHawks,
			AwayTeamID:  TeamIDBayOrbits,
			ArenaID:     "arena-hall-a",
			ScheduledAt: scheduledAt,
			Status:      match.StatusScheduled,
			Judges: []match.JudgeAssignment{
				{JudgeID: JudgeIDMain, State: match.AssignmentPending, IsMain: true},
				{JudgeID: JudgeIDSecond, State: match.AssignmentPending},
			},
			CreatedAt: scheduledAt.Add(-30 * 24 * time.Hour),
			UpdatedAt: scheduledAt.Add(-30 * 24 * time.Hour),
		},
	}
}
