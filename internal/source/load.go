package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
)

// Load fetches competitors and series concurrently and assembles the schedule
func Load(ctx context.Context, client Client) (season.Schedule, error) {
	var schedule season.Schedule

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		competitors, err := client.LoadCompetitors(gctx)
		if err != nil {
			return err
		}
		schedule.Competitors = competitors
		return nil
	})
	g.Go(func() error {
		series, err := client.LoadSeries(gctx)
		if err != nil {
			return err
		}
		schedule.Series = series
		return nil
	})

	if err := g.Wait(); err != nil {
		return season.Schedule{}, err
	}
	return schedule, nil
}

// ValidateRoundRobin checks a single round robin: the expected team count, no unknown teams,
// and n-1 series for every team
func ValidateRoundRobin(schedule season.Schedule, expectedCompetitors int) error {
	n := len(schedule.Competitors)
	if n != expectedCompetitors {
		return fmt.Errorf("expected %d teams, found %d", expectedCompetitors, n)
	}
	if want := n * (n - 1) / 2; len(schedule.Series) != want {
		return fmt.Errorf("expected %d matches, found %d", want, len(schedule.Series))
	}

	counts := make(map[string]int, n)
	for _, c := range schedule.Competitors {
		counts[c.ID] = 0
	}
	for _, s := range schedule.Series {
		for _, id := range []string{s.A, s.B} {
			if _, ok := counts[id]; !ok {
				return fmt.Errorf("unknown team in match %s: %s", s.ID, id)
			}
			counts[id]++
		}
	}
	for _, c := range schedule.Competitors {
		if counts[c.ID] != n-1 {
			return fmt.Errorf("team %s has %d matches, expected %d", c.ID, counts[c.ID], n-1)
		}
	}
	return nil
}
