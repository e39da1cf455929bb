package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
)

const ratingsCSV = `team_id,elo
OpTic Texas,1620.5
Atlanta FaZe,1590
Toronto Ultra,1540
`

const matchesCSV = `start_date,team1_id,team2_id,team1_score,team2_score
2025-01-10,OpTic Texas,Atlanta FaZe,3,1
2025-01-11,Atlanta FaZe,Toronto Ultra,NA,NA
TBD,Toronto Ultra,OpTic Texas,,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestCSVClient_LoadFromFiles(t *testing.T) {
	logger, hook := test.NewNullLogger()
	client := NewCSVClient(Locations{
		Ratings: writeFile(t, "ratings.csv", ratingsCSV),
		Matches: writeFile(t, "matches.csv", matchesCSV),
	}, 3, 0, logger)

	schedule, err := Load(context.Background(), client)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(schedule.Competitors) != 3 {
		t.Fatalf("Expected 3 competitors, got %d", len(schedule.Competitors))
	}
	if schedule.Competitors[0].ID != "OpTic Texas" || schedule.Competitors[0].Rating != 1620.5 {
		t.Errorf("Unexpected first competitor %+v", schedule.Competitors[0])
	}

	if len(schedule.Series) != 3 {
		t.Fatalf("Expected 3 series, got %d", len(schedule.Series))
	}
	first := schedule.Series[0]
	if first.ID != "match_0" || !first.Completed() || *first.Score != (season.Score{A: 3, B: 1}) {
		t.Errorf("Unexpected first series %+v", first)
	}
	if first.Date.Year() != 2025 || first.Date.Month() != time.January || first.Date.Day() != 10 {
		t.Errorf("Expected 2025-01-10, got %v", first.Date)
	}
	if schedule.Series[1].Completed() || schedule.Series[2].Completed() {
		t.Error("Expected NA and empty scores to be unplayed")
	}
	if !schedule.Series[2].Date.IsZero() {
		t.Errorf("Expected unparseable date to be empty, got %v", schedule.Series[2].Date)
	}

	warned := false
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Unparseable start_date, leaving it empty" {
			warned = true
		}
	}
	if !warned {
		t.Error("Expected a warning for the unparseable date")
	}

	if err := schedule.Validate(nil, 3); err != nil {
		t.Errorf("Expected loaded schedule to validate, got %v", err)
	}
	if err := ValidateRoundRobin(schedule, 3); err != nil {
		t.Errorf("Expected a complete round robin, got %v", err)
	}
}

func TestCSVClient_LoadFromURL(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Path {
		case "/ratings.csv":
			w.Write([]byte(ratingsCSV))
		case "/matches.csv":
			w.Write([]byte(matchesCSV))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found"))
		}
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	client := NewCSVClient(Locations{
		Ratings: server.URL + "/ratings.csv",
		Matches: server.URL + "/matches.csv",
	}, 3, time.Hour, logger)

	for i := 0; i < 2; i++ {
		competitors, err := client.LoadCompetitors(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(competitors) != 3 {
			t.Errorf("Expected 3 competitors, got %d", len(competitors))
		}
	}

	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("Expected cached second fetch (1 request), got %d requests", got)
	}
}

func TestCSVClient_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	client := NewCSVClient(Locations{Ratings: server.URL + "/ratings.csv"}, 3, 0, logger)

	_, err := client.LoadCompetitors(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected LoadError, got %v", err)
	}
	if loadErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", loadErr.StatusCode)
	}
}

func TestCSVClient_MissingFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := NewCSVClient(Locations{Ratings: filepath.Join(t.TempDir(), "nope.csv")}, 3, 0, logger)

	_, err := client.LoadCompetitors(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Type != "file_error" {
		t.Errorf("Expected file_error LoadError, got %v", err)
	}
}
