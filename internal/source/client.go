// Package source loads competitor ratings and the series schedule from CSV files or URLs.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
)

const DefaultTimeout = 10 * time.Second

// Client defines how season data is fetched
type Client interface {
	LoadCompetitors(ctx context.Context) ([]season.Competitor, error)
	LoadSeries(ctx context.Context) ([]season.Series, error)
}

// Locations names the ratings and matches CSVs; each is a file path or an http(s) URL
type Locations struct {
	Ratings string
	Matches string
}

// CSVClient implements Client over CSV documents
type CSVClient struct {
	locations  Locations
	threshold  int
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewCSVClient creates a client for the given locations. Remote documents are cached in memory
// for cacheTTL regardless of the origin's cache headers; a zero TTL honours the origin.
func NewCSVClient(locations Locations, threshold int, cacheTTL time.Duration, logger *logrus.Logger) *CSVClient {
	transport := httpcache.NewMemoryCacheTransport()
	if cacheTTL > 0 {
		transport.Transport = &maxAgeTransport{
			wrapped: http.DefaultTransport,
			maxAge:  cacheTTL,
		}
	}

	return &CSVClient{
		locations: locations,
		threshold: threshold,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		logger: logger,
	}
}

// LoadCompetitors reads the ratings CSV
func (c *CSVClient) LoadCompetitors(ctx context.Context) ([]season.Competitor, error) {
	body, err := c.open(ctx, c.locations.Ratings)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings: %w", err)
	}
	defer body.Close()

	competitors, err := parseRatings(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ratings from %s: %w", c.locations.Ratings, err)
	}

	c.logger.WithFields(logrus.Fields{
		"location":    c.locations.Ratings,
		"competitors": len(competitors),
	}).Info("Loaded ratings")
	return competitors, nil
}

// LoadSeries reads the matches CSV
func (c *CSVClient) LoadSeries(ctx context.Context) ([]season.Series, error) {
	body, err := c.open(ctx, c.locations.Matches)
	if err != nil {
		return nil, fmt.Errorf("failed to open matches: %w", err)
	}
	defer body.Close()

	series, err := parseMatches(body, c.threshold, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse matches from %s: %w", c.locations.Matches, err)
	}

	completed := 0
	for _, s := range series {
		if s.Completed() {
			completed++
		}
	}
	c.logger.WithFields(logrus.Fields{
		"location":  c.locations.Matches,
		"series":    len(series),
		"completed": completed,
	}).Info("Loaded matches")
	return series, nil
}

func (c *CSVClient) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, &LoadError{Type: "config_error", Message: "no location configured"}
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return c.makeRequest(ctx, location)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, &LoadError{Type: "file_error", Message: err.Error(), Location: location}
	}
	return f, nil
}

// makeRequest performs an HTTP GET through the caching transport
func (c *CSVClient) makeRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	c.logger.WithField("url", url).Debug("Fetching remote CSV")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("HTTP request failed")
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()

		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Remote CSV request failed")

		return nil, &LoadError{
			Type:       "http_error",
			Message:    fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			StatusCode: resp.StatusCode,
			Location:   url,
		}
	}

	c.logger.WithFields(logrus.Fields{
		"url":       url,
		"cache_hit": resp.Header.Get(httpcache.XFromCache) == "1",
	}).Debug("Remote CSV fetched")
	return resp.Body, nil
}

// maxAgeTransport replaces origin cache headers so httpcache keeps responses for maxAge
type maxAgeTransport struct {
	wrapped http.RoundTripper
	maxAge  time.Duration
}

func (t *maxAgeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Header.Del("Pragma")
	resp.Header.Del("Expires")
	resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(t.maxAge/time.Second)))
	return resp, nil
}

// LoadError represents a failure to fetch a season document
type LoadError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Location   string `json:"location,omitempty"`
}

func (e *LoadError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s: %s", e.Location, e.Message)
	}
	return e.Message
}
