// Package strava talks to the Strava REST API: activity metadata, GPS
// streams, and OAuth token upkeep.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pablo-ross/komornicka100/internal/domain/geo"
	"github.com/pablo-ross/komornicka100/pkg/logger"
	"github.com/pablo-ross/komornicka100/pkg/metrics"
)

const (
	// DefaultAPIBase is the production Strava API root.
	DefaultAPIBase = "https://www.strava.com/api/v3"

	// KindRide is the activity type the contest accepts.
	KindRide = "Ride"

	defaultTimeout = 30 * time.Second
	activitiesPage = 30
)

// Activity is the subset of Strava activity metadata the verifier needs.
type Activity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Kind           string    `json:"type"`
	DistanceMeters float64   `json:"distance"`
	MovingTime     int       `json:"moving_time"`
	ElapsedTime    int       `json:"elapsed_time"`
	StartDate      time.Time `json:"start_date"`
}

// Client is an authenticated Strava API client. Tokens are supplied per call
// so one client serves every user.
type Client struct {
	httpClient *http.Client
	apiBase    string
	logger     logger.Logger
}

// NewClient creates a Strava API client with configuration options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiBase:    DefaultAPIBase,
		logger:     logger.Get().Named("strava"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activity fetches metadata for a single activity.
func (c *Client) Activity(ctx context.Context, accessToken, activityID string) (*Activity, error) {
	endpoint := fmt.Sprintf("%s/activities/%s?include_all_efforts=false", c.apiBase, url.PathEscape(activityID))

	var act Activity
	if err := c.get(ctx, accessToken, endpoint, &act); err != nil {
		return nil, fmt.Errorf("fetch activity %s: %w", activityID, err)
	}
	return &act, nil
}

// ActivitiesAfter lists the user's activities started after the given
// instant, newest pages last. The kind filter is applied client side; the
// listing endpoint has no server-side type parameter.
func (c *Client) ActivitiesAfter(ctx context.Context, accessToken string, after time.Time, kind string) ([]Activity, error) {
	var matched []Activity
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/athlete/activities?after=%d&page=%d&per_page=%d",
			c.apiBase, after.Unix(), page, activitiesPage)

		var batch []Activity
		if err := c.get(ctx, accessToken, endpoint, &batch); err != nil {
			return nil, fmt.Errorf("list activities page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, act := range batch {
			if kind == "" || act.Kind == kind {
				matched = append(matched, act)
			}
		}
		if len(batch) < activitiesPage {
			break
		}
	}
	return matched, nil
}

// streamSet mirrors the key_by_type=true response shape.
type streamSet struct {
	LatLng struct {
		Data [][]float64 `json:"data"`
	} `json:"latlng"`
}

// Streams fetches the activity's GPS track. An activity recorded without GPS
// yields an empty track, not an error.
func (c *Client) Streams(ctx context.Context, accessToken, activityID string) (geo.Track, error) {
	endpoint := fmt.Sprintf("%s/activities/%s/streams?keys=latlng&key_by_type=true", c.apiBase, url.PathEscape(activityID))

	var streams streamSet
	if err := c.get(ctx, accessToken, endpoint, &streams); err != nil {
		return nil, fmt.Errorf("fetch streams for activity %s: %w", activityID, err)
	}

	track := make(geo.Track, 0, len(streams.LatLng.Data))
	for _, pair := range streams.LatLng.Data {
		if len(pair) != 2 {
			continue
		}
		track = append(track, geo.Point{Lat: pair[0], Lon: pair[1]})
	}
	return track, nil
}

func (c *Client) get(ctx context.Context, accessToken, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordProviderError()
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderError()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn(ctx, "provider request failed",
			logger.String("status", strconv.Itoa(resp.StatusCode)),
			logger.String("body", string(body)))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordProviderError()
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
