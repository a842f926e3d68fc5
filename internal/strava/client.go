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
)

const BaseURL = "https://www.strava.com/api/v3"

// RosterPageSize bounds the single roster/club-feed page fetched per query.
// Members and activities beyond this page are invisible to a computation.
const RosterPageSize = 200

// Recorder receives upstream call telemetry. The metrics package provides
// the Prometheus-backed implementation.
type Recorder interface {
	RecordUpstreamRequest(endpoint string, status int)
	RecordUpstreamLatency(endpoint string, d time.Duration)
}

// Client is a Strava API client scoped to one club. Tokens are supplied per
// call because every registered athlete authenticates with their own token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clubID      int64
	rateLimiter *RateLimiter
	recorder    Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout bounds every upstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRecorder attaches call telemetry.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a new Strava API client for the given club.
func NewClient(clubID int64, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     BaseURL,
		clubID:      clubID,
		rateLimiter: NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetClubMembers fetches the club roster. The upstream paginates, but a
// single bounded page is fetched; a roster larger than RosterPageSize is
// silently truncated.
func (c *Client) GetClubMembers(ctx context.Context, accessToken string) ([]ClubMember, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("per_page", strconv.Itoa(RosterPageSize))

	path := fmt.Sprintf("/clubs/%d/members", c.clubID)
	resp, err := c.get(ctx, path, accessToken, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var members []ClubMember
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return nil, fmt.Errorf("decoding club members: %w", err)
	}

	return members, nil
}

// GetClubActivities fetches the latest page of the club-wide activity feed.
// The endpoint does not honor date filters, so callers must filter by start
// date themselves; activities older than the page's oldest entry are
// invisible even when they fall inside the caller's window.
func (c *Client) GetClubActivities(ctx context.Context, accessToken string) ([]Activity, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(RosterPageSize))

	path := fmt.Sprintf("/clubs/%d/activities", c.clubID)
	resp, err := c.get(ctx, path, accessToken, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding club activities: %w", err)
	}

	return activities, nil
}

// GetAthleteActivities fetches the authenticated athlete's own activities.
// The after/before bounds are best-effort server-side filtering only; callers
// still re-filter by start date.
func (c *Client) GetAthleteActivities(ctx context.Context, accessToken string, after, before time.Time) ([]Activity, error) {
	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	if !before.IsZero() {
		params.Set("before", strconv.FormatInt(before.Unix(), 10))
	}
	params.Set("per_page", strconv.Itoa(RosterPageSize))

	resp, err := c.get(ctx, "/athlete/activities", accessToken, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding athlete activities: %w", err)
	}

	return activities, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

func (c *Client) get(ctx context.Context, path, accessToken string, params url.Values) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.recorder != nil {
		c.recorder.RecordUpstreamLatency(path, time.Since(start))
	}
	if err != nil {
		if c.recorder != nil {
			c.recorder.RecordUpstreamRequest(path, 0)
		}
		return nil, err
	}

	// Update rate limiter from response headers
	c.rateLimiter.UpdateFromHeaders(resp.Header)
	if c.recorder != nil {
		c.recorder.RecordUpstreamRequest(path, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
