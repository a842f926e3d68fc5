package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"clubrank/internal/store"
)

type fakeTokenStore struct {
	calls        int
	athleteID    int64
	accessToken  string
	refreshToken string
	err          error
}

func (f *fakeTokenStore) UpdateTokens(ctx context.Context, athleteID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	f.calls++
	f.athleteID = athleteID
	f.accessToken = accessToken
	f.refreshToken = refreshToken
	return f.err
}

type countingRecorder struct {
	failures int
}

func (c *countingRecorder) RecordRefreshFailure() { c.failures++ }

// newTokenServer serves the OAuth token endpoint. handler may be nil for the
// default success response.
func newTokenServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *oauth2.Config) {
	t.Helper()
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parsing token request form: %v", err)
			}
			if got := r.Form.Get("grant_type"); got != "refresh_token" {
				t.Errorf("grant_type = %q, want refresh_token", got)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":21600}`))
		}
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/authorize",
			TokenURL: srv.URL + "/token",
		},
	}
	return srv, cfg
}

func TestNeedsRefresh(t *testing.T) {
	_, cfg := newTokenServer(t, nil)
	r := NewRefresher(cfg, &fakeTokenStore{}, 300*time.Second, nil, nil)

	tests := []struct {
		name   string
		expiry time.Duration
		want   bool
	}{
		{"expires within margin", 100 * time.Second, true},
		{"already expired", -time.Minute, true},
		{"expires well after margin", 10000 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := &store.AthleteCredential{ExpiresAt: time.Now().Add(tt.expiry)}
			if got := r.NeedsRefresh(cred); got != tt.want {
				t.Errorf("NeedsRefresh = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessTokenFreshCredential(t *testing.T) {
	srv, cfg := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called for a fresh credential")
	})
	_ = srv

	tokens := &fakeTokenStore{}
	r := NewRefresher(cfg, tokens, 300*time.Second, nil, nil)

	cred := &store.AthleteCredential{
		AthleteID:   1,
		AccessToken: "stored-access",
		ExpiresAt:   time.Now().Add(10000 * time.Second),
	}

	if got := r.AccessToken(context.Background(), cred); got != "stored-access" {
		t.Errorf("AccessToken = %q, want stored-access", got)
	}
	if tokens.calls != 0 {
		t.Errorf("UpdateTokens called %d times, want 0", tokens.calls)
	}
}

func TestAccessTokenRefreshesNearExpiry(t *testing.T) {
	_, cfg := newTokenServer(t, nil)

	tokens := &fakeTokenStore{}
	r := NewRefresher(cfg, tokens, 300*time.Second, nil, nil)

	cred := &store.AthleteCredential{
		AthleteID:    7,
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(100 * time.Second),
	}

	got := r.AccessToken(context.Background(), cred)

	if got != "new-access" {
		t.Errorf("AccessToken = %q, want new-access", got)
	}
	if tokens.calls != 1 {
		t.Fatalf("UpdateTokens called %d times, want 1", tokens.calls)
	}
	if tokens.athleteID != 7 || tokens.accessToken != "new-access" || tokens.refreshToken != "new-refresh" {
		t.Errorf("persisted (%d, %q, %q), want (7, new-access, new-refresh)",
			tokens.athleteID, tokens.accessToken, tokens.refreshToken)
	}

	// The credential must reflect the refresh for the rest of the computation
	if cred.AccessToken != "new-access" || cred.RefreshToken != "new-refresh" {
		t.Errorf("credential not updated in place: %+v", cred)
	}
	if r.NeedsRefresh(cred) {
		t.Error("credential still needs refresh after a successful refresh")
	}
}

func TestAccessTokenRefreshFailureKeepsStaleCredential(t *testing.T) {
	_, cfg := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad Request"}`, http.StatusBadRequest)
	})

	tokens := &fakeTokenStore{}
	recorder := &countingRecorder{}
	r := NewRefresher(cfg, tokens, 300*time.Second, nil, recorder)

	expiry := time.Now().Add(100 * time.Second)
	cred := &store.AthleteCredential{
		AthleteID:    7,
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    expiry,
	}

	if got := r.AccessToken(context.Background(), cred); got != "stale-access" {
		t.Errorf("AccessToken = %q, want the stale token back", got)
	}
	if tokens.calls != 0 {
		t.Errorf("UpdateTokens called %d times, want 0 on failure", tokens.calls)
	}
	if cred.AccessToken != "stale-access" || cred.RefreshToken != "stale-refresh" || !cred.ExpiresAt.Equal(expiry) {
		t.Errorf("credential mutated on failed refresh: %+v", cred)
	}
	if recorder.failures != 1 {
		t.Errorf("recorded %d refresh failures, want 1", recorder.failures)
	}
}

func TestDefaultRefreshMargin(t *testing.T) {
	_, cfg := newTokenServer(t, nil)
	r := NewRefresher(cfg, &fakeTokenStore{}, 0, nil, nil)
	if r.margin != DefaultRefreshMargin {
		t.Errorf("margin = %v, want %v", r.margin, DefaultRefreshMargin)
	}
}
