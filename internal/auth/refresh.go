package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"clubrank/internal/store"
)

// DefaultRefreshMargin is how close to expiry a token may get before it is
// refreshed ahead of use.
const DefaultRefreshMargin = 5 * time.Minute

// TokenStore persists refreshed tokens.
type TokenStore interface {
	UpdateTokens(ctx context.Context, athleteID int64, accessToken, refreshToken string, expiresAt time.Time) error
}

// FailureRecorder counts refresh failures (Prometheus-backed in production).
type FailureRecorder interface {
	RecordRefreshFailure()
}

// Refresher decides per credential whether a refresh is needed before use,
// performs it through the OAuth token endpoint, and persists the result.
// Refresh never fails a ranking computation: on any error the stale access
// token is returned and the downstream fetch degrades on its own.
type Refresher struct {
	config   *oauth2.Config
	tokens   TokenStore
	margin   time.Duration
	logger   *slog.Logger
	recorder FailureRecorder
	now      func() time.Time
}

// NewRefresher creates a Refresher with the given safety margin. A zero
// margin selects DefaultRefreshMargin.
func NewRefresher(cfg *oauth2.Config, tokens TokenStore, margin time.Duration, logger *slog.Logger, recorder FailureRecorder) *Refresher {
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		config:   cfg,
		tokens:   tokens,
		margin:   margin,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// NeedsRefresh reports whether the credential expires within the margin.
func (r *Refresher) NeedsRefresh(cred *store.AthleteCredential) bool {
	return !cred.ExpiresAt.After(r.now().Add(r.margin))
}

// AccessToken returns a token usable for the athlete's next upstream call,
// refreshing and persisting first when the stored one is near expiry. The
// passed credential is updated in place on success so later reads within the
// same computation see the new tokens.
func (r *Refresher) AccessToken(ctx context.Context, cred *store.AthleteCredential) string {
	if !r.NeedsRefresh(cred) {
		return cred.AccessToken
	}

	// Expiry in the past forces the oauth2 token source to hit the
	// token endpoint instead of handing back the stored token.
	stale := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       r.now().Add(-time.Hour),
	}

	newToken, err := r.config.TokenSource(ctx, stale).Token()
	if err != nil {
		if r.recorder != nil {
			r.recorder.RecordRefreshFailure()
		}
		r.logger.Warn("token refresh failed, continuing with stale token",
			slog.Int64("athlete_id", cred.AthleteID),
			slog.String("error", err.Error()),
		)
		return cred.AccessToken
	}

	if err := r.tokens.UpdateTokens(ctx, cred.AthleteID, newToken.AccessToken, newToken.RefreshToken, newToken.Expiry); err != nil {
		// The refreshed token is still valid for this computation even
		// if persisting it failed; the next run will refresh again.
		r.logger.Error("persisting refreshed token failed",
			slog.Int64("athlete_id", cred.AthleteID),
			slog.String("error", err.Error()),
		)
	}

	cred.AccessToken = newToken.AccessToken
	cred.RefreshToken = newToken.RefreshToken
	cred.ExpiresAt = newToken.Expiry
	return cred.AccessToken
}
