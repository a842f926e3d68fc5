package store

import "time"

// AthleteCredential is one registered athlete's identity plus OAuth tokens.
// Tokens are mutated only through UpdateTokens after a successful refresh.
type AthleteCredential struct {
	AthleteID    int64
	FirstName    string
	LastName     string
	Sex          string // as reported by the upstream; may be empty
	Profile      string // profile image URL
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
