package auth

import (
	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes required for club rankings (Strava uses comma-separated scopes).
// read_all covers private club data; the profile and activity scopes cover
// the per-athlete fetch path.
var Scopes = []string{
	"read,read_all,profile:read_all,activity:read_all",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// AthleteInfo is the athlete summary Strava attaches to token responses.
type AthleteInfo struct {
	ID        int64
	FirstName string
	LastName  string
	Sex       string
	Profile   string
}

// ExtractAthlete pulls the athlete summary out of the token extras.
// Strava includes the athlete object in authorization-code token responses.
func ExtractAthlete(token *oauth2.Token) AthleteInfo {
	var info AthleteInfo
	athlete, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return info
	}
	if id, ok := athlete["id"].(float64); ok {
		info.ID = int64(id)
	}
	if v, ok := athlete["firstname"].(string); ok {
		info.FirstName = v
	}
	if v, ok := athlete["lastname"].(string); ok {
		info.LastName = v
	}
	if v, ok := athlete["sex"].(string); ok {
		info.Sex = v
	}
	if v, ok := athlete["profile"].(string); ok {
		info.Profile = v
	}
	return info
}
