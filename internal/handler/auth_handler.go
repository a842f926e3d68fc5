package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/oauth2"

	"clubrank/internal/auth"
	"clubrank/internal/store"
)

// CredentialWriter persists a newly registered athlete.
type CredentialWriter interface {
	UpsertAthlete(ctx context.Context, cred *store.AthleteCredential) error
}

// AuthHandler runs the athlete registration flow: Login hands the frontend
// the Strava authorize URL, Callback exchanges the returned code and stores
// the athlete's credential record.
type AuthHandler struct {
	oauth *oauth2.Config
	creds CredentialWriter
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(oauthCfg *oauth2.Config, creds CredentialWriter) *AuthHandler {
	return &AuthHandler{oauth: oauthCfg, creds: creds}
}

// Login handles GET /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	url := h.oauth.AuthCodeURL("",
		oauth2.SetAuthURLParam("approval_prompt", "force"),
	)
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// callbackRequest is the body of POST /auth/callback.
type callbackRequest struct {
	Code string `json:"code"`
}

// callbackResponse confirms registration to the frontend.
type callbackResponse struct {
	Status  string          `json:"status"`
	Athlete athleteResponse `json:"athlete"`
}

type athleteResponse struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Profile   string `json:"profile,omitempty"`
}

// Callback handles POST /auth/callback.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	token, err := h.oauth.Exchange(r.Context(), req.Code)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to exchange code for token")
		return
	}

	info := auth.ExtractAthlete(token)
	if info.ID == 0 {
		writeError(w, http.StatusBadGateway, "token response carried no athlete identity")
		return
	}

	cred := &store.AthleteCredential{
		AthleteID:    info.ID,
		FirstName:    info.FirstName,
		LastName:     info.LastName,
		Sex:          info.Sex,
		Profile:      info.Profile,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if err := h.creds.UpsertAthlete(r.Context(), cred); err != nil {
		writeError(w, http.StatusInternalServerError, "saving athlete failed")
		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		Status: "success",
		Athlete: athleteResponse{
			FirstName: cred.FirstName,
			LastName:  cred.LastName,
			Profile:   cred.Profile,
		},
	})
}
