package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"clubrank/internal/store"
	"clubrank/internal/strava"
)

// Mode selects where the athlete population comes from.
type Mode string

const (
	// ModeClub ranks the live club roster using the club-wide activity
	// feed, authenticated with one registered credential.
	ModeClub Mode = "club"
	// ModeAthlete ranks the registered athletes, fetching each one's own
	// activities with their own token.
	ModeAthlete Mode = "athlete"
)

// ErrNoCredentials is returned when no athlete has registered yet, so no
// token exists to authenticate upstream calls with.
var ErrNoCredentials = errors.New("no registered athlete credentials")

// ActivitySource fetches roster and activity data from the upstream.
type ActivitySource interface {
	GetClubMembers(ctx context.Context, accessToken string) ([]strava.ClubMember, error)
	GetClubActivities(ctx context.Context, accessToken string) ([]strava.Activity, error)
	GetAthleteActivities(ctx context.Context, accessToken string, after, before time.Time) ([]strava.Activity, error)
}

// CredentialStore reads the registered athlete set.
type CredentialStore interface {
	ListAthletes(ctx context.Context) ([]store.AthleteCredential, error)
}

// TokenProvider hands out a usable access token for a credential,
// refreshing it first when needed.
type TokenProvider interface {
	AccessToken(ctx context.Context, cred *store.AthleteCredential) string
}

// Recorder counts served rankings.
type Recorder interface {
	RecordRankingServed(mode string)
}

// Service computes weekly rankings. Athletes are processed sequentially;
// one athlete's fetch failure never aborts the batch.
type Service struct {
	source ActivitySource
	creds  CredentialStore
	tokens TokenProvider

	mode     Mode
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// NewService wires a ranking service for the given deployment mode.
func NewService(source ActivitySource, creds CredentialStore, tokens TokenProvider, mode Mode, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:   source,
		creds:    creds,
		tokens:   tokens,
		mode:     mode,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// WeeklyRanking computes the ranking for the given gender filter ("M", "F",
// or empty for all) and week offset. The result is sorted by total distance
// descending; ties keep collection order. Athletes without any in-window
// activity are excluded.
func (s *Service) WeeklyRanking(ctx context.Context, gender string, weekOffset int) (*WeeklyRanking, error) {
	weekStart, weekEnd := WeekWindow(s.now(), weekOffset)

	creds, err := s.creds.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing registered athletes: %w", err)
	}

	var entries []AthleteMetrics
	switch s.mode {
	case ModeClub:
		entries, err = s.rankClub(ctx, creds, gender, weekStart, weekEnd)
	default:
		entries = s.rankRegistered(ctx, creds, gender, weekStart, weekEnd)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalDistance > entries[j].TotalDistance
	})

	if s.recorder != nil {
		s.recorder.RecordRankingServed(string(s.mode))
	}

	result := &WeeklyRanking{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Rankings:  entries,
	}
	if gender != "" {
		result.Gender = &gender
	}
	return result, nil
}

// rankRegistered fetches each registered athlete's own activities with their
// own (refreshed) token. Fetch failures degrade to an empty activity list.
func (s *Service) rankRegistered(ctx context.Context, creds []store.AthleteCredential, gender string, weekStart, weekEnd time.Time) []AthleteMetrics {
	var entries []AthleteMetrics
	for i := range creds {
		cred := &creds[i]
		athlete := Athlete{
			ID:        cred.AthleteID,
			FirstName: cred.FirstName,
			LastName:  cred.LastName,
			Sex:       NormalizeSex(cred.Sex),
			Profile:   cred.Profile,
		}

		// Filter before any network work to spare upstream quota.
		if gender != "" && athlete.Sex != gender {
			continue
		}

		token := s.tokens.AccessToken(ctx, cred)
		raw, err := s.source.GetAthleteActivities(ctx, token, weekStart, weekEnd)
		if err != nil {
			s.logger.Warn("athlete activity fetch failed, skipping athlete",
				slog.Int64("athlete_id", cred.AthleteID),
				slog.String("error", err.Error()),
			)
			continue
		}

		activities := s.inWindow(raw, weekStart, weekEnd)
		if len(activities) == 0 {
			continue
		}

		entries = append(entries, Aggregate(athlete, activities))
	}
	return entries
}

// rankClub ranks the live roster against the club-wide feed. One registered
// credential authenticates both calls.
func (s *Service) rankClub(ctx context.Context, creds []store.AthleteCredential, gender string, weekStart, weekEnd time.Time) ([]AthleteMetrics, error) {
	if len(creds) == 0 {
		return nil, ErrNoCredentials
	}
	token := s.tokens.AccessToken(ctx, &creds[0])

	members, err := s.source.GetClubMembers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetching club roster: %w", err)
	}

	raw, err := s.source.GetClubActivities(ctx, token)
	if err != nil {
		s.logger.Warn("club activity fetch failed, serving empty ranking",
			slog.String("error", err.Error()),
		)
		raw = nil
	}
	if len(raw) == strava.RosterPageSize {
		s.logger.Warn("club feed page is full; older in-window activities may be missing",
			slog.Int("page_size", strava.RosterPageSize),
		)
	}

	byAthlete := make(map[AthleteKey][]Activity)
	for _, a := range s.inWindow(raw, weekStart, weekEnd) {
		if a.Athlete.IsZero() {
			continue
		}
		byAthlete[a.Athlete] = append(byAthlete[a.Athlete], a)
	}

	var entries []AthleteMetrics
	for _, m := range members {
		athlete := Athlete{
			ID:        m.ID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Sex:       NormalizeSex(m.Sex),
			Profile:   m.Profile,
		}

		if gender != "" && athlete.Sex != gender {
			continue
		}

		activities := byAthlete[athlete.Key()]
		if len(activities) == 0 && athlete.ID != 0 {
			// The feed sometimes strips numeric ids the roster carries.
			activities = byAthlete[DerivedKey(m.FirstName, m.LastName)]
		}
		if len(activities) == 0 {
			continue
		}

		entries = append(entries, Aggregate(athlete, activities))
	}
	return entries, nil
}

// inWindow converts wire activities to domain activities, dropping anything
// whose start date falls outside [weekStart, weekEnd]. The upstream club
// feed ignores date bounds entirely and the athlete feed only filters
// best-effort, so this filter is mandatory on both paths.
func (s *Service) inWindow(raw []strava.Activity, weekStart, weekEnd time.Time) []Activity {
	var activities []Activity
	for _, a := range raw {
		if !InWindow(a.StartDate, weekStart, weekEnd) {
			continue
		}
		activities = append(activities, Activity{
			ID:            a.ID,
			Athlete:       KeyFor(a.Athlete.ID, a.Athlete.FirstName, a.Athlete.LastName),
			Name:          a.Name,
			Distance:      a.Distance,
			ElevationGain: a.TotalElevationGain,
			MovingTime:    a.MovingTime,
			StartDate:     a.StartDate,
			Type:          a.Type,
		})
	}
	return activities
}
