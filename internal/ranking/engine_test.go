package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"clubrank/internal/store"
	"clubrank/internal/strava"
)

// testNow is a Wednesday; offset 0 resolves to May 13 – May 19 2024.
var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	members    []strava.ClubMember
	membersErr error

	clubActivities []strava.Activity
	clubErr        error

	athleteActivities map[string][]strava.Activity // keyed by access token
	athleteErr        map[string]error

	athleteCalls []string
}

func (f *fakeSource) GetClubMembers(ctx context.Context, token string) ([]strava.ClubMember, error) {
	return f.members, f.membersErr
}

func (f *fakeSource) GetClubActivities(ctx context.Context, token string) ([]strava.Activity, error) {
	return f.clubActivities, f.clubErr
}

func (f *fakeSource) GetAthleteActivities(ctx context.Context, token string, after, before time.Time) ([]strava.Activity, error) {
	f.athleteCalls = append(f.athleteCalls, token)
	if err := f.athleteErr[token]; err != nil {
		return nil, err
	}
	return f.athleteActivities[token], nil
}

type fakeCreds struct {
	creds []store.AthleteCredential
	err   error
}

func (f *fakeCreds) ListAthletes(ctx context.Context) ([]store.AthleteCredential, error) {
	return f.creds, f.err
}

// passthroughTokens hands back the stored token unchanged.
type passthroughTokens struct{}

func (passthroughTokens) AccessToken(ctx context.Context, cred *store.AthleteCredential) string {
	return cred.AccessToken
}

func newTestService(source ActivitySource, creds CredentialStore, mode Mode) *Service {
	s := NewService(source, creds, passthroughTokens{}, mode, nil, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func inWindowDate(day int) time.Time {
	return time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC)
}

func TestWeeklyRankingOrdersByDistance(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 1, FirstName: "Ana", LastName: "Torres", Sex: "F", AccessToken: "tok-a", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 2, FirstName: "Marc", LastName: "Soler", Sex: "M", AccessToken: "tok-b", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{athleteActivities: map[string][]strava.Activity{
		"tok-a": {
			{ID: 1, Distance: 10000, TotalElevationGain: 100, StartDate: inWindowDate(14)},
			{ID: 2, Distance: 5000, TotalElevationGain: 50, StartDate: inWindowDate(15)},
		},
		"tok-b": {
			{ID: 3, Distance: 20000, TotalElevationGain: 10, StartDate: inWindowDate(16)},
		},
	}}

	svc := newTestService(source, creds, ModeAthlete)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("WeeklyRanking: %v", err)
	}

	if len(result.Rankings) != 2 {
		t.Fatalf("got %d entries, want 2", len(result.Rankings))
	}

	first, second := result.Rankings[0], result.Rankings[1]
	if first.Athlete.ID != 2 || first.TotalDistance != 20000 || first.LongestRide != 20000 || first.ActivitiesCount != 1 {
		t.Errorf("first entry = %+v, want Marc with 20000m", first)
	}
	if second.Athlete.ID != 1 || second.TotalDistance != 15000 || second.TotalElevation != 150 || second.LongestRide != 10000 || second.ActivitiesCount != 2 {
		t.Errorf("second entry = %+v, want Ana with 15000m", second)
	}

	if result.Gender != nil {
		t.Errorf("gender = %v, want nil for unfiltered query", *result.Gender)
	}
	if wantStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC); !result.WeekStart.Equal(wantStart) {
		t.Errorf("week_start = %v, want %v", result.WeekStart, wantStart)
	}
}

func TestWeeklyRankingSortIsStable(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 1, AccessToken: "tok-a", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 2, AccessToken: "tok-b", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 3, AccessToken: "tok-c", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{athleteActivities: map[string][]strava.Activity{
		"tok-a": {{ID: 1, Distance: 10000, StartDate: inWindowDate(14)}},
		"tok-b": {{ID: 2, Distance: 10000, StartDate: inWindowDate(15)}},
		"tok-c": {{ID: 3, Distance: 10000, StartDate: inWindowDate(16)}},
	}}

	svc := newTestService(source, creds, ModeAthlete)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("WeeklyRanking: %v", err)
	}

	for i, wantID := range []int64{1, 2, 3} {
		if result.Rankings[i].Athlete.ID != wantID {
			t.Errorf("rankings[%d].Athlete.ID = %d, want %d (ties keep collection order)", i, result.Rankings[i].Athlete.ID, wantID)
		}
	}
}

func TestWeeklyRankingGenderFilterSkipsFetch(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 1, Sex: "F", AccessToken: "tok-a", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 2, Sex: "M", AccessToken: "tok-b", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 3, Sex: "", AccessToken: "tok-c", ExpiresAt: testNow.Add(time.Hour)}, // defaults to M
	}}
	source := &fakeSource{athleteActivities: map[string][]strava.Activity{
		"tok-a": {{ID: 1, Distance: 1000, StartDate: inWindowDate(14)}},
		"tok-b": {{ID: 2, Distance: 2000, StartDate: inWindowDate(14)}},
		"tok-c": {{ID: 3, Distance: 3000, StartDate: inWindowDate(14)}},
	}}

	svc := newTestService(source, creds, ModeAthlete)
	result, err := svc.WeeklyRanking(context.Background(), "F", 0)
	if err != nil {
		t.Fatalf("WeeklyRanking: %v", err)
	}

	if len(result.Rankings) != 1 || result.Rankings[0].Athlete.ID != 1 {
		t.Fatalf("rankings = %+v, want only athlete 1", result.Rankings)
	}
	if result.Gender == nil || *result.Gender != "F" {
		t.Errorf("gender = %v, want F", result.Gender)
	}

	// Non-matching athletes must be filtered before any network work
	if len(source.athleteCalls) != 1 || source.athleteCalls[0] != "tok-a" {
		t.Errorf("upstream calls = %v, want only tok-a", source.athleteCalls)
	}
}

func TestWeeklyRankingFiltersWindow(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 1, AccessToken: "tok-a", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{athleteActivities: map[string][]strava.Activity{
		"tok-a": {
			{ID: 1, Distance: 1000, StartDate: inWindowDate(14)},
			{ID: 2, Distance: 9000, StartDate: time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)}, // Sunday before
			{ID: 3, Distance: 7000, StartDate: time.Date(2024, 5, 20, 0, 0, 1, 0, time.UTC)},  // Monday after
		},
	}}

	svc := newTestService(source, creds, ModeAthlete)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("WeeklyRanking: %v", err)
	}

	if len(result.Rankings) != 1 {
		t.Fatalf("got %d entries, want 1", len(result.Rankings))
	}
	if m := result.Rankings[0]; m.TotalDistance != 1000 || m.ActivitiesCount != 1 {
		t.Errorf("metrics = %+v, want only the in-window activity counted", m)
	}
}

func TestWeeklyRankingExcludesIdleAthletes(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 1, AccessToken: "tok-a", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 2, AccessToken: "tok-b", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{athleteActivities: map[string][]strava.Activity{
		"tok-a": {{ID: 1, Distance: 1000, StartDate: inWindowDate(14)}},
		"tok-b": nil,
	}}

	svc := newTestService(source, creds, ModeAthlete)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("WeeklyRanking: %v", err)
	}

	if len(result.Rankings) != 1 || result.Rankings[0].Athlete.ID != 1 {
		t.Errorf("rankings = %+v, want idle athlete 2 excluded", result.Rankings)
	}
}

func TestWeeklyRankingIsolatesFetchFailures(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 1, AccessToken: "tok-a", ExpiresAt: testNow.Add(time.Hour)},
		{AthleteID: 2, AccessToken: "tok-b", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{
		athleteActivities: map[string][]strava.Activity{
			"tok-b": {{ID: 2, Distance: 5000, StartDate: inWindowDate(14)}},
		},
		athleteErr: map[string]error{"tok-a": errors.New("401 unauthorized")},
	}

	svc := newTestService(source, creds, ModeAthlete)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("one athlete's failure must not fail the batch: %v", err)
	}

	if len(result.Rankings) != 1 || result.Rankings[0].Athlete.ID != 2 {
		t.Errorf("rankings = %+v, want only athlete 2", result.Rankings)
	}
}

func TestWeeklyRankingStoreFailureIsFatal(t *testing.T) {
	creds := &fakeCreds{err: errors.New("database locked")}
	svc := newTestService(&fakeSource{}, creds, ModeAthlete)

	if _, err := svc.WeeklyRanking(context.Background(), "", 0); err == nil {
		t.Fatal("expected error when the credential store is unavailable")
	}
}

func TestWeeklyRankingClubMode(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 99, AccessToken: "admin-tok", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{
		members: []strava.ClubMember{
			{FirstName: "Ana", LastName: "Torres", Sex: "F"},
			{FirstName: "Marc", LastName: "Soler", Sex: "M"},
			{FirstName: "Iris", LastName: "Duran", Sex: "F"}, // no activities this week
		},
		clubActivities: []strava.Activity{
			{ID: 1, Athlete: strava.ActivityAthlete{FirstName: "Ana", LastName: "Torres"}, Distance: 10000, TotalElevationGain: 100, StartDate: inWindowDate(14)},
			{ID: 2, Athlete: strava.ActivityAthlete{FirstName: "Marc", LastName: "Soler"}, Distance: 20000, TotalElevationGain: 10, StartDate: inWindowDate(15)},
			{ID: 3, Athlete: strava.ActivityAthlete{FirstName: "Ana", LastName: "Torres"}, Distance: 5000, TotalElevationGain: 50, StartDate: inWindowDate(16)},
			{ID: 4, Athlete: strava.ActivityAthlete{FirstName: "Ana", LastName: "Torres"}, Distance: 9999, StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}, // outside window
			{ID: 5, Athlete: strava.ActivityAthlete{}, Distance: 4000, StartDate: inWindowDate(16)},                                                               // unattributable
		},
	}

	svc := newTestService(source, creds, ModeClub)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("WeeklyRanking: %v", err)
	}

	if len(result.Rankings) != 2 {
		t.Fatalf("got %d entries, want 2 (idle member excluded)", len(result.Rankings))
	}
	if first := result.Rankings[0]; first.Athlete.LastName != "Soler" || first.TotalDistance != 20000 {
		t.Errorf("first = %+v, want Marc with 20000m", first)
	}
	if second := result.Rankings[1]; second.Athlete.LastName != "Torres" || second.TotalDistance != 15000 || second.ActivitiesCount != 2 {
		t.Errorf("second = %+v, want Ana with 15000m over 2 activities", second)
	}
}

func TestWeeklyRankingClubModeNoCredentials(t *testing.T) {
	svc := newTestService(&fakeSource{}, &fakeCreds{}, ModeClub)

	_, err := svc.WeeklyRanking(context.Background(), "", 0)
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}

func TestWeeklyRankingClubModeFeedFailure(t *testing.T) {
	creds := &fakeCreds{creds: []store.AthleteCredential{
		{AthleteID: 99, AccessToken: "admin-tok", ExpiresAt: testNow.Add(time.Hour)},
	}}
	source := &fakeSource{
		members: []strava.ClubMember{{FirstName: "Ana", LastName: "Torres", Sex: "F"}},
		clubErr: errors.New("timeout"),
	}

	svc := newTestService(source, creds, ModeClub)
	result, err := svc.WeeklyRanking(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("club feed failure must degrade to an empty ranking: %v", err)
	}
	if len(result.Rankings) != 0 {
		t.Errorf("rankings = %+v, want empty", result.Rankings)
	}
}
