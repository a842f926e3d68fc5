package ranking

import "time"

// Athlete is the identity attached to a ranking entry.
type Athlete struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Sex       string `json:"sex"`
	Profile   string `json:"profile,omitempty"`
}

// Key returns the athlete's ranking key.
func (a Athlete) Key() AthleteKey {
	return KeyFor(a.ID, a.FirstName, a.LastName)
}

// Activity is one activity inside a ranking window, already normalized from
// the upstream wire format.
type Activity struct {
	ID            int64
	Athlete       AthleteKey
	Name          string
	Distance      float64 // meters
	ElevationGain float64 // meters
	MovingTime    int     // seconds
	StartDate     time.Time
	Type          string
}

// AthleteMetrics is the aggregate of one athlete's activities in a window.
type AthleteMetrics struct {
	Athlete         Athlete `json:"athlete"`
	TotalDistance   float64 `json:"total_distance"`
	TotalElevation  float64 `json:"total_elevation"`
	LongestRide     float64 `json:"longest_ride"`
	ActivitiesCount int     `json:"activities_count"`
}

// WeeklyRanking is the full response for one (gender, week offset) query.
type WeeklyRanking struct {
	WeekStart time.Time        `json:"week_start"`
	WeekEnd   time.Time        `json:"week_end"`
	Gender    *string          `json:"gender"`
	Rankings  []AthleteMetrics `json:"rankings"`
}

// NormalizeSex is the single place the legacy "unknown means male" default is
// applied. The store and wire models keep whatever the upstream reported.
func NormalizeSex(sex string) string {
	if sex == "" {
		return "M"
	}
	return sex
}
