package ranking

// Aggregate reduces one athlete's activities to their weekly metrics.
// The reduction is order-independent; an empty slice yields all zeros.
// Every activity type counts toward the totals.
func Aggregate(athlete Athlete, activities []Activity) AthleteMetrics {
	m := AthleteMetrics{
		Athlete:         athlete,
		ActivitiesCount: len(activities),
	}

	for _, a := range activities {
		m.TotalDistance += a.Distance
		m.TotalElevation += a.ElevationGain
		if a.Distance > m.LongestRide {
			m.LongestRide = a.Distance
		}
	}

	return m
}
