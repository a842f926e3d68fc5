package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gocarina/gocsv"

	"clubrank/internal/ranking"
)

// defaultWeekOffset selects the last completed week, which is what a
// "weekly leaderboard" page shows by default.
const defaultWeekOffset = -1

// RankingServiceInterface is the ranking engine as the handler needs it.
type RankingServiceInterface interface {
	WeeklyRanking(ctx context.Context, gender string, weekOffset int) (*ranking.WeeklyRanking, error)
}

// RankingsHandler serves the weekly leaderboard in JSON and CSV.
type RankingsHandler struct {
	service RankingServiceInterface
}

// NewRankingsHandler creates a RankingsHandler.
func NewRankingsHandler(service RankingServiceInterface) *RankingsHandler {
	return &RankingsHandler{service: service}
}

// Weekly handles GET /rankings/weekly?gender={M|F}&week_offset={int}.
func (h *RankingsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// csvRow is one exported leaderboard line.
type csvRow struct {
	Rank            int     `csv:"rank"`
	FirstName       string  `csv:"firstname"`
	LastName        string  `csv:"lastname"`
	Sex             string  `csv:"sex"`
	TotalDistance   float64 `csv:"total_distance_m"`
	TotalElevation  float64 `csv:"total_elevation_m"`
	LongestRide     float64 `csv:"longest_ride_m"`
	ActivitiesCount int     `csv:"activities_count"`
}

// WeeklyCSV handles GET /rankings/weekly/export with the same query
// parameters as Weekly.
func (h *RankingsHandler) WeeklyCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}

	rows := make([]csvRow, len(result.Rankings))
	for i, m := range result.Rankings {
		rows[i] = csvRow{
			Rank:            i + 1,
			FirstName:       m.Athlete.FirstName,
			LastName:        m.Athlete.LastName,
			Sex:             m.Athlete.Sex,
			TotalDistance:   m.TotalDistance,
			TotalElevation:  m.TotalElevation,
			LongestRide:     m.LongestRide,
			ActivitiesCount: m.ActivitiesCount,
		}
	}

	filename := fmt.Sprintf("rankings_%s.csv", result.WeekStart.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := gocsv.Marshal(&rows, w); err != nil {
		writeError(w, http.StatusInternalServerError, "encoding csv failed")
	}
}

// compute parses the shared query parameters and runs the engine. It writes
// the error response itself and returns ok=false when the request is done.
func (h *RankingsHandler) compute(w http.ResponseWriter, r *http.Request) (*ranking.WeeklyRanking, bool) {
	q := r.URL.Query()

	gender := q.Get("gender")
	if gender != "" && gender != "M" && gender != "F" {
		writeError(w, http.StatusBadRequest, "gender must be M or F")
		return nil, false
	}

	weekOffset := defaultWeekOffset
	if raw := q.Get("week_offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "week_offset must be an integer")
			return nil, false
		}
		weekOffset = n
	}

	result, err := h.service.WeeklyRanking(r.Context(), gender, weekOffset)
	if err != nil {
		if errors.Is(err, ranking.ErrNoCredentials) {
			writeError(w, http.StatusServiceUnavailable, "no athlete has registered yet")
			return nil, false
		}
		writeError(w, http.StatusBadGateway, "computing ranking failed")
		return nil, false
	}

	return result, true
}
