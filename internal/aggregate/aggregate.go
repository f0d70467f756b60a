// Package aggregate turns the coaching log history into consultant and
// global statistics. Everything is recomputed from the logs on demand;
// nothing is patched incrementally, so the numbers cannot drift from the
// source of truth.
package aggregate

import (
	"github.com/hyeonsu-an/smartcoach/internal/database"
)

// trendWindow is how many recent logs the growth trend compares against the
// consultant's overall average. Below this count the trend is exactly 0.
const trendWindow = 5

// Aggregator computes derived statistics from the persisted logs.
type Aggregator struct {
	db *database.DB
}

// New creates an Aggregator.
func New(db *database.DB) *Aggregator {
	return &Aggregator{db: db}
}

// RecomputeProfile overwrites a consultant's aggregate columns with values
// recomputed from their full log history.
func (a *Aggregator) RecomputeProfile(userID string) error {
	logs, err := a.db.GetLogsForUserChronological(userID)
	if err != nil {
		return err
	}
	return a.db.UpdateProfileStats(userID, len(logs), mean(scores(logs)))
}

// ConsultantStats is one consultant's dashboard snapshot.
type ConsultantStats struct {
	RecentLogs     []database.CoachingLog
	RecentAvg      float64
	CategoryCounts map[string]int
}

// recentAvgWindow is the "recent form" window shown next to the lifetime
// average.
const recentAvgWindow = 10

// ConsultantStats returns a consultant's recent logs (newest first, up to
// limit), the average over their last 10, and per-category counts over
// their whole history.
func (a *Aggregator) ConsultantStats(userID string, limit int) (*ConsultantStats, error) {
	recent, err := a.db.GetLogsForUser(userID, limit)
	if err != nil {
		return nil, err
	}
	all, err := a.db.GetLogsForUserChronological(userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, l := range all {
		counts[l.ConsultationType]++
	}

	window := all
	if len(window) > recentAvgWindow {
		window = window[len(window)-recentAvgWindow:]
	}

	return &ConsultantStats{
		RecentLogs:     recent,
		RecentAvg:      mean(scores(window)),
		CategoryCounts: counts,
	}, nil
}

// GlobalAverage returns the mean score across every consultant's logs.
func (a *Aggregator) GlobalAverage() (float64, error) {
	logs, err := a.db.GetAllLogs()
	if err != nil {
		return 0, err
	}
	return mean(scores(logs)), nil
}

// Ranking is one row of the consultant leaderboard.
type Ranking struct {
	Profile database.Profile
	Growth  float64
}

// Rankings returns all consultants ordered by average score, each with a
// growth trend: mean of the last 5 logs minus the lifetime mean. Fewer than
// 5 logs yields a trend of exactly 0.
func (a *Aggregator) Rankings() ([]Ranking, error) {
	profiles, err := a.db.GetAllProfiles()
	if err != nil {
		return nil, err
	}

	rankings := make([]Ranking, 0, len(profiles))
	for _, p := range profiles {
		logs, err := a.db.GetLogsForUserChronological(p.ID)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, Ranking{Profile: p, Growth: growth(scores(logs))})
	}
	return rankings, nil
}

// growth is mean(last trendWindow) - mean(all), or 0 with too few samples.
func growth(all []int) float64 {
	if len(all) < trendWindow {
		return 0.0
	}
	recent := all[len(all)-trendWindow:]
	return mean(recent) - mean(all)
}

func scores(logs []database.CoachingLog) []int {
	out := make([]int, len(logs))
	for i, l := range logs {
		out[i] = l.Score
	}
	return out
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
