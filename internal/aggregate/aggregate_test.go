package aggregate

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/hyeonsu-an/smartcoach/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertLogs(t *testing.T, db *database.DB, userID, category string, scoreList []int) {
	t.Helper()
	for _, s := range scoreList {
		_, err := db.InsertCoachingLog(database.CoachingLog{
			UserID: userID, ConsultationType: category,
			OriginalScript: "s", Score: s, Feedback: "f",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecomputeProfile(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)
	insertLogs(t, db, "u-1", "general", []int{80, 90, 70})

	agg := New(db)
	if err := agg.RecomputeProfile("u-1"); err != nil {
		t.Fatal(err)
	}

	p, err := db.GetProfile("u-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalCoachingCount != 3 {
		t.Errorf("count = %d, want 3", p.TotalCoachingCount)
	}
	if !almostEqual(p.AvgScore, 80.0) {
		t.Errorf("avg = %f, want 80.0", p.AvgScore)
	}
}

func TestRecomputeProfileNoLogs(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)

	agg := New(db)
	if err := agg.RecomputeProfile("u-1"); err != nil {
		t.Fatal(err)
	}
	p, _ := db.GetProfile("u-1")
	if p.TotalCoachingCount != 0 || p.AvgScore != 0 {
		t.Errorf("expected zeroed stats, got %+v", p)
	}
}

func TestGrowthBelowWindowIsZero(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)
	insertLogs(t, db, "u-1", "general", []int{50, 60, 70, 80})

	agg := New(db)
	rankings, err := agg.Rankings()
	if err != nil {
		t.Fatal(err)
	}
	if len(rankings) != 1 {
		t.Fatalf("expected 1 ranking, got %d", len(rankings))
	}
	if rankings[0].Growth != 0.0 {
		t.Errorf("fewer than 5 logs must give trend 0.0, got %f", rankings[0].Growth)
	}
}

func TestGrowthWithFiveOrMoreLogs(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)
	// mean(all 6) = 65, mean(last 5: 60,70,70,80,80) = 72
	insertLogs(t, db, "u-1", "general", []int{30, 60, 70, 70, 80, 80})

	agg := New(db)
	rankings, err := agg.Rankings()
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(rankings[0].Growth, 72.0-65.0) {
		t.Errorf("growth = %f, want 7.0", rankings[0].Growth)
	}
}

func TestRankingsOrderedByAverage(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-low", "low@example.com", false, nil)
	db.InsertProfile("u-high", "high@example.com", false, nil)
	insertLogs(t, db, "u-low", "general", []int{50})
	insertLogs(t, db, "u-high", "general", []int{95})

	agg := New(db)
	agg.RecomputeProfile("u-low")
	agg.RecomputeProfile("u-high")

	rankings, err := agg.Rankings()
	if err != nil {
		t.Fatal(err)
	}
	if rankings[0].Profile.ID != "u-high" {
		t.Errorf("expected u-high first, got %s", rankings[0].Profile.ID)
	}
}

func TestGlobalAverage(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)
	db.InsertProfile("u-2", "b@example.com", false, nil)
	insertLogs(t, db, "u-1", "general", []int{60})
	insertLogs(t, db, "u-2", "refund", []int{80})

	agg := New(db)
	avg, err := agg.GlobalAverage()
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(avg, 70.0) {
		t.Errorf("global avg = %f, want 70.0", avg)
	}
}

func TestConsultantStats(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)
	insertLogs(t, db, "u-1", "refund", []int{70, 80})
	insertLogs(t, db, "u-1", "tech", []int{90})

	agg := New(db)
	stats, err := agg.ConsultantStats("u-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.RecentLogs) != 2 {
		t.Errorf("expected limit respected, got %d logs", len(stats.RecentLogs))
	}
	if stats.CategoryCounts["refund"] != 2 || stats.CategoryCounts["tech"] != 1 {
		t.Errorf("unexpected category counts %v", stats.CategoryCounts)
	}
	if !almostEqual(stats.RecentAvg, 80.0) {
		t.Errorf("recent avg = %f, want 80.0", stats.RecentAvg)
	}
}

func TestDailyScoreAveragesCategoryFilter(t *testing.T) {
	db := openTestDB(t)
	db.InsertProfile("u-1", "a@example.com", false, nil)
	insertLogs(t, db, "u-1", "refund", []int{60, 80})
	insertLogs(t, db, "u-1", "tech", []int{100})

	cat := "refund"
	daily, err := db.GetDailyScoreAverages(&cat)
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 1 {
		t.Fatalf("expected one day of data, got %d", len(daily))
	}
	if !almostEqual(daily[0].AvgScore, 70.0) || daily[0].Count != 2 {
		t.Errorf("unexpected daily average %+v", daily[0])
	}
}
