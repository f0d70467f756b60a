package database

// Stats contains aggregate database counts for the status command.
type Stats struct {
	Profiles         int
	Customers        int
	CoachingLogs     int
	Guidelines       int
	References       int
	ActiveCategories int
}

// GetStats returns aggregate counts across all tables.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM profiles", &stats.Profiles},
		{"SELECT COUNT(*) FROM customers", &stats.Customers},
		{"SELECT COUNT(*) FROM coaching_logs", &stats.CoachingLogs},
		{"SELECT COUNT(*) FROM guidelines WHERE is_active = 1", &stats.Guidelines},
		{"SELECT COUNT(*) FROM reference_materials WHERE is_active = 1", &stats.References},
		{"SELECT COUNT(*) FROM consultation_types WHERE is_active = 1", &stats.ActiveCategories},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// DailyAverage is the mean score of all logs created on one day.
type DailyAverage struct {
	Date     string
	AvgScore float64
	Count    int
}

// GetDailyScoreAverages returns per-day average scores in date order,
// optionally filtered to one consultation type.
func (db *DB) GetDailyScoreAverages(category *string) ([]DailyAverage, error) {
	query := `SELECT date(created_at), AVG(ai_score), COUNT(*) FROM coaching_logs`
	var args []any
	if category != nil {
		query += " WHERE consultation_type = ?"
		args = append(args, *category)
	}
	query += " GROUP BY date(created_at) ORDER BY date(created_at)"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var daily []DailyAverage
	for rows.Next() {
		var d DailyAverage
		if err := rows.Scan(&d.Date, &d.AvgScore, &d.Count); err != nil {
			return nil, err
		}
		daily = append(daily, d)
	}
	return daily, rows.Err()
}
