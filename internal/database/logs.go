package database

import "database/sql"

// InsertCoachingLog appends a coaching log. Logs are append-only; there is
// no update or delete path.
func (db *DB) InsertCoachingLog(l CoachingLog) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO coaching_logs
		(user_id, customer_id, consultation_type, original_script, audio_url,
		 ai_score, metric_compliance, metric_empathy, metric_clarity, ai_feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.UserID, l.CustomerID, l.ConsultationType, l.OriginalScript, l.AudioURL,
		l.Score, l.Metrics.Compliance, l.Metrics.Empathy, l.Metrics.Clarity, l.Feedback,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetCoachingLog returns a log by ID, or nil.
func (db *DB) GetCoachingLog(id int64) (*CoachingLog, error) {
	row := db.conn.QueryRow(logColumns+` WHERE id = ?`, id)
	l, err := scanLogRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLogsForUser returns a consultant's logs newest first, up to limit.
// A limit <= 0 returns all of them.
func (db *DB) GetLogsForUser(userID string, limit int) ([]CoachingLog, error) {
	query := logColumns + ` WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// GetLogsForUserChronological returns a consultant's logs oldest first.
// The aggregation engine depends on this ordering for trend windows.
func (db *DB) GetLogsForUserChronological(userID string) ([]CoachingLog, error) {
	rows, err := db.conn.Query(
		logColumns+` WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// GetAllLogs returns every log newest first.
func (db *DB) GetAllLogs() ([]CoachingLog, error) {
	rows, err := db.conn.Query(logColumns + ` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

const logColumns = `SELECT id, user_id, customer_id, consultation_type, original_script,
	audio_url, ai_score, metric_compliance, metric_empathy, metric_clarity, ai_feedback, created_at
	FROM coaching_logs`

func scanLogRow(row *sql.Row) (*CoachingLog, error) {
	var l CoachingLog
	err := row.Scan(&l.ID, &l.UserID, &l.CustomerID, &l.ConsultationType, &l.OriginalScript,
		&l.AudioURL, &l.Score, &l.Metrics.Compliance, &l.Metrics.Empathy, &l.Metrics.Clarity,
		&l.Feedback, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLogs(rows *sql.Rows) ([]CoachingLog, error) {
	var logs []CoachingLog
	for rows.Next() {
		var l CoachingLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CustomerID, &l.ConsultationType, &l.OriginalScript,
			&l.AudioURL, &l.Score, &l.Metrics.Compliance, &l.Metrics.Empathy, &l.Metrics.Clarity,
			&l.Feedback, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
