package database

import "database/sql"

// InsertProfile creates a consultant profile.
func (db *DB) InsertProfile(id, email string, isAdmin bool, department *string) error {
	_, err := db.conn.Exec(
		`INSERT INTO profiles (id, email, is_admin, department) VALUES (?, ?, ?, ?)`,
		id, email, isAdmin, department,
	)
	return err
}

// GetProfile returns a profile by ID, or nil if it does not exist.
func (db *DB) GetProfile(id string) (*Profile, error) {
	row := db.conn.QueryRow(
		`SELECT id, email, is_admin, department, total_coaching_count, avg_score, created_at
		FROM profiles WHERE id = ?`, id,
	)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetAllProfiles returns all profiles ordered by average score descending.
func (db *DB) GetAllProfiles() ([]Profile, error) {
	rows, err := db.conn.Query(
		`SELECT id, email, is_admin, department, total_coaching_count, avg_score, created_at
		FROM profiles ORDER BY avg_score DESC, email`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.IsAdmin, &p.Department,
			&p.TotalCoachingCount, &p.AvgScore, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfileStats overwrites the recomputed aggregate columns.
func (db *DB) UpdateProfileStats(id string, totalCount int, avgScore float64) error {
	_, err := db.conn.Exec(
		`UPDATE profiles SET total_coaching_count = ?, avg_score = ? WHERE id = ?`,
		totalCount, avgScore, id,
	)
	return err
}

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.IsAdmin, &p.Department,
		&p.TotalCoachingCount, &p.AvgScore, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
