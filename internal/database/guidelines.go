package database

// InsertGuideline creates a new active guideline.
func (db *DB) InsertGuideline(category, rawInput, refinedContent string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO guidelines (category, raw_input, refined_content) VALUES (?, ?, ?)`,
		category, rawInput, refinedContent,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAllGuidelines returns every guideline, active or not, ordered by category.
func (db *DB) GetAllGuidelines() ([]Guideline, error) {
	return db.queryGuidelines(
		`SELECT id, category, raw_input, refined_content, is_active
		FROM guidelines ORDER BY category, id`,
	)
}

// GetActiveGuidelines returns active guidelines for a category, always
// including the shared "common" category. The union is deliberate: common
// guidance applies to every consultation regardless of topic.
func (db *DB) GetActiveGuidelines(category string) ([]Guideline, error) {
	return db.queryGuidelines(
		`SELECT id, category, raw_input, refined_content, is_active
		FROM guidelines
		WHERE is_active = 1 AND (category = 'common' OR category = ?)
		ORDER BY category, id`,
		category,
	)
}

// DeactivateGuideline soft-deletes a guideline.
func (db *DB) DeactivateGuideline(id int64) error {
	_, err := db.conn.Exec(`UPDATE guidelines SET is_active = 0 WHERE id = ?`, id)
	return err
}

func (db *DB) queryGuidelines(query string, args ...any) ([]Guideline, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guidelines []Guideline
	for rows.Next() {
		var g Guideline
		if err := rows.Scan(&g.ID, &g.Category, &g.RawInput, &g.RefinedContent, &g.IsActive); err != nil {
			return nil, err
		}
		guidelines = append(guidelines, g)
	}
	return guidelines, rows.Err()
}
