package database

import "database/sql"

// InsertReference creates a new active reference material.
func (db *DB) InsertReference(category, title string, content, summary, fileURL *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO reference_materials (category, title, content, summary, file_url)
		VALUES (?, ?, ?, ?, ?)`,
		category, title, content, summary, fileURL,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetActiveReferences returns active references, optionally filtered by
// category. A nil category returns the full active catalog.
func (db *DB) GetActiveReferences(category *string) ([]Reference, error) {
	query := `SELECT id, category, title, content, summary, file_url, is_active
		FROM reference_materials WHERE is_active = 1`
	var args []any
	if category != nil {
		query += " AND category = ?"
		args = append(args, *category)
	}
	query += " ORDER BY category, title"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReferences(rows)
}

// GetReference returns a reference by ID, or nil.
func (db *DB) GetReference(id int64) (*Reference, error) {
	row := db.conn.QueryRow(
		`SELECT id, category, title, content, summary, file_url, is_active
		FROM reference_materials WHERE id = ?`, id,
	)
	var r Reference
	err := row.Scan(&r.ID, &r.Category, &r.Title, &r.Content, &r.Summary, &r.FileURL, &r.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeactivateReference soft-deletes a reference material.
func (db *DB) DeactivateReference(id int64) error {
	_, err := db.conn.Exec(`UPDATE reference_materials SET is_active = 0 WHERE id = ?`, id)
	return err
}

func scanReferences(rows *sql.Rows) ([]Reference, error) {
	var refs []Reference
	for rows.Next() {
		var r Reference
		if err := rows.Scan(&r.ID, &r.Category, &r.Title, &r.Content, &r.Summary, &r.FileURL, &r.IsActive); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
