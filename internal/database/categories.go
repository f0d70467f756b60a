package database

import "database/sql"

// InsertConsultationType adds a new active category. The name is the stable
// key referenced by logs and guidelines; display_name is what operators see
// and is never mutated afterwards.
func (db *DB) InsertConsultationType(name, displayName string, description *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO consultation_types (name, display_name, description) VALUES (?, ?, ?)`,
		name, displayName, description,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetActiveConsultationTypes returns active categories in name order.
func (db *DB) GetActiveConsultationTypes() ([]ConsultationType, error) {
	return db.queryConsultationTypes(
		`SELECT id, name, display_name, description, is_active
		FROM consultation_types WHERE is_active = 1 ORDER BY name`,
	)
}

// GetAllConsultationTypes returns every category including deactivated ones.
func (db *DB) GetAllConsultationTypes() ([]ConsultationType, error) {
	return db.queryConsultationTypes(
		`SELECT id, name, display_name, description, is_active
		FROM consultation_types ORDER BY name`,
	)
}

// GetConsultationType returns a category by name, or nil.
func (db *DB) GetConsultationType(name string) (*ConsultationType, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, display_name, description, is_active
		FROM consultation_types WHERE name = ?`, name,
	)
	var t ConsultationType
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Description, &t.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeactivateConsultationType soft-deletes a category. Historical logs keep
// referencing the name; nothing is renamed or removed.
func (db *DB) DeactivateConsultationType(name string) error {
	_, err := db.conn.Exec(`UPDATE consultation_types SET is_active = 0 WHERE name = ?`, name)
	return err
}

func (db *DB) queryConsultationTypes(query string, args ...any) ([]ConsultationType, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []ConsultationType
	for rows.Next() {
		var t ConsultationType
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Description, &t.IsActive); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
