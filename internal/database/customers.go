package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// GetCustomerByPhone returns the customer with the given phone, or nil.
func (db *DB) GetCustomerByPhone(phone string) (*Customer, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, phone, consultation_history, last_consultation_date
		FROM customers WHERE phone = ?`, phone,
	)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCustomer returns a customer by ID, or nil.
func (db *DB) GetCustomer(id int64) (*Customer, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, phone, consultation_history, last_consultation_date
		FROM customers WHERE id = ?`, id,
	)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpsertCustomer creates a customer for the phone number, or returns the
// existing one. The UNIQUE constraint plus ON CONFLICT makes two concurrent
// creates for the same phone converge on a single row.
func (db *DB) UpsertCustomer(name, phone string) (*Customer, error) {
	_, err := db.conn.Exec(
		`INSERT INTO customers (name, phone, consultation_history, last_consultation_date)
		VALUES (?, ?, '[]', datetime('now'))
		ON CONFLICT(phone) DO NOTHING`,
		name, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting customer: %w", err)
	}
	return db.GetCustomerByPhone(phone)
}

// AppendCustomerHistory appends one consultation record to the customer's
// history and bumps last_consultation_date.
func (db *DB) AppendCustomerHistory(customerID int64, entry HistoryEntry) error {
	cust, err := db.GetCustomer(customerID)
	if err != nil {
		return err
	}
	if cust == nil {
		return fmt.Errorf("customer %d not found", customerID)
	}

	history := append(cust.ConsultationHistory, entry)
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	_, err = db.conn.Exec(
		`UPDATE customers SET consultation_history = ?, last_consultation_date = datetime('now')
		WHERE id = ?`,
		string(data), customerID,
	)
	return err
}

func scanCustomer(row *sql.Row) (*Customer, error) {
	var c Customer
	var historyJSON string
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &historyJSON, &c.LastConsultationDate); err != nil {
		return nil, err
	}
	if historyJSON != "" {
		if err := json.Unmarshal([]byte(historyJSON), &c.ConsultationHistory); err != nil {
			return nil, fmt.Errorf("decoding history for customer %d: %w", c.ID, err)
		}
	}
	return &c, nil
}
