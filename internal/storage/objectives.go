package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const objectiveColumns = `id, partner_id, product_id, title, question, llm_models,
	is_active, created_at, updated_at`

func (s *Store) CreateObjective(o Objective) error {
	_, err := s.db.Exec(`
		INSERT INTO objectives (`+objectiveColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.PartnerID, o.ProductID, o.Title, o.Question, o.LLMModels,
		boolToInt(o.IsActive),
		o.CreatedAt.UTC().Format(time.RFC3339), o.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetObjective(id string) (Objective, error) {
	row := s.db.QueryRow(`SELECT `+objectiveColumns+` FROM objectives WHERE id = ?`, id)
	o, err := scanObjective(row)
	if err == sql.ErrNoRows {
		return Objective{}, ErrNotFound
	}
	return o, err
}

// ListObjectives returns objectives newest first. When activeOnly is set,
// soft-deleted objectives are excluded.
func (s *Store) ListObjectives(activeOnly bool, limit, offset int) ([]Objective, error) {
	query := `SELECT ` + objectiveColumns + ` FROM objectives`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Objective
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, o)
	}
	return results, rows.Err()
}

func (s *Store) DeactivateObjective(id string) error {
	res, err := s.db.Exec(`UPDATE objectives SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanObjective(r rowScanner) (Objective, error) {
	var o Objective
	var active int
	var createdAt, updatedAt string
	err := r.Scan(&o.ID, &o.PartnerID, &o.ProductID, &o.Title, &o.Question,
		&o.LLMModels, &active, &createdAt, &updatedAt)
	if err != nil {
		return Objective{}, err
	}
	o.IsActive = active != 0
	if o.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Objective{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Objective{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return o, nil
}
