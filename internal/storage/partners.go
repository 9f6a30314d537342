package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const partnerColumns = `id, name, description, partner_type, website, address_line1,
	city, state, country, postal_code, industry, is_active, created_at, updated_at`

func (s *Store) CreatePartner(p Partner) error {
	_, err := s.db.Exec(`
		INSERT INTO partners (`+partnerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.PartnerType, p.Website, p.AddressLine1,
		p.City, p.State, p.Country, p.PostalCode, p.Industry, boolToInt(p.IsActive),
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetPartner(id string) (Partner, error) {
	row := s.db.QueryRow(`SELECT `+partnerColumns+` FROM partners WHERE id = ?`, id)
	p, err := scanPartner(row)
	if err == sql.ErrNoRows {
		return Partner{}, ErrNotFound
	}
	return p, err
}

func (s *Store) ListPartners(f PartnerFilters, limit, offset int) ([]Partner, error) {
	where, args := partnerWhere(f)
	args = append(args, limit, offset)

	rows, err := s.db.Query(`SELECT `+partnerColumns+` FROM partners`+where+`
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (s *Store) CountPartners(f PartnerFilters) (int, error) {
	where, args := partnerWhere(f)
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM partners`+where, args...).Scan(&n)
	return n, err
}

// UpdatePartner overwrites the mutable fields of an existing partner.
// Soft-deletion happens here by flipping is_active.
func (s *Store) UpdatePartner(p Partner) error {
	res, err := s.db.Exec(`
		UPDATE partners SET name = ?, description = ?, partner_type = ?, website = ?,
			address_line1 = ?, city = ?, state = ?, country = ?, postal_code = ?,
			industry = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.PartnerType, p.Website,
		p.AddressLine1, p.City, p.State, p.Country, p.PostalCode,
		p.Industry, boolToInt(p.IsActive), time.Now().UTC().Format(time.RFC3339),
		p.ID,
	)
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

// DeactivatePartner soft-deletes a partner. The row itself is kept so
// existing evaluations stay resolvable.
func (s *Store) DeactivatePartner(id string) error {
	res, err := s.db.Exec(`UPDATE partners SET is_active = 0, updated_at = ? WHERE id = ?`,
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

func partnerWhere(f PartnerFilters) (string, []any) {
	var conds []string
	var args []any
	if f.Search != "" {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.PartnerType != "" {
		conds = append(conds, "partner_type = ?")
		args = append(args, f.PartnerType)
	}
	if f.Industry != "" {
		conds = append(conds, "industry = ?")
		args = append(args, f.Industry)
	}
	if f.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, f.Country)
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active = 1")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPartner(r rowScanner) (Partner, error) {
	var p Partner
	var active int
	var createdAt, updatedAt string
	err := r.Scan(&p.ID, &p.Name, &p.Description, &p.PartnerType, &p.Website,
		&p.AddressLine1, &p.City, &p.State, &p.Country, &p.PostalCode,
		&p.Industry, &active, &createdAt, &updatedAt)
	if err != nil {
		return Partner{}, err
	}
	p.IsActive = active != 0
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Partner{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Partner{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
