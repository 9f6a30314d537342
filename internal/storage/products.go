package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const productColumns = `id, partner_id, name, description, product_type, price,
	currency, city, country, is_active, created_at, updated_at`

func (s *Store) CreateProduct(p Product) error {
	_, err := s.db.Exec(`
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PartnerID, p.Name, p.Description, p.ProductType, p.Price,
		p.Currency, p.City, p.Country, boolToInt(p.IsActive),
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetProduct(id string) (Product, error) {
	row := s.db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return Product{}, ErrNotFound
	}
	return p, err
}

// ListProducts returns products, optionally restricted to one partner.
func (s *Store) ListProducts(partnerID string, limit, offset int) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if partnerID != "" {
		query += ` WHERE partner_id = ?`
		args = append(args, partnerID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func scanProduct(r rowScanner) (Product, error) {
	var p Product
	var active int
	var createdAt, updatedAt string
	err := r.Scan(&p.ID, &p.PartnerID, &p.Name, &p.Description, &p.ProductType,
		&p.Price, &p.Currency, &p.City, &p.Country, &active, &createdAt, &updatedAt)
	if err != nil {
		return Product{}, err
	}
	p.IsActive = active != 0
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Product{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Product{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}
