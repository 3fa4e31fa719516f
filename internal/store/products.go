// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/util"
)

const productColumns = `id, name, description, price, original_price, discount, image, link,
	platform, category, tags, rating, verified, created_at, updated_at`

// CreateProduct inserts a new affiliate product.
func (q *Queries) CreateProduct(ctx context.Context, p model.AffiliateProduct) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshaling product tags: %w", err)
	}

	now := formatTime(time.Now())
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO affiliate_products (
			id, name, description, price, original_price, discount, image, link,
			platform, category, tags, rating, verified, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Discount, p.Image, p.Link,
		p.Platform, p.Category, string(tags), util.NullFloat64FromPtr(p.Rating),
		boolToInt(p.Verified), now, now)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

// GetProduct returns one product by id.
func (q *Queries) GetProduct(ctx context.Context, id string) (model.AffiliateProduct, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM affiliate_products
		WHERE id = ?
	`, id)
	return scanProduct(row)
}

// ListProducts returns all products in insertion order, oldest first. The
// ranking engine relies on this ordering: a product's position is its recency
// signal, with the newest product last.
func (q *Queries) ListProducts(ctx context.Context) ([]model.AffiliateProduct, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM affiliate_products
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.AffiliateProduct
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct replaces the mutable fields of a product.
func (q *Queries) UpdateProduct(ctx context.Context, p model.AffiliateProduct) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshaling product tags: %w", err)
	}

	res, err := q.db.ExecContext(ctx, `
		UPDATE affiliate_products
		SET name = ?, description = ?, price = ?, original_price = ?, discount = ?,
			image = ?, link = ?, platform = ?, category = ?, tags = ?, rating = ?,
			verified = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Description, p.Price, p.OriginalPrice, p.Discount,
		p.Image, p.Link, p.Platform, p.Category, string(tags), util.NullFloat64FromPtr(p.Rating),
		boolToInt(p.Verified), formatTime(time.Now()), p.ID)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteProduct removes a product by id.
func (q *Queries) DeleteProduct(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM affiliate_products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductFields(s rowScanner) (model.AffiliateProduct, error) {
	var (
		p         model.AffiliateProduct
		tags      string
		rating    sql.NullFloat64
		verified  int
		createdAt string
		updatedAt string
	)
	if err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Discount,
		&p.Image, &p.Link, &p.Platform, &p.Category, &tags, &rating, &verified,
		&createdAt, &updatedAt,
	); err != nil {
		return model.AffiliateProduct{}, err
	}
	if tags != "" {
		_ = json.Unmarshal([]byte(tags), &p.Tags)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Rating = util.Float64PtrFromNull(rating)
	p.Verified = verified != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func scanProduct(row *sql.Row) (model.AffiliateProduct, error) {
	p, err := scanProductFields(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.AffiliateProduct{}, err
		}
		return model.AffiliateProduct{}, fmt.Errorf("scanning product: %w", err)
	}
	return p, nil
}

func scanProductRows(rows *sql.Rows) (model.AffiliateProduct, error) {
	p, err := scanProductFields(rows)
	if err != nil {
		return model.AffiliateProduct{}, fmt.Errorf("scanning product: %w", err)
	}
	return p, nil
}
