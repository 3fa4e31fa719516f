// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Ibedes/ibedes/internal/model"
)

const articleColumns = `id, title, slug, body, status, created_at, updated_at, published_at`

// CreateArticle inserts a new article and returns its id.
func (q *Queries) CreateArticle(ctx context.Context, a model.Article) (int64, error) {
	now := formatTime(time.Now())
	var publishedAt any
	if a.PublishedAt.Valid {
		publishedAt = formatTime(a.PublishedAt.Time)
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO articles (title, slug, body, status, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.Title, a.Slug, a.Body, a.Status, now, now, publishedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting article: %w", err)
	}
	return res.LastInsertId()
}

// GetArticleBySlug returns one article by slug.
func (q *Queries) GetArticleBySlug(ctx context.Context, slug string) (model.Article, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE slug = ?
	`, slug)
	return scanArticle(row)
}

// ListArticles returns articles newest first, optionally only published ones.
func (q *Queries) ListArticles(ctx context.Context, publishedOnly bool, limit int) ([]model.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
	`
	if publishedOnly {
		query += " WHERE status = 'published'"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	rows, err := q.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticleFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// UpdateArticle replaces the mutable fields of an article.
func (q *Queries) UpdateArticle(ctx context.Context, a model.Article) error {
	var publishedAt any
	if a.PublishedAt.Valid {
		publishedAt = formatTime(a.PublishedAt.Time)
	}

	res, err := q.db.ExecContext(ctx, `
		UPDATE articles
		SET title = ?, slug = ?, body = ?, status = ?, updated_at = ?, published_at = ?
		WHERE id = ?
	`, a.Title, a.Slug, a.Body, a.Status, formatTime(time.Now()), publishedAt, a.ID)
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteArticle removes an article by id.
func (q *Queries) DeleteArticle(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanArticleFields(s rowScanner) (model.Article, error) {
	var (
		a           model.Article
		createdAt   string
		updatedAt   string
		publishedAt sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.Status, &createdAt, &updatedAt, &publishedAt); err != nil {
		return model.Article{}, err
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	if publishedAt.Valid {
		a.PublishedAt = sql.NullTime{Time: parseTime(publishedAt.String), Valid: true}
	}
	return a, nil
}

func scanArticle(row *sql.Row) (model.Article, error) {
	a, err := scanArticleFields(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Article{}, err
		}
		return model.Article{}, fmt.Errorf("scanning article: %w", err)
	}
	return a, nil
}
