package postgres

import (
	"context"

	"github.com/bookpasal/bookpasal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type booksRepo struct{ pool *pgxpool.Pool }

func (r *booksRepo) Create(ctx context.Context, b models.Book) (models.Book, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO books(id, title, description, price, image)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING id, title, description, price, image, created_at`,
		b.ID, b.Title, b.Description, b.Price, b.Image,
	).Scan(&b.ID, &b.Title, &b.Description, &b.Price, &b.Image, &b.CreatedAt)
	return b, err
}

func (r *booksRepo) GetByID(ctx context.Context, id string) (models.Book, error) {
	var b models.Book
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, price, image, created_at FROM books WHERE id=$1`, id,
	).Scan(&b.ID, &b.Title, &b.Description, &b.Price, &b.Image, &b.CreatedAt)
	return b, err
}

func (r *booksRepo) List(ctx context.Context, limit, offset int) ([]models.Book, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, price, image, created_at
		   FROM books ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.Price, &b.Image, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
