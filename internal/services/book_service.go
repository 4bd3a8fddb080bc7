package services

import (
	"context"
	"errors"

	"github.com/bookpasal/bookpasal-backend/internal/models"
	repo "github.com/bookpasal/bookpasal-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

type BookService struct{ r repo.Books }

func NewBookService(r repo.Books) *BookService { return &BookService{r: r} }

func (s *BookService) Create(ctx context.Context, b models.Book) (models.Book, error) {
	if err := b.Validate(); err != nil {
		return models.Book{}, err
	}
	return s.r.Create(ctx, b)
}

func (s *BookService) Get(ctx context.Context, id string) (models.Book, error) {
	b, err := s.r.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Book{}, ErrBookNotFound
	}
	return b, err
}

func (s *BookService) List(ctx context.Context, limit, offset int) ([]models.Book, error) {
	return s.r.List(ctx, limit, offset)
}
