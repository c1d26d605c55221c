package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/libcat/internal/client/gateway"
	"github.com/dmitrijs2005/libcat/internal/client/models"
)

// ErrNoValue is returned when the service answered without the resource a
// call needs.
var ErrNoValue = errors.New("server returned no data")

// BookService covers the catalogue endpoints.
type BookService interface {
	List(ctx context.Context) ([]models.Book, error)
	Get(ctx context.Context, id int) (models.Book, error)
	Create(ctx context.Context, b models.BookCreate) (models.Book, error)
	Update(ctx context.Context, id int, u models.BookUpdate) (models.Book, error)
	Delete(ctx context.Context, id int) error
	Borrow(ctx context.Context, id int, days int) (models.Book, error)
	Return(ctx context.Context, id int) (models.Book, error)
}

type bookService struct {
	gw gateway.Doer
}

func NewBookService(gw gateway.Doer) BookService {
	return &bookService{gw: gw}
}

// List returns every book. An empty answer is an empty catalogue.
func (s *bookService) List(ctx context.Context) ([]models.Book, error) {
	books, _, err := gateway.Send[[]models.Book](ctx, s.gw, http.MethodGet, "/books/", nil)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

func (s *bookService) Get(ctx context.Context, id int) (models.Book, error) {
	return one(ctx, s.gw, http.MethodGet, bookPath(id), nil)
}

func (s *bookService) Create(ctx context.Context, b models.BookCreate) (models.Book, error) {
	if err := b.Validate(); err != nil {
		return models.Book{}, err
	}
	return one(ctx, s.gw, http.MethodPost, "/books/", b)
}

func (s *bookService) Update(ctx context.Context, id int, u models.BookUpdate) (models.Book, error) {
	if u.Empty() {
		return models.Book{}, fmt.Errorf("%w: nothing to update", models.ErrMissingField)
	}
	return one(ctx, s.gw, http.MethodPut, bookPath(id), u)
}

// Delete answers 204 on success, so "no value" is the expected outcome.
func (s *bookService) Delete(ctx context.Context, id int) error {
	_, err := s.gw.Do(ctx, http.MethodDelete, bookPath(id), nil, nil)
	return err
}

// Borrow lends the book to the logged in user for days days
// (models.DefaultBorrowDays when days <= 0).
func (s *bookService) Borrow(ctx context.Context, id int, days int) (models.Book, error) {
	if days <= 0 {
		days = models.DefaultBorrowDays
	}
	return one(ctx, s.gw, http.MethodPost, bookPath(id)+"/borrow", models.BorrowRequest{BorrowDays: days})
}

func (s *bookService) Return(ctx context.Context, id int) (models.Book, error) {
	return one(ctx, s.gw, http.MethodPost, bookPath(id)+"/return", nil)
}

func one(ctx context.Context, gw gateway.Doer, method, path string, body any) (models.Book, error) {
	b, ok, err := gateway.Send[models.Book](ctx, gw, method, path, body)
	if err != nil {
		return models.Book{}, err
	}
	if !ok {
		return models.Book{}, fmt.Errorf("%s %s: %w", method, path, ErrNoValue)
	}
	return b, nil
}

func bookPath(id int) string {
	return fmt.Sprintf("/books/%d", id)
}
