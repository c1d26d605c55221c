// Package models defines the catalogue resources exchanged with the service.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultBorrowDays is the loan period used when none is given.
const DefaultBorrowDays = 14

var (
	ErrIncorrectField = errors.New("field must be name=value")
	ErrUnknownField   = errors.New("unknown field")
	ErrMissingField   = errors.New("missing required field")
)

// Book is a catalogue entry as returned by the service.
type Book struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Author           string  `json:"author"`
	ISBN             string  `json:"isbn"`
	IsBorrowed       bool    `json:"is_borrowed"`
	DueDate          *Date   `json:"due_date,omitempty"`
	BorrowerID       *int    `json:"borrower_id,omitempty"`
	BorrowerUsername *string `json:"borrower_username,omitempty"`
}

// Borrower returns the borrower's name or "" when unknown.
func (b Book) Borrower() string {
	if b.BorrowerUsername == nil {
		return ""
	}
	return *b.BorrowerUsername
}

// Overdue reports whether a borrowed book is past its due date at now.
func (b Book) Overdue(now time.Time) bool {
	if !b.IsBorrowed || b.DueDate == nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return b.DueDate.Time.Before(today)
}

// BookCreate is the body of POST /books/.
type BookCreate struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// Validate checks the fields the service requires.
func (c BookCreate) Validate() error {
	for name, v := range map[string]string{"title": c.Title, "author": c.Author, "isbn": c.ISBN} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	if len(c.ISBN) > 13 {
		return fmt.Errorf("isbn: at most 13 characters")
	}
	return nil
}

// BookUpdate is the body of PUT /books/{id}. Nil fields are left unchanged.
type BookUpdate struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	ISBN   *string `json:"isbn,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.ISBN == nil
}

// BorrowRequest is the body of POST /books/{id}/borrow.
type BorrowRequest struct {
	BorrowDays int `json:"borrow_days"`
}

// BookUpdateFromPairs parses "name=value" items (title, author, isbn) as
// typed on the command line.
func BookUpdateFromPairs(items []string) (BookUpdate, error) {
	var u BookUpdate
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			return BookUpdate{}, fmt.Errorf("%w: %q", ErrIncorrectField, item)
		}
		v := value
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			u.Title = &v
		case "author":
			u.Author = &v
		case "isbn":
			u.ISBN = &v
		default:
			return BookUpdate{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
	}
	return u, nil
}
