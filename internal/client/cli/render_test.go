package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderBooks(t *testing.T) {
	due := models.NewDate(2025, time.March, 1)
	name := "bob"
	books := []models.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593"},
		{ID: 2, Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", IsBorrowed: true, DueDate: &due, BorrowerUsername: &name},
	}

	out := renderBooks(books, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	for _, s := range []string{"ID", "TITLE", "AUTHOR", "ISBN", "STATUS", "Dune", "Frank Herbert", "available",
		"Emma", "borrowed by bob until 2025-03-01"} {
		assert.Contains(t, out, s)
	}
	assert.Less(t, strings.Index(out, "Dune"), strings.Index(out, "Emma"), "rows keep their order")
}

func TestRenderBook(t *testing.T) {
	due := models.NewDate(2025, time.March, 1)
	b := models.Book{ID: 7, Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", IsBorrowed: true, DueDate: &due}

	before := renderBook(b, time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, before, "Emma")
	assert.Contains(t, before, "borrowed until 2025-03-01")
	assert.NotContains(t, before, "overdue")

	after := renderBook(b, time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, after, "overdue")
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, "available", availability(models.Book{}))
	assert.Equal(t, "borrowed", availability(models.Book{IsBorrowed: true}))
}
