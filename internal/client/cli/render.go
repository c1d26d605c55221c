package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmitrijs2005/libcat/internal/client/models"
)

// now is a test seam for overdue highlighting.
var now = time.Now

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	overdueStyle = cellStyle.Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(10)
)

// renderBooks lays books out as a table. Overdue loans are highlighted.
func renderBooks(books []models.Book, at time.Time) string {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			strconv.Itoa(b.ID),
			b.Title,
			b.Author,
			b.ISBN,
			availability(b),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "AUTHOR", "ISBN", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(books) && books[row].Overdue(at):
				return overdueStyle
			default:
				return cellStyle
			}
		})

	return t.String()
}

// renderBook prints the fields of one book, one per line.
func renderBook(b models.Book, at time.Time) string {
	lines := []string{
		labelStyle.Render("ID") + strconv.Itoa(b.ID),
		labelStyle.Render("Title") + b.Title,
		labelStyle.Render("Author") + b.Author,
		labelStyle.Render("ISBN") + b.ISBN,
		labelStyle.Render("Status") + availability(b),
	}
	if b.Overdue(at) {
		lines = append(lines, labelStyle.Render("")+overdueStyle.UnsetPadding().Render("overdue"))
	}
	return strings.Join(lines, "\n")
}

func availability(b models.Book) string {
	if !b.IsBorrowed {
		return "available"
	}
	s := "borrowed"
	if who := b.Borrower(); who != "" {
		s += " by " + who
	}
	if b.DueDate != nil {
		s += fmt.Sprintf(" until %s", b.DueDate)
	}
	return s
}
