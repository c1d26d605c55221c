package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/libcat/internal/client/gateway"
	"github.com/dmitrijs2005/libcat/internal/client/models"
)

var errNothingToChange = errors.New("nothing to change")

func (a *App) list(ctx context.Context) error {
	var books []models.Book
	a.background(ctx, func(ctx context.Context) error {
		var err error
		books, err = a.books.List(ctx)
		return err
	}, func(err error) {
		if err != nil {
			a.fail(err)
			return
		}
		if len(books) == 0 {
			a.println("The catalogue is empty")
			return
		}
		a.println(renderBooks(books, now()))
	})
	return nil
}

func (a *App) show(ctx context.Context) error {
	id, err := a.idArg("show <id>")
	if err != nil {
		return err
	}
	a.withBook(ctx, func(ctx context.Context) (models.Book, error) {
		return a.books.Get(ctx, id)
	}, func(b models.Book) {
		a.println(renderBook(b, now()))
	})
	return nil
}

func (a *App) add(ctx context.Context) error {
	var in models.BookCreate
	for _, f := range []struct {
		prompt string
		dst    *string
	}{
		{"Title", &in.Title},
		{"Author", &in.Author},
		{"ISBN", &in.ISBN},
	} {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if err := in.Validate(); err != nil {
		return err
	}

	a.withBook(ctx, func(ctx context.Context) (models.Book, error) {
		return a.books.Create(ctx, in)
	}, func(b models.Book) {
		a.println(fmt.Sprintf("Added book #%d %q", b.ID, b.Title))
	})
	return nil
}

func (a *App) edit(ctx context.Context) error {
	id, err := a.idArg("edit <id>")
	if err != nil {
		return err
	}
	pairs, err := GetPairs(a.reader, "Enter changes as name=value (title, author, isbn)", a.out)
	if err != nil {
		return err
	}
	upd, err := models.BookUpdateFromPairs(pairs)
	if err != nil {
		return err
	}
	if upd.Empty() {
		return errNothingToChange
	}

	a.withBook(ctx, func(ctx context.Context) (models.Book, error) {
		return a.books.Update(ctx, id, upd)
	}, func(b models.Book) {
		a.println(fmt.Sprintf("Updated book #%d", b.ID))
		a.println(renderBook(b, now()))
	})
	return nil
}

func (a *App) remove(ctx context.Context) error {
	id, err := a.idArg("delete <id>")
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, fmt.Sprintf("Delete book #%d?", id), false, a.out)
	if err != nil {
		return err
	}
	if !ok {
		a.println("Cancelled")
		return nil
	}

	a.background(ctx, func(ctx context.Context) error {
		return a.books.Delete(ctx, id)
	}, func(err error) {
		if err != nil {
			a.fail(err)
			return
		}
		a.println(fmt.Sprintf("Deleted book #%d", id))
	})
	return nil
}

func (a *App) borrow(ctx context.Context) error {
	const usage = "borrow <id> [days]"
	id, err := a.idArg(usage)
	if err != nil {
		return err
	}
	days := models.DefaultBorrowDays
	if len(a.args) > 1 {
		days, err = strconv.Atoi(a.args[1])
		if err != nil || days <= 0 {
			return usageError{usage: usage}
		}
	}

	a.withBook(ctx, func(ctx context.Context) (models.Book, error) {
		return a.books.Borrow(ctx, id, days)
	}, func(b models.Book) {
		msg := fmt.Sprintf("Borrowed %q", b.Title)
		if b.DueDate != nil {
			msg += ", due " + b.DueDate.String()
		}
		a.println(msg)
	})
	return nil
}

func (a *App) giveBack(ctx context.Context) error {
	id, err := a.idArg("return <id>")
	if err != nil {
		return err
	}
	a.withBook(ctx, func(ctx context.Context) (models.Book, error) {
		return a.books.Return(ctx, id)
	}, func(b models.Book) {
		a.println(fmt.Sprintf("Returned %q", b.Title))
	})
	return nil
}

// withBook runs a single-book request in the background and hands the
// result to ok on the loop; failures are printed.
func (a *App) withBook(ctx context.Context, op func(context.Context) (models.Book, error), ok func(models.Book)) {
	var b models.Book
	a.background(ctx, func(ctx context.Context) error {
		var err error
		b, err = op(ctx)
		return err
	}, func(err error) {
		if err != nil {
			a.fail(err)
			return
		}
		ok(b)
	})
}

// server prints or switches the catalogue server. Switching signs out.
func (a *App) server(ctx context.Context) error {
	if len(a.args) == 0 {
		a.println("Server:", a.gw.BaseURL())
		return nil
	}
	effective, err := a.gw.SetBaseURL(ctx, a.args[0])
	if errors.Is(err, gateway.ErrInvalidBaseURL) {
		a.println(fmt.Sprintf("Invalid server URL (%v), using %s", err, effective))
		return nil
	}
	a.println("Server:", effective)
	return nil
}
