package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/libcat/internal/client/command"
	"github.com/dmitrijs2005/libcat/internal/client/gateway"
	"github.com/dmitrijs2005/libcat/internal/client/models"
)

// usageError reports a command invoked with the wrong arguments.
type usageError struct {
	usage string
}

func (e usageError) Error() string { return "usage: " + e.usage }

func (a *App) registerCommands() {
	signedIn := command.Authenticated(a.cell)

	for _, d := range []command.Descriptor{
		{Name: "help", Usage: "help", Help: "show available commands", Action: a.help},
		{Name: "login", Usage: "login", Help: "sign in",
			Predicate: command.All(command.Anonymous(a.cell), command.Not(&a.loggingIn)), Action: a.login},
		{Name: "register", Usage: "register", Help: "create an account",
			Predicate: command.All(command.Anonymous(a.cell), command.Not(&a.registering)), Action: a.register},
		{Name: "logout", Usage: "logout", Help: "sign out", Predicate: signedIn, Action: a.logout},
		{Name: "forget", Usage: "forget", Help: "forget the remembered username and password",
			Predicate: command.NotEmpty(&a.remembered), Action: a.forget},
		{Name: "whoami", Usage: "whoami", Help: "show the signed-in user", Predicate: signedIn, Action: a.whoami},
		{Name: "list", Usage: "list", Help: "list the catalogue", Action: a.list},
		{Name: "show", Usage: "show <id>", Help: "show one book", Action: a.show},
		{Name: "add", Usage: "add", Help: "add a book", Predicate: signedIn, Action: a.add},
		{Name: "edit", Usage: "edit <id>", Help: "change a book's title, author or isbn", Predicate: signedIn, Action: a.edit},
		{Name: "delete", Usage: "delete <id>", Help: "remove a book", Predicate: signedIn, Action: a.remove},
		{Name: "borrow", Usage: "borrow <id> [days]", Help: fmt.Sprintf("borrow a book (default %d days)", models.DefaultBorrowDays),
			Predicate: signedIn, Action: a.borrow},
		{Name: "return", Usage: "return <id>", Help: "return a borrowed book", Predicate: signedIn, Action: a.giveBack},
		{Name: "server", Usage: "server [url]", Help: "show or change the catalogue server",
			Predicate: command.Not(&a.loggingIn), Action: a.server},
	} {
		a.gate.Register(d)
	}
}

// handle runs on the loop.
func (a *App) handle(ctx context.Context, name string, args []string) {
	a.args = args
	defer func() { a.args = nil }()

	ran, err := a.gate.Execute(ctx, name)
	switch {
	case errors.Is(err, command.ErrUnknownCommand):
		a.println("Unknown command:", name)
	case err != nil:
		a.fail(err)
	case !ran:
		a.println(fmt.Sprintf("%q is not available right now (type 'help')", name))
	}
}

func (a *App) help(context.Context) error {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, c := range a.gate.Commands() {
		if !a.available[c.Name()] {
			continue
		}
		fmt.Fprintf(&b, "  %-20s %s\n", c.Usage(), c.Help())
	}
	fmt.Fprintf(&b, "  %-20s %s", "exit | quit", "leave the program")
	a.println(b.String())
	return nil
}

// fail prints err as a single line.
func (a *App) fail(err error) {
	var (
		usage    usageError
		expired  *gateway.AuthExpiredError
		rejected *gateway.RejectedError
	)
	switch {
	case errors.As(err, &usage):
		a.println("Usage:", usage.usage)
	case errors.As(err, &expired):
		a.println("Your session has ended, please log in again.")
	case errors.Is(err, gateway.ErrUnavailable):
		a.println("Server unavailable:", a.gw.BaseURL())
	case errors.As(err, &rejected):
		a.println("Error:", rejected.Detail)
	default:
		a.println("Error:", err)
	}
	a.log.Debug(context.Background(), "command failed", "error", err)
}

// idArg parses the first argument as a book id.
func (a *App) idArg(usage string) (int, error) {
	if len(a.args) < 1 {
		return 0, usageError{usage: usage}
	}
	id, err := strconv.Atoi(a.args[0])
	if err != nil || id <= 0 {
		return 0, usageError{usage: usage}
	}
	return id, nil
}
