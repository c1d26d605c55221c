package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/command"
	"github.com/dmitrijs2005/libcat/internal/client/config"
	"github.com/dmitrijs2005/libcat/internal/client/gateway"
	"github.com/dmitrijs2005/libcat/internal/client/localdb"
	"github.com/dmitrijs2005/libcat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/libcat/internal/client/services"
	"github.com/dmitrijs2005/libcat/internal/client/session"
	"github.com/dmitrijs2005/libcat/internal/client/tokenstore"
	"github.com/dmitrijs2005/libcat/internal/client/uiloop"
	"github.com/dmitrijs2005/libcat/internal/client/vault"
	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/filex"
	"github.com/dmitrijs2005/libcat/internal/logging"
	"golang.org/x/sync/errgroup"
)

// App is the interactive client. Everything that prints or touches the
// fields below the "loop-owned" marker runs on loop; network calls run on
// goroutines tracked by group and report back through loop.
type App struct {
	config *config.Config
	log    logging.Logger
	loop   *uiloop.Loop
	cell   *session.Cell
	gw     *gateway.Gateway
	auth   services.AuthService
	books  services.BookService
	gate   *command.Gate
	reader *bufio.Reader
	out    io.Writer
	group  errgroup.Group
	store  session.TokenStore

	closers []func() error

	loggingIn   command.Flag
	registering command.Flag

	// loop-owned
	args       []string
	available  command.Snapshot
	remembered string
	pending    int
}

type Option func(*App)

func WithInput(r io.Reader) Option {
	return func(a *App) { a.reader = bufio.NewReader(r) }
}

func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// NewApp wires the client from c: the session cell (with a token store when
// the session is persisted), the gateway, the credential vault, the
// services and the command gate.
func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	a := &App{
		config: c,
		log:    logging.Discard(),
		loop:   uiloop.New(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}

	dir, err := filex.AppDir(c.DataDir, common.AppName)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	baseURL, err := gateway.NormalizeBaseURL(c.ServerURL)
	if err != nil {
		a.log.Warn(ctx, "invalid server url, using default", "url", c.ServerURL, "error", err)
	}

	cellOpts := []session.Option{
		session.WithDispatcher(a.loop),
		session.WithLogger(a.log),
	}
	if c.PersistSession {
		store, err := a.openTokenStore(ctx, dir)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
		cellOpts = append(cellOpts, session.WithTokenStore(store))
	}
	a.cell = session.NewCell(cellOpts...)

	a.gw = gateway.New(a.cell,
		gateway.WithBaseURL(baseURL),
		gateway.WithTimeout(c.RequestTimeout),
		gateway.WithLogger(a.log),
	)

	a.auth = services.NewAuthService(a.gw, vault.New(dir, vault.WithLogger(a.log)))
	a.books = services.NewBookService(a.gw)

	a.gate = command.NewGate()
	a.registerCommands()

	return a, nil
}

// openTokenStore keys the persisted credential by the server the gateway
// currently talks to. The gateway is created right after, before any
// session transition can reach the store.
func (a *App) openTokenStore(ctx context.Context, dir string) (session.TokenStore, error) {
	server := func() string { return a.gw.BaseURL() }

	switch a.config.TokenStore {
	case tokenstore.KindSQLite:
		db, err := localdb.Open(ctx, filepath.Join(dir, localdb.FileName))
		if err != nil {
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return tokenstore.NewSQLite(metadata.NewSQLiteRepository(db), server), nil
	case tokenstore.KindKeyring:
		return tokenstore.NewKeyring(server), nil
	default:
		return nil, fmt.Errorf("%w: %q", tokenstore.ErrUnknownKind, a.config.TokenStore)
	}
}

// Run starts the REPL and blocks until the user quits or ctx is done.
// The calling goroutine becomes the UI loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	detachSession := a.gate.Attach(a.cell)
	defer detachSession()
	unsubscribe := a.gate.Subscribe(a.onAvailability)
	defer unsubscribe()

	a.loop.Dispatch(func() { a.start(ctx) })

	go runREPL(ctx, a, a.reader)

	err := a.loop.Run(ctx)
	cancel()
	_ = a.group.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases local resources. The App must not be used afterwards.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) start(ctx context.Context) {
	a.println("Welcome to libcat (type 'help' for commands)")
	a.println("Server:", a.gw.BaseURL())

	if s := a.cell.Restore(ctx); s.Authenticated {
		a.println(a.resumed(ctx, s))
	}
	a.refreshRemembered(ctx)
}

// savedAter is implemented by token stores that know when the credential
// was written.
type savedAter interface {
	SavedAt(ctx context.Context) (time.Time, bool, error)
}

func (a *App) resumed(ctx context.Context, s session.Session) string {
	msg := "Resumed session of " + s.Subject
	st, ok := a.store.(savedAter)
	if !ok {
		return msg
	}
	at, ok, err := st.SavedAt(ctx)
	if err != nil {
		a.log.Warn(ctx, "reading session timestamp", "error", err)
		return msg
	}
	if ok {
		msg += ", saved " + at.Local().Format(time.DateTime)
	}
	return msg
}

func (a *App) onAvailability(s command.Snapshot) {
	a.available = s
}

func (a *App) status() string {
	if s := a.cell.Session(); s.Authenticated {
		return "(" + s.Subject + ")"
	}
	return "(anonymous)"
}

// prompt, exec and quit are called by the REPL goroutine and hop onto the loop.

func (a *App) prompt(ctx context.Context) {
	_ = a.loop.Call(ctx, func() {
		fmt.Fprintf(a.out, "libcat %s> ", a.status())
	})
}

func (a *App) exec(ctx context.Context, name string, args []string) {
	_ = a.loop.Call(ctx, func() { a.handle(ctx, name, args) })
}

// quit waits for requests still in flight so each of them reports its
// outcome, then stops the loop.
func (a *App) quit(ctx context.Context) {
	_ = a.loop.Call(ctx, func() {
		if a.pending > 0 {
			a.println("Waiting for pending requests...")
		}
	})
	_ = a.group.Wait()
	_ = a.loop.Call(ctx, func() {
		a.println("Bye!")
		a.loop.Stop()
	})
}

// background runs op off the loop. done runs back on the loop with op's
// result and is where the outcome gets printed.
func (a *App) background(ctx context.Context, op func(context.Context) error, done func(error)) {
	a.pending++
	a.group.Go(func() error {
		err := op(ctx)
		a.loop.Dispatch(func() {
			a.pending--
			done(err)
		})
		return nil
	})
}

func (a *App) refreshRemembered(ctx context.Context) {
	a.remembered = ""
	if s, ok := a.auth.Remembered(ctx); ok {
		a.remembered = s.Username
	}
	a.gate.Invalidate()
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
