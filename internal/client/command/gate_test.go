package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/libcat/internal/client/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

type counter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *counter) action(name string) Action {
	return func(context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.n == nil {
			c.n = map[string]int{}
		}
		c.n[name]++
		return nil
	}
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

func TestGate_SessionDrivesAvailability(t *testing.T) {
	ctx := context.Background()
	cell := session.NewCell()
	g := NewGate()
	var cnt counter

	g.Register(Descriptor{Name: "login", Predicate: Anonymous(cell), Action: cnt.action("login")})
	g.Register(Descriptor{Name: "add", Predicate: Authenticated(cell), Action: cnt.action("add")})
	g.Register(Descriptor{Name: "list", Action: cnt.action("list")})
	g.Attach(cell)

	assert.Equal(t, Snapshot{"login": true, "add": false, "list": true}, g.Snapshot())

	var snaps []Snapshot
	g.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	cell.SetCredential(ctx, token(t, "alice"))
	require.Len(t, snaps, 1)
	assert.Equal(t, Snapshot{"login": false, "add": true, "list": true}, snaps[0])
	assert.Equal(t, snaps[0], g.Snapshot())

	ran, err := g.Execute(ctx, "login")
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 0, cnt.get("login"))

	ran, err = g.Execute(ctx, "add")
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, cnt.get("add"))

	cell.SetCredential(ctx, "")
	require.Len(t, snaps, 2)
	assert.Equal(t, Snapshot{"login": true, "add": false, "list": true}, snaps[1])

	ran, err = g.Execute(ctx, "add")
	require.NoError(t, err)
	assert.False(t, ran, "disabled command is a no-op")
	assert.Equal(t, 1, cnt.get("add"))
}

func TestGate_InvalidTokenKeepsCommandsDisabled(t *testing.T) {
	cell := session.NewCell()
	g := NewGate()
	g.Register(Descriptor{Name: "add", Predicate: Authenticated(cell)})
	g.Attach(cell)

	var snaps []Snapshot
	g.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	cell.SetCredential(context.Background(), "not-a-token")

	require.Len(t, snaps, 1, "one evaluation per notification")
	assert.False(t, snaps[0]["add"])
}

func TestGate_LocalPredicatesAreANDed(t *testing.T) {
	ctx := context.Background()
	cell := session.NewCell()
	g := NewGate()
	var title, author string
	var cnt counter

	g.Register(Descriptor{
		Name:      "add",
		Predicate: All(Authenticated(cell), NotEmpty(&title, &author)),
		Action:    cnt.action("add"),
	})
	g.Attach(cell)

	cell.SetCredential(ctx, token(t, "alice"))
	assert.False(t, g.Snapshot()["add"], "fields empty")

	title, author = "Dune", "  "
	assert.False(t, g.Invalidate()["add"])

	author = "Herbert"
	assert.True(t, g.Invalidate()["add"])

	cell.SetCredential(ctx, "")
	assert.False(t, g.Snapshot()["add"], "session predicate gates local input")
	ran, _ := g.Execute(ctx, "add")
	assert.False(t, ran)
}

func TestGate_ExecuteChecksPredicateAtCallTime(t *testing.T) {
	g := NewGate()
	allowed := true
	var cnt counter
	g.Register(Descriptor{Name: "x", Predicate: func() bool { return allowed }, Action: cnt.action("x")})

	// stale snapshot says enabled, predicate now says no
	allowed = false
	ran, err := g.Execute(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, ran)
	assert.True(t, g.Snapshot()["x"])
}

func TestGate_ExecuteErrors(t *testing.T) {
	g := NewGate()
	boom := errors.New("boom")
	g.Register(Descriptor{Name: "fail", Action: func(context.Context) error { return boom }})

	ran, err := g.Execute(context.Background(), "fail")
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)

	_, err = g.Execute(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestGate_RegisterPanics(t *testing.T) {
	g := NewGate()
	g.Register(Descriptor{Name: "a"})
	assert.Panics(t, func() { g.Register(Descriptor{Name: "a"}) })
	assert.Panics(t, func() { g.Register(Descriptor{}) })
}

func TestGate_OrderAndLookup(t *testing.T) {
	g := NewGate()
	for _, n := range []string{"login", "list", "help"} {
		g.Register(Descriptor{Name: n, Usage: n + " usage", Help: n + " help"})
	}

	var names []string
	for _, c := range g.Commands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"login", "list", "help"}, names)

	c, ok := g.Lookup("list")
	require.True(t, ok)
	assert.Equal(t, "list usage", c.Usage())
	assert.Equal(t, "list help", c.Help())
}

func TestGate_DetachAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	cell := session.NewCell()
	g := NewGate()
	g.Register(Descriptor{Name: "add", Predicate: Authenticated(cell)})
	detach := g.Attach(cell)

	calls := 0
	unsub := g.Subscribe(func(Snapshot) { calls++ })

	cell.SetCredential(ctx, token(t, "a"))
	assert.Equal(t, 1, calls)

	unsub()
	cell.SetCredential(ctx, "")
	assert.Equal(t, 1, calls)

	detach()
	cell.SetCredential(ctx, token(t, "a"))
	assert.False(t, g.Snapshot()["add"], "detached gate no longer follows the session")
}

func TestLoginFlag_RejectsRepeatedSubmit(t *testing.T) {
	ctx := context.Background()
	cell := session.NewCell()
	g := NewGate()
	var loggingIn Flag
	started := 0
	release := make(chan struct{})
	done := make(chan struct{})

	g.Register(Descriptor{
		Name:      "login",
		Predicate: All(Anonymous(cell), Not(&loggingIn)),
		Action: func(ctx context.Context) error {
			if !loggingIn.TryAcquire() {
				return nil
			}
			started++
			g.Invalidate()
			go func() {
				<-release
				loggingIn.Release()
				close(done)
			}()
			return nil
		},
	})

	ran, err := g.Execute(ctx, "login")
	require.NoError(t, err)
	require.True(t, ran)
	assert.False(t, g.Snapshot()["login"])

	for i := 0; i < 3; i++ {
		ran, err = g.Execute(ctx, "login")
		require.NoError(t, err)
		assert.False(t, ran, "submit while logging in is rejected")
	}
	assert.Equal(t, 1, started)

	close(release)
	<-done
	assert.True(t, g.Invalidate()["login"])
}

func TestPredicates(t *testing.T) {
	s := "x"
	blank := " "
	assert.True(t, NotEmpty(&s)())
	assert.False(t, NotEmpty(&s, &blank)())
	assert.False(t, NotEmpty(nil)())
	assert.True(t, All()())

	var f Flag
	assert.True(t, Not(&f)())
	assert.True(t, f.TryAcquire())
	assert.False(t, f.TryAcquire())
	assert.False(t, Not(&f)())
	f.Release()
	assert.False(t, f.IsSet())
}
