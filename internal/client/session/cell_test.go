package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/uiloop"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records every call made by the cell.
type fakeStore struct {
	mu      sync.Mutex
	token   string
	saves   []string
	deletes int

	loadErr error
	saveErr error
}

func (f *fakeStore) Load(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.loadErr
}

func (f *fakeStore) Save(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, token)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.token = token
	return nil
}

func (f *fakeStore) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	f.token = ""
	return nil
}

// queueDispatcher holds batches until flushed, like a UI loop that has not
// had its turn yet.
type queueDispatcher struct {
	pending []func()
}

func (q *queueDispatcher) Dispatch(fn func()) { q.pending = append(q.pending, fn) }

func (q *queueDispatcher) flush() {
	p := q.pending
	q.pending = nil
	for _, fn := range p {
		fn()
	}
}

func recorder(c *Cell) *[]Session {
	var got []Session
	c.Subscribe(func(s Session) { got = append(got, s) })
	return &got
}

func TestCell_ZeroValueIsLoggedOut(t *testing.T) {
	c := NewCell()
	assert.Equal(t, Session{}, c.Session())
	_, ok := c.Credential()
	assert.False(t, ok)
}

func TestCell_ValidCredentialAuthenticates(t *testing.T) {
	store := &fakeStore{}
	c := NewCell(WithTokenStore(store))
	got := recorder(c)
	tok := signedToken(t, jwt.MapClaims{"sub": "alice"})

	s := c.SetCredential(context.Background(), tok)

	assert.True(t, s.Authenticated)
	assert.Equal(t, "alice", s.Subject)
	assert.Equal(t, s, c.Session())
	cred, ok := c.Credential()
	assert.True(t, ok)
	assert.Equal(t, tok, cred)
	assert.Equal(t, []string{tok}, store.saves)
	require.Len(t, *got, 1)
	assert.Equal(t, "alice", (*got)[0].Subject)
}

func TestCell_MalformedCredentialLogsOutAndClears(t *testing.T) {
	for _, bad := range []string{"garbage", "a.b", "a.!!!.c", rawToken(`{"nosub":1}`)} {
		t.Run(bad, func(t *testing.T) {
			store := &fakeStore{}
			c := NewCell(WithTokenStore(store))
			c.SetCredential(context.Background(), signedToken(t, jwt.MapClaims{"sub": "alice"}))
			got := recorder(c)

			s := c.SetCredential(context.Background(), bad)

			assert.False(t, s.Authenticated)
			assert.Empty(t, s.Subject)
			_, ok := c.Credential()
			assert.False(t, ok, "invalid credential must not be retained")
			assert.Equal(t, 1, store.deletes)
			assert.Empty(t, store.token)
			assert.Len(t, *got, 1, "exactly one notification per call")
		})
	}
}

func TestCell_NullCredentialClearsPersistedValue(t *testing.T) {
	store := &fakeStore{token: "previous"}
	c := NewCell(WithTokenStore(store))
	got := recorder(c)

	s := c.SetCredential(context.Background(), "")

	assert.False(t, s.Authenticated)
	assert.Equal(t, 1, store.deletes)
	assert.Empty(t, store.token)
	assert.Len(t, *got, 1)
}

func TestCell_SameTokenTwiceIsIdempotent(t *testing.T) {
	c := NewCell()
	got := recorder(c)
	tok := signedToken(t, jwt.MapClaims{"sub": "alice"})

	first := c.SetCredential(context.Background(), tok)
	second := c.SetCredential(context.Background(), tok)

	assert.Equal(t, first, second)
	require.Len(t, *got, 2, "one notification per call, even without a change")
	assert.Equal(t, (*got)[0], (*got)[1])
}

func TestCell_RepeatedLogoutIsNotAnError(t *testing.T) {
	c := NewCell(WithTokenStore(&fakeStore{}))
	got := recorder(c)

	c.SetCredential(context.Background(), "")
	c.SetCredential(context.Background(), "")

	assert.Len(t, *got, 2)
	for _, s := range *got {
		assert.False(t, s.Authenticated)
	}
}

func TestCell_ObserversRunThroughDispatcher(t *testing.T) {
	q := &queueDispatcher{}
	c := NewCell(WithDispatcher(q))
	got := recorder(c)

	c.SetCredential(context.Background(), signedToken(t, jwt.MapClaims{"sub": "alice"}))
	c.SetCredential(context.Background(), "")

	assert.Empty(t, *got, "observers must not run before the UI loop gets its turn")
	assert.False(t, c.Session().Authenticated, "state itself is updated synchronously")

	q.flush()
	require.Len(t, *got, 2)
	assert.True(t, (*got)[0].Authenticated)
	assert.False(t, (*got)[1].Authenticated)
}

func TestCell_ObserverMayReadSession(t *testing.T) {
	c := NewCell()
	var seen Session
	c.Subscribe(func(Session) { seen = c.Session() })

	c.SetCredential(context.Background(), signedToken(t, jwt.MapClaims{"sub": "alice"}))
	assert.Equal(t, "alice", seen.Subject)
}

func TestCell_ObserverMayLogOutInline(t *testing.T) {
	c := NewCell()
	got := recorder(c)
	c.Subscribe(func(s Session) {
		if s.Authenticated {
			c.SetCredential(context.Background(), "")
		}
	})

	tok := signedToken(t, jwt.MapClaims{"sub": "alice"})
	done := make(chan Session, 1)
	go func() { done <- c.SetCredential(context.Background(), tok) }()

	select {
	case s := <-done:
		assert.True(t, s.Authenticated, "caller sees its own transition")
	case <-time.After(5 * time.Second):
		t.Fatal("SetCredential from an observer deadlocked")
	}

	require.Len(t, *got, 2)
	assert.Equal(t, "alice", (*got)[0].Subject)
	assert.False(t, (*got)[1].Authenticated)
	assert.False(t, c.Session().Authenticated)
}

func TestCell_Unsubscribe(t *testing.T) {
	c := NewCell()
	calls := 0
	unsub := c.Subscribe(func(Session) { calls++ })
	other := recorder(c)

	c.SetCredential(context.Background(), "")
	unsub()
	unsub()
	c.SetCredential(context.Background(), "")

	assert.Equal(t, 1, calls)
	assert.Len(t, *other, 2)
}

func TestCell_PersistFailureDoesNotChangeSession(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	c := NewCell(WithTokenStore(store))

	s := c.SetCredential(context.Background(), signedToken(t, jwt.MapClaims{"sub": "alice"}))
	assert.True(t, s.Authenticated)
}

func TestCell_Restore(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"sub": "alice"})

	t.Run("valid persisted credential", func(t *testing.T) {
		c := NewCell(WithTokenStore(&fakeStore{token: tok}))
		s := c.Restore(context.Background())
		assert.True(t, s.Authenticated)
		assert.Equal(t, "alice", s.Subject)
	})

	t.Run("corrupt persisted credential is dropped", func(t *testing.T) {
		store := &fakeStore{token: "corrupt"}
		c := NewCell(WithTokenStore(store))
		s := c.Restore(context.Background())
		assert.False(t, s.Authenticated)
		assert.Empty(t, store.token)
	})

	t.Run("load error", func(t *testing.T) {
		c := NewCell(WithTokenStore(&fakeStore{loadErr: errors.New("locked")}))
		assert.False(t, c.Restore(context.Background()).Authenticated)
	})

	t.Run("no store", func(t *testing.T) {
		assert.False(t, NewCell().Restore(context.Background()).Authenticated)
	})
}

func TestCell_ConcurrentLogoutsConverge(t *testing.T) {
	loop := uiloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	c := NewCell(WithDispatcher(loop), WithTokenStore(&fakeStore{}))
	c.SetCredential(ctx, signedToken(t, jwt.MapClaims{"sub": "alice"}))

	var notifications int // only touched on the loop
	c.Subscribe(func(Session) { notifications++ })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetCredential(ctx, "")
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, loop.Call(ctx, func() { n = notifications }))
	assert.Equal(t, 10, n)
	assert.False(t, c.Session().Authenticated)
}
