package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/uiloop"
	"github.com/dmitrijs2005/libcat/internal/logging"
)

// Session is the derived authentication state. The zero value is logged out.
type Session struct {
	Authenticated bool
	Subject       string
	ExpiresAt     time.Time
}

// Observer is called once per SetCredential with the resulting Session.
// An observer may call back into the cell; a transition it triggers is
// published after the current batch of observers has run.
type Observer func(Session)

// TokenStore persists the credential across restarts. Only the Cell writes
// to it.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

type subscription struct {
	id uint64
	fn Observer
}

// Cell is the single owner of the credential and its Session.
type Cell struct {
	// seq orders transitions. Each transition queues its notification batch
	// while holding seq, so batches are published in transition order.
	seq sync.Mutex

	notifyMu sync.Mutex
	batches  []func()
	draining bool

	mu         sync.RWMutex
	credential string
	session    Session
	observers  []subscription
	nextID     uint64

	dispatcher uiloop.Dispatcher
	store      TokenStore
	log        logging.Logger
}

type Option func(*Cell)

// WithDispatcher sets where observers run. Defaults to uiloop.Inline.
func WithDispatcher(d uiloop.Dispatcher) Option {
	return func(c *Cell) { c.dispatcher = d }
}

// WithTokenStore makes valid credentials durable and clears the durable copy
// on logout or shape failure.
func WithTokenStore(s TokenStore) Option {
	return func(c *Cell) { c.store = s }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Cell) { c.log = l }
}

func NewCell(opts ...Option) *Cell {
	c := &Cell{
		dispatcher: uiloop.Inline{},
		log:        logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns the current derived state.
func (c *Cell) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Credential returns the bearer value to attach to requests, if any.
func (c *Cell) Credential() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential, c.credential != ""
}

// SetCredential replaces the credential. An empty or whitespace-only token
// logs out. A token that fails shape validation also logs out and is not
// retained. The resulting Session is returned and published exactly once.
func (c *Cell) SetCredential(ctx context.Context, token string) Session {
	next := c.transition(ctx, token)
	c.publish()
	return next
}

func (c *Cell) transition(ctx context.Context, token string) Session {
	c.seq.Lock()
	defer c.seq.Unlock()

	token = strings.TrimSpace(token)

	var next Session
	if token != "" {
		claims, err := Decode(token)
		if err != nil {
			c.log.Warn(ctx, "discarding credential", "error", err)
			token = ""
		} else {
			next = Session{Authenticated: true, Subject: claims.Subject, ExpiresAt: claims.ExpiresAt}
		}
	}

	c.mu.Lock()
	prev := c.session
	c.credential = token
	c.session = next
	observers := make([]Observer, 0, len(c.observers))
	for _, s := range c.observers {
		observers = append(observers, s.fn)
	}
	c.mu.Unlock()

	c.persist(ctx, token)

	if prev.Authenticated != next.Authenticated || prev.Subject != next.Subject {
		c.log.Info(ctx, "session changed", "authenticated", next.Authenticated, "subject", next.Subject)
	}

	c.notifyMu.Lock()
	c.batches = append(c.batches, func() {
		for _, fn := range observers {
			fn(next)
		}
	})
	c.notifyMu.Unlock()

	return next
}

// publish hands queued batches to the dispatcher in order. A call made while
// another publish is running (an observer logging out under the Inline
// dispatcher, say) leaves its batch to the running one.
func (c *Cell) publish() {
	c.notifyMu.Lock()
	if c.draining {
		c.notifyMu.Unlock()
		return
	}
	c.draining = true
	for len(c.batches) > 0 {
		batch := c.batches[0]
		c.batches = c.batches[1:]
		c.notifyMu.Unlock()
		c.dispatcher.Dispatch(batch)
		c.notifyMu.Lock()
	}
	c.draining = false
	c.notifyMu.Unlock()
}

func (c *Cell) persist(ctx context.Context, token string) {
	if c.store == nil {
		return
	}
	if token == "" {
		if err := c.store.Delete(ctx); err != nil {
			c.log.Error(ctx, "clearing persisted credential", "error", err)
		}
		return
	}
	if err := c.store.Save(ctx, token); err != nil {
		c.log.Error(ctx, "persisting credential", "error", err)
	}
}

// Restore seeds the cell from its TokenStore. The restored credential is
// only shape-checked; the server gets to reject it on the next request.
func (c *Cell) Restore(ctx context.Context) Session {
	if c.store == nil {
		return c.Session()
	}
	token, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn(ctx, "loading persisted credential", "error", err)
		token = ""
	}
	return c.SetCredential(ctx, token)
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cell) Subscribe(fn Observer) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, subscription{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.observers {
				if s.id == id {
					c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
					return
				}
			}
		})
	}
}
