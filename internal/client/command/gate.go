// Package command decides which user commands are available.
//
// Every command carries a predicate over session state and local input.
// The Gate re-evaluates all predicates whenever the session changes (or
// when told local input changed) and publishes a Snapshot; invoking a
// command whose predicate is false does nothing.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/libcat/internal/client/session"
)

var ErrUnknownCommand = errors.New("unknown command")

// Predicate reports whether a command may run now. Predicates must be
// cheap and must not block.
type Predicate func() bool

type Action func(ctx context.Context) error

type Descriptor struct {
	Name      string
	Usage     string
	Help      string
	Predicate Predicate
	Action    Action
}

type Command struct {
	desc    Descriptor
	enabled bool
}

func (c *Command) Name() string  { return c.desc.Name }
func (c *Command) Usage() string { return c.desc.Usage }
func (c *Command) Help() string  { return c.desc.Help }

// Snapshot maps command names to their availability.
type Snapshot map[string]bool

// Sessioner is the part of the session cell the gate observes.
type Sessioner interface {
	Session() session.Session
	Subscribe(fn session.Observer) (unsubscribe func())
}

type Gate struct {
	mu       sync.Mutex
	commands map[string]*Command
	order    []*Command
	subs     map[uint64]func(Snapshot)
	nextSub  uint64
}

func NewGate() *Gate {
	return &Gate{
		commands: map[string]*Command{},
		subs:     map[uint64]func(Snapshot){},
	}
}

// Register adds a command and evaluates its predicate once. A nil
// predicate means always available. Registering a duplicate or unnamed
// command panics.
func (g *Gate) Register(d Descriptor) *Command {
	if d.Name == "" {
		panic("command: empty name")
	}
	if d.Predicate == nil {
		d.Predicate = Always
	}

	c := &Command{desc: d, enabled: d.Predicate()}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.commands[d.Name]; dup {
		panic(fmt.Sprintf("command: %q registered twice", d.Name))
	}
	g.commands[d.Name] = c
	g.order = append(g.order, c)
	return c
}

// Attach re-evaluates the gate on every session notification. The
// returned function detaches it.
func (g *Gate) Attach(cell Sessioner) (detach func()) {
	return cell.Subscribe(func(session.Session) { g.Invalidate() })
}

// Invalidate re-evaluates every predicate and publishes the result.
func (g *Gate) Invalidate() Snapshot {
	g.mu.Lock()
	cmds := append([]*Command(nil), g.order...)
	g.mu.Unlock()

	// predicates run outside the lock; they may read session state
	states := make([]bool, len(cmds))
	for i, c := range cmds {
		states[i] = c.desc.Predicate()
	}

	g.mu.Lock()
	snap := make(Snapshot, len(cmds))
	for i, c := range cmds {
		c.enabled = states[i]
		snap[c.desc.Name] = states[i]
	}
	subs := make([]func(Snapshot), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// Subscribe is called with every snapshot published by Invalidate.
func (g *Gate) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	g.mu.Lock()
	g.nextSub++
	id := g.nextSub
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
	}
}

// Snapshot returns the availability computed by the last evaluation.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := make(Snapshot, len(g.order))
	for _, c := range g.order {
		snap[c.desc.Name] = c.enabled
	}
	return snap
}

// Commands lists commands in registration order.
func (g *Gate) Commands() []*Command {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Command(nil), g.order...)
}

// Lookup returns the named command.
func (g *Gate) Lookup(name string) (*Command, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.commands[name]
	return c, ok
}

// Execute runs the named command if its predicate holds right now.
// ran is false (with a nil error) when the command is unavailable.
func (g *Gate) Execute(ctx context.Context, name string) (ran bool, err error) {
	c, ok := g.Lookup(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if !c.desc.Predicate() {
		return false, nil
	}
	if c.desc.Action == nil {
		return true, nil
	}
	return true, c.desc.Action(ctx)
}
