package command

import (
	"strings"
	"sync/atomic"
)

// Always is the predicate of commands without preconditions.
func Always() bool { return true }

// Authenticated holds while cell reports a logged in session.
func Authenticated(cell Sessioner) Predicate {
	return func() bool { return cell.Session().Authenticated }
}

// Anonymous holds while nobody is logged in.
func Anonymous(cell Sessioner) Predicate {
	return func() bool { return !cell.Session().Authenticated }
}

// NotEmpty holds while every referenced field has non-blank content.
func NotEmpty(fields ...*string) Predicate {
	return func() bool {
		for _, f := range fields {
			if f == nil || strings.TrimSpace(*f) == "" {
				return false
			}
		}
		return true
	}
}

// Not holds while f is clear.
func Not(f *Flag) Predicate {
	return func() bool { return !f.IsSet() }
}

// All is the logical AND of ps. All() holds.
func All(ps ...Predicate) Predicate {
	return func() bool {
		for _, p := range ps {
			if !p() {
				return false
			}
		}
		return true
	}
}

// Flag is a busy marker shared between a command's predicate and the
// asynchronous work it starts.
type Flag struct {
	v atomic.Bool
}

// TryAcquire sets the flag and reports whether it was clear.
func (f *Flag) TryAcquire() bool { return f.v.CompareAndSwap(false, true) }

func (f *Flag) Release() { f.v.Store(false) }

func (f *Flag) IsSet() bool { return f.v.Load() }
