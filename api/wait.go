package api

import "fmt"

type waitKind int

const (
	waitNone waitKind = iota
	waitForever
	waitUpTo
)

// Wait tells CreateQuestion how long to wait for a question to complete.
// The zero value is NoWait.
type Wait struct {
	kind  waitKind
	polls int
}

// NoWait returns the question as created, without polling.
var NoWait = Wait{}

// WaitForever polls until the question completes.
func WaitForever() Wait {
	return Wait{kind: waitForever}
}

// WaitUpTo polls at most n times. Non-positive n is NoWait.
func WaitUpTo(n int) Wait {
	if n <= 0 {
		return NoWait
	}
	return Wait{kind: waitUpTo, polls: n}
}

// allows reports whether another poll is permitted after done polls
func (w Wait) allows(done int) bool {
	switch w.kind {
	case waitForever:
		return true
	case waitUpTo:
		return done < w.polls
	default:
		return false
	}
}

// String returns a readable form of the wait policy
func (w Wait) String() string {
	switch w.kind {
	case waitForever:
		return "forever"
	case waitUpTo:
		return fmt.Sprintf("up to %d polls", w.polls)
	default:
		return "no wait"
	}
}
