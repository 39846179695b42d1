// Package guard contains faults raised by third-party module code.
//
// Every call from the host into an AI or AI Interface goes through Guard.Call.
// A panic inside the call is recovered, logged with the target it came from and
// turned into a harmless success, so one misbehaving module cannot take down the
// simulation or stop delivery to other modules. Catching can be switched off to
// let faults crash the process while debugging a module.
package guard

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

var errFault = errors.New("module fault")

// Policy configures fault containment.
type Policy struct {
	// CatchExceptions recovers panics from module calls. When false they propagate.
	CatchExceptions bool

	// MaxConsecutiveFaults opens a per-target breaker after this many faults in a row;
	// while open, calls to the target are skipped and reported as success. 0 disables.
	MaxConsecutiveFaults uint32

	// Cooldown is how long a breaker stays open before one trial call is let through.
	Cooldown time.Duration
}

// DefaultPolicy catches faults and never trips a breaker.
func DefaultPolicy() Policy {
	return Policy{CatchExceptions: true, Cooldown: 30 * time.Second}
}

// Fault describes one contained fault.
type Fault struct {
	Target    string // e.g. "team 3 NullAI 0.1"
	Operation string // e.g. "HandleEvent(UNIT_CREATED)"
	Recovered any
	Stack     []byte
}

func (f Fault) Error() string {
	return fmt.Sprintf("fault in %s during %s: %v", f.Target, f.Operation, f.Recovered)
}

// Guard applies a Policy to module calls. It is safe for concurrent use.
type Guard struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker

	// OnFault, when set, is called for every contained fault.
	OnFault func(Fault)
	// OnSkip, when set, is called for every call skipped by an open breaker.
	OnSkip func(target, operation string)
}

// New creates a guard with the given policy.
func New(policy Policy) *Guard {
	if policy.Cooldown <= 0 {
		policy.Cooldown = DefaultPolicy().Cooldown
	}
	return &Guard{
		policy:   policy,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Policy returns the active policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// Call runs fn on behalf of target. It returns fn's result, or 0 with
// faulted=true when fn panicked and the policy caught it. A call skipped by an
// open breaker returns 0 with faulted=false.
func (g *Guard) Call(target, operation string, fn func() int) (code int, faulted bool) {
	if !g.policy.CatchExceptions {
		return fn(), false
	}

	cb := g.breaker(target)
	if cb == nil {
		return g.contain(target, operation, fn)
	}

	res, err := cb.Execute(func() (interface{}, error) {
		code, faulted := g.contain(target, operation, fn)
		if faulted {
			return 0, errFault
		}
		return code, nil
	})
	switch {
	case err == nil:
		return res.(int), false
	case errors.Is(err, errFault):
		return 0, true
	default:
		// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests
		if g.OnSkip != nil {
			g.OnSkip(target, operation)
		}
		return 0, false
	}
}

// Tripped reports whether the breaker for target is currently open.
func (g *Guard) Tripped(target string) bool {
	g.mu.Lock()
	cb, ok := g.breakers[target]
	g.mu.Unlock()
	return ok && cb.State() == gobreaker.StateOpen
}

// Forget drops the breaker state kept for target.
func (g *Guard) Forget(target string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.breakers, target)
}

func (g *Guard) contain(target, operation string, fn func() int) (code int, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			f := Fault{Target: target, Operation: operation, Recovered: r, Stack: debug.Stack()}
			log.Printf("[Guard] Contained %v", f)
			if g.OnFault != nil {
				g.OnFault(f)
			}
			code, faulted = 0, true
		}
	}()
	return fn(), false
}

func (g *Guard) breaker(target string) *gobreaker.CircuitBreaker {
	if g.policy.MaxConsecutiveFaults == 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[target]; ok {
		return cb
	}

	limit := g.policy.MaxConsecutiveFaults
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        target,
		MaxRequests: 1,
		Timeout:     g.policy.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= limit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[Guard] Breaker for %s changed from %s to %s", name, from, to)
		},
	})
	g.breakers[target] = cb
	return cb
}
