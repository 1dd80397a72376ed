// Package queue implements the per-account command queue and its cooldown
// table. A Queue is owned by exactly one account session; the scheduler loop
// is its only dispatcher.
package queue

import (
	"slices"
	"sync"
	"time"
)

// Command is one pending slash-command invocation. Commands have no identity
// beyond their position in the queue.
type Command struct {
	Name string
	Args []string
}

// Queue is an ordered list of pending commands with per-name cooldowns.
// Insertion order is preserved except for the blocking-command rule applied
// by Pick.
type Queue struct {
	mu       sync.Mutex
	el       []Command
	cool     map[string]time.Time
	blocking map[string]bool
}

// New creates an empty queue. Commands named in blocking are withheld from
// dispatch while a minigame resolution is in progress.
func New(blocking ...string) *Queue {
	q := &Queue{
		cool:     make(map[string]time.Time),
		blocking: make(map[string]bool, len(blocking)),
	}
	for _, name := range blocking {
		q.blocking[name] = true
	}
	return q
}

// Enqueue appends a command unconditionally. Duplicates are permitted; it is
// the caller's business to check Contains first if it cares.
func (q *Queue) Enqueue(name string, args ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.el = append(q.el, Command{Name: name, Args: args})
}

// Contains reports whether any queued command has the given name.
func (q *Queue) Contains(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.ContainsFunc(q.el, func(c Command) bool { return c.Name == name })
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.el)
}

// Ready reports whether name has no cooldown or its cooldown has elapsed.
func (q *Queue) Ready(name string, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready(name, now)
}

func (q *Queue) ready(name string, now time.Time) bool {
	until, ok := q.cool[name]
	return !ok || !now.Before(until)
}

// SetCooldown forbids dispatching name again before until. Entries are
// overwritten freely and never expire except by the passage of time.
func (q *Queue) SetCooldown(name string, until time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cool[name] = until
}

// CooldownUntil returns the earliest next-allowed dispatch time for name.
// The zero time means no cooldown is recorded.
func (q *Queue) CooldownUntil(name string) time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cool[name]
}

// Pick removes and returns the first dispatchable command. While the head
// command is blocking and minigameActive is true, the head is deferred to
// second position so reactive flows aren't starved; deferrals are capped at
// the queue length so a queue of only blocking commands terminates with no
// pick. The scan then takes the first command whose cooldown has elapsed,
// skipping blocked names while minigameActive holds. The relative order of
// unpicked entries is preserved.
func (q *Queue) Pick(now time.Time, minigameActive bool) (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := 0; i < len(q.el); i++ {
		if !minigameActive || !q.blocking[q.el[0].Name] {
			break
		}
		if len(q.el) > 1 {
			q.el[0], q.el[1] = q.el[1], q.el[0]
		}
	}
	for i, c := range q.el {
		if minigameActive && q.blocking[c.Name] {
			continue
		}
		if q.ready(c.Name, now) {
			q.el = slices.Delete(q.el, i, i+1)
			return c, true
		}
	}
	return Command{}, false
}

// Names returns the names of all pending commands in order.
func (q *Queue) Names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, len(q.el))
	for i, c := range q.el {
		names[i] = c.Name
	}
	return names
}
