// Package account holds the mutable state machine for one account session.
// A State is owned by exactly one session and discarded with it; nothing is
// persisted.
package account

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/TahaGorme/slashy/dank"
)

// Item is one inventory entry scraped from the game. Names are normalized to
// lowercase; entries are upserted and never removed.
type Item struct {
	Name     string
	Quantity int
}

// Purchase is an outstanding autobuy order.
type Purchase struct {
	Name     string
	Quantity int
}

// Click records a control press for rate-limit replay.
type Click struct {
	Message *dank.Message
	Control dank.Control
	Time    time.Time
}

// CommandRecord records a dispatched command for rate-limit replay.
type CommandRecord struct {
	Name string
	Args []string
	Time time.Time
}

// State is the per-account mutable record. The busy flag gates the scheduler;
// the finer activity guards serialize the fishing flow against itself.
type State struct {
	// Rate limits outbound interactions for the session.
	Rate *rate.Limiter

	busy atomic.Bool
	// Fishing, Selling, and Predicting are reentrancy guards within the
	// fishing flow.
	Fishing    Guard
	Selling    Guard
	Predicting Guard
	// Streaming marks an in-progress stream setup.
	Streaming Guard
	// StreamLive reports whether the keep-alive loop should continue.
	StreamLive atomic.Bool

	lastFish   atomic.Int64
	lastStream atomic.Int64

	mu          sync.Mutex
	bucketCur   int
	bucketMax   int
	inv         map[string]int
	pending     []Purchase
	buyQuantity int
	lastClick   Click
	lastCommand CommandRecord
}

// New creates a session state with the given outbound interaction limiter.
func New(limit *rate.Limiter) *State {
	s := &State{
		Rate: limit,
		inv:  make(map[string]int),
	}
	s.StreamLive.Store(true)
	return s
}

// Guard is a reentrancy flag. Enter claims it, reporting false if it is
// already held; Leave releases it.
type Guard struct {
	held atomic.Bool
}

// Enter claims the guard. It reports false when the guard is already held.
func (g *Guard) Enter() bool {
	return g.held.CompareAndSwap(false, true)
}

// Leave releases the guard.
func (g *Guard) Leave() {
	g.held.Store(false)
}

// Held reports whether the guard is currently claimed.
func (g *Guard) Held() bool {
	return g.held.Load()
}

// TryHold claims the busy flag for one dispatch. It reports false when the
// session is already busy; otherwise the returned func releases the flag and
// must be called.
func (s *State) TryHold() (release func(), ok bool) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { s.busy.Store(false) }, true
}

// Hold marks the session busy unconditionally. Solvers use it around
// interaction bursts so the scheduler stays quiet; Release must follow.
func (s *State) Hold() {
	s.busy.Store(true)
}

// Release clears the busy flag.
func (s *State) Release() {
	s.busy.Store(false)
}

// Busy reports whether the session is mid-action.
func (s *State) Busy() bool {
	return s.busy.Load()
}

// MinigameActive reports whether any fishing-flow guard is held. Blocking
// commands are withheld from dispatch while it is true.
func (s *State) MinigameActive() bool {
	return s.Fishing.Held() || s.Selling.Held() || s.Predicting.Held()
}

// SetBucket records the scraped bucket fill.
func (s *State) SetBucket(cur, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucketCur, s.bucketMax = cur, max
}

// Bucket returns the last scraped bucket fill.
func (s *State) Bucket() (cur, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bucketCur, s.bucketMax
}

// SetItem upserts one inventory entry by normalized name.
func (s *State) SetItem(name string, quantity int) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inv[name] = quantity
}

// Held returns the held quantity of the inventory item whose name contains
// item, caselessly. Unknown items are held at zero.
func (s *State) Held(item string) int {
	item = strings.ToLower(item)
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, q := range s.inv {
		if strings.Contains(name, item) {
			return q
		}
	}
	return 0
}

// Items returns a snapshot of the inventory.
func (s *State) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Item, 0, len(s.inv))
	for name, q := range s.inv {
		items = append(items, Item{Name: name, Quantity: q})
	}
	return items
}

// Shortfalls computes the pending purchases implied by the targets: for each
// target, max(0, target quantity − held quantity), dropping zeros.
func (s *State) Shortfalls(targets []Purchase) []Purchase {
	var out []Purchase
	for _, t := range targets {
		if n := t.Quantity - s.Held(t.Name); n > 0 {
			out = append(out, Purchase{Name: t.Name, Quantity: n})
		}
	}
	return out
}

// SetPending replaces the pending-purchase list.
func (s *State) SetPending(p []Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
}

// Pending returns the outstanding purchases.
func (s *State) Pending() []Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetBuyQuantity records the quantity for the next shop quantity dialog.
func (s *State) SetBuyQuantity(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyQuantity = n
}

// BuyQuantity returns the quantity recorded for the shop quantity dialog.
func (s *State) BuyQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buyQuantity
}

// RecordClick notes the most recent control press.
func (s *State) RecordClick(msg *dank.Message, c dank.Control, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastClick = Click{Message: msg, Control: c, Time: t}
}

// RecordCommand notes the most recent dispatched command.
func (s *State) RecordCommand(name string, args []string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCommand = CommandRecord{Name: name, Args: args, Time: t}
}

// LastClick returns the most recent control press.
func (s *State) LastClick() Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastClick
}

// LastCommand returns the most recent dispatched command.
func (s *State) LastCommand() CommandRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCommand
}

// TouchFish notes fishing activity now.
func (s *State) TouchFish() {
	s.lastFish.Store(time.Now().UnixNano())
}

// SinceFish returns the time since the last fishing activity.
func (s *State) SinceFish() time.Duration {
	last := s.lastFish.Load()
	if last == 0 {
		return 0
	}
	return time.Since(time.Unix(0, last))
}

// TouchStream notes stream keep-alive activity now.
func (s *State) TouchStream() {
	s.lastStream.Store(time.Now().UnixNano())
}

// SinceStream returns the time since the last stream keep-alive.
func (s *State) SinceStream() time.Duration {
	last := s.lastStream.Load()
	if last == 0 {
		return 0
	}
	return time.Since(time.Unix(0, last))
}
