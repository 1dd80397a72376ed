package main

import (
	"sync"
	"time"
)

// taskSet tracks named timers so a session can replace or cancel them.
// Scheduling a name that already exists stops the old task first.
type taskSet struct {
	mu    sync.Mutex
	stops map[string]func()
}

func newTaskSet() *taskSet {
	return &taskSet{stops: make(map[string]func())}
}

// After runs fn once after d.
func (t *taskSet) After(name string, d time.Duration, fn func()) {
	timer := time.AfterFunc(d, fn)
	t.put(name, func() { timer.Stop() })
}

// Every runs fn every d until the task is stopped.
func (t *taskSet) Every(name string, d time.Duration, fn func()) {
	done := make(chan struct{})
	go func() {
		tick := time.NewTicker(d)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				fn()
			}
		}
	}()
	var once sync.Once
	t.put(name, func() { once.Do(func() { close(done) }) })
}

// Stop cancels the named task if it is scheduled.
func (t *taskSet) Stop(name string) {
	t.mu.Lock()
	stop := t.stops[name]
	delete(t.stops, name)
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// StopAll cancels every scheduled task.
func (t *taskSet) StopAll() {
	t.mu.Lock()
	stops := t.stops
	t.stops = make(map[string]func())
	t.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

func (t *taskSet) put(name string, stop func()) {
	t.mu.Lock()
	old := t.stops[name]
	t.stops[name] = stop
	t.mu.Unlock()
	if old != nil {
		old()
	}
}
