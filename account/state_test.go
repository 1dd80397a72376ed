package account_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/TahaGorme/slashy/account"
	"github.com/TahaGorme/slashy/dank"
)

func TestBusy(t *testing.T) {
	s := account.New(nil)
	release, ok := s.TryHold()
	if !ok {
		t.Fatal("couldn't hold an idle session")
	}
	if _, ok := s.TryHold(); ok {
		t.Error("held a busy session")
	}
	release()
	if s.Busy() {
		t.Error("busy after release")
	}
	if _, ok := s.TryHold(); !ok {
		t.Error("couldn't hold after release")
	}
}

func TestGuards(t *testing.T) {
	s := account.New(nil)
	if s.MinigameActive() {
		t.Error("minigame active on a fresh state")
	}
	if !s.Fishing.Enter() {
		t.Fatal("couldn't enter an open guard")
	}
	if s.Fishing.Enter() {
		t.Error("reentered a held guard")
	}
	if !s.MinigameActive() {
		t.Error("minigame not active while fishing")
	}
	s.Fishing.Leave()
	if s.MinigameActive() {
		t.Error("minigame active after leaving")
	}
}

func TestInventory(t *testing.T) {
	s := account.New(nil)
	s.SetItem("hunting rifle", 3)
	s.SetItem("shovel", 1)
	s.SetItem("hunting rifle", 4)
	if got := s.Held("rifle"); got != 4 {
		t.Errorf("wrong rifle count: want 4, got %d", got)
	}
	if got := s.Held("Shovel"); got != 1 {
		t.Errorf("wrong shovel count: want 1, got %d", got)
	}
	if got := s.Held("mouse"); got != 0 {
		t.Errorf("unheld item counted: %d", got)
	}
}

func TestShortfalls(t *testing.T) {
	s := account.New(nil)
	s.SetItem("hunting rifle", 3)
	s.SetItem("shovel", 10)
	targets := []account.Purchase{
		{Name: "rifle", Quantity: 10},
		{Name: "shovel", Quantity: 5},
		{Name: "mouse", Quantity: 2},
	}
	want := []account.Purchase{
		{Name: "rifle", Quantity: 7},
		{Name: "mouse", Quantity: 2},
	}
	if got := s.Shortfalls(targets); !cmp.Equal(got, want) {
		t.Errorf("wrong shortfalls: %s", cmp.Diff(want, got))
	}
}

func TestReplayRecords(t *testing.T) {
	s := account.New(nil)
	msg := &dank.Message{ID: "1"}
	early := time.Unix(1000, 0)
	late := time.Unix(2000, 0)
	s.RecordCommand("beg", nil, late)
	s.RecordClick(msg, dank.Control{Row: 0, Col: 2}, early)
	if click := s.LastClick(); click.Time.After(s.LastCommand().Time) {
		t.Error("click should not be newer than command")
	}
	s.RecordClick(msg, dank.Control{Row: 1, Col: 1}, late.Add(time.Second))
	click := s.LastClick()
	if !click.Time.After(s.LastCommand().Time) {
		t.Error("click should be newer than command")
	}
	if click.Control != (dank.Control{Row: 1, Col: 1}) {
		t.Errorf("wrong recorded control: %v", click.Control)
	}
}

func TestBucket(t *testing.T) {
	s := account.New(nil)
	s.SetBucket(3, 10)
	cur, max := s.Bucket()
	if cur != 3 || max != 10 {
		t.Errorf("wrong bucket: want 3/10, got %d/%d", cur, max)
	}
}
