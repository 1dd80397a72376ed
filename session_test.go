package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/TahaGorme/slashy/account"
	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/game"
	"github.com/TahaGorme/slashy/predict"
)

func TestDispatch(t *testing.T) {
	s, fc := testSession(&Config{Cooldowns: map[string]float64{"adventure": 60}})
	s.queue.Enqueue("beg")
	before := time.Now()
	if err := s.dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !cmp.Equal(fc.commands, []string{"beg"}) {
		t.Errorf("wrong commands: %v", fc.commands)
	}
	if s.queue.Len() != 0 {
		t.Errorf("command still queued: %v", s.queue.Names())
	}
	until := s.queue.CooldownUntil("beg")
	if until.Before(before.Add(2500*time.Millisecond)) || until.After(time.Now().Add(2500*time.Millisecond)) {
		t.Errorf("wrong default cooldown: %v", until)
	}
	if got := s.state.LastCommand().Name; got != "beg" {
		t.Errorf("command not recorded: %q", got)
	}
}

func TestDispatchConfiguredCooldown(t *testing.T) {
	s, _ := testSession(&Config{Cooldowns: map[string]float64{"adventure": 60}})
	s.queue.Enqueue("adventure")
	before := time.Now()
	if err := s.dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	until := s.queue.CooldownUntil("adventure")
	if until.Before(before.Add(time.Minute)) {
		t.Errorf("configured cooldown not applied: %v", until)
	}
}

func TestDispatchBusy(t *testing.T) {
	s, fc := testSession(&Config{})
	s.queue.Enqueue("beg")
	s.state.Hold()
	if err := s.dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(fc.commands) != 0 {
		t.Errorf("dispatched while busy: %v", fc.commands)
	}
	if s.queue.Len() != 1 {
		t.Error("queue changed while busy")
	}
}

func TestDispatchBlockedDuringMinigame(t *testing.T) {
	s, fc := testSession(&Config{})
	s.queue.Enqueue("postmemes")
	s.state.Fishing.Enter()
	defer s.state.Fishing.Leave()
	if err := s.dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(fc.commands) != 0 {
		t.Errorf("dispatched a blocking command mid-minigame: %v", fc.commands)
	}
}

func TestDispatchFailure(t *testing.T) {
	s, fc := testSession(&Config{})
	fc.err = errors.New("interaction rejected")
	s.queue.Enqueue("beg")
	if err := s.dispatch(context.Background()); err == nil {
		t.Fatal("no error from failed send")
	}
	if until := s.queue.CooldownUntil("beg"); !until.IsZero() {
		t.Errorf("failed send started a cooldown: %v", until)
	}
	if got := s.state.LastCommand().Name; got != "" {
		t.Errorf("failed send recorded: %q", got)
	}
}

// panicClient fails by panicking instead of returning errors.
type panicClient struct{ *fakeClient }

func (panicClient) SendCommand(ctx context.Context, name string, args []string) error {
	panic("wire desync")
}

func TestDispatchRecovers(t *testing.T) {
	s, fc := testSession(&Config{})
	s.client = panicClient{fc}
	s.queue.Enqueue("beg")
	err := s.dispatch(context.Background())
	if err == nil {
		t.Fatal("no error from panicking send")
	}
	if s.state.Busy() {
		t.Error("busy after recovered dispatch")
	}
	s.client = fc
	s.queue.Enqueue("beg")
	if err := s.dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed after recovery: %v", err)
	}
	if !cmp.Equal(fc.commands, []string{"beg"}) {
		t.Errorf("scheduler stalled after panic: %v", fc.commands)
	}
}

func TestWorkerRecovers(t *testing.T) {
	b := New(&Config{}, newMetrics())
	ctx := context.Background()
	b.enqueue(ctx, func(context.Context) { panic("bad handler") })
	done := make(chan struct{})
	b.enqueue(ctx, func(context.Context) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("work after a panic never ran")
	}
}

func TestSolveInventoryPaging(t *testing.T) {
	cfg := &Config{Autobuy: []BuyCfg{{Item: "rifle", Quantity: 10}}}
	s, fc := testSession(cfg)
	first := game.InventoryPage{
		Items: []game.Item{{Name: "shovel", Quantity: 2}},
		Page:  1,
		Total: 2,
	}
	if err := s.solveInventory(context.Background(), &dank.Message{}, first); err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if !s.state.Busy() {
		t.Error("not busy between pages")
	}
	want := []dank.Control{{Row: 1, Col: 2}}
	if !cmp.Equal(fc.clicks, want) {
		t.Errorf("wrong page click: %v", fc.clicks)
	}
	last := game.InventoryPage{
		Items: []game.Item{{Name: "hunting rifle", Quantity: 3}},
		Page:  2,
		Total: 2,
	}
	if err := s.solveInventory(context.Background(), &dank.Message{}, last); err != nil {
		t.Fatalf("last page failed: %v", err)
	}
	if s.state.Busy() {
		t.Error("busy after last page")
	}
	pending := s.state.Pending()
	if len(pending) != 1 || pending[0].Name != "rifle" || pending[0].Quantity != 7 {
		t.Errorf("wrong pending purchases: %v", pending)
	}
	if !s.queue.Contains("shop view") {
		t.Error("shop view not queued")
	}
}

func TestSolveInventoryClickFailure(t *testing.T) {
	s, fc := testSession(&Config{})
	fc.err = errors.New("interaction rejected")
	u := game.InventoryPage{Page: 1, Total: 2}
	if err := s.solveInventory(context.Background(), &dank.Message{}, u); err == nil {
		t.Fatal("no error from failed page click")
	}
	if s.state.Busy() {
		t.Error("busy held after failed page click")
	}
	fc.err = nil
	fc.clicks = nil
	s.queue.Enqueue("beg")
	if err := s.dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !cmp.Equal(fc.commands, []string{"beg"}) {
		t.Errorf("scheduler stalled after inventory failure: %v", fc.commands)
	}
}

func TestSolveShop(t *testing.T) {
	msg := &dank.Message{
		Rows: []dank.Row{
			{Buttons: []dank.Button{{Label: "Prev"}}},
			{Buttons: []dank.Button{{Label: "Fishing Bait"}, {Label: "Hunting Rifle"}}},
			{Buttons: []dank.Button{{Label: "Shovel"}}},
			{Buttons: []dank.Button{{Label: "Back"}, {Label: "Next"}}},
		},
	}
	t.Run("buy", func(t *testing.T) {
		s, fc := testSession(&Config{})
		s.state.SetPending([]account.Purchase{{Name: "rifle", Quantity: 7}})
		if err := s.solveShop(context.Background(), msg, game.ShopPage{Page: 1, Total: 3}); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		want := []dank.Control{{Row: 1, Col: 1}}
		if !cmp.Equal(fc.clicks, want) {
			t.Errorf("wrong clicks: want %v, got %v", want, fc.clicks)
		}
		if got := s.state.BuyQuantity(); got != 7 {
			t.Errorf("wrong buy quantity: %d", got)
		}
	})
	t.Run("page", func(t *testing.T) {
		s, fc := testSession(&Config{})
		s.state.SetPending([]account.Purchase{{Name: "odd exotic fish", Quantity: 1}})
		if err := s.solveShop(context.Background(), msg, game.ShopPage{Page: 1, Total: 3}); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		want := []dank.Control{{Row: 3, Col: 1}}
		if !cmp.Equal(fc.clicks, want) {
			t.Errorf("wrong clicks: want %v, got %v", want, fc.clicks)
		}
	})
	t.Run("idle", func(t *testing.T) {
		s, fc := testSession(&Config{})
		if err := s.solveShop(context.Background(), msg, game.ShopPage{Page: 1, Total: 3}); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		if len(fc.clicks) != 0 {
			t.Errorf("clicked with nothing pending: %v", fc.clicks)
		}
	})
}

func TestSolveAdventurePrompt(t *testing.T) {
	msg := &dank.Message{
		Rows: []dank.Row{
			{Buttons: []dank.Button{{Label: "Climb"}, {Label: "Walk away"}}},
			{Buttons: []dank.Button{{Label: "Back"}, {Label: "Continue"}}},
		},
	}
	t.Run("table", func(t *testing.T) {
		cfg := &Config{Adventure: AdventureCfg{Responses: map[string]string{"strange wall": "climb"}}}
		s, fc := testSession(cfg)
		u := game.AdventurePrompt{Desc: "You found a strange wall.", HasSecondRow: true}
		if err := s.solveAdventurePrompt(context.Background(), msg, u); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		want := []dank.Control{{Row: 0, Col: 0}, {Row: 1, Col: 1}}
		if !cmp.Equal(fc.clicks, want) {
			t.Errorf("wrong clicks: want %v, got %v", want, fc.clicks)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		s, fc := testSession(&Config{})
		u := game.AdventurePrompt{Desc: "A total mystery.", HasSecondRow: true}
		if err := s.solveAdventurePrompt(context.Background(), msg, u); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		want := []dank.Control{{Row: 1, Col: 1}}
		if !cmp.Equal(fc.clicks, want) {
			t.Errorf("wrong clicks: want %v, got %v", want, fc.clicks)
		}
	})
	t.Run("no-confirm-row", func(t *testing.T) {
		s, fc := testSession(&Config{})
		u := game.AdventurePrompt{Desc: "Keep going?", HasSecondRow: false}
		if err := s.solveAdventurePrompt(context.Background(), msg, u); err != nil {
			t.Fatalf("solve failed: %v", err)
		}
		want := []dank.Control{{Row: 0, Col: 1}}
		if !cmp.Equal(fc.clicks, want) {
			t.Errorf("wrong clicks: want %v, got %v", want, fc.clicks)
		}
	})
}

func TestSolveAdventureChoose(t *testing.T) {
	msg := &dank.Message{
		Rows: []dank.Row{
			{Menu: &dank.Menu{CustomID: "dest", Options: []dank.Option{{Label: "West", Value: "west"}}}},
			{Buttons: []dank.Button{{Label: "Start"}}},
		},
	}
	s, fc := testSession(&Config{})
	if err := s.solveAdventureChoose(context.Background(), msg, game.AdventureChoose{}); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !cmp.Equal(fc.selects[0], []string{"west"}) {
		t.Errorf("wrong destination: %v", fc.selects[0])
	}
	want := []dank.Control{{Row: 1, Col: 0}}
	if !cmp.Equal(fc.clicks, want) {
		t.Errorf("wrong clicks: %v", fc.clicks)
	}
}

func TestSolveFishingGridFailsafe(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	}))
	defer img.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"grid_positions":[
			{"grid_x":1,"grid_y":2,"class":"Hand"},
			{"grid_x":3,"grid_y":0,"class":"Fishing Spot"}
		]}`))
	}))
	defer srv.Close()
	s, fc := testSession(&Config{Fishing: FishingCfg{Enabled: true}})
	s.bot.predict = &predict.Client{URL: srv.URL}
	s.bot.moves = game.Moves{"9,9-null": {"up"}}
	msg := &dank.Message{Rows: []dank.Row{{Buttons: []dank.Button{
		{Label: "⬅"}, {Label: "⬆"}, {Label: "🎣"}, {Label: "⬇"}, {Label: "➡"},
	}}}}
	u := game.FishingGrid{Image: img.URL}
	if err := s.solveFishingGrid(context.Background(), msg, u); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	// Unknown board: dismiss with the fifth control, then the rod button.
	want := []dank.Control{{Row: 0, Col: 4}, {Row: 0, Col: 2}}
	if !cmp.Equal(fc.clicks, want) {
		t.Errorf("wrong failsafe clicks: want %v, got %v", want, fc.clicks)
	}
	if s.state.Busy() {
		t.Error("busy after the board resolved")
	}
}

func TestSolveFishingGridMoves(t *testing.T) {
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	}))
	defer img.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"grid_positions":[
			{"grid_x":1,"grid_y":2,"class":"Hand"},
			{"grid_x":3,"grid_y":0,"class":"Fishing Spot"},
			{"grid_x":4,"grid_y":2,"class":"Sea Bomb"}
		]}`))
	}))
	defer srv.Close()
	s, fc := testSession(&Config{Fishing: FishingCfg{Enabled: true}})
	s.bot.predict = &predict.Client{URL: srv.URL}
	s.bot.moves = game.Moves{"0,3-2,4": {"up", "right", "2"}}
	u := game.FishingGrid{Image: img.URL}
	if err := s.solveFishingGrid(context.Background(), &dank.Message{}, u); err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	want := []dank.Control{{Row: 0, Col: 1}, {Row: 0, Col: 4}, {Row: 0, Col: 2}}
	if !cmp.Equal(fc.clicks, want) {
		t.Errorf("wrong move clicks: want %v, got %v", want, fc.clicks)
	}
}

func TestHandleModal(t *testing.T) {
	s, fc := testSession(&Config{})
	s.state.SetBuyQuantity(7)
	s.handleModal(context.Background(), &dank.Modal{Title: "Dank Memer Shop", InputID: "quantity"})
	if !cmp.Equal(fc.submits, []string{"7"}) {
		t.Errorf("wrong submission: %v", fc.submits)
	}
	s.handleModal(context.Background(), &dank.Modal{Title: "Something Else"})
	if len(fc.submits) != 1 {
		t.Errorf("answered a foreign modal: %v", fc.submits)
	}
}
