package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/TahaGorme/slashy/account"
	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/game"
)

// solveInventory scrapes one inventory page and pages forward. After the last
// page it computes what autobuy still needs and heads to the shop.
func (s *session) solveInventory(ctx context.Context, msg *dank.Message, u game.InventoryPage) error {
	// Stay busy across pages; the scheduler resumes after the last one.
	s.state.Hold()
	for _, it := range u.Items {
		s.state.SetItem(it.Name, it.Quantity)
	}
	s.log.InfoContext(ctx, "inventory", slog.Int("page", u.Page), slog.Int("of", u.Total))
	if u.Page < u.Total {
		if err := s.click(ctx, msg, dank.Control{Row: 1, Col: 2}); err != nil {
			s.state.Release()
			return err
		}
		return nil
	}
	s.state.Release()
	var targets []account.Purchase
	for _, b := range s.bot.cfg.Autobuy {
		targets = append(targets, account.Purchase{Name: b.Item, Quantity: b.Quantity})
	}
	want := s.state.Shortfalls(targets)
	s.state.SetPending(want)
	for _, p := range want {
		s.log.InfoContext(ctx, "restocking", slog.String("item", p.Name), slog.Int("quantity", p.Quantity))
	}
	if len(want) > 0 {
		s.queue.Enqueue("shop view")
	}
	return nil
}

// solveShop buys each pending item it can find on this shop page, and pages
// forward when something is missing.
func (s *session) solveShop(ctx context.Context, msg *dank.Message, u game.ShopPage) error {
	pending := s.state.Pending()
	if len(pending) == 0 {
		return nil
	}
	for _, item := range pending {
		row, col, ok := findBuyButton(msg, item.Name)
		if !ok {
			if u.Page < u.Total {
				s.log.InfoContext(ctx, "shop page", slog.Int("page", u.Page), slog.Int("of", u.Total))
				return s.click(ctx, msg, dank.Control{Row: 3, Col: 1})
			}
			continue
		}
		s.state.SetBuyQuantity(item.Quantity)
		if err := s.click(ctx, msg, dank.Control{Row: row, Col: col}); err != nil {
			return err
		}
	}
	return nil
}

// findBuyButton looks for an item's buy button on the two product rows.
func findBuyButton(msg *dank.Message, item string) (row, col int, ok bool) {
	want := game.Squash(item)
	for _, row := range []int{1, 2} {
		if len(msg.Rows) <= row {
			continue
		}
		for i, b := range msg.Rows[row].Buttons {
			if strings.Contains(game.Squash(b.Label), want) {
				return row, i, true
			}
		}
	}
	return 0, 0, false
}
