package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/game"
	"github.com/TahaGorme/slashy/pace"
)

// solveAdventureLoadout accepts the default loadout.
func (s *session) solveAdventureLoadout(ctx context.Context, msg *dank.Message, u game.AdventureLoadout) error {
	s.state.Hold()
	defer s.state.Release()
	return s.click(ctx, msg, dank.Control{Row: 1, Col: 0})
}

// solveAdventureCatch grabs one of the catchable things and confirms. The
// confirm press happens even when the grab fails; the event expires either
// way.
func (s *session) solveAdventureCatch(ctx context.Context, msg *dank.Message, u game.AdventureCatch) error {
	if err := s.click(ctx, msg, dank.Control{Row: 0, Col: pace.N(0, 2)}); err != nil {
		s.log.WarnContext(ctx, "catch press failed", slog.Any("err", err))
	}
	return s.click(ctx, msg, dank.Control{Row: 1, Col: 1})
}

// solveAdventurePrompt answers an adventure decision from the configured
// response table, falling back to confirm when the prompt or its answer is
// unknown.
func (s *session) solveAdventurePrompt(ctx context.Context, msg *dank.Message, u game.AdventurePrompt) error {
	if !u.HasSecondRow {
		return s.click(ctx, msg, dank.Control{Row: 0, Col: 1})
	}
	action := ""
	for key, a := range s.bot.cfg.Adventure.Responses {
		if strings.Contains(u.Desc, key) {
			action = a
			break
		}
	}
	s.log.InfoContext(ctx, "adventure", slog.String("prompt", u.Desc), slog.String("action", action))
	if action == "" {
		return s.click(ctx, msg, dank.Control{Row: 1, Col: 1})
	}
	idx := -1
	if len(msg.Rows) > 0 {
		for i, b := range msg.Rows[0].Buttons {
			if strings.Contains(game.Fold(strings.TrimSpace(b.Label)), game.Fold(strings.TrimSpace(action))) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		s.log.WarnContext(ctx, "no button for action", slog.String("action", action))
		return s.click(ctx, msg, dank.Control{Row: 1, Col: 1})
	}
	if err := s.click(ctx, msg, dank.Control{Row: 0, Col: idx}); err != nil {
		s.log.WarnContext(ctx, "action press failed", slog.Any("err", err))
	}
	return s.click(ctx, msg, dank.Control{Row: 1, Col: 1})
}

// solveAdventureSummary schedules the next adventure once this one ends.
func (s *session) solveAdventureSummary(ctx context.Context, msg *dank.Message, u game.AdventureSummary) error {
	if u.RetryAfter <= 0 {
		return nil
	}
	wait := pace.Jitter(u.RetryAfter, 10*time.Second, 20*time.Second)
	s.log.InfoContext(ctx, "adventure done", slog.Duration("next", wait))
	s.tasks.After("adventure", wait, func() {
		s.queue.Enqueue("adventure")
	})
	return nil
}

// solveAdventureCooldown schedules the next adventure for when the cooldown
// lapses.
func (s *session) solveAdventureCooldown(ctx context.Context, msg *dank.Message, u game.AdventureCooldown) error {
	wait := pace.Jitter(time.Until(u.ReadyAt), time.Second, 2*time.Second)
	if wait < 0 {
		wait = pace.Range{Min: time.Second, Max: 2 * time.Second}.Rand()
	}
	s.tasks.After("adventure", wait, func() {
		s.queue.Enqueue("adventure")
	})
	return nil
}

// solveAdventureChoose picks the configured destination and embarks.
func (s *session) solveAdventureChoose(ctx context.Context, msg *dank.Message, u game.AdventureChoose) error {
	if err := s.selectMenu(ctx, msg, 0, s.bot.cfg.Adventure.Destination); err != nil {
		return err
	}
	if b := msg.Button(dank.Control{Row: 1, Col: 0}); b != nil && !b.Disabled {
		return s.click(ctx, msg, dank.Control{Row: 1, Col: 0})
	}
	return nil
}
