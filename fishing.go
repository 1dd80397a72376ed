package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/fault"
	"github.com/TahaGorme/slashy/game"
	"github.com/TahaGorme/slashy/pace"
)

// noteBucketSpace records the bucket fill scraped from a fishing update.
func (s *session) noteBucketSpace(ctx context.Context, msg *dank.Message, u game.BucketSpace) error {
	s.state.SetBucket(u.Cur, u.Max)
	return nil
}

// solveFishCooldown waits out the fishing cooldown and then either casts
// again or empties the catch into buckets.
func (s *session) solveFishCooldown(ctx context.Context, msg *dank.Message, u game.FishCooldown) error {
	if !s.bot.cfg.Fishing.Enabled {
		return nil
	}
	s.state.TouchFish()
	if !s.state.Predicting.Enter() {
		return nil
	}
	defer s.state.Predicting.Leave()
	wait := pace.Jitter(time.Until(u.ReadyAt), 400*time.Millisecond, 800*time.Millisecond)
	if wait < 0 {
		wait = 0
	}
	cur, max := s.state.Bucket()
	s.log.InfoContext(ctx, "fishing soon",
		slog.Duration("wait", wait),
		slog.Int("bucket", cur),
		slog.Int("cap", max),
	)
	if err := sleep(ctx, wait); err != nil {
		return err
	}
	cur, _ = s.state.Bucket()
	if cur < s.bot.cfg.Fishing.BucketLimit {
		return s.click(ctx, msg, dank.Control{Row: 0, Col: 1})
	}
	s.queue.Enqueue("fish buckets")
	return nil
}

// solveFishingGrid plays the fishing board: predict where everything is,
// then walk the rod onto the spot.
func (s *session) solveFishingGrid(ctx context.Context, msg *dank.Message, u game.FishingGrid) error {
	if !s.bot.cfg.Fishing.Enabled {
		return nil
	}
	if !s.state.Fishing.Enter() {
		return nil
	}
	defer s.state.Fishing.Leave()
	s.state.Hold()
	defer s.state.Release()

	start := time.Now()
	board, err := s.bot.predict.Detect(ctx, u.Image)
	s.bot.metrics.PredictLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if ferr := s.failsafe(ctx, msg); ferr != nil {
			s.log.ErrorContext(ctx, "failsafe failed", slog.Any("err", ferr))
		}
		return err
	}
	set, ok := s.bot.moves[board.Key()]
	if !ok {
		s.log.WarnContext(ctx, "no moves for board", slog.String("board", board.Key()))
		return s.failsafe(ctx, msg)
	}
	for _, move := range set {
		col, ok := game.MoveColumn(move)
		if !ok {
			if ferr := s.failsafe(ctx, msg); ferr != nil {
				s.log.ErrorContext(ctx, "failsafe failed", slog.Any("err", ferr))
			}
			return fault.Wrapf(fault.ParseMismatch, "unknown move %q for board %s", move, board.Key())
		}
		if err := s.click(ctx, msg, dank.Control{Row: 0, Col: col}); err != nil {
			return err
		}
	}
	s.state.TouchFish()
	s.bot.metrics.MinigamesSolved.Observe(1)
	return nil
}

// failsafe bails out of a board it can't play. Boards with a fifth control
// need a dismiss press first.
func (s *session) failsafe(ctx context.Context, msg *dank.Message) error {
	if msg.Button(dank.Control{Row: 0, Col: 4}) != nil {
		if err := s.click(ctx, msg, dank.Control{Row: 0, Col: 4}); err != nil {
			return err
		}
		if err := sleep(ctx, time.Duration(pace.N(100, 300))*time.Millisecond); err != nil {
			return err
		}
	}
	return s.click(ctx, msg, dank.Control{Row: 0, Col: 2})
}

// solveBucketView opens bucket management from the slots screen.
func (s *session) solveBucketView(ctx context.Context, msg *dank.Message, u game.BucketView) error {
	if !s.bot.cfg.Fishing.Enabled {
		return nil
	}
	if err := sleep(ctx, time.Duration(pace.N(100, 300))*time.Millisecond); err != nil {
		return err
	}
	return s.click(ctx, msg, dank.Control{Row: 1, Col: 1})
}

// solveBucketFill empties buckets once they pass the configured limit, and
// otherwise closes the screen.
func (s *session) solveBucketFill(ctx context.Context, msg *dank.Message, u game.BucketFill) error {
	if !s.bot.cfg.Fishing.Enabled {
		return nil
	}
	if err := sleep(ctx, time.Duration(pace.N(100, 300))*time.Millisecond); err != nil {
		return err
	}
	if u.Cur > s.bot.cfg.Fishing.BucketLimit {
		s.queue.Enqueue("fish buckets")
		return nil
	}
	return s.click(ctx, msg, dank.Control{Row: 0, Col: 2})
}

// solveSell confirms a fish sale and lines up the next catch.
func (s *session) solveSell(ctx context.Context, msg *dank.Message, u game.SellPrompt) error {
	if !s.bot.cfg.Fishing.Enabled {
		return nil
	}
	if !s.state.Selling.Enter() {
		return nil
	}
	defer s.state.Selling.Leave()
	if err := s.click(ctx, msg, dank.Control{Row: 0, Col: 1}); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "selling fish")
	s.queue.Enqueue("fish catch")
	return nil
}
