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

// solveStreamPrompt starts a stream of whatever game is trending, or of a
// random offering when the trend isn't on the menu.
func (s *session) solveStreamPrompt(ctx context.Context, msg *dank.Message, u game.StreamPrompt) error {
	if !s.state.Streaming.Enter() {
		return nil
	}
	defer s.state.Streaming.Leave()
	menu := msg.Menu(0)
	if menu == nil || len(menu.Options) == 0 {
		return fault.New(fault.ParseMismatch, "stream prompt without a game menu")
	}
	choice := ""
	trending, err := s.bot.predict.TrendingGame(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "couldn't get trending game", slog.Any("err", err))
	} else {
		want := game.Squash(trending)
		for _, o := range menu.Options {
			if o.Value == want {
				choice = want
				break
			}
		}
	}
	if choice == "" {
		choice = randomOption(menu)
	}
	s.log.InfoContext(ctx, "streaming", slog.String("game", choice))
	s.state.Hold()
	defer s.state.Release()
	if err := s.selectMenu(ctx, msg, 0, choice); err != nil {
		return err
	}
	if err := s.click(ctx, msg, dank.Control{Row: 1, Col: 0}); err != nil {
		return err
	}
	s.tasks.After("stream nudge", time.Duration(pace.N(15, 30))*time.Second, func() {
		if err := s.click(ctx, msg, dank.Control{Row: 0, Col: pace.N(0, 2)}); err != nil {
			s.log.WarnContext(ctx, "stream nudge failed", slog.Any("err", err))
			return
		}
		s.state.TouchStream()
	})
	s.keepalive(ctx, msg)
	return nil
}

// solveStreamLive tends a stream that is already running.
func (s *session) solveStreamLive(ctx context.Context, msg *dank.Message, u game.StreamLive) error {
	if err := s.click(ctx, msg, dank.Control{Row: 0, Col: pace.N(0, 2)}); err != nil {
		return err
	}
	s.state.TouchStream()
	s.keepalive(ctx, msg)
	return nil
}

// solveStreamManager dismisses any other Stream Manager screen.
func (s *session) solveStreamManager(ctx context.Context, msg *dank.Message, u game.StreamManager) error {
	return s.click(ctx, msg, dank.Control{Row: 0, Col: 0})
}

// keepalive pokes the stream controls whenever the stream has gone untended
// too long.
func (s *session) keepalive(ctx context.Context, msg *dank.Message) {
	s.tasks.Every("stream keepalive", 20*time.Second, func() {
		if s.state.SinceStream() <= 12*time.Minute {
			return
		}
		if !s.state.StreamLive.Load() {
			s.tasks.Stop("stream keepalive")
			return
		}
		if err := s.click(ctx, msg, dank.Control{Row: 0, Col: pace.N(0, 2)}); err != nil {
			s.log.WarnContext(ctx, "stream keepalive failed", slog.Any("err", err))
			return
		}
		s.state.TouchStream()
	})
}
