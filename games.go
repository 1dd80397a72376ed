package main

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/fault"
	"github.com/TahaGorme/slashy/game"
	"github.com/TahaGorme/slashy/pace"
)

// solveHighLow answers the high-low hint. The hint is uniform, so guess high
// below the midpoint and low above it.
func (s *session) solveHighLow(ctx context.Context, msg *dank.Message, u game.HighLow) error {
	col := 2
	if u.Bound > 50 {
		col = 0
	}
	if err := s.click(ctx, msg, dank.Control{Row: 0, Col: col}); err != nil {
		return err
	}
	s.bot.metrics.MinigamesSolved.Observe(1)
	return nil
}

// solveSearch picks the first preferred location on offer, or a random one.
func (s *session) solveSearch(ctx context.Context, msg *dank.Message, u game.SearchPrompt) error {
	if len(u.Labels) == 0 {
		return fault.New(fault.ParseMismatch, "search prompt with no locations")
	}
	idx := -1
	for _, loc := range s.bot.cfg.SearchLocations {
		if i := slices.Index(u.Labels, game.Fold(loc)); i >= 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = pace.N(0, len(u.Labels)-1)
	}
	if err := s.click(ctx, msg, dank.Control{Row: 0, Col: idx}); err != nil {
		return err
	}
	s.bot.metrics.MinigamesSolved.Observe(1)
	return nil
}

// solveCrime commits a random crime.
func (s *session) solveCrime(ctx context.Context, msg *dank.Message, u game.CrimePrompt) error {
	return s.click(ctx, msg, dank.Control{Row: 0, Col: pace.N(0, 2)})
}

// solveMemes fills in the meme posting session: a platform, a random meme
// type, and post.
func (s *session) solveMemes(ctx context.Context, msg *dank.Message, u game.MemeSession) error {
	platforms := msg.Menu(0)
	types := msg.Menu(1)
	if platforms == nil || types == nil || len(platforms.Options) == 0 || len(types.Options) == 0 {
		return fault.New(fault.ParseMismatch, "meme session without its menus")
	}
	s.state.Hold()
	defer s.state.Release()
	var platform string
	switch cfg := s.bot.cfg.Memes.Platforms; {
	case slices.Contains(cfg, "RANDOM"), len(cfg) == 0:
		platform = randomOption(platforms)
	default:
		platform = cfg[pace.N(0, len(cfg)-1)]
	}
	if err := s.selectMenu(ctx, msg, 0, platform); err != nil {
		return err
	}
	if err := s.selectMenu(ctx, msg, 1, randomOption(types)); err != nil {
		return err
	}
	if err := s.click(ctx, msg, dank.Control{Row: 2, Col: 0}); err != nil {
		return err
	}
	s.bot.metrics.MinigamesSolved.Observe(1)
	return nil
}

func randomOption(m *dank.Menu) string {
	return m.Options[pace.N(0, len(m.Options)-1)].Value
}

// noteDeadMeme backs the meme command off when the session went stale.
func (s *session) noteDeadMeme(ctx context.Context, msg *dank.Message, u game.DeadMeme) error {
	until := time.Now().Add(pace.Jitter(3*time.Minute, time.Second, 2*time.Second))
	s.queue.SetCooldown("postmemes", until)
	s.log.InfoContext(ctx, "dead meme", slog.Time("until", until))
	return nil
}

// solveCaptcha cannot solve anything; it parks the session so a human gets a
// window to react before grinding resumes.
func (s *session) solveCaptcha(ctx context.Context, msg *dank.Message, u game.Captcha) error {
	s.bot.metrics.CaptchaSeen.Observe(1)
	s.log.ErrorContext(ctx, "captcha challenge, pausing")
	s.state.Hold()
	s.tasks.After("captcha", 15*time.Second, s.state.Release)
	return nil
}

// solveRateLimited replays whichever action, click or command, came last
// before the slow-down notice.
func (s *session) solveRateLimited(ctx context.Context, msg *dank.Message, u game.RateLimited) error {
	click := s.state.LastClick()
	cmd := s.state.LastCommand()
	s.bot.metrics.Replays.Observe(1)
	if click.Time.After(cmd.Time) && click.Message != nil {
		s.log.InfoContext(ctx, "replaying click", slog.Int("row", click.Control.Row), slog.Int("col", click.Control.Col))
		return s.click(ctx, click.Message, click.Control)
	}
	if cmd.Name != "" {
		s.log.InfoContext(ctx, "replaying command", slog.String("command", cmd.Name))
		s.queue.Enqueue(cmd.Name, cmd.Args...)
	}
	return nil
}
