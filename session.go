package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/TahaGorme/slashy/account"
	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/dash"
	"github.com/TahaGorme/slashy/fault"
	"github.com/TahaGorme/slashy/pace"
	"github.com/TahaGorme/slashy/queue"
)

// backgroundCommands are the grinding commands the filler keeps in rotation.
var backgroundCommands = []string{
	"highlow",
	"beg",
	"postmemes",
	"search",
	"hunt",
	"dig",
	"crime",
}

// session is one logged-in account: its gateway connection, command queue,
// state, and scheduled tasks.
type session struct {
	bot *Bot
	gw  *dank.Gateway
	// client performs interactions. It is the gateway in production and a
	// fake in tests.
	client dank.Client
	queue  *queue.Queue
	state *account.State
	pacer *pace.Pacer
	tasks *taskSet
	log   *slog.Logger
}

func (b *Bot) newSession(token string) *session {
	cfg := b.cfg
	s := &session{
		bot:   b,
		queue: queue.New("postmemes"),
		state: account.New(rate.NewLimiter(rate.Every(fseconds(cfg.Rate.Every)), cfg.Rate.Num)),
		pacer: b.delays(),
		tasks: newTaskSet(),
		log:   slog.Default(),
	}
	s.gw = &dank.Gateway{
		Token:         token,
		HTTP:          &http.Client{Timeout: 30 * time.Second},
		URL:           cfg.Gateway,
		API:           cfg.API,
		ApplicationID: cfg.BotID,
		GuildID:       cfg.GuildID,
		ChannelID:     cfg.ChannelID,
	}
	s.client = s.gw
	return s
}

func (s *session) name() string {
	if n := s.gw.Username(); n != "" {
		return n
	}
	return "connecting"
}

// run connects the session and plays until the context is canceled.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.tasks.StopAll()
	s.gw.OnCreate = func(msg *dank.Message) {
		s.bot.enqueue(ctx, func(ctx context.Context) { s.handleCreate(ctx, msg) })
	}
	s.gw.OnUpdate = func(old, msg *dank.Message) {
		s.bot.enqueue(ctx, func(ctx context.Context) { s.handleUpdate(ctx, msg) })
	}
	s.gw.OnModal = func(modal *dank.Modal) {
		s.bot.enqueue(ctx, func(ctx context.Context) { s.handleModal(ctx, modal) })
	}
	if err := s.gw.Dial(ctx); err != nil {
		return fmt.Errorf("couldn't connect: %w", err)
	}
	s.log = slog.With(slog.String("account", s.gw.Username()))
	s.log.InfoContext(ctx, "ready")
	s.start(ctx)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.gw.Run(ctx) })
	group.Go(func() error { s.loop(ctx); return nil })
	group.Go(func() error { s.filler(ctx); return nil })
	return group.Wait()
}

// start seeds the queue and schedules the recurring tasks.
func (s *session) start(ctx context.Context) {
	cfg := s.bot.cfg
	if len(cfg.Autobuy) > 0 || len(cfg.Autouse) > 0 {
		s.queue.Enqueue("inventory")
	}
	for _, u := range cfg.Autouse {
		s.queue.Enqueue("use", u.Name)
		name := u.Name
		s.tasks.Every("use "+name, fseconds(u.Every), func() {
			s.queue.Enqueue("use", name)
		})
	}
	if cfg.Streaming.Enabled {
		s.queue.Enqueue("stream")
	}
	if cfg.Adventure.Enabled {
		s.queue.Enqueue("adventure")
	}
	if cfg.Fishing.Enabled {
		s.queue.Enqueue("fish catch")
		s.state.TouchFish()
		// Nudge fishing back to life if nothing has happened for a while.
		s.tasks.Every("unstuck", time.Minute, func() {
			if s.state.SinceFish() > time.Minute {
				s.queue.Enqueue("fish catch")
			}
		})
	}
}

// loop runs the command scheduler. It never stops before the context does;
// errors get a short backoff and another try.
func (s *session) loop(ctx context.Context) {
	for {
		if err := s.dispatch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.ErrorContext(ctx, "dispatch failed", slog.Any("err", err))
			if sleep(ctx, 5*time.Second) != nil {
				return
			}
		}
		if sleep(ctx, s.pacer.Next()) != nil {
			return
		}
	}
}

// dispatch sends the next eligible queued command, if any. A panic anywhere
// below surfaces as an error so the loop's backoff handles it.
func (s *session) dispatch(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("dispatch panicked: %v", v)
		}
	}()
	release, ok := s.state.TryHold()
	if !ok {
		return nil
	}
	defer release()
	now := time.Now()
	cmd, ok := s.queue.Pick(now, s.state.MinigameActive())
	if !ok {
		return nil
	}
	s.log.InfoContext(ctx, "dispatch", slog.String("command", cmd.Name), slog.Any("args", cmd.Args))
	if err := s.state.Rate.Wait(ctx); err != nil {
		return err
	}
	if err := s.client.SendCommand(ctx, cmd.Name, cmd.Args); err != nil {
		s.bot.metrics.DispatchFailures.Observe(1)
		// The command is dropped with no cooldown; the filler or a replay
		// can reissue it immediately.
		return fmt.Errorf("couldn't send %s: %w", cmd.Name, err)
	}
	s.queue.SetCooldown(cmd.Name, now.Add(s.cooldown(cmd.Name)))
	s.state.RecordCommand(cmd.Name, cmd.Args, time.Now())
	s.bot.metrics.CommandsDispatched.Observe(1)
	return nil
}

func (s *session) cooldown(name string) time.Duration {
	if v, ok := s.bot.cfg.Cooldowns[name]; ok {
		return fseconds(v)
	}
	return 2500 * time.Millisecond
}

// filler keeps the queue stocked with background commands, one random
// off-cooldown command at a time.
func (s *session) filler(ctx context.Context) {
	for {
		if sleep(ctx, time.Duration(pace.N(500, 1000))*time.Millisecond) != nil {
			return
		}
		now := time.Now()
		var ready []string
		for _, name := range backgroundCommands {
			if s.queue.Ready(name, now) {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			continue
		}
		name := ready[pace.N(0, len(ready)-1)]
		if !s.queue.Contains(name) {
			s.queue.Enqueue(name)
		}
	}
}

// click presses one button under the session's rate limit and records it for
// replay.
func (s *session) click(ctx context.Context, msg *dank.Message, c dank.Control) error {
	if err := s.state.Rate.Wait(ctx); err != nil {
		return err
	}
	if err := s.client.Click(ctx, msg, c); err != nil {
		return fault.Wrapf(fault.ExternalCall, "couldn't click %d,%d: %w", c.Row, c.Col, err)
	}
	s.state.RecordClick(msg, c, time.Now())
	return nil
}

// selectMenu picks values in a select menu under the session's rate limit.
func (s *session) selectMenu(ctx context.Context, msg *dank.Message, row int, values ...string) error {
	if err := s.state.Rate.Wait(ctx); err != nil {
		return err
	}
	if err := s.client.Select(ctx, msg, row, values); err != nil {
		return fault.Wrapf(fault.ExternalCall, "couldn't select in row %d: %w", row, err)
	}
	return nil
}

// submit answers a modal under the session's rate limit.
func (s *session) submit(ctx context.Context, modal *dank.Modal, value string) error {
	if err := s.state.Rate.Wait(ctx); err != nil {
		return err
	}
	if err := s.client.Submit(ctx, modal, value); err != nil {
		return fault.Wrapf(fault.ExternalCall, "couldn't submit %s: %w", modal.Title, err)
	}
	return nil
}

func (s *session) report() dash.Report {
	last := s.state.LastCommand()
	return dash.Report{
		Name:         s.name(),
		Busy:         s.state.Busy(),
		Queue:        s.queue.Names(),
		LastCommand:  last.Name,
		LastDispatch: last.Time,
	}
}

// sleep waits for d or for the context to end, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
