package main

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TahaGorme/slashy/dash"
	"github.com/TahaGorme/slashy/game"
	"github.com/TahaGorme/slashy/metrics"
	"github.com/TahaGorme/slashy/pace"
	"github.com/TahaGorme/slashy/predict"
)

// Bot is the set of grinding sessions and their shared services.
type Bot struct {
	cfg     *Config
	metrics *metrics.Metrics
	moves   game.Moves
	predict *predict.Client

	// works is the worker pool for message handling.
	works chan chan func(context.Context)

	mu       sync.Mutex
	sessions []*session
}

// New creates a bot from a loaded configuration.
func New(cfg *Config, m *metrics.Metrics) *Bot {
	return &Bot{
		cfg:     cfg,
		metrics: m,
		predict: &predict.Client{
			HTTP:     &http.Client{Timeout: 30 * time.Second},
			URL:      cfg.Predict,
			Trending: cfg.Trending,
		},
		works: make(chan chan func(context.Context), 64),
	}
}

// Run connects every account and plays until the context is canceled.
func (b *Bot) Run(ctx context.Context, tokens []string) error {
	group, ctx := errgroup.WithContext(ctx)
	if b.cfg.Monitor.Listen != "" {
		group.Go(func() error {
			return b.monitor(ctx, b.cfg.Monitor.Listen, http.NewServeMux(), b.metrics.Collectors())
		})
	}
	group.Go(func() error {
		return b.login(ctx, tokens)
	})
	err := group.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// login starts a session per token, staggered so the accounts don't connect
// in lockstep. A session that fails takes down only itself.
func (b *Bot) login(ctx context.Context, tokens []string) error {
	stagger := b.cfg.Delays.Login.rng()
	group, ctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(stagger.Rand()):
			}
		}
		s := b.newSession(token)
		b.mu.Lock()
		b.sessions = append(b.sessions, s)
		b.mu.Unlock()
		group.Go(func() error {
			if err := s.run(ctx); err != nil {
				slog.ErrorContext(ctx, "session ended", slog.String("name", s.name()), slog.Any("err", err))
			}
			return nil
		})
	}
	return group.Wait()
}

// enqueue sends work to the worker pool so message handling doesn't block
// the gateway read loop.
func (b *Bot) enqueue(ctx context.Context, work func(context.Context)) {
	var w chan func(context.Context)
	// Get a worker if one exists. Otherwise, spawn a new one.
	select {
	case w = <-b.works:
	default:
		w = make(chan func(context.Context), 1)
		go worker(ctx, b.works, w)
	}
	// Send it work.
	select {
	case <-ctx.Done():
		return
	case w <- work:
	}
}

// worker runs works for a while. The provided context is passed to each work.
func worker(ctx context.Context, works chan chan func(context.Context), ch chan func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case work := <-ch:
			safely(ctx, work)
			// Replace ourselves in the pool if it needs additional capacity.
			// Otherwise, we're done.
			select {
			case works <- ch:
			default:
				return
			}
		}
	}
}

// safely runs work, converting a panic into a log line so one bad message
// can't take down the pool.
func safely(ctx context.Context, work func(context.Context)) {
	defer func() {
		if v := recover(); v != nil {
			slog.ErrorContext(ctx, "handler panicked", slog.Any("panic", v))
		}
	}()
	work(ctx)
}

// report snapshots every session for the dashboard.
func (b *Bot) report() []dash.Report {
	b.mu.Lock()
	sessions := slices.Clone(b.sessions)
	b.mu.Unlock()
	r := make([]dash.Report, 0, len(sessions))
	for _, s := range sessions {
		r = append(r, s.report())
	}
	return r
}

// delays builds the scheduler pacer from the configuration.
func (b *Bot) delays() *pace.Pacer {
	d := b.cfg.Delays
	return pace.New(d.Command.rng(), d.ShortBreak.rng(), d.LongBreak.rng())
}
