package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/TahaGorme/slashy/game"
	"github.com/TahaGorme/slashy/metrics"
)

var app = cli.Command{
	Name:  "slashy",
	Usage: "Dank Memer grinding bot",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
	},
	Commands: []*cli.Command{
		{
			Name:   "check",
			Usage:  "Validate the configuration and move table without connecting",
			Action: cliCheck,
		},
	},
	Action: cliRun,
}

func main() {
	// A .env next to the binary is a convenience, not a requirement.
	godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
	}
}

func cliRun(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	r, err := os.Open(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("couldn't open config file: %w", err)
	}
	cfg, _, err := Load(r)
	if err != nil {
		return fmt.Errorf("couldn't load config: %w", err)
	}
	r.Close()

	bot := New(cfg, newMetrics())
	if cfg.Fishing.Enabled {
		moves, err := game.LoadMoves(cfg.MoveFile)
		if err != nil {
			return err
		}
		bot.moves = moves
	}
	tokens, err := loadTokens(cfg.TokenFile)
	if err != nil {
		return err
	}
	return bot.Run(ctx, tokens)
}

func cliCheck(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	r, err := os.Open(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("couldn't open config file: %w", err)
	}
	cfg, _, err := Load(r)
	if err != nil {
		return fmt.Errorf("couldn't load config: %w", err)
	}
	r.Close()
	if cfg.BotID == "" || cfg.ChannelID == "" {
		return errors.New("config needs bot_id and channel_id")
	}
	if cfg.Fishing.Enabled {
		moves, err := game.LoadMoves(cfg.MoveFile)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "move table", slog.String("file", cfg.MoveFile), slog.Int("boards", len(moves)))
	}
	tokens, err := loadTokens(cfg.TokenFile)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "config ok", slog.Int("accounts", len(tokens)))
	return nil
}

// loadTokens reads account tokens from file, one per line, skipping blanks
// and # comments.
func loadTokens(file string) ([]string, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't read tokens: %w", err)
	}
	var tokens []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, line)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens in %s", file)
	}
	return tokens, nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Required:   true,
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}

// metrics configuration
func newMetrics() *metrics.Metrics {
	return &metrics.Metrics{
		CommandsDispatched: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "scheduler",
					Name:      "commands",
					Help:      "Number of slash commands dispatched.",
				},
			),
		),
		DispatchFailures: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "scheduler",
					Name:      "failures",
					Help:      "Number of slash commands that failed to send.",
				},
			),
		),
		UpdatesRouted: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "router",
					Name:      "updates",
					Help:      "Number of game updates routed to rules.",
				},
			),
		),
		RuleFailures: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "router",
					Name:      "failures",
					Help:      "Number of rules that returned errors.",
				},
			),
		),
		MinigamesSolved: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "games",
					Name:      "solved",
					Help:      "Number of minigames solved.",
				},
			),
		),
		PredictLatency: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "slashy",
					Subsystem: "games",
					Name:      "predict_seconds",
					Help:      "Latency of fishing board predictions.",
					Buckets:   prometheus.DefBuckets,
				},
			),
		),
		CaptchaSeen: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "games",
					Name:      "captchas",
					Help:      "Number of captcha challenges received.",
				},
			),
		),
		Replays: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "slashy",
					Subsystem: "router",
					Name:      "replays",
					Help:      "Number of actions replayed after rate limit notices.",
				},
			),
		),
	}
}
