package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TahaGorme/slashy/pace"
)

// Load loads Slashy from a TOML configuration.
func Load(r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	cfg.defaults()
	return &cfg, &md, nil
}

// Config is the marshaled structure of Slashy's configuration.
type Config struct {
	// BotID is the user ID of the game bot whose messages are played.
	BotID string `toml:"bot_id"`
	// GuildID is the guild in which to play.
	GuildID string `toml:"guild_id"`
	// ChannelID is the channel in which to play.
	ChannelID string `toml:"channel_id"`
	// TokenFile is the path to a file of account tokens, one per line.
	TokenFile string `toml:"tokens"`
	// Gateway is the gateway websocket URL.
	Gateway string `toml:"gateway"`
	// API is the REST API base URL.
	API string `toml:"api"`
	// Predict is the fishing board prediction endpoint.
	Predict string `toml:"predict"`
	// Trending is the trending-games endpoint.
	Trending string `toml:"trending"`
	// MoveFile is the path to the fishing move table.
	MoveFile string `toml:"moves"`
	// SearchLocations is the preferred search locations, in order.
	SearchLocations []string `toml:"search_locations"`
	// Monitor is the monitor server configuration.
	Monitor MonitorCfg `toml:"monitor"`
	// Delays is the human pacing configuration.
	Delays DelayCfg `toml:"delays"`
	// Cooldowns is the per-command cooldown in seconds. Commands not listed
	// use a short default.
	Cooldowns map[string]float64 `toml:"cooldowns"`
	// Rate is the rate limit for interactions on each session.
	Rate Rate `toml:"rate"`
	// Fishing is the fishing configuration.
	Fishing FishingCfg `toml:"fishing"`
	// Streaming is the streaming configuration.
	Streaming StreamingCfg `toml:"streaming"`
	// Adventure is the adventure configuration.
	Adventure AdventureCfg `toml:"adventure"`
	// Memes is the meme posting configuration.
	Memes MemeCfg `toml:"memes"`
	// Autobuy is the list of items to keep stocked.
	Autobuy []BuyCfg `toml:"autobuy"`
	// Autouse is the list of items to use on a schedule.
	Autouse []UseCfg `toml:"autouse"`
}

// MonitorCfg is the monitor server configuration.
type MonitorCfg struct {
	// Listen is the monitor listen address. Empty disables the monitor.
	Listen string `toml:"listen"`
	// Username and Password guard the status page.
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// DelayCfg is the pacing configuration. All values are in seconds.
type DelayCfg struct {
	// Command is the delay between scheduler passes.
	Command Span `toml:"command"`
	// ShortBreak and LongBreak are occasional extra pauses.
	ShortBreak Span `toml:"short_break"`
	LongBreak  Span `toml:"long_break"`
	// Login is the stagger between account logins.
	Login Span `toml:"login"`
}

// Span is an inclusive duration range in seconds.
type Span struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

func (s Span) rng() pace.Range {
	return pace.Range{Min: fseconds(s.Min), Max: fseconds(s.Max)}
}

// Rate is a rate limit configuration.
type Rate struct {
	Every float64 `toml:"every"`
	Num   int     `toml:"num"`
}

// FishingCfg is the fishing configuration.
type FishingCfg struct {
	Enabled bool `toml:"enabled"`
	// BucketLimit is the bucket fill at which catches go to buckets instead
	// of more fishing.
	BucketLimit int `toml:"bucket_limit"`
}

// StreamingCfg is the streaming configuration.
type StreamingCfg struct {
	Enabled bool `toml:"enabled"`
}

// AdventureCfg is the adventure configuration.
type AdventureCfg struct {
	Enabled bool `toml:"enabled"`
	// Destination is the adventure to start.
	Destination string `toml:"destination"`
	// Responses maps a substring of an adventure prompt to the label of the
	// button to press for it.
	Responses map[string]string `toml:"responses"`
}

// MemeCfg is the meme posting configuration.
type MemeCfg struct {
	// Platforms is the platforms to post on. The special value "RANDOM"
	// picks from whatever the session offers.
	Platforms []string `toml:"platforms"`
}

// BuyCfg is one autobuy target.
type BuyCfg struct {
	Item     string `toml:"item"`
	Quantity int    `toml:"quantity"`
}

// UseCfg is one autouse schedule. Every is in seconds.
type UseCfg struct {
	Name  string  `toml:"name"`
	Every float64 `toml:"every"`
}

func (cfg *Config) defaults() {
	if cfg.Gateway == "" {
		cfg.Gateway = "wss://gateway.discord.gg/?v=9&encoding=json"
	}
	if cfg.API == "" {
		cfg.API = "https://discord.com/api/v9"
	}
	if cfg.Trending == "" {
		cfg.Trending = "https://api.dankmemer.tools/trending"
	}
	if cfg.MoveFile == "" {
		cfg.MoveFile = "moves.json"
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = "tokens.txt"
	}
	if cfg.Delays.Command == (Span{}) {
		cfg.Delays.Command = Span{Min: 1.5, Max: 3}
	}
	if cfg.Delays.ShortBreak == (Span{}) {
		cfg.Delays.ShortBreak = Span{Min: 10, Max: 30}
	}
	if cfg.Delays.LongBreak == (Span{}) {
		cfg.Delays.LongBreak = Span{Min: 60, Max: 300}
	}
	if cfg.Delays.Login == (Span{}) {
		cfg.Delays.Login = Span{Min: 4, Max: 8}
	}
	if cfg.Rate.Every == 0 || cfg.Rate.Num == 0 {
		cfg.Rate = Rate{Every: 1, Num: 2}
	}
	if cfg.Fishing.BucketLimit == 0 {
		cfg.Fishing.BucketLimit = 5
	}
	if cfg.Adventure.Destination == "" {
		cfg.Adventure.Destination = "west"
	}
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.BotID,
		&cfg.GuildID,
		&cfg.ChannelID,
		&cfg.TokenFile,
		&cfg.Gateway,
		&cfg.API,
		&cfg.Predict,
		&cfg.Trending,
		&cfg.MoveFile,
		&cfg.Monitor.Listen,
		&cfg.Monitor.Username,
		&cfg.Monitor.Password,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
}
