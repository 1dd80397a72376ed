package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/game"
)

// rule reacts to one kind of game update. run reports whether the update was
// the rule's kind; errors in one rule never stop the others.
type rule struct {
	name string
	run  func(ctx context.Context, s *session, msg *dank.Message, u game.Update) (bool, error)
}

// on builds a rule that fires for updates of type U.
func on[U game.Update](name string, fn func(s *session, ctx context.Context, msg *dank.Message, u U) error) rule {
	return rule{
		name: name,
		run: func(ctx context.Context, s *session, msg *dank.Message, u game.Update) (bool, error) {
			v, ok := u.(U)
			if !ok {
				return false, nil
			}
			return true, fn(s, ctx, msg, v)
		},
	}
}

// ephemeralRules run on ephemeral messages before any author filtering.
var ephemeralRules = []rule{
	on("captcha", (*session).solveCaptcha),
	on("replay", (*session).solveRateLimited),
}

// createRules run on new messages from the game bot.
var createRules = []rule{
	on("highlow", (*session).solveHighLow),
	on("search", (*session).solveSearch),
	on("crime", (*session).solveCrime),
	on("memes", (*session).solveMemes),
	on("bucket view", (*session).solveBucketView),
	on("bucket fill", (*session).solveBucketFill),
	on("stream live", (*session).solveStreamLive),
	on("stream manager", (*session).solveStreamManager),
	on("adventure catch", (*session).solveAdventureCatch),
	on("adventure prompt", (*session).solveAdventurePrompt),
	on("adventure summary", (*session).solveAdventureSummary),
	on("adventure cooldown", (*session).solveAdventureCooldown),
	on("adventure choose", (*session).solveAdventureChoose),
	on("shop", (*session).solveShop),
	on("inventory", (*session).solveInventory),
}

// updateRules run on edits to the game bot's messages, which is where most
// minigames play out.
var updateRules = []rule{
	on("bucket space", (*session).noteBucketSpace),
	on("fish cooldown", (*session).solveFishCooldown),
	on("fishing", (*session).solveFishingGrid),
	on("sell", (*session).solveSell),
	on("dead meme", (*session).noteDeadMeme),
	on("adventure loadout", (*session).solveAdventureLoadout),
	on("adventure catch", (*session).solveAdventureCatch),
	on("adventure prompt", (*session).solveAdventurePrompt),
	on("adventure summary", (*session).solveAdventureSummary),
	on("stream prompt", (*session).solveStreamPrompt),
	on("shop", (*session).solveShop),
	on("inventory", (*session).solveInventory),
}

func (s *session) handleCreate(ctx context.Context, msg *dank.Message) {
	if msg == nil {
		return
	}
	updates := game.Parse(s.gw.Username(), msg)
	if msg.Ephemeral {
		s.route(ctx, msg, updates, ephemeralRules)
		return
	}
	if !s.mine(msg) {
		return
	}
	s.route(ctx, msg, updates, createRules)
}

func (s *session) handleUpdate(ctx context.Context, msg *dank.Message) {
	if msg == nil || !s.mine(msg) {
		return
	}
	updates := game.Parse(s.gw.Username(), msg)
	s.route(ctx, msg, updates, updateRules)
}

func (s *session) handleModal(ctx context.Context, modal *dank.Modal) {
	if modal == nil || modal.Title != "Dank Memer Shop" {
		return
	}
	n := s.state.BuyQuantity()
	if err := s.submit(ctx, modal, strconv.Itoa(n)); err != nil {
		s.log.ErrorContext(ctx, "couldn't answer shop dialog", slog.Any("err", err))
		return
	}
	s.log.InfoContext(ctx, "bought", slog.Int("quantity", n))
}

// mine reports whether msg is the game bot answering this session.
func (s *session) mine(msg *dank.Message) bool {
	if msg.AuthorID != s.bot.cfg.BotID {
		return false
	}
	return msg.Interaction != nil && msg.Interaction.UserID == s.gw.ID()
}

func (s *session) route(ctx context.Context, msg *dank.Message, updates []game.Update, rules []rule) {
	for _, u := range updates {
		if _, ok := u.(game.Unparsed); ok {
			continue
		}
		s.bot.metrics.UpdatesRouted.Observe(1)
		for _, r := range rules {
			matched, err := r.run(ctx, s, msg, u)
			if err != nil {
				s.bot.metrics.RuleFailures.Observe(1)
				s.log.ErrorContext(ctx, "rule failed",
					slog.String("rule", r.name),
					slog.Any("trace", uuid.New()),
					slog.Any("err", err),
				)
			}
			if matched {
				break
			}
		}
	}
}
