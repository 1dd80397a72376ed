package game_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/TahaGorme/slashy/dank"
	"github.com/TahaGorme/slashy/game"
)

func adventure(name string) *dank.Interaction {
	return &dank.Interaction{Name: name, UserID: "me"}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		msg  *dank.Message
		want []game.Update
	}{
		{
			name: "highlow",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "I just chose a secret number between 0 and 100. Your hint is **72**."}},
			},
			want: []game.Update{game.HighLow{Bound: 72}},
		},
		{
			name: "search",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "Where do you want to search?"}},
				Rows: []dank.Row{{Buttons: []dank.Button{
					{Label: "Dog House"}, {Label: "Grass"}, {Label: "Mailbox"},
				}}},
			},
			want: []game.Update{game.SearchPrompt{Labels: []string{"dog house", "grass", "mailbox"}}},
		},
		{
			name: "crime",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "What crime do you want to commit?"}},
			},
			want: []game.Update{game.CrimePrompt{}},
		},
		{
			name: "fishing-grid",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Title: "Fishing...", Image: "https://cdn.example/board.png"}},
			},
			want: []game.Update{game.FishingGrid{Image: "https://cdn.example/board.png"}},
		},
		{
			name: "fish-cooldown",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "You can fish again <t:1700000060:R>"}},
			},
			want: []game.Update{game.FishCooldown{ReadyAt: time.Unix(1700000060, 0)}},
		},
		{
			name: "nothing-caught",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Title: "There was nothing"}},
			},
			want: []game.Update{game.FishCooldown{}},
		},
		{
			name: "bucket-space",
			msg: &dank.Message{
				Embeds: []dank.Embed{
					{Description: "You caught a fish!"},
					{Description: "Bucket Space: 3 / 10"},
				},
			},
			want: []game.Update{game.BucketSpace{Cur: 3, Max: 10}},
		},
		{
			name: "bucket-fill",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Fields: []dank.Field{
					{}, {}, {},
					{Name: "Buckets", Value: "7 / 10"},
				}}},
			},
			want: []game.Update{game.BucketFill{Cur: 7, Max: 10}},
		},
		{
			name: "bucket-view",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Title: "Viewing Bucket Slots"}},
			},
			want: []game.Update{game.BucketView{}},
		},
		{
			name: "sell",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "Are you sure you want to sell?"}},
			},
			want: []game.Update{game.SellPrompt{}},
		},
		{
			name: "inventory",
			msg: &dank.Message{
				Embeds: []dank.Embed{{
					Author:      "bocchi's inventory",
					Description: "**<:IronShovel:868263822035669002> Shovel** ─ 5\n\n**<:LowRifle:868286178070261760> Hunting Rifle** ─ 1,200",
					Footer:      "Page 1 of 3",
				}},
			},
			want: []game.Update{game.InventoryPage{
				Items: []game.Item{
					{Name: "shovel", Quantity: 5},
					{Name: "hunting rifle", Quantity: 1200},
				},
				Page:  1,
				Total: 3,
			}},
		},
		{
			name: "shop",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Title: "Dank Memer Shop", Footer: "Page 2 of 4"}},
			},
			want: []game.Update{game.ShopPage{Page: 2, Total: 4}},
		},
		{
			name: "adventure-loadout",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Title: "Hey bocchi, choose items you want to bring along"}},
			},
			want: []game.Update{game.AdventureLoadout{}},
		},
		{
			name: "adventure-catch",
			msg: &dank.Message{
				Interaction: adventure("adventure"),
				Embeds:      []dank.Embed{{Description: "Some space rocks are flying by! Catch one of em!"}},
			},
			want: []game.Update{game.AdventureCatch{}},
		},
		{
			name: "adventure-prompt",
			msg: &dank.Message{
				Interaction: adventure("adventure"),
				Embeds:      []dank.Embed{{Description: "You found a strange wall."}},
				Rows: []dank.Row{
					{Buttons: []dank.Button{{Label: "Climb"}, {Label: "Walk away"}}},
					{Buttons: []dank.Button{{Label: "Back"}, {Label: "Continue"}}},
				},
			},
			want: []game.Update{game.AdventurePrompt{Desc: "You found a strange wall.", HasSecondRow: true}},
		},
		{
			name: "adventure-summary",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Adventure Summary", Description: "You made it back."}},
				Rows: []dank.Row{{Buttons: []dank.Button{
					{Label: "Adventure again in 22 minutes", Disabled: true},
				}}},
			},
			want: []game.Update{game.AdventureSummary{RetryAfter: 22 * time.Minute}},
		},
		{
			name: "adventure-cooldown",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "You can start another adventure at <t:1700000500:t>"}},
			},
			want: []game.Update{game.AdventureCooldown{ReadyAt: time.Unix(1700000500, 0)}},
		},
		{
			name: "adventure-choose",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Choose an Adventure"}},
			},
			want: []game.Update{game.AdventureChoose{}},
		},
		{
			name: "stream-prompt",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Stream Manager", Description: "What game do you want to stream?"}},
			},
			want: []game.Update{game.StreamPrompt{}},
		},
		{
			name: "stream-live",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Stream Manager", Fields: []dank.Field{
					{Name: "Status", Value: "Live"},
					{Name: "Viewers", Value: "812"},
				}}},
				Rows: []dank.Row{{Buttons: []dank.Button{
					{Label: "Run AD"}, {Label: "Read chat"}, {Label: "Collect donations"},
				}}},
			},
			want: []game.Update{game.StreamLive{}},
		},
		{
			name: "stream-manager",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Stream Manager", Description: "You are not live."}},
			},
			want: []game.Update{game.StreamManager{}},
		},
		{
			name: "memes",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Meme Posting Session"}},
			},
			want: []game.Update{game.MemeSession{}},
		},
		{
			name: "dead-meme",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Author: "Meme Posting Session", Description: "You posted a dead meme."}},
			},
			want: []game.Update{game.DeadMeme{}},
		},
		{
			name: "captcha",
			msg: &dank.Message{
				Ephemeral: true,
				Embeds:    []dank.Embed{{Title: "Captcha"}},
			},
			want: []game.Update{game.Captcha{}},
		},
		{
			name: "tight",
			msg: &dank.Message{
				Ephemeral: true,
				Embeds:    []dank.Embed{{Title: "Tight...."}},
			},
			want: []game.Update{game.RateLimited{}},
		},
		{
			name: "unparsed",
			msg: &dank.Message{
				Embeds: []dank.Embed{{Description: "You gave your pet a treat."}},
			},
			want: []game.Update{game.Unparsed{}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := game.Parse("bocchi", c.msg)
			if !cmp.Equal(got, c.want) {
				t.Errorf("wrong updates: %s", cmp.Diff(c.want, got))
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	msg := &dank.Message{
		Embeds: []dank.Embed{
			{Description: "You caught a fish! You can fish again <t:1700000060:R>"},
			{Description: "Bucket Space: 9 / 10"},
		},
	}
	want := []game.Update{
		game.BucketSpace{Cur: 9, Max: 10},
		game.FishCooldown{ReadyAt: time.Unix(1700000060, 0)},
	}
	got := game.Parse("bocchi", msg)
	if !cmp.Equal(got, want) {
		t.Errorf("wrong updates: %s", cmp.Diff(want, got))
	}
}

func TestMoveColumn(t *testing.T) {
	cases := []struct {
		move string
		col  int
		ok   bool
	}{
		{"left", 0, true},
		{"up", 1, true},
		{"2", 2, true},
		{"confirm", 2, true},
		{"down", 3, true},
		{"right", 4, true},
		{"sideways", 0, false},
	}
	for _, c := range cases {
		t.Run(c.move, func(t *testing.T) {
			col, ok := game.MoveColumn(c.move)
			if col != c.col || ok != c.ok {
				t.Errorf("wrong column for %q: want %d %t, got %d %t", c.move, c.col, c.ok, col, ok)
			}
		})
	}
}
