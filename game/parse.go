// Package game recognizes Dank Memer messages and turns them into typed
// updates. Parse is pure; solvers decide what to do with each update.
package game

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/TahaGorme/slashy/dank"
)

// Update is a recognized game event. A single message can yield several.
type Update interface {
	update()
}

// HighLow is the high-low minigame prompt with its hint.
type HighLow struct {
	Bound int
}

// SearchPrompt is the search location picker with its button labels,
// folded for caseless matching.
type SearchPrompt struct {
	Labels []string
}

// CrimePrompt is the crime picker.
type CrimePrompt struct{}

// FishingGrid is the fishing minigame board with its grid image URL.
type FishingGrid struct {
	Image string
}

// FishCooldown reports when fishing is next available. ReadyAt is zero when
// the message carried no timestamp.
type FishCooldown struct {
	ReadyAt time.Time
}

// BucketSpace is a bucket fill scraped from a fishing update.
type BucketSpace struct {
	Cur, Max int
}

// BucketFill is a bucket fill scraped from a fishing result's stat fields.
type BucketFill struct {
	Cur, Max int
}

// BucketView is the bucket slots screen.
type BucketView struct{}

// SellPrompt is the sell-fish confirmation.
type SellPrompt struct{}

// Item is one scraped inventory entry.
type Item struct {
	Name     string
	Quantity int
}

// InventoryPage is one page of the account's inventory.
type InventoryPage struct {
	Items []Item
	Page  int
	Total int
}

// ShopPage is one page of the shop.
type ShopPage struct {
	Page  int
	Total int
}

// AdventureLoadout is the pack-your-items screen.
type AdventureLoadout struct{}

// AdventureCatch is the catch-one-of-them adventure event.
type AdventureCatch struct{}

// AdventurePrompt is a generic adventure decision with its description text.
// HasSecondRow reports whether a confirm row is present.
type AdventurePrompt struct {
	Desc         string
	HasSecondRow bool
}

// AdventureSummary ends an adventure. RetryAfter is how long until another
// may start, zero when the button named no wait.
type AdventureSummary struct {
	RetryAfter time.Duration
}

// AdventureCooldown reports when the next adventure may start.
type AdventureCooldown struct {
	ReadyAt time.Time
}

// AdventureChoose is the destination picker.
type AdventureChoose struct{}

// StreamPrompt is the pick-a-game streaming screen.
type StreamPrompt struct{}

// StreamLive is an in-progress stream with its interaction buttons.
type StreamLive struct{}

// StreamManager is any other Stream Manager screen.
type StreamManager struct{}

// MemeSession is the meme posting screen.
type MemeSession struct{}

// DeadMeme reports a dead-meme result.
type DeadMeme struct{}

// Captcha is an ephemeral captcha challenge.
type Captcha struct{}

// RateLimited is an ephemeral slow-down notice; the last action should be
// replayed.
type RateLimited struct{}

// Unparsed marks a message no rule recognized.
type Unparsed struct{}

func (HighLow) update()           {}
func (SearchPrompt) update()      {}
func (CrimePrompt) update()       {}
func (FishingGrid) update()       {}
func (FishCooldown) update()      {}
func (BucketSpace) update()       {}
func (BucketFill) update()        {}
func (BucketView) update()        {}
func (SellPrompt) update()        {}
func (InventoryPage) update()     {}
func (ShopPage) update()          {}
func (AdventureLoadout) update()  {}
func (AdventureCatch) update()    {}
func (AdventurePrompt) update()   {}
func (AdventureSummary) update()  {}
func (AdventureCooldown) update() {}
func (AdventureChoose) update()   {}
func (StreamPrompt) update()      {}
func (StreamLive) update()        {}
func (StreamManager) update()     {}
func (MemeSession) update()       {}
func (DeadMeme) update()          {}
func (Captcha) update()           {}
func (RateLimited) update()       {}
func (Unparsed) update()          {}

var (
	hintRe = regexp.MustCompile(`\*\*(\d+)\*\*`)
	fillRe = regexp.MustCompile(`(\d+) / (\d+)`)
	relRe  = regexp.MustCompile(`<t:(\d+):R>`)
	absRe  = regexp.MustCompile(`<t:(\d+):t>`)
	pageRe = regexp.MustCompile(`Page (\d+) of (\d+)`)
	markRe = regexp.MustCompile(`^\*\*<:[^>]+>\s*|\*\*`)
	numRe  = regexp.MustCompile(`\d+`)
)

var folder = cases.Fold()

// Fold lowercases s for caseless matching.
func Fold(s string) string {
	return folder.String(s)
}

// Squash folds s and removes its spaces.
func Squash(s string) string {
	return strings.ReplaceAll(Fold(s), " ", "")
}

// Parse recognizes every game event in msg. me is the account's username,
// used to match its own inventory. The result is empty only for nil messages;
// an unrecognized message yields a single Unparsed.
func Parse(me string, msg *dank.Message) []Update {
	if msg == nil {
		return nil
	}
	var ups []Update
	e := msg.Embed(0)

	if msg.Ephemeral {
		if e != nil && strings.Contains(e.Title, "Captcha") {
			ups = append(ups, Captcha{})
		}
		if e != nil && strings.Contains(e.Title, "Tight") {
			ups = append(ups, RateLimited{})
		}
		if len(ups) == 0 {
			ups = append(ups, Unparsed{})
		}
		return ups
	}

	if e2 := msg.Embed(1); e2 != nil && strings.Contains(e2.Description, "Bucket Space") {
		if m := fillRe.FindStringSubmatch(e2.Description); m != nil {
			cur, _ := strconv.Atoi(m[1])
			max, _ := strconv.Atoi(m[2])
			ups = append(ups, BucketSpace{Cur: cur, Max: max})
		}
	}

	if e != nil {
		ups = append(ups, parseEmbed(me, msg, e)...)
	}
	if len(ups) == 0 {
		ups = append(ups, Unparsed{})
	}
	return ups
}

func parseEmbed(me string, msg *dank.Message, e *dank.Embed) []Update {
	var ups []Update
	desc := e.Description

	if strings.Contains(desc, "I just chose a secret number") {
		if m := hintRe.FindStringSubmatch(desc); m != nil {
			n, _ := strconv.Atoi(m[1])
			ups = append(ups, HighLow{Bound: n})
		}
	}
	if strings.Contains(desc, "do you want to search") {
		var labels []string
		if len(msg.Rows) > 0 {
			for _, b := range msg.Rows[0].Buttons {
				labels = append(labels, Fold(b.Label))
			}
		}
		ups = append(ups, SearchPrompt{Labels: labels})
	}
	if strings.Contains(desc, "What crime") {
		ups = append(ups, CrimePrompt{})
	}
	if strings.Contains(e.Title, "Fishing...") && e.Image != "" {
		ups = append(ups, FishingGrid{Image: e.Image})
	}
	if strings.Contains(desc, "You can fish again") || strings.Contains(e.Title, "There was nothing") {
		var at time.Time
		if m := relRe.FindStringSubmatch(desc); m != nil {
			sec, _ := strconv.ParseInt(m[1], 10, 64)
			at = time.Unix(sec, 0)
		}
		ups = append(ups, FishCooldown{ReadyAt: at})
	}
	if len(e.Fields) > 3 {
		if m := fillRe.FindStringSubmatch(e.Fields[3].Value); m != nil {
			cur, _ := strconv.Atoi(m[1])
			max, _ := strconv.Atoi(m[2])
			ups = append(ups, BucketFill{Cur: cur, Max: max})
		}
	}
	if strings.Contains(e.Title, "Viewing Bucket Slots") {
		ups = append(ups, BucketView{})
	}
	if strings.Contains(desc, "Are you sure you want to sell?") {
		ups = append(ups, SellPrompt{})
	}
	if strings.Contains(e.Author, me+"'s inventory") {
		ups = append(ups, parseInventory(e))
	}
	if strings.Contains(e.Title, "Dank Memer Shop") {
		page, total := parsePage(e.Footer)
		ups = append(ups, ShopPage{Page: page, Total: total})
	}
	if strings.Contains(e.Title, "choose items you want to bring along") {
		ups = append(ups, AdventureLoadout{})
	}
	ups = append(ups, parseAdventure(msg, e)...)
	ups = append(ups, parseStream(msg, e)...)
	if strings.Contains(e.Author, "Meme Posting Session") {
		if strings.Contains(desc, "dead meme") {
			ups = append(ups, DeadMeme{})
		} else {
			ups = append(ups, MemeSession{})
		}
	}
	return ups
}

func parseAdventure(msg *dank.Message, e *dank.Embed) []Update {
	var ups []Update
	desc := e.Description
	if strings.Contains(e.Author, "Adventure Summary") {
		var retry time.Duration
		if b := msg.Button(dank.Control{Row: 0, Col: 0}); b != nil && strings.Contains(b.Label, "dventure again in") {
			if m := numRe.FindString(b.Label); m != "" {
				mins, _ := strconv.Atoi(m)
				retry = time.Duration(mins) * time.Minute
			}
		}
		ups = append(ups, AdventureSummary{RetryAfter: retry})
	}
	if strings.Contains(desc, "You can start another adventure") {
		if m := absRe.FindStringSubmatch(desc); m != nil {
			sec, _ := strconv.ParseInt(m[1], 10, 64)
			ups = append(ups, AdventureCooldown{ReadyAt: time.Unix(sec, 0)})
		}
	}
	if strings.Contains(e.Author, "Choose an Adventure") {
		ups = append(ups, AdventureChoose{})
	}
	if msg.Interaction == nil || !strings.Contains(msg.Interaction.Name, "adventure") {
		return ups
	}
	if strings.Contains(desc, "Catch one of em") {
		ups = append(ups, AdventureCatch{})
		return ups
	}
	if desc == "" || len(ups) > 0 {
		return ups
	}
	ups = append(ups, AdventurePrompt{Desc: desc, HasSecondRow: len(msg.Rows) > 1})
	return ups
}

func parseStream(msg *dank.Message, e *dank.Embed) []Update {
	if !strings.Contains(e.Author, "Stream Manager") {
		return nil
	}
	if strings.Contains(e.Description, "What game do you want to stream") {
		return []Update{StreamPrompt{}}
	}
	if len(e.Fields) > 1 && e.Fields[1].Value != "" && msg.Button(dank.Control{Row: 0, Col: 2}) != nil {
		return []Update{StreamLive{}}
	}
	return []Update{StreamManager{}}
}

func parseInventory(e *dank.Embed) InventoryPage {
	var items []Item
	for _, line := range strings.Split(e.Description, "\n\n") {
		name, qty, ok := strings.Cut(line, " ─ ")
		if !ok {
			continue
		}
		name = markRe.ReplaceAllString(strings.TrimSpace(name), "")
		// Drop any leading emoji still attached to the name.
		if i := strings.LastIndexByte(name, '>'); i >= 0 {
			name = name[i+1:]
		}
		name = strings.TrimSpace(Fold(name))
		n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(qty), ",", ""))
		if name == "" || err != nil {
			continue
		}
		items = append(items, Item{Name: name, Quantity: n})
	}
	page, total := parsePage(e.Footer)
	return InventoryPage{Items: items, Page: page, Total: total}
}

func parsePage(footer string) (page, total int) {
	m := pageRe.FindStringSubmatch(footer)
	if m == nil {
		return 1, 1
	}
	page, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	return page, total
}
