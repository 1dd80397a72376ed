package dank

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-json-experiment/json"
)

// Interaction payload types.
const (
	interactionCommand   = 2
	interactionComponent = 3
	interactionModal     = 5
)

type interactionPayload struct {
	Type          int             `json:"type"`
	ApplicationID string          `json:"application_id"`
	GuildID       string          `json:"guild_id,omitzero"`
	ChannelID     string          `json:"channel_id"`
	MessageID     string          `json:"message_id,omitzero"`
	SessionID     string          `json:"session_id"`
	Nonce         string          `json:"nonce"`
	Data          interactionData `json:"data"`
}

type interactionData struct {
	Name          string              `json:"name,omitzero"`
	Options       []interactionOption `json:"options,omitzero"`
	ComponentType int                 `json:"component_type,omitzero"`
	CustomID      string              `json:"custom_id,omitzero"`
	Values        []string            `json:"values,omitzero"`
	Components    []wireRow           `json:"components,omitzero"`
}

type interactionOption struct {
	Type  int    `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SendCommand invokes a slash command on the game bot.
func (g *Gateway) SendCommand(ctx context.Context, name string, args []string) error {
	p := interactionPayload{
		Type:          interactionCommand,
		ApplicationID: g.ApplicationID,
		GuildID:       g.GuildID,
		ChannelID:     g.ChannelID,
		Data:          interactionData{Name: name},
	}
	for i, a := range args {
		p.Data.Options = append(p.Data.Options, interactionOption{
			Type:  3, // string
			Name:  "arg" + strconv.Itoa(i),
			Value: a,
		})
	}
	return g.interact(ctx, &p)
}

// Click presses the button addressed by c on msg.
func (g *Gateway) Click(ctx context.Context, msg *Message, c Control) error {
	b := msg.Button(c)
	if b == nil {
		return fmt.Errorf("no button at row %d col %d", c.Row, c.Col)
	}
	if b.Disabled {
		return fmt.Errorf("button %q at row %d col %d is disabled", b.Label, c.Row, c.Col)
	}
	p := interactionPayload{
		Type:          interactionComponent,
		ApplicationID: g.ApplicationID,
		GuildID:       g.GuildID,
		ChannelID:     msg.ChannelID,
		MessageID:     msg.ID,
		Data: interactionData{
			ComponentType: componentButton,
			CustomID:      b.CustomID,
		},
	}
	return g.interact(ctx, &p)
}

// Select chooses values in the select menu on the given row of msg.
func (g *Gateway) Select(ctx context.Context, msg *Message, row int, values []string) error {
	m := msg.Menu(row)
	if m == nil {
		return fmt.Errorf("no menu on row %d", row)
	}
	p := interactionPayload{
		Type:          interactionComponent,
		ApplicationID: g.ApplicationID,
		GuildID:       g.GuildID,
		ChannelID:     msg.ChannelID,
		MessageID:     msg.ID,
		Data: interactionData{
			ComponentType: componentMenu,
			CustomID:      m.CustomID,
			Values:        values,
		},
	}
	return g.interact(ctx, &p)
}

// Submit fills the modal's text input with value and submits the dialog.
func (g *Gateway) Submit(ctx context.Context, modal *Modal, value string) error {
	p := interactionPayload{
		Type:          interactionModal,
		ApplicationID: g.ApplicationID,
		GuildID:       g.GuildID,
		ChannelID:     g.ChannelID,
		Data: interactionData{
			CustomID: modal.CustomID,
			Components: []wireRow{{
				Type: componentRow,
				Components: []wireComponent{{
					Type:     componentInput,
					CustomID: modal.InputID,
					Value:    value,
				}},
			}},
		},
	}
	return g.interact(ctx, &p)
}

func (g *Gateway) interact(ctx context.Context, p *interactionPayload) error {
	g.mu.Lock()
	p.SessionID = g.sessionID
	g.mu.Unlock()
	p.Nonce = strconv.FormatInt(g.nonce.Add(1), 10)
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("couldn't encode interaction: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", g.API+"/interactions", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("couldn't create interaction request: %w", err)
	}
	req.Header.Set("Authorization", g.Token)
	req.Header.Set("Content-Type", "application/json")
	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("couldn't send interaction: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("interaction rejected: %s (%s)", resp.Status, body)
	}
	return nil
}
