package dank

import (
	"github.com/go-json-experiment/json/jsontext"
)

// envelope is the frame carried on the gateway socket in both directions.
type envelope struct {
	Op int            `json:"op"`
	D  jsontext.Value `json:"d,omitzero"`
	S  int64          `json:"s,omitzero"`
	T  string         `json:"t,omitzero"`
}

// Gateway opcodes.
const (
	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opHello        = 10
	opHeartbeatAck = 11
)

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type readyData struct {
	SessionID string   `json:"session_id"`
	User      wireUser `json:"user"`
}

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type wireMessage struct {
	ID          string           `json:"id"`
	ChannelID   string           `json:"channel_id"`
	Author      wireUser         `json:"author"`
	Flags       int              `json:"flags"`
	Interaction *wireInteraction `json:"interaction"`
	Embeds      []wireEmbed      `json:"embeds"`
	Components  []wireRow        `json:"components"`
}

const flagEphemeral = 1 << 6

type wireInteraction struct {
	Name string   `json:"name"`
	User wireUser `json:"user"`
}

type wireEmbed struct {
	Title       string    `json:"title"`
	Author      wireNamed `json:"author"`
	Description string    `json:"description"`
	Fields      []Field   `json:"fields"`
	Footer      wireText  `json:"footer"`
	Image       wireURL   `json:"image"`
}

type wireNamed struct {
	Name string `json:"name"`
}

type wireText struct {
	Text string `json:"text"`
}

type wireURL struct {
	URL string `json:"url"`
}

// Component type identifiers.
const (
	componentRow    = 1
	componentButton = 2
	componentMenu   = 3
	componentInput  = 4
)

type wireRow struct {
	Type       int             `json:"type"`
	Components []wireComponent `json:"components"`
}

type wireComponent struct {
	Type     int      `json:"type"`
	Label    string   `json:"label,omitzero"`
	CustomID string   `json:"custom_id,omitzero"`
	Disabled bool     `json:"disabled,omitzero"`
	Options  []Option `json:"options,omitzero"`
	Value    string   `json:"value,omitzero"`
}

type wireModal struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CustomID   string    `json:"custom_id"`
	Components []wireRow `json:"components"`
}

func (w *wireMessage) message() *Message {
	m := &Message{
		ID:        w.ID,
		ChannelID: w.ChannelID,
		AuthorID:  w.Author.ID,
		Ephemeral: w.Flags&flagEphemeral != 0,
	}
	if w.Interaction != nil {
		m.Interaction = &Interaction{Name: w.Interaction.Name, UserID: w.Interaction.User.ID}
	}
	for _, e := range w.Embeds {
		m.Embeds = append(m.Embeds, Embed{
			Title:       e.Title,
			Author:      e.Author.Name,
			Description: e.Description,
			Fields:      e.Fields,
			Footer:      e.Footer.Text,
			Image:       e.Image.URL,
		})
	}
	for _, r := range w.Components {
		var row Row
		for _, c := range r.Components {
			switch c.Type {
			case componentButton:
				row.Buttons = append(row.Buttons, Button{Label: c.Label, CustomID: c.CustomID, Disabled: c.Disabled})
			case componentMenu:
				row.Menu = &Menu{CustomID: c.CustomID, Options: c.Options}
			}
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

func (w *wireModal) modal() *Modal {
	m := &Modal{ID: w.ID, Title: w.Title, CustomID: w.CustomID}
	for _, r := range w.Components {
		for _, c := range r.Components {
			if c.Type == componentInput {
				m.InputID = c.CustomID
				return m
			}
		}
	}
	return m
}
