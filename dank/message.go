// Package dank models the chat-platform surface the bot drives: rendered
// messages with embeds and interactive components, and the client operations
// that act on them. Everything downstream of this package works on these
// types; the wire format stays here.
package dank

// Message is a rendered message from the platform.
type Message struct {
	// ID is the platform message ID.
	ID string
	// ChannelID is the channel the message was rendered in.
	ChannelID string
	// AuthorID is the user ID of the message author.
	AuthorID string
	// Interaction describes the slash-command invocation this message
	// answers, if any.
	Interaction *Interaction
	// Ephemeral indicates the message is visible only to the invoking user.
	Ephemeral bool
	// Embeds is the structured content attached to the message.
	Embeds []Embed
	// Rows is the interactive component grid. A row holds either buttons or
	// a single select menu.
	Rows []Row
}

// Interaction identifies the command invocation a message responds to.
type Interaction struct {
	// Name is the invoked command name.
	Name string
	// UserID is the user who invoked the command.
	UserID string
}

// Embed is a structured content block.
type Embed struct {
	Title       string
	Author      string
	Description string
	Fields      []Field
	Footer      string
	// Image is the URL of the embed's image, if any.
	Image string
}

// Field is one name/value pair of an embed.
type Field struct {
	Name  string
	Value string
}

// Row is one row of interactive components.
type Row struct {
	Buttons []Button
	// Menu is non-nil when the row holds a select menu instead of buttons.
	Menu *Menu
}

// Button is a clickable control.
type Button struct {
	Label    string
	CustomID string
	Disabled bool
}

// Menu is a select menu with its choices.
type Menu struct {
	CustomID string
	Options  []Option
}

// Option is one selectable menu choice.
type Option struct {
	Label string
	Value string
}

// Control addresses one button on a message by row and column.
type Control struct {
	Row, Col int
}

// Modal is a dialog prompting for text input.
type Modal struct {
	ID       string
	Title    string
	CustomID string
	// InputID is the custom ID of the dialog's text input.
	InputID string
}

// Embed returns the i'th embed, or nil when there is none.
func (m *Message) Embed(i int) *Embed {
	if m == nil || i < 0 || i >= len(m.Embeds) {
		return nil
	}
	return &m.Embeds[i]
}

// Button returns the button addressed by c, or nil when the coordinate names
// no button.
func (m *Message) Button(c Control) *Button {
	if m == nil || c.Row < 0 || c.Row >= len(m.Rows) {
		return nil
	}
	row := m.Rows[c.Row]
	if c.Col < 0 || c.Col >= len(row.Buttons) {
		return nil
	}
	return &row.Buttons[c.Col]
}

// Menu returns the select menu on the given row, or nil.
func (m *Message) Menu(row int) *Menu {
	if m == nil || row < 0 || row >= len(m.Rows) {
		return nil
	}
	return m.Rows[row].Menu
}

// Field returns the value of embed 0's i'th field, or the empty string.
func (m *Message) Field(i int) string {
	e := m.Embed(0)
	if e == nil || i < 0 || i >= len(e.Fields) {
		return ""
	}
	return e.Fields[i].Value
}
