package dank

import "context"

// Client is the set of platform interactions the bot performs. The gateway
// implements it over the real platform; tests substitute their own.
type Client interface {
	// SendCommand invokes a slash command on the game bot with positional
	// string arguments.
	SendCommand(ctx context.Context, name string, args []string) error
	// Click presses the button addressed by c on a rendered message.
	Click(ctx context.Context, msg *Message, c Control) error
	// Select chooses values in the select menu on the given row.
	Select(ctx context.Context, msg *Message, row int, values []string) error
	// Submit fills the single text input of a modal and submits it.
	Submit(ctx context.Context, modal *Modal, value string) error
}
