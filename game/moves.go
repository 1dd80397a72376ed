package game

import (
	"fmt"
	"os"

	"github.com/go-json-experiment/json"
)

// Moves maps a fishing board key, "spot-bomb" with each position rendered as
// "row,col" and a missing bomb as "null", to the button presses that walk the
// rod onto the spot.
type Moves map[string][]string

// LoadMoves reads a move table from a JSON file.
func LoadMoves(path string) (Moves, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read move table: %w", err)
	}
	var m Moves
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("couldn't decode move table %s: %w", path, err)
	}
	return m, nil
}

// MoveColumn maps a move name to its button column on the board's control
// row. The second result is false for unknown moves.
func MoveColumn(move string) (int, bool) {
	switch move {
	case "left":
		return 0, true
	case "up":
		return 1, true
	case "2", "confirm":
		return 2, true
	case "down":
		return 3, true
	case "right":
		return 4, true
	}
	return 0, false
}
