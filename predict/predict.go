// Package predict calls the vision service that locates objects on a fishing
// board image, and the trending-games endpoint.
package predict

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"

	"github.com/TahaGorme/slashy/fault"
)

// Position is a cell on the fishing board.
type Position struct {
	Row, Col int
}

// String renders the position the way the move table keys it.
func (p Position) String() string {
	return strconv.Itoa(p.Row) + "," + strconv.Itoa(p.Col)
}

// Board is the detected layout of a fishing board. Bomb is nil when no bomb
// was detected.
type Board struct {
	Rod  Position
	Spot Position
	Bomb *Position
}

// Key renders the board as a move-table key.
func (b Board) Key() string {
	if b.Bomb == nil {
		return b.Spot.String() + "-null"
	}
	return b.Spot.String() + "-" + b.Bomb.String()
}

// Client calls the prediction service.
type Client struct {
	// HTTP is the client for all requests. Nil means http.DefaultClient.
	HTTP *http.Client
	// URL is the prediction endpoint.
	URL string
	// Trending is the trending-game endpoint.
	Trending string
}

func (c *Client) client() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

type detection struct {
	X     int    `json:"grid_x"`
	Y     int    `json:"grid_y"`
	Class string `json:"class"`
}

type prediction struct {
	Positions []detection `json:"grid_positions"`
}

// Detect downloads the board image at url and asks the prediction service to
// locate the rod, fishing spot, and sea bomb on it. A response that lacks a
// rod or a spot is an external-call fault.
func (c *Client) Detect(ctx context.Context, url string) (Board, error) {
	img, err := c.fetch(ctx, url)
	if err != nil {
		return Board{}, fault.Wrapf(fault.ExternalCall, "couldn't fetch board image: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("image", "fishy.png")
	if err != nil {
		return Board{}, fmt.Errorf("couldn't build form: %w", err)
	}
	if _, err := fw.Write(img); err != nil {
		return Board{}, fmt.Errorf("couldn't build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return Board{}, fmt.Errorf("couldn't build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &body)
	if err != nil {
		return Board{}, fmt.Errorf("couldn't make request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.client().Do(req)
	if err != nil {
		return Board{}, fault.Wrapf(fault.ExternalCall, "couldn't call prediction service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Board{}, fault.Wrapf(fault.ExternalCall, "prediction service said %s", resp.Status)
	}
	var p prediction
	if err := json.UnmarshalRead(resp.Body, &p); err != nil {
		return Board{}, fault.Wrapf(fault.ExternalCall, "couldn't decode prediction: %w", err)
	}

	var b Board
	var rod, spot bool
	for _, d := range p.Positions {
		at := Position{Row: d.Y, Col: d.X}
		switch d.Class {
		case "Hand", "Fishing Rod":
			b.Rod, rod = at, true
		case "Fishing Spot":
			b.Spot, spot = at, true
		case "Sea Bomb":
			bomb := at
			b.Bomb = &bomb
		}
	}
	if !rod || !spot {
		return Board{}, fault.New(fault.ExternalCall, "prediction found no rod or spot")
	}
	return b, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch said %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// TrendingGame asks the trending endpoint which game is popular right now.
func (c *Client) TrendingGame(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Trending, nil)
	if err != nil {
		return "", fmt.Errorf("couldn't make request: %w", err)
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return "", fault.Wrapf(fault.ExternalCall, "couldn't get trending game: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fault.Wrapf(fault.ExternalCall, "trending endpoint said %s", resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fault.Wrapf(fault.ExternalCall, "couldn't read trending game: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
