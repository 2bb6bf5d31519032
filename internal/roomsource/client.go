// Package roomsource is the HTTP client for the room directory collaborator
package roomsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
)

// maxBodyBytes caps how much of a response is read
const maxBodyBytes = 4 << 20

// Client fetches the room inventory over HTTP
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a room source client. token may be empty.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// roomRecord is the wire shape of one room. Equipment arrives either as a
// list or as the four boolean columns.
type roomRecord struct {
	RoomID     flexibleID `json:"roomId"`
	RoomName   string     `json:"roomName"`
	RoomType   string     `json:"roomType"`
	Capacity   int        `json:"capacity"`
	Location   string     `json:"location"`
	Equipment  []string   `json:"equipment"`
	Rating     *float64   `json:"rating"`
	Image      string     `json:"image"`
	Speaker    bool       `json:"speaker"`
	Whiteboard bool       `json:"whiteboard"`
	Monitor    bool       `json:"monitor"`
	HDMICable  bool       `json:"hdmiCable"`
}

// flexibleID accepts both numeric and string ids
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexibleID(n.String())
	return nil
}

func (r roomRecord) toRoom() models.Room {
	eq := models.EquipmentSet{}
	for _, name := range r.Equipment {
		if e, err := models.ParseEquipment(name); err == nil {
			eq[e] = struct{}{}
		}
	}
	flags := map[models.Equipment]bool{
		models.EquipmentSpeaker:    r.Speaker,
		models.EquipmentWhiteboard: r.Whiteboard,
		models.EquipmentMonitor:    r.Monitor,
		models.EquipmentHDMICable:  r.HDMICable,
	}
	for e, on := range flags {
		if on {
			eq[e] = struct{}{}
		}
	}

	room := models.Room{
		ID:        string(r.RoomID),
		Name:      r.RoomName,
		Type:      r.RoomType,
		Capacity:  r.Capacity,
		Location:  r.Location,
		Equipment: eq,
		Image:     r.Image,
	}
	if r.Rating != nil {
		room.Rating = *r.Rating
	}
	return room
}

// Load fetches GET {baseURL}/rooms
func (c *Client) Load(ctx context.Context) ([]models.Room, error) {
	body, err := c.get(ctx, "/rooms")
	if err != nil {
		return nil, err
	}

	var records []roomRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errs.Mark(fmt.Errorf("failed to parse room list: %w", err), errs.ErrUpstreamUnavailable)
	}

	rooms := make([]models.Room, 0, len(records))
	for _, r := range records {
		rooms = append(rooms, r.toRoom())
	}
	return rooms, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Mark(fmt.Errorf("failed to make request: %w", err), errs.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Mark(fmt.Errorf("failed to read response body: %w", err), errs.ErrUpstreamUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Mark(
			fmt.Errorf("room source error (status %d): %s", resp.StatusCode, truncate(string(body), 200)),
			errs.ErrUpstreamUnavailable)
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
