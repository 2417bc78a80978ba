// Package faceit provides a minimal client for the FACEIT Data API v4 and the
// demo download that follows it.
package faceit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the root endpoint for the FACEIT Data API v4.
const DefaultBaseURL = "https://open.faceit.com/data/v4"

// ErrNoAPIKey is returned when the client is built without a key.
var ErrNoAPIKey = errors.New("FACEIT API key not found: set CSCOACH_FACEIT_API_KEY or faceit.api_key")

// Client is a minimal FACEIT Data API v4 client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient returns a FACEIT API client authenticated with the given API key.
// An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Player holds the fields we need from the /players endpoint.
type Player struct {
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Games    struct {
		CS2 struct {
			SkillLevel int    `json:"skill_level"`
			FaceitELO  int    `json:"faceit_elo"`
			Region     string `json:"region"`
		} `json:"cs2"`
	} `json:"games"`
}

// MatchHistoryItem is one entry from /players/{id}/history.
type MatchHistoryItem struct {
	MatchID    string `json:"match_id"`
	Status     string `json:"status"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

// Finished reports whether the match completed.
func (m MatchHistoryItem) Finished() bool {
	return strings.EqualFold(m.Status, "FINISHED")
}

// MatchDetail holds the fields we need from /matches/{id}.
type MatchDetail struct {
	MatchID    string   `json:"match_id"`
	SkillLevel int      `json:"skill_level"`
	DemoURLs   []string `json:"demo_url"`
	StartedAt  int64    `json:"started_at"`
	Voting     struct {
		Map struct {
			Pick []string `json:"pick"`
		} `json:"map"`
	} `json:"voting"`
}

// MapName returns the picked map name, or empty string if unavailable.
func (m *MatchDetail) MapName() string {
	if len(m.Voting.Map.Pick) > 0 {
		return m.Voting.Map.Pick[0]
	}
	return ""
}

// MatchDate returns the start date as YYYY-MM-DD in UTC.
func (m *MatchDetail) MatchDate() string {
	return time.Unix(m.StartedAt, 0).UTC().Format("2006-01-02")
}

// get performs an authenticated GET request against the FACEIT API and
// JSON-decodes the response body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetPlayerByNickname looks up a player by their FACEIT nickname.
func (c *Client) GetPlayerByNickname(ctx context.Context, nickname string) (*Player, error) {
	var p Player
	if err := c.get(ctx, "/players?nickname="+url.QueryEscape(nickname), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlayerBySteamID looks up a player by their Steam ID64.
func (c *Client) GetPlayerBySteamID(ctx context.Context, steamID string) (*Player, error) {
	var p Player
	if err := c.get(ctx, "/players?game=cs2&game_player_id="+url.QueryEscape(steamID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LookupPlayer resolves a Steam ID64 or a nickname.
func (c *Client) LookupPlayer(ctx context.Context, query string) (*Player, error) {
	if LooksLikeSteamID(query) {
		return c.GetPlayerBySteamID(ctx, query)
	}
	return c.GetPlayerByNickname(ctx, query)
}

// GetMatchHistory returns up to limit recent matches for a player.
func (c *Client) GetMatchHistory(ctx context.Context, playerID string, limit int) ([]MatchHistoryItem, error) {
	var resp struct {
		Items []MatchHistoryItem `json:"items"`
	}
	path := fmt.Sprintf("/players/%s/history?game=cs2&offset=0&limit=%d", url.PathEscape(playerID), limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetMatch returns details for a single match, including demo URLs and map.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchDetail, error) {
	var m MatchDetail
	if err := c.get(ctx, "/matches/"+url.PathEscape(matchID), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LooksLikeSteamID returns true if s is a numeric string of at least 15 digits,
// consistent with a Steam ID64.
func LooksLikeSteamID(s string) bool {
	if len(s) < 15 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
