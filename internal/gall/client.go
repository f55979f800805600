package gall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// actorHeader carries the chat-platform identity a request is attributed to.
const actorHeader = "X-Actors-Snowflake"

// Client talks to the GALL REST API. The zero value is not usable; create
// one with New. Clients are safe for concurrent use: As returns a derived
// per-call view instead of mutating shared state.
type Client struct {
	baseURL    string // site root, trailing slash guaranteed
	apiURL     string // baseURL + "api"
	token      string
	actingAs   string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for the GALL API rooted at baseURL (the site root,
// not the api path) authenticating with the given bearer token.
func New(log *slog.Logger, baseURL, token string) *Client {
	if log == nil {
		log = slog.Default()
	}
	root := strings.TrimSpace(baseURL)
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return &Client{
		baseURL:    root,
		apiURL:     root + "api",
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.With(slog.String("service", "gall")),
	}
}

// BaseURL returns the site root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// GalleryPageURL returns the public page URL for a gallery.
func (c *Client) GalleryPageURL(ref GalleryRef) string {
	return fmt.Sprintf("%sgallery/%d/", c.baseURL, ref.GalleryID())
}

// ProxyImageURL returns the image-proxy URL for an origin image.
func (c *Client) ProxyImageURL(origin string) string {
	return c.baseURL + "api/proxy?url=" + url.QueryEscape(origin)
}

// As returns a view of the client whose requests are attributed to the given
// chat-platform user. The receiver is not modified.
func (c *Client) As(actor string) *Client {
	derived := *c
	derived.actingAs = strings.TrimSpace(actor)
	return &derived
}

// Me fetches the identity the client's token (and acting header) resolve to.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	data, err := c.do(ctx, http.MethodGet, "/@me", nil)
	if err != nil || data == nil {
		return nil, err
	}
	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return &identity, nil
}

type publishRequest struct {
	URLs      []string `json:"urls"`
	Title     string   `json:"title,omitempty"`
	GuildID   string   `json:"guild_id,omitempty"`
	ChannelID string   `json:"channel_id,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
}

// Publish submits the given locators as a new gallery under the origin
// context. The API responds with a map keyed by locator whose values are
// either gallery records or error strings; a string entry for the first
// locator is an application-level failure and yields a nil gallery. A nil
// gallery with nil error is a normal "nothing published" outcome.
func (c *Client) Publish(ctx context.Context, locators []string, guildID, channelID, messageID, title string) (*Gallery, error) {
	if len(locators) == 0 {
		return nil, nil
	}
	data, err := c.do(ctx, http.MethodPost, "/gallery", publishRequest{
		URLs:      locators,
		Title:     title,
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
	})
	if err != nil || data == nil {
		return nil, err
	}

	var results map[string]json.RawMessage
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode publish result: %w", err)
	}

	if raw, ok := results[locators[0]]; ok {
		var failure string
		if json.Unmarshal(raw, &failure) == nil {
			c.logger.Error("publish failure", slog.String("url", locators[0]), slog.String("reason", failure))
			return nil, nil
		}
	}

	// First successful record wins, in submission order.
	for _, locator := range locators {
		raw, ok := results[locator]
		if !ok {
			continue
		}
		var gallery Gallery
		if err := json.Unmarshal(raw, &gallery); err == nil && gallery.ID != 0 {
			return &gallery, nil
		}
	}
	return nil, nil
}

// FindGalleries searches galleries; the query is typically an origin message
// id. Results keep the remote service's ranking.
func (c *Client) FindGalleries(ctx context.Context, query string) ([]Gallery, error) {
	data, err := c.do(ctx, http.MethodGet, "/gallery?q="+url.QueryEscape(query), nil)
	if err != nil || data == nil {
		return nil, err
	}
	var galleries []Gallery
	if err := json.Unmarshal(data, &galleries); err != nil {
		return nil, fmt.Errorf("decode galleries: %w", err)
	}
	return galleries, nil
}

// GetGallery fetches a single gallery by reference.
func (c *Client) GetGallery(ctx context.Context, ref GalleryRef) (*Gallery, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/gallery/%d", ref.GalleryID()), nil)
	if err != nil || data == nil {
		return nil, err
	}
	var gallery Gallery
	if err := json.Unmarshal(data, &gallery); err != nil {
		return nil, fmt.Errorf("decode gallery: %w", err)
	}
	return &gallery, nil
}

// AddReaction records an emoji reaction on a gallery for the acting user.
func (c *Client) AddReaction(ctx context.Context, ref GalleryRef, emoji Emoji) error {
	// Name rides along because unicode emoji arrive with a name and no id.
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/gallery/%d/reactions", ref.GalleryID()), map[string]any{
		"id":       emoji.ID,
		"name":     emoji.Name,
		"animated": emoji.Animated,
	})
	return err
}

// RemoveReaction removes the acting user's emoji reaction from a gallery.
func (c *Client) RemoveReaction(ctx context.Context, ref GalleryRef, emoji Emoji) error {
	endpoint := fmt.Sprintf("/gallery/%d/reactions?id=%s&name=%s",
		ref.GalleryID(), url.QueryEscape(emoji.ID), url.QueryEscape(emoji.Name))
	_, err := c.do(ctx, http.MethodDelete, endpoint, nil)
	return err
}

// Pin pins a gallery for the acting user.
func (c *Client) Pin(ctx context.Context, ref GalleryRef) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/gallery/%d/pin", ref.GalleryID()), nil)
	return err
}

// Favourite marks a gallery as a favourite of the acting user.
func (c *Client) Favourite(ctx context.Context, ref GalleryRef) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/gallery/%d/favourite", ref.GalleryID()), nil)
	return err
}

// Unfavourite removes a gallery from the acting user's favourites.
func (c *Client) Unfavourite(ctx context.Context, ref GalleryRef) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/gallery/%d/favourite", ref.GalleryID()), nil)
	return err
}

// AddGuild registers a guild with GALL.
func (c *Client) AddGuild(ctx context.Context, guildID string) error {
	_, err := c.do(ctx, http.MethodPost, "/guild", map[string]string{"guild_id": guildID})
	return err
}

// RemoveGuild removes a guild from GALL.
func (c *Client) RemoveGuild(ctx context.Context, guildID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/guild/"+url.PathEscape(guildID), nil)
	return err
}

// UpdateGuild updates a guild's name and emoji set. A nil result with nil
// error means the guild is unknown to GALL and should be added first.
func (c *Client) UpdateGuild(ctx context.Context, guildID, name string, emojis []Emoji) (bool, error) {
	data, err := c.do(ctx, http.MethodPut, "/guild/"+url.PathEscape(guildID), map[string]any{
		"name":   name,
		"emojis": emojis,
	})
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// CreateEmoji publishes a new custom emoji.
func (c *Client) CreateEmoji(ctx context.Context, emoji Emoji) error {
	_, err := c.do(ctx, http.MethodPost, "/emotes", emoji)
	return err
}

// UpdateEmoji updates an existing custom emoji.
func (c *Client) UpdateEmoji(ctx context.Context, emoji Emoji) error {
	_, err := c.do(ctx, http.MethodPut, "/emotes/"+url.PathEscape(emoji.ID), emoji)
	return err
}

// DeleteEmoji removes a custom emoji.
func (c *Client) DeleteEmoji(ctx context.Context, emojiID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/emotes/"+url.PathEscape(emojiID), nil)
	return err
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// do performs a request against the API. 401/403 map to ErrUnauthorized and
// 400 to ErrBadRequest; any other non-2xx status resolves to nil data with
// nil error so callers treat "no result" as a normal branch.
func (c *Client) do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actingAs != "" {
		req.Header.Set(actorHeader, c.actingAs)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("request failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(text)),
		)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrUnauthorized)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrBadRequest)
		default:
			return nil, nil
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// A JSON null decodes into a non-nil RawMessage; treat it as no data.
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, nil
	}
	return env.Data, nil
}
