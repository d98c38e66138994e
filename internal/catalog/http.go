package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/radio4000/r4fuse/internal/httpclient"
	"github.com/radio4000/r4fuse/internal/safeurl"
)

// HTTPClient is a Catalog backed by the radio4000 Supabase REST API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewHTTPClient returns an HTTPClient for baseURL (e.g. "https://xyz.supabase.co/rest/v1"),
// authenticating with apiKey via the standard Supabase "apikey" header.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    httpclient.Default(),
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.BaseURL + path
	if !safeurl.IsHTTPOrHTTPS(endpoint) {
		return fmt.Errorf("catalog: refusing non-http(s) endpoint %q", endpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("catalog: parse endpoint: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("catalog: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("catalog: decode response: %w", err)
	}
	return nil
}

type channelRow struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	WebsiteURL  string `json:"url"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (r channelRow) toChannel() Channel {
	return Channel{
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		WebsiteURL:  r.WebsiteURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type trackRow struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	DiscogsURL  string   `json:"discogs_url"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Tags        []string `json:"tags"`
}

func (r trackRow) toTrack() Track {
	return Track{
		ID:          r.ID,
		Title:       r.Title,
		URL:         r.URL,
		Description: r.Description,
		DiscogsURL:  r.DiscogsURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Tags:        r.Tags,
	}
}

// Channels implements Catalog.
func (c *HTTPClient) Channels(ctx context.Context) ([]Channel, error) {
	var rows []channelRow
	q := url.Values{"select": {"slug,name,description,image,url,created_at,updated_at"}}
	if err := c.doJSON(ctx, "/channels", q, &rows); err != nil {
		return nil, err
	}
	out := make([]Channel, len(rows))
	for i, r := range rows {
		out[i] = r.toChannel()
	}
	return out, nil
}

// Channel implements Catalog.
func (c *HTTPClient) Channel(ctx context.Context, slug string) (Channel, error) {
	var rows []channelRow
	q := url.Values{
		"select": {"slug,name,description,image,url,created_at,updated_at"},
		"slug":   {"eq." + slug},
		"limit":  {"1"},
	}
	if err := c.doJSON(ctx, "/channels", q, &rows); err != nil {
		return Channel{}, err
	}
	if len(rows) == 0 {
		return Channel{}, ErrNotFound
	}
	return rows[0].toChannel(), nil
}

// Tracks implements Catalog.
func (c *HTTPClient) Tracks(ctx context.Context, slug string) ([]Track, error) {
	var rows []trackRow
	q := url.Values{
		"select":       {"id,title,url,description,discogs_url,created_at,updated_at,tags"},
		"channel_slug": {"eq." + slug},
		"order":        {"created_at.desc"},
	}
	if err := c.doJSON(ctx, "/tracks", q, &rows); err != nil {
		return nil, err
	}
	out := make([]Track, len(rows))
	for i, r := range rows {
		out[i] = r.toTrack()
	}
	return out, nil
}
