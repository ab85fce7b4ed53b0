package googlebooks

import (
	"context"
	"fmt"
	"net/url"

	"shelf/internal/platform/fetch"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

type Client struct {
	fetch   *fetch.Client
	baseURL string
	apiKey  string
}

// NewClient returns a Google Books client. apiKey may be empty; the volumes
// endpoint then runs on the anonymous quota.
func NewClient(apiKey, userAgent string, rps int, maxRetries int) *Client {
	return &Client{
		fetch:   fetch.New(userAgent, rps, maxRetries),
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// VolumesResponse matches /volumes
type VolumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
	ImageLinks struct {
		SmallThumbnail string `json:"smallThumbnail"`
		Thumbnail      string `json:"thumbnail"`
	} `json:"imageLinks"`
}

func (c *Client) SearchVolumes(ctx context.Context, query string, maxResults int) (*VolumesResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprint(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var res VolumesResponse
	if err := c.fetch.GetJSON(ctx, c.baseURL+"/volumes?"+params.Encode(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}
