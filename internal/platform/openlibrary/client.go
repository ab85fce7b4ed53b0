package openlibrary

import (
	"context"
	"fmt"
	"net/url"

	"shelf/internal/platform/fetch"
)

const (
	defaultBaseURL  = "https://openlibrary.org"
	defaultCoverURL = "https://covers.openlibrary.org"
)

type Client struct {
	fetch    *fetch.Client
	baseURL  string
	coverURL string
}

func NewClient(userAgent string, rps int, maxRetries int) *Client {
	return &Client{
		fetch:    fetch.New(userAgent, rps, maxRetries),
		baseURL:  defaultBaseURL,
		coverURL: defaultCoverURL,
	}
}

// WithBaseURL points the client at another host, e.g. a test server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// SearchResponse matches search.json
type SearchResponse struct {
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

type Doc struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	AuthorNames []string `json:"author_name"`
	Subjects    []string `json:"subject"`
	CoverID     int      `json:"cover_i"`
}

// Search runs a free-text query against search.json.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&fields=key,title,author_name,subject,cover_i&limit=%d",
		c.baseURL, url.QueryEscape(query), limit)

	var res SearchResponse
	if err := c.fetch.GetJSON(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CoverURL returns the medium cover image for a cover id, or "" when the
// work has none.
func (c *Client) CoverURL(coverID int) string {
	if coverID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/b/id/%d-M.jpg", c.coverURL, coverID)
}
