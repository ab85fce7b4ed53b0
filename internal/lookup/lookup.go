// Package lookup proxies the external book catalog and the generative model
// used for literary insights. Nothing it returns is persisted.
package lookup

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

var (
	ErrInvalidInput      = errors.New("invalid lookup input")
	ErrUpstream          = errors.New("upstream service failed")
	ErrMalformedResponse = errors.New("upstream response malformed")
)

const (
	// MaxResults caps catalog search results.
	MaxResults = 5

	DefaultTitle  = "N/A"
	UnknownAuthor = "Unknown Author"
	DefaultGenre  = "Fiction"
)

// Candidate is one normalized catalog hit, used to prefill a new book.
type Candidate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	CoverURL string `json:"coverUrl"`
}

type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type Insight struct {
	Insight string   `json:"insight"`
	Sources []Source `json:"sources"`
}

// CatalogItem is the provider-neutral shape of a raw catalog result.
type CatalogItem struct {
	ID         string
	Title      string
	Authors    []string
	Categories []string
	Thumbnail  string
}

type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]CatalogItem, error)
}

// Generator is the part of the genai client the insight call needs;
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
