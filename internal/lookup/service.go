package lookup

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const systemInstruction = "You are a helpful literary expert. You provide concise insights about books."

type Service struct {
	catalog   Catalog
	generator Generator
	model     string
	cache     *gocache.Cache
	log       *zap.Logger
}

// NewService wires the lookup proxy. generator may be nil when no model
// credentials are configured; GetInsights then reports ErrUpstream.
// A cacheTTL of zero or less turns the search cache off.
func NewService(catalog Catalog, generator Generator, model string, cacheTTL time.Duration, log *zap.Logger) *Service {
	s := &Service{
		catalog:   catalog,
		generator: generator,
		model:     model,
		log:       log,
	}
	if cacheTTL > 0 {
		s.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// SearchCatalog returns at most MaxResults normalized candidates for query.
func (s *Service) SearchCatalog(ctx context.Context, query string) ([]Candidate, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return slices.Clone(cached.([]Candidate)), nil
		}
	}

	items, err := s.catalog.Search(ctx, strings.TrimSpace(query), MaxResults)
	if err != nil {
		s.log.Warn("catalog search failed", zap.String("query", key), zap.Error(err))
		return nil, fmt.Errorf("%w: catalog search: %v", ErrUpstream, err)
	}

	if len(items) > MaxResults {
		items = items[:MaxResults]
	}
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		out = append(out, normalize(it))
	}

	if s.cache != nil {
		s.cache.SetDefault(key, out)
	}
	return slices.Clone(out), nil
}

func normalize(it CatalogItem) Candidate {
	c := Candidate{
		ID:       it.ID,
		Title:    it.Title,
		Author:   strings.Join(it.Authors, ", "),
		CoverURL: it.Thumbnail,
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Author == "" {
		c.Author = UnknownAuthor
	}
	if len(it.Categories) > 0 && it.Categories[0] != "" {
		c.Genre = it.Categories[0]
	} else {
		c.Genre = DefaultGenre
	}
	return c
}

// GetInsights asks the model for a summary, themes and related reading,
// grounded with Google Search.
func (s *Service) GetInsights(ctx context.Context, title, author string) (Insight, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return Insight{}, fmt.Errorf("%w: title and author are required", ErrInvalidInput)
	}
	if s.generator == nil {
		return Insight{}, fmt.Errorf("%w: insights are not configured", ErrUpstream)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	contents := []*genai.Content{genai.NewContentFromText(insightQuery(title, author), genai.RoleUser)}

	resp, err := s.generator.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		s.log.Warn("insight generation failed", zap.String("model", s.model), zap.Error(err))
		return Insight{}, fmt.Errorf("%w: generate content: %v", ErrUpstream, err)
	}

	return extractInsight(resp)
}

func insightQuery(title, author string) string {
	return fmt.Sprintf(`Please provide the following for the book "%s" by %s:
1. A one-paragraph summary.
2. A list of 3-5 key themes.
3. A list of 3 related reading suggestions (title and author).
Base your answer on publicly available information.`, title, author)
}

// extractInsight reads the first candidate only. Sources keep upstream
// order and drop entries missing a URI or a title.
func extractInsight(resp *genai.GenerateContentResponse) (Insight, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return Insight{}, fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	cand := resp.Candidates[0]

	var text strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			text.WriteString(p.Text)
		}
	}
	insight := strings.TrimSpace(text.String())
	if insight == "" {
		return Insight{}, fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}

	sources := make([]Source, 0)
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			if chunk.Web.URI == "" || chunk.Web.Title == "" {
				continue
			}
			sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return Insight{Insight: insight, Sources: sources}, nil
}
