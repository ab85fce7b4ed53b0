package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

func newService(c Catalog, g Generator) *Service {
	return NewService(c, g, "gemini-test", time.Minute, zap.NewNop())
}

func TestSearchCatalog_BlankQuery(t *testing.T) {
	cat := new(mockCatalog)
	svc := newService(cat, nil)

	_, err := svc.SearchCatalog(context.Background(), "   ")

	assert.ErrorIs(t, err, ErrInvalidInput)
	cat.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchCatalog_NormalizesAndLimits(t *testing.T) {
	items := []CatalogItem{
		{ID: "1", Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}, Categories: []string{"Fantasy", "Classics"}, Thumbnail: "http://img/1"},
		{ID: "2", Authors: []string{"A", "B"}},
		{ID: "3", Title: "T3"},
		{ID: "4", Title: "T4"},
		{ID: "5", Title: "T5"},
		{ID: "6", Title: "T6"},
		{ID: "7", Title: "T7"},
	}
	cat := new(mockCatalog)
	cat.On("Search", mock.Anything, "hobbit", MaxResults).Return(items, nil).Once()
	svc := newService(cat, nil)

	got, err := svc.SearchCatalog(context.Background(), " hobbit ")
	require.NoError(t, err)
	require.Len(t, got, MaxResults)

	assert.Equal(t, Candidate{ID: "1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", CoverURL: "http://img/1"}, got[0])
	assert.Equal(t, Candidate{ID: "2", Title: DefaultTitle, Author: "A, B", Genre: DefaultGenre, CoverURL: ""}, got[1])
	assert.Equal(t, UnknownAuthor, got[2].Author)
	cat.AssertExpectations(t)
}

func TestSearchCatalog_CachesByNormalizedQuery(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Search", mock.Anything, "Dune", MaxResults).Return([]CatalogItem{{ID: "d", Title: "Dune"}}, nil).Once()
	svc := newService(cat, nil)

	first, err := svc.SearchCatalog(context.Background(), "Dune")
	require.NoError(t, err)
	first[0].Title = "mutated"

	second, err := svc.SearchCatalog(context.Background(), "  dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune", second[0].Title)
	cat.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearchCatalog_ZeroTTLDisablesCache(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Search", mock.Anything, "dune", MaxResults).Return([]CatalogItem{{ID: "d", Title: "Dune"}}, nil)
	svc := NewService(cat, nil, "gemini-test", 0, zap.NewNop())

	for i := 0; i < 2; i++ {
		got, err := svc.SearchCatalog(context.Background(), "dune")
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	cat.AssertNumberOfCalls(t, "Search", 2)
}

func TestSearchCatalog_UpstreamFailureIsNotCached(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Search", mock.Anything, "dune", MaxResults).Return(nil, errors.New("503")).Once()
	cat.On("Search", mock.Anything, "dune", MaxResults).Return([]CatalogItem{}, nil).Once()
	svc := newService(cat, nil)

	_, err := svc.SearchCatalog(context.Background(), "dune")
	assert.ErrorIs(t, err, ErrUpstream)

	got, err := svc.SearchCatalog(context.Background(), "dune")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func textResponse(text string, chunks ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
			GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: chunks},
		}},
	}
}

func TestGetInsights_FiltersSources(t *testing.T) {
	gen := new(mockGenerator)
	resp := textResponse("A tale of desert power.",
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{URI: "https://a", Title: "A"}},
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{URI: "https://b"}},
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
		&genai.GroundingChunk{},
		&genai.GroundingChunk{Web: &genai.GroundingChunkWeb{URI: "https://c", Title: "C"}},
	)
	gen.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.MatchedBy(func(cfg *genai.GenerateContentConfig) bool {
		return cfg.SystemInstruction != nil && len(cfg.Tools) == 1 && cfg.Tools[0].GoogleSearch != nil
	})).Return(resp, nil)
	svc := newService(new(mockCatalog), gen)

	got, err := svc.GetInsights(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)

	assert.Equal(t, "A tale of desert power.", got.Insight)
	assert.Equal(t, []Source{{URI: "https://a", Title: "A"}, {URI: "https://c", Title: "C"}}, got.Sources)
	gen.AssertExpectations(t)
}

func TestGetInsights_PromptMentionsBook(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.MatchedBy(func(contents []*genai.Content) bool {
		return len(contents) == 1 && len(contents[0].Parts) == 1 &&
			assert.ObjectsAreEqual(insightQuery("Dune", "Frank Herbert"), contents[0].Parts[0].Text)
	}), mock.Anything).Return(textResponse("ok"), nil)
	svc := newService(new(mockCatalog), gen)

	_, err := svc.GetInsights(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.Contains(t, insightQuery("Dune", "Frank Herbert"), `"Dune" by Frank Herbert`)
}

func TestGetInsights_NoGroundingGivesEmptySources(t *testing.T) {
	gen := new(mockGenerator)
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "text"}}}}},
	}
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(resp, nil)
	svc := newService(new(mockCatalog), gen)

	got, err := svc.GetInsights(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.NotNil(t, got.Sources)
	assert.Empty(t, got.Sources)
}

func TestGetInsights_Errors(t *testing.T) {
	t.Run("blank input", func(t *testing.T) {
		_, err := newService(new(mockCatalog), new(mockGenerator)).GetInsights(context.Background(), "Dune", " ")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := newService(new(mockCatalog), nil).GetInsights(context.Background(), "Dune", "Herbert")
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("call fails", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

		_, err := newService(new(mockCatalog), gen).GetInsights(context.Background(), "Dune", "Herbert")
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("no candidates", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&genai.GenerateContentResponse{}, nil)

		_, err := newService(new(mockCatalog), gen).GetInsights(context.Background(), "Dune", "Herbert")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("empty text", func(t *testing.T) {
		gen := new(mockGenerator)
		gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(textResponse("  "), nil)

		_, err := newService(new(mockCatalog), gen).GetInsights(context.Background(), "Dune", "Herbert")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}
