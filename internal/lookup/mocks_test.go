package lookup

import (
	"context"

	"github.com/stretchr/testify/mock"
	"google.golang.org/genai"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Search(ctx context.Context, query string, limit int) ([]CatalogItem, error) {
	args := m.Called(ctx, query, limit)
	items, _ := args.Get(0).([]CatalogItem)
	return items, args.Error(1)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}
