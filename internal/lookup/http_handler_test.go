package lookup

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func TestHTTPHandler_Search(t *testing.T) {
	cat := new(mockCatalog)
	cat.On("Search", mock.Anything, "dune", MaxResults).Return([]CatalogItem{{ID: "1", Title: "Dune"}}, nil)
	cat.On("Search", mock.Anything, "broken", MaxResults).Return(nil, errors.New("timeout"))
	handler := NewHTTPHandler(NewService(cat, nil, "m", time.Minute, zap.NewNop()), zap.NewNop())

	t.Run("ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/external/search?q=dune", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"author":"Unknown Author"`)
	})

	t.Run("missing q", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/external/search", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Search(w, httptest.NewRequest(http.MethodGet, "/external/search?q=broken", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, w))
	})
}

func TestHTTPHandler_Insights(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(textResponse(""), nil)
	handler := NewHTTPHandler(NewService(new(mockCatalog), gen, "m", time.Minute, zap.NewNop()), zap.NewNop())

	t.Run("missing author", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Insights(w, httptest.NewRequest(http.MethodPost, "/external/insights", strings.NewReader(`{"title":"Dune"}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		gen.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed upstream", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Insights(w, httptest.NewRequest(http.MethodPost, "/external/insights", strings.NewReader(`{"title":"Dune","author":"Herbert"}`)))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "UPSTREAM_MALFORMED", errorCode(t, w))
	})
}
