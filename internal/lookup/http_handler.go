package lookup

import (
	"errors"
	"net/http"
	"strings"

	"shelf/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

func (h *HTTPHandler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("GET /external/search", auth(http.HandlerFunc(h.Search)))
	mux.Handle("POST /external/insights", auth(http.HandlerFunc(h.Insights)))
}

type insightsReq struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

// Search handles GET /external/search
// @Summary Search the external book catalog
// @Tags external
// @Security Bearer
// @Param q query string true "Free-text query"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /external/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Search query is required", []httpx.ErrorDetail{
			{Field: "q", Message: "q is required"},
		})
		return
	}

	candidates, err := h.service.SearchCatalog(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, candidates, map[string]any{"total": len(candidates)})
}

// Insights handles POST /external/insights
// @Summary Generate literary insights for a book
// @Tags external
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /external/insights [post]
func (h *HTTPHandler) Insights(w http.ResponseWriter, r *http.Request) {
	var req insightsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)

	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Title and author are required", details)
		return
	}

	insight, err := h.service.GetInsights(r.Context(), req.Title, req.Author)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, insight, nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrMalformedResponse):
		httpx.JSONError(w, r, http.StatusInternalServerError, "UPSTREAM_MALFORMED", "Invalid response structure from API", nil)
	case errors.Is(err, ErrUpstream):
		httpx.JSONError(w, r, http.StatusInternalServerError, "UPSTREAM_ERROR", "External service unavailable", nil)
	default:
		h.log.Error("lookup request failed", zap.Error(err), zap.String("request_id", httpx.RequestIDFrom(r)))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
