package book

import (
	"errors"
	"net/http"
	"strings"

	"shelf/internal/httpx"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func init() {
	httpx.RegisterValidation("book_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
}

type HTTPHandler struct {
	service *Service
	log     *zap.Logger
}

func NewHTTPHandler(service *Service, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

// Register mounts the book routes on mux behind auth.
func (h *HTTPHandler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("GET /books", auth(http.HandlerFunc(h.List)))
	mux.Handle("POST /books", auth(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /books/{id}", auth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /books/{id}", auth(http.HandlerFunc(h.Delete)))
}

type createReq struct {
	Title    string `json:"title" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Genre    string `json:"genre"`
	Status   string `json:"status" validate:"omitempty,book_status"`
	CoverURL string `json:"coverUrl"`
}

// updateReq has no owner field: ownership is never taken from the body.
type updateReq struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	Status   string `json:"status" validate:"omitempty,book_status"`
	CoverURL string `json:"coverUrl"`
}

// List handles GET /books
// @Summary List the caller's books, newest first
// @Tags books
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	books, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, map[string]any{"total": len(books)})
}

// Create handles POST /books
// @Summary Add a book to the caller's library
// @Tags books
// @Security Bearer
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req createReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Genre = strings.TrimSpace(req.Genre)
	req.CoverURL = strings.TrimSpace(req.CoverURL)

	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Title and author are required", details)
		return
	}

	created, err := h.service.Create(r.Context(), userID, NewBook{
		Title:    req.Title,
		Author:   req.Author,
		Genre:    req.Genre,
		Status:   Status(req.Status),
		CoverURL: req.CoverURL,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("book created", zap.String("book_id", created.ID), zap.String("user_id", userID))
	httpx.JSONSuccessCreated(w, r, created)
}

// Update handles PUT /books/{id}
// @Summary Update fields of a book the caller owns
// @Tags books
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	var req updateReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	// Status is checked by the service after the ownership guard so that a
	// foreign or missing book never reports a validation error first.
	updated, err := h.service.Update(r.Context(), userID, id, Patch{
		Title:    strings.TrimSpace(req.Title),
		Author:   strings.TrimSpace(req.Author),
		Genre:    strings.TrimSpace(req.Genre),
		Status:   Status(req.Status),
		CoverURL: strings.TrimSpace(req.CoverURL),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /books/{id}
// @Summary Remove a book the caller owns
// @Tags books
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	id := r.PathValue("id")

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("book deleted", zap.String("book_id", id), zap.String("user_id", userID))
	httpx.JSONSuccess(w, r, map[string]string{"message": "Book removed"}, nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrForbidden):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "User not authorized", nil)
	default:
		h.log.Error("book request failed",
			zap.Error(err),
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.String("path", r.URL.Path),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
