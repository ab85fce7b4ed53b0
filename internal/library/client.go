package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelf/internal/book"
	"shelf/internal/lookup"
	"shelf/internal/user"
)

var (
	// ErrUnauthenticated means the session is missing or was rejected; the
	// session has been cleared and the user must sign in again.
	ErrUnauthenticated = errors.New("not signed in")
	ErrRequestFailed   = errors.New("request failed")
)

// BookInput is the create and update payload. Empty fields are omitted, so
// an update only touches the fields that are set.
type BookInput struct {
	Title    string      `json:"title,omitempty"`
	Author   string      `json:"author,omitempty"`
	Genre    string      `json:"genre,omitempty"`
	Status   book.Status `json:"status,omitempty"`
	CoverURL string      `json:"coverUrl,omitempty"`
}

// Client talks to the shelf HTTP API on behalf of one session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

func NewClient(baseURL string, session *Session) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError carries the server's error code and message. It unwraps to the
// sentinel matching the status.
type APIError struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Code, e.Status)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.session.Token()
		if token == "" {
			return ErrUnauthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), kind: c.classify(resp.StatusCode, authed)}
		}
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode >= 400 {
		kind := c.classify(resp.StatusCode, authed)
		switch env.Error.Code {
		case "UPSTREAM_ERROR":
			kind = lookup.ErrUpstream
		case "UPSTREAM_MALFORMED":
			kind = lookup.ErrMalformedResponse
		}
		return &APIError{
			Status:  resp.StatusCode,
			Code:    env.Error.Code,
			Message: env.Error.Message,
			kind:    kind,
		}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// classify maps a failure status to a sentinel. A 401 on an authenticated
// call ends the session.
func (c *Client) classify(status int, authed bool) error {
	switch status {
	case http.StatusBadRequest:
		return book.ErrValidation
	case http.StatusUnauthorized:
		if authed {
			c.session.Clear()
			return ErrUnauthenticated
		}
		return user.ErrInvalidCredentials
	case http.StatusForbidden:
		return book.ErrForbidden
	case http.StatusNotFound:
		return book.ErrNotFound
	case http.StatusConflict:
		return user.ErrAlreadyExists
	default:
		return ErrRequestFailed
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and issues the session.
func (c *Client) Register(ctx context.Context, email, password string) (user.User, error) {
	var res user.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", credentials{email, password}, &res, false); err != nil {
		return user.User{}, err
	}
	c.session.Issue(res)
	return res.User, nil
}

// Login signs in and issues the session.
func (c *Client) Login(ctx context.Context, email, password string) (user.User, error) {
	var res user.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{email, password}, &res, false); err != nil {
		return user.User{}, err
	}
	c.session.Issue(res)
	return res.User, nil
}

func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	var u user.User
	err := c.do(ctx, http.MethodGet, "/me", nil, &u, true)
	return u, err
}

func (c *Client) ListBooks(ctx context.Context) ([]book.Book, error) {
	books := make([]book.Book, 0)
	if err := c.do(ctx, http.MethodGet, "/books", nil, &books, true); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) CreateBook(ctx context.Context, in BookInput) (book.Book, error) {
	var b book.Book
	err := c.do(ctx, http.MethodPost, "/books", in, &b, true)
	return b, err
}

func (c *Client) UpdateBook(ctx context.Context, id string, in BookInput) (book.Book, error) {
	var b book.Book
	err := c.do(ctx, http.MethodPut, "/books/"+url.PathEscape(id), in, &b, true)
	return b, err
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/books/"+url.PathEscape(id), nil, nil, true)
}

func (c *Client) SearchCatalog(ctx context.Context, query string) ([]lookup.Candidate, error) {
	out := make([]lookup.Candidate, 0)
	err := c.do(ctx, http.MethodGet, "/external/search?q="+url.QueryEscape(query), nil, &out, true)
	return out, err
}

func (c *Client) GetInsights(ctx context.Context, title, author string) (lookup.Insight, error) {
	var out lookup.Insight
	body := map[string]string{"title": title, "author": author}
	err := c.do(ctx, http.MethodPost, "/external/insights", body, &out, true)
	return out, err
}
