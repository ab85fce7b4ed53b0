package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shelf/internal/book"
	"shelf/internal/lookup"
)

// ErrRefreshFailed is joined to a mutation's error result when the
// mutation succeeded but the list could not be refetched afterwards.
var ErrRefreshFailed = errors.New("refresh after change failed")

type Filter string

const (
	FilterAll              Filter = "all"
	FilterToRead           Filter = Filter(book.StatusToRead)
	FilterCurrentlyReading Filter = Filter(book.StatusCurrentlyReading)
	FilterCompleted        Filter = Filter(book.StatusCompleted)
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterToRead, FilterCurrentlyReading, FilterCompleted:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown filter %q", book.ErrValidation, s)
}

type Stats struct {
	Total            int `json:"total"`
	ToRead           int `json:"toRead"`
	CurrentlyReading int `json:"currentlyReading"`
	Completed        int `json:"completed"`
}

// API is the server surface the view drives; *Client implements it.
type API interface {
	ListBooks(ctx context.Context) ([]book.Book, error)
	CreateBook(ctx context.Context, in BookInput) (book.Book, error)
	UpdateBook(ctx context.Context, id string, in BookInput) (book.Book, error)
	DeleteBook(ctx context.Context, id string) error
	GetInsights(ctx context.Context, title, author string) (lookup.Insight, error)
}

// View is the client-side library state. Books always mirrors the last
// successful fetch; every mutation is followed by a full refetch.
type View struct {
	api API

	mu     sync.RWMutex
	books  []book.Book
	filter Filter
	search string
}

func NewView(api API) *View {
	return &View{api: api, filter: FilterAll, books: []book.Book{}}
}

// Refresh replaces the local list with the server's.
func (v *View) Refresh(ctx context.Context) error {
	books, err := v.api.ListBooks(ctx)
	if err != nil {
		return err
	}
	if books == nil {
		books = []book.Book{}
	}
	v.mu.Lock()
	v.books = books
	v.mu.Unlock()
	return nil
}

func (v *View) Books() []book.Book {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]book.Book(nil), v.books...)
}

func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

func (v *View) SetSearch(term string) {
	v.mu.Lock()
	v.search = term
	v.mu.Unlock()
}

// FilteredBooks applies the active filter and search term.
func (v *View) FilteredBooks() []book.Book {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return FilterBooks(v.books, v.filter, v.search)
}

func (v *View) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ComputeStats(v.books)
}

// FilterBooks keeps books matching the status filter whose title, author
// or genre contains term, ignoring case. The term is used as typed, so
// surrounding spaces are part of the match.
func FilterBooks(books []book.Book, f Filter, term string) []book.Book {
	term = strings.ToLower(term)
	out := make([]book.Book, 0, len(books))
	for _, b := range books {
		if f != FilterAll && f != "" && string(b.Status) != string(f) {
			continue
		}
		if term != "" && !matches(b, term) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matches(b book.Book, term string) bool {
	if strings.Contains(strings.ToLower(b.Title), term) || strings.Contains(strings.ToLower(b.Author), term) {
		return true
	}
	return b.Genre != "" && strings.Contains(strings.ToLower(b.Genre), term)
}

func ComputeStats(books []book.Book) Stats {
	s := Stats{Total: len(books)}
	for _, b := range books {
		switch b.Status {
		case book.StatusToRead:
			s.ToRead++
		case book.StatusCurrentlyReading:
			s.CurrentlyReading++
		case book.StatusCompleted:
			s.Completed++
		}
	}
	return s
}

func (v *View) refreshAfter(ctx context.Context) error {
	if err := v.Refresh(ctx); err != nil {
		return errors.Join(ErrRefreshFailed, err)
	}
	return nil
}

// Create adds a book. On success the returned book is valid even when the
// error reports ErrRefreshFailed.
func (v *View) Create(ctx context.Context, in BookInput) (book.Book, error) {
	b, err := v.api.CreateBook(ctx, in)
	if err != nil {
		return book.Book{}, err
	}
	return b, v.refreshAfter(ctx)
}

func (v *View) Update(ctx context.Context, id string, in BookInput) (book.Book, error) {
	b, err := v.api.UpdateBook(ctx, id, in)
	if err != nil {
		return book.Book{}, err
	}
	return b, v.refreshAfter(ctx)
}

// Delete removes a book. A book that is already gone is not an error; the
// list is refetched either way.
func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.api.DeleteBook(ctx, id); err != nil && !errors.Is(err, book.ErrNotFound) {
		return err
	}
	return v.refreshAfter(ctx)
}

// CycleStatus moves b to the next status in the reading cycle.
func (v *View) CycleStatus(ctx context.Context, b book.Book) (book.Book, error) {
	return v.Update(ctx, b.ID, BookInput{Status: b.Status.Next()})
}

// Prefill turns a catalog candidate into a new-book payload.
func Prefill(c lookup.Candidate) BookInput {
	return BookInput{
		Title:    c.Title,
		Author:   c.Author,
		Genre:    c.Genre,
		Status:   book.StatusToRead,
		CoverURL: c.CoverURL,
	}
}

func (v *View) Insights(ctx context.Context, b book.Book) (lookup.Insight, error) {
	return v.api.GetInsights(ctx, b.Title, b.Author)
}
