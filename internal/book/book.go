package book

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no book has the requested id.
	ErrNotFound = errors.New("book not found")
	// ErrForbidden is returned when the book belongs to another user.
	ErrForbidden = errors.New("user not authorized for this book")
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("invalid book input")
)

// Status is the reading state of a tracked book.
type Status string

const (
	StatusToRead           Status = "toRead"
	StatusCurrentlyReading Status = "currentlyReading"
	StatusCompleted        Status = "completed"
)

// Statuses lists every persisted status in display order.
var Statuses = []Status{StatusToRead, StatusCurrentlyReading, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusToRead, StatusCurrentlyReading, StatusCompleted:
		return true
	}
	return false
}

// Next returns the following status in the toRead, currentlyReading,
// completed cycle. Unknown values restart the cycle.
func (s Status) Next() Status {
	switch s {
	case StatusToRead:
		return StatusCurrentlyReading
	case StatusCurrentlyReading:
		return StatusCompleted
	default:
		return StatusToRead
	}
}

const (
	DefaultGenre    = "N/A"
	DefaultCoverURL = "https://placehold.co/128x192/475569/ffffff?text=No+Cover"
)

// Book is one title a user is tracking.
type Book struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre"`
	Status    Status    `json:"status"`
	CoverURL  string    `json:"coverUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBook carries the fields a caller may supply at creation.
type NewBook struct {
	Title    string
	Author   string
	Genre    string
	Status   Status
	CoverURL string
}

// Patch holds an update payload. Empty fields leave the stored value
// untouched, so an empty string can never clear a field.
type Patch struct {
	Title    string
	Author   string
	Genre    string
	Status   Status
	CoverURL string
}

// Apply merges the non-empty fields of p into b.
func (p Patch) Apply(b *Book) {
	if p.Title != "" {
		b.Title = p.Title
	}
	if p.Author != "" {
		b.Author = p.Author
	}
	if p.Genre != "" {
		b.Genre = p.Genre
	}
	if p.Status != "" {
		b.Status = p.Status
	}
	if p.CoverURL != "" {
		b.CoverURL = p.CoverURL
	}
}

func (n NewBook) validate() error {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Author) == "" {
		return fmt.Errorf("%w: title and author are required", ErrValidation)
	}
	if n.Status != "" && !n.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, n.Status)
	}
	return nil
}

func (p Patch) validate() error {
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, p.Status)
	}
	return nil
}

// withDefaults builds the record to persist, filling omitted fields.
func (n NewBook) withDefaults(ownerID string) Book {
	b := Book{
		OwnerID:  ownerID,
		Title:    strings.TrimSpace(n.Title),
		Author:   strings.TrimSpace(n.Author),
		Genre:    n.Genre,
		Status:   n.Status,
		CoverURL: n.CoverURL,
	}
	if b.Genre == "" {
		b.Genre = DefaultGenre
	}
	if b.Status == "" {
		b.Status = StatusToRead
	}
	if b.CoverURL == "" {
		b.CoverURL = DefaultCoverURL
	}
	return b
}
