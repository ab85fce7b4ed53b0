package book

import (
	"context"
	"fmt"
)

// Service provides book operations scoped to the calling user.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the user's books, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Book, error) {
	books, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// Create validates the input, applies defaults and stores a new book owned
// by userID.
func (s *Service) Create(ctx context.Context, userID string, in NewBook) (Book, error) {
	if err := in.validate(); err != nil {
		return Book{}, err
	}
	b := in.withDefaults(userID)
	if err := s.repo.Create(ctx, &b); err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return b, nil
}

// Update merges p into the book after the ownership check passes.
func (s *Service) Update(ctx context.Context, userID, id string, p Patch) (Book, error) {
	return s.repo.Update(ctx, id, func(current *Book) error {
		if err := Authorize(current, userID); err != nil {
			return err
		}
		if err := p.validate(); err != nil {
			return err
		}
		p.Apply(current)
		return nil
	})
}

// Delete removes the book permanently after the ownership check passes.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, id, func(current *Book) error {
		return Authorize(current, userID)
	})
}
