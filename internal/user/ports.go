package user

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=user

// Repository stores accounts. Emails are passed already normalized; Create
// returns ErrAlreadyExists when the email is taken.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}
