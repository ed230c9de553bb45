package lender

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("lender catalog not cached")

type Repository interface {
	FindAll(ctx context.Context) ([]*Policy, error)

	FindByID(ctx context.Context, lenderID int64) (*Policy, error)
}

// Cache holds the whole catalog. GetAll returns ErrCacheMiss when empty.
type Cache interface {
	GetAll(ctx context.Context) ([]*Policy, error)

	SetAll(ctx context.Context, policies []*Policy) error

	Invalidate(ctx context.Context) error
}
