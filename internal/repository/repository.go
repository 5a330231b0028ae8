package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"housemarket/internal/model"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index is violated.
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	UpdateProfileImage(ctx context.Context, id, imageURL string) error
}

// ListingFilter is the conjunction of optional listing predicates. Nil or
// empty fields do not constrain the query.
type ListingFilter struct {
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Type     model.ListingType
	Category string
}

// ListingRepository defines listing persistence operations. Find and
// FindByOwner return listings ordered by creation time, then id.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	Update(ctx context.Context, listing *model.Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	Find(ctx context.Context, filter ListingFilter, skip, limit int) ([]model.Listing, error)
	Count(ctx context.Context, filter ListingFilter) (int64, error)
	FindByOwner(ctx context.Context, ownerID string) ([]model.Listing, error)
	// ReplaceExternal deletes every external listing and inserts the given ones.
	ReplaceExternal(ctx context.Context, listings []model.Listing) (deleted int64, err error)
}
