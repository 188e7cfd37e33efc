package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// UserRepository covers user lookups and creation.
type UserRepository interface {
	UserExistsByPublicKey(ctx context.Context, publicKey string) (bool, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *User) error
}

// RatingRepository covers rating reads, writes and interaction lookups.
type RatingRepository interface {
	RatingExistsForInteraction(ctx context.Context, raterID, interactionID string) (bool, error)
	PaymentRecordExists(ctx context.Context, id string) (bool, error)
	RentAgreementExists(ctx context.Context, id string) (bool, error)
	CreateRating(ctx context.Context, rating *Rating) error
	ListRatings(ctx context.Context, filter RatingFilter) ([]Rating, error)
}

// StatsRepository computes per-user dashboard counters.
type StatsRepository interface {
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
}

// ListingRepository searches active listings.
type ListingRepository interface {
	SearchListings(ctx context.Context, filter ListingFilter) ([]Listing, int, error)
}

// AuthEventRepository persists audit events.
type AuthEventRepository interface {
	CreateAuthEvent(ctx context.Context, event *AuthEvent) error
}

// RepositoryInterface is everything the gateway needs from the store.
type RepositoryInterface interface {
	UserRepository
	RatingRepository
	StatsRepository
	ListingRepository
	AuthEventRepository
	Ping(ctx context.Context) error
}

var _ RepositoryInterface = (*Repository)(nil)

// Repository implements RepositoryInterface on top of Supabase.
type Repository struct {
	client *Client
}

// NewRepository creates a Supabase-backed repository.
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// Ping checks that the REST endpoint answers.
func (r *Repository) Ping(ctx context.Context) error {
	if _, err := r.client.From("users").Select("id").Limit(1).Execute(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrDatabaseError, err)
	}
	return nil
}

// exists reports whether table has at least one row matching all eq filters,
// given as column/value pairs.
func (r *Repository) exists(ctx context.Context, table string, pairs ...string) (bool, error) {
	if len(pairs)%2 != 0 {
		return false, fmt.Errorf("%w: odd number of filter arguments", ErrInvalidInput)
	}
	q := r.client.From(table).Select("id").Limit(1)
	for i := 0; i < len(pairs); i += 2 {
		q = q.Eq(pairs[i], pairs[i+1])
	}
	data, err := q.Execute(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: query %s: %w", ErrDatabaseError, table, err)
	}
	return gjson.GetBytes(data, "#").Int() > 0, nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidInput, name)
	}
	return nil
}

// IsRowID reports whether id has the shape of a primary key. Rows are keyed
// by UUID, so anything else cannot match and is not sent to the store.
func IsRowID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
