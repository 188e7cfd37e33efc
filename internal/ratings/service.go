package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/payeasy/payeasy-api/internal/database"
	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

// ValidationError carries the field errors of a rejected submission.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid rating: " + strings.Join(parts, "; ")
}

// Store is the persistence the rating service needs.
type Store interface {
	InteractionStore
	CreateRating(ctx context.Context, rating *database.Rating) error
	ListRatings(ctx context.Context, filter database.RatingFilter) ([]database.Rating, error)
}

// Service runs rating submissions and queries.
type Service struct {
	store    Store
	resolver *Resolver
}

// NewService creates a Service.
func NewService(store Store) *Service {
	return &Service{store: store, resolver: NewResolver(store)}
}

// Submit validates raw, rejects duplicates, computes verification and stores
// the rating as published.
func (s *Service) Submit(ctx context.Context, raterID string, raw []byte) (*database.Rating, error) {
	sub, fieldErrs := Validate(raw, raterID)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	verified, err := s.resolver.Resolve(ctx, raterID, sub)
	if errors.Is(err, ErrDuplicateRating) {
		return nil, apperrors.Validation(apperrors.CodeDuplicateRating, DuplicateRatingMessage)
	}
	if err != nil {
		return nil, apperrors.Internal("", err)
	}

	rating := &database.Rating{
		RaterID:       raterID,
		RateeID:       sub.RateeID,
		ListingID:     sub.ListingID,
		InteractionID: sub.InteractionID,
		Rating:        sub.Rating,
		ReviewText:    sub.ReviewText,
		IsVerified:    verified,
		Status:        database.RatingPublished,
	}
	if err := s.store.CreateRating(ctx, rating); err != nil {
		return nil, apperrors.Internal("Failed to create rating", err)
	}
	return rating, nil
}

// Result is a rating query response.
type Result struct {
	Ratings []database.Rating `json:"ratings"`
	Meta    Summary           `json:"meta"`
}

// List returns published ratings for the filter subject with their summary.
func (s *Service) List(ctx context.Context, filter database.RatingFilter) (*Result, error) {
	if filter.RateeID == "" && filter.ListingID == "" {
		return nil, apperrors.Validation(apperrors.CodeMissingField, "ratee_id or listing_id is required")
	}
	ratings, err := s.store.ListRatings(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("", fmt.Errorf("list ratings: %w", err))
	}
	if ratings == nil {
		ratings = []database.Rating{}
	}
	return &Result{Ratings: ratings, Meta: Aggregate(ratings)}, nil
}
