package database

import (
	"context"
	"encoding/json"
	"fmt"
)

const ratingColumns = "*, rater:rater_id(full_name, avatar_url)"

type ratingInsert struct {
	RaterID       string       `json:"rater_id"`
	RateeID       string       `json:"ratee_id"`
	ListingID     *string      `json:"listing_id,omitempty"`
	InteractionID *string      `json:"interaction_id,omitempty"`
	Rating        int          `json:"rating"`
	ReviewText    *string      `json:"review_text,omitempty"`
	IsVerified    bool         `json:"is_verified"`
	Status        RatingStatus `json:"status"`
}

// RatingExistsForInteraction reports whether rater already rated interaction.
func (r *Repository) RatingExistsForInteraction(ctx context.Context, raterID, interactionID string) (bool, error) {
	if err := requireID("rater_id", raterID); err != nil {
		return false, err
	}
	if err := requireID("interaction_id", interactionID); err != nil {
		return false, err
	}
	return r.exists(ctx, "ratings", "rater_id", raterID, "interaction_id", interactionID)
}

// PaymentRecordExists reports whether a payment record has the given id.
func (r *Repository) PaymentRecordExists(ctx context.Context, id string) (bool, error) {
	if err := requireID("id", id); err != nil {
		return false, err
	}
	if !IsRowID(id) {
		return false, nil
	}
	return r.exists(ctx, "payment_records", "id", id)
}

// RentAgreementExists reports whether a rental agreement has the given id.
func (r *Repository) RentAgreementExists(ctx context.Context, id string) (bool, error) {
	if err := requireID("id", id); err != nil {
		return false, err
	}
	if !IsRowID(id) {
		return false, nil
	}
	return r.exists(ctx, "rent_agreements", "id", id)
}

// CreateRating inserts rating and fills it with the stored row.
func (r *Repository) CreateRating(ctx context.Context, rating *Rating) error {
	if rating == nil {
		return fmt.Errorf("%w: rating cannot be nil", ErrInvalidInput)
	}
	if rating.Status == "" {
		rating.Status = RatingPublished
	}

	data, err := r.client.From("ratings").Insert(ratingInsert{
		RaterID:       rating.RaterID,
		RateeID:       rating.RateeID,
		ListingID:     rating.ListingID,
		InteractionID: rating.InteractionID,
		Rating:        rating.Rating,
		ReviewText:    rating.ReviewText,
		IsVerified:    rating.IsVerified,
		Status:        rating.Status,
	}).Execute(ctx)
	if err != nil {
		return fmt.Errorf("%w: create rating: %w", ErrDatabaseError, err)
	}

	var rows []Rating
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: unmarshal rating: %w", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: create rating returned no rows", ErrDatabaseError)
	}
	*rating = rows[0]
	return nil
}

// ListRatings returns published ratings matching filter, newest first, with
// the rater profile embedded.
func (r *Repository) ListRatings(ctx context.Context, filter RatingFilter) ([]Rating, error) {
	if filter.RateeID == "" && filter.ListingID == "" {
		return nil, fmt.Errorf("%w: ratee_id or listing_id is required", ErrInvalidInput)
	}

	q := r.client.From("ratings").Select(ratingColumns).Eq("status", RatingPublished)
	if filter.RateeID != "" {
		q = q.Eq("ratee_id", filter.RateeID)
	}
	if filter.ListingID != "" {
		q = q.Eq("listing_id", filter.ListingID)
	}
	if filter.MinRating > 0 {
		q = q.Gte("rating", filter.MinRating)
	}

	var ratings []Rating
	if err := q.Order("created_at", OrderDesc).ExecuteInto(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("%w: list ratings: %w", ErrDatabaseError, err)
	}
	return ratings, nil
}
