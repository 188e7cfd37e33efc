package ratings

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DuplicateRatingMessage is the client-facing text for ErrDuplicateRating.
const DuplicateRatingMessage = "You have already rated this interaction."

// ErrDuplicateRating is returned when the rater already rated the interaction.
var ErrDuplicateRating = errors.New("ratings: interaction already rated")

// InteractionStore answers the lookups the resolver needs.
type InteractionStore interface {
	RatingExistsForInteraction(ctx context.Context, raterID, interactionID string) (bool, error)
	PaymentRecordExists(ctx context.Context, id string) (bool, error)
	RentAgreementExists(ctx context.Context, id string) (bool, error)
}

// Resolver decides whether a submission duplicates an earlier rating and
// whether its interaction is a real payment or rental agreement.
//
// The check and the later insert are not atomic: two concurrent submissions
// for the same interaction can both pass.
type Resolver struct {
	store InteractionStore
}

// NewResolver creates a Resolver.
func NewResolver(store InteractionStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns whether the rating should be marked verified, or
// ErrDuplicateRating.
func (r *Resolver) Resolve(ctx context.Context, raterID string, sub Submission) (bool, error) {
	if sub.InteractionID == nil {
		return false, nil
	}
	interactionID := *sub.InteractionID

	exists, err := r.store.RatingExistsForInteraction(ctx, raterID, interactionID)
	if err != nil {
		return false, fmt.Errorf("check existing rating: %w", err)
	}
	if exists {
		return false, ErrDuplicateRating
	}

	var paid, agreed bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		paid, err = r.store.PaymentRecordExists(gctx, interactionID)
		if err != nil {
			return fmt.Errorf("check payment record: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		agreed, err = r.store.RentAgreementExists(gctx, interactionID)
		if err != nil {
			return fmt.Errorf("check rent agreement: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return paid || agreed, nil
}
