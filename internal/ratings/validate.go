// Package ratings validates, verifies, stores and aggregates peer ratings.
package ratings

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

const (
	MinRating       = 1
	MaxRating       = 5
	MinReviewLength = 3
	MaxReviewLength = 1000
)

// FieldError is a validation failure for one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Submission is a validated rating payload.
type Submission struct {
	RateeID       string
	Rating        int
	ReviewText    *string
	ListingID     *string
	InteractionID *string
}

// Validate checks a raw JSON rating payload submitted by raterID. It returns
// either a normalized Submission or a non-empty list of field errors in the
// order ratee_id, rating, review_text. Every rule is evaluated; errors are
// collected rather than short-circuited.
func Validate(raw []byte, raterID string) (Submission, []FieldError) {
	var (
		sub  Submission
		errs []FieldError
	)

	body := gjson.ParseBytes(raw)
	if !gjson.ValidBytes(raw) || !body.IsObject() {
		body = gjson.Result{}
	}

	rateeID := trimmedString(body.Get("ratee_id"))
	switch {
	case rateeID == "":
		errs = append(errs, FieldError{"ratee_id", "Ratee ID is required."})
	case rateeID == strings.TrimSpace(raterID):
		errs = append(errs, FieldError{"ratee_id", "You cannot rate yourself."})
	default:
		sub.RateeID = rateeID
	}

	rating := body.Get("rating")
	switch {
	case rating.Type != gjson.Number:
		errs = append(errs, FieldError{"rating", "Rating is required."})
	case rating.Num < MinRating || rating.Num > MaxRating:
		errs = append(errs, FieldError{"rating", "Rating must be between 1 and 5."})
	case rating.Num != math.Trunc(rating.Num):
		errs = append(errs, FieldError{"rating", "Rating must be a whole number."})
	default:
		sub.Rating = int(rating.Num)
	}

	if review := trimmedString(body.Get("review_text")); review != "" {
		switch n := utf8.RuneCountInString(review); {
		case n < MinReviewLength:
			errs = append(errs, FieldError{"review_text", "Review must be at least 3 characters."})
		case n > MaxReviewLength:
			errs = append(errs, FieldError{"review_text", "Review must be at most 1000 characters."})
		default:
			sub.ReviewText = &review
		}
	}

	sub.ListingID = optionalString(body.Get("listing_id"))
	sub.InteractionID = optionalString(body.Get("interaction_id"))

	if len(errs) > 0 {
		return Submission{}, errs
	}
	return sub, nil
}

func trimmedString(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

func optionalString(v gjson.Result) *string {
	s := trimmedString(v)
	if s == "" {
		return nil
	}
	return &s
}
