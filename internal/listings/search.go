// Package listings implements the public rental listing search.
package listings

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/payeasy/payeasy-api/internal/database"
	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 50
	DefaultSort  = "created_at"

	// MaxPage keeps the row offset within a 32-bit integer for any limit.
	MaxPage = math.MaxInt32 / MaxLimit
)

// Query is a parsed search request.
type Query struct {
	Page   int
	Limit  int
	Filter database.ListingFilter
}

// Page is one page of search results.
type Page struct {
	Listings   []database.Listing `json:"listings"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

// ParseQuery reads search parameters. Out-of-range page and limit values are
// clamped; unknown sort keys and orders fall back to the defaults; values
// that are not numbers are rejected.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{Page: DefaultPage, Limit: DefaultLimit}

	page, err := intParam(values, "page")
	if err != nil {
		return q, err
	}
	if page != nil {
		q.Page = min(max(*page, 1), MaxPage)
	}

	limit, err := intParam(values, "limit")
	if err != nil {
		return q, err
	}
	if limit != nil {
		q.Limit = min(max(*limit, 1), MaxLimit)
	}

	if q.Filter.MinPrice, err = priceParam(values, "minPrice"); err != nil {
		return q, err
	}
	if q.Filter.MaxPrice, err = priceParam(values, "maxPrice"); err != nil {
		return q, err
	}
	if q.Filter.MinBedrooms, err = intParam(values, "bedrooms"); err != nil {
		return q, err
	}
	if q.Filter.MinBathrooms, err = intParam(values, "bathrooms"); err != nil {
		return q, err
	}

	q.Filter.Search = strings.TrimSpace(values.Get("search"))

	column, ok := database.SortColumns[values.Get("sortBy")]
	if !ok {
		column = database.SortColumns[DefaultSort]
	}
	q.Filter.SortColumn = column
	q.Filter.Ascending = strings.EqualFold(values.Get("order"), "asc")

	q.Filter.Limit = q.Limit
	q.Filter.Offset = (q.Page - 1) * q.Limit
	return q, nil
}

func intParam(values url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.Validation(apperrors.CodeValidation, fmt.Sprintf("%s must be an integer", name))
	}
	return &n, nil
}

func priceParam(values url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return nil, apperrors.Validation(apperrors.CodeValidation, fmt.Sprintf("%s must be a non-negative number", name))
	}
	return &f, nil
}

// Service runs listing searches.
type Service struct {
	store database.ListingRepository
}

// NewService creates a Service.
func NewService(store database.ListingRepository) *Service {
	return &Service{store: store}
}

// Search returns one page of active listings matching q.
func (s *Service) Search(ctx context.Context, q Query) (*Page, error) {
	listings, total, err := s.store.SearchListings(ctx, q.Filter)
	if err != nil {
		return nil, apperrors.Internal("", err)
	}
	if listings == nil {
		listings = []database.Listing{}
	}
	return &Page{
		Listings:   listings,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}
