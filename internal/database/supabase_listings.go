package database

import (
	"context"
	"fmt"
	"strings"
)

// SortColumns maps public sort keys to listing columns.
var SortColumns = map[string]string{
	"price":      "rent_xlm",
	"created_at": "created_at",
	"bedrooms":   "bedrooms",
	"bathrooms":  "bathrooms",
	"views":      "view_count",
	"favorites":  "favorite_count",
}

// SearchListings returns one page of active listings and the total number of
// matches.
func (r *Repository) SearchListings(ctx context.Context, filter ListingFilter) ([]Listing, int, error) {
	q := r.client.From("listings").Select("*").Eq("status", ListingActive)
	if filter.MinPrice != nil {
		q = q.Gte("rent_xlm", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Lte("rent_xlm", *filter.MaxPrice)
	}
	if filter.MinBedrooms != nil {
		q = q.Gte("bedrooms", *filter.MinBedrooms)
	}
	if filter.MinBathrooms != nil {
		q = q.Gte("bathrooms", *filter.MinBathrooms)
	}
	if term := sanitizeSearchTerm(filter.Search); term != "" {
		pattern := "*" + term + "*"
		q = q.Or(fmt.Sprintf("title.ilike.%s,description.ilike.%s,address.ilike.%s", pattern, pattern, pattern))
	}

	column := filter.SortColumn
	if column == "" {
		column = "created_at"
	}
	dir := OrderDesc
	if filter.Ascending {
		dir = OrderAsc
	}
	q = q.Order(column, dir).Offset(filter.Offset)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var listings []Listing
	total, err := q.ExecuteWithCount(ctx, &listings)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: search listings: %w", ErrDatabaseError, err)
	}
	return listings, total, nil
}

// sanitizeSearchTerm drops characters that carry meaning inside a PostgREST
// or=() expression.
func sanitizeSearchTerm(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '%', '"', '\\':
			return -1
		}
		return r
	}, s)
}

type listingInsert struct {
	LandlordID  string        `json:"landlord_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Address     string        `json:"address"`
	RentXLM     float64       `json:"rent_xlm"`
	Bedrooms    int           `json:"bedrooms"`
	Bathrooms   int           `json:"bathrooms"`
	Furnished   *bool         `json:"furnished,omitempty"`
	PetFriendly *bool         `json:"pet_friendly,omitempty"`
	Latitude    *float64      `json:"latitude,omitempty"`
	Longitude   *float64      `json:"longitude,omitempty"`
	Status      ListingStatus `json:"status"`
}

// CreateListing inserts listing and fills it with the stored row.
func (r *Repository) CreateListing(ctx context.Context, listing *Listing) error {
	if listing == nil {
		return fmt.Errorf("%w: listing cannot be nil", ErrInvalidInput)
	}
	if err := requireID("landlord_id", listing.LandlordID); err != nil {
		return err
	}
	status := listing.Status
	if status == "" {
		status = ListingActive
	}

	var rows []Listing
	err := r.client.From("listings").Insert(listingInsert{
		LandlordID:  listing.LandlordID,
		Title:       listing.Title,
		Description: listing.Description,
		Address:     listing.Address,
		RentXLM:     listing.RentXLM,
		Bedrooms:    listing.Bedrooms,
		Bathrooms:   listing.Bathrooms,
		Furnished:   listing.Furnished,
		PetFriendly: listing.PetFriendly,
		Latitude:    listing.Latitude,
		Longitude:   listing.Longitude,
		Status:      status,
	}).ExecuteInto(ctx, &rows)
	if err != nil {
		return fmt.Errorf("%w: create listing: %w", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: create listing returned no rows", ErrDatabaseError)
	}
	*listing = rows[0]
	return nil
}
