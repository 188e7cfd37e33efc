package listings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payeasy/payeasy-api/internal/database"
	apperrors "github.com/payeasy/payeasy-api/internal/errors"
)

func TestParseQueryDefaults(t *testing.T) {
	q, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 12, q.Limit)
	assert.Equal(t, "created_at", q.Filter.SortColumn)
	assert.False(t, q.Filter.Ascending)
	assert.Equal(t, 0, q.Filter.Offset)
	assert.Nil(t, q.Filter.MinPrice)
}

func TestParseQuery(t *testing.T) {
	values, err := url.ParseQuery("page=3&limit=10&minPrice=100&maxPrice=250.5&bedrooms=2&bathrooms=1&search=%20loft%20&sortBy=price&order=asc")
	require.NoError(t, err)

	q, err := ParseQuery(values)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 20, q.Filter.Offset)
	assert.Equal(t, 10, q.Filter.Limit)
	assert.Equal(t, 100.0, *q.Filter.MinPrice)
	assert.Equal(t, 250.5, *q.Filter.MaxPrice)
	assert.Equal(t, 2, *q.Filter.MinBedrooms)
	assert.Equal(t, 1, *q.Filter.MinBathrooms)
	assert.Equal(t, "loft", q.Filter.Search)
	assert.Equal(t, "rent_xlm", q.Filter.SortColumn)
	assert.True(t, q.Filter.Ascending)
}

func TestParseQueryClampsAndFallsBack(t *testing.T) {
	q, err := ParseQuery(url.Values{"page": {"0"}, "limit": {"500"}, "sortBy": {"title; drop"}, "order": {"sideways"}})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, "created_at", q.Filter.SortColumn)
	assert.False(t, q.Filter.Ascending)

	q, err = ParseQuery(url.Values{"limit": {"-4"}})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Limit)
}

func TestParseQueryHugePageKeepsOffsetPositive(t *testing.T) {
	q, err := ParseQuery(url.Values{"page": {"9223372036854775807"}, "limit": {"50"}})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, q.Page)
	assert.GreaterOrEqual(t, q.Filter.Offset, 0)
	assert.LessOrEqual(t, q.Filter.Offset, math.MaxInt32)

	page, err := NewService(database.NewMockRepository()).Search(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, page.Listings)
}

func TestParseQueryRejectsMalformedNumbers(t *testing.T) {
	for _, name := range []string{"page", "limit", "bedrooms", "bathrooms", "minPrice", "maxPrice"} {
		_, err := ParseQuery(url.Values{name: {"abc"}})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "%s: %v", name, err)
	}
	_, err := ParseQuery(url.Values{"minPrice": {"-5"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func seedListings(repo *database.MockRepository, n int) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		repo.AddListing(database.Listing{
			Title:     fmt.Sprintf("Listing %d", i),
			RentXLM:   float64(100 + i*10),
			Bedrooms:  i % 4,
			Status:    database.ListingActive,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	repo.AddListing(database.Listing{Title: "Hidden", Status: database.ListingInactive, CreatedAt: base})
}

func TestSearchPaginates(t *testing.T) {
	repo := database.NewMockRepository()
	seedListings(repo, 25)
	svc := NewService(repo)

	q, err := ParseQuery(url.Values{"page": {"3"}, "limit": {"10"}})
	require.NoError(t, err)
	page, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Listings, 5)
	assert.Equal(t, "Listing 4", page.Listings[0].Title)
}

func TestSearchSortsByPriceAscending(t *testing.T) {
	repo := database.NewMockRepository()
	seedListings(repo, 5)
	svc := NewService(repo)

	q, err := ParseQuery(url.Values{"sortBy": {"price"}, "order": {"asc"}, "maxPrice": {"120"}})
	require.NoError(t, err)
	page, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, page.Listings, 3)
	assert.Equal(t, 100.0, page.Listings[0].RentXLM)
	assert.Equal(t, 120.0, page.Listings[2].RentXLM)
}

func TestSearchEmpty(t *testing.T) {
	svc := NewService(database.NewMockRepository())
	q, _ := ParseQuery(url.Values{})
	page, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, page.Listings)
	assert.Zero(t, page.TotalPages)
}

func TestSearchStoreFailure(t *testing.T) {
	repo := database.NewMockRepository()
	repo.FailOn("SearchListings", errors.New("boom"))
	q, _ := ParseQuery(url.Values{})
	_, err := NewService(repo).Search(context.Background(), q)
	assert.True(t, apperrors.IsInternal(err))
}
