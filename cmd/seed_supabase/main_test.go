package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payeasy/payeasy-api/internal/database"
)

func TestBundledFixturesParse(t *testing.T) {
	data, err := readFile("listings.yaml")
	require.NoError(t, err)

	listings, err := loadFixtures(data)
	require.NoError(t, err)
	require.Len(t, listings, 3)
	for _, l := range listings {
		assert.NotEmpty(t, l.LandlordID)
		assert.Positive(t, l.RentXLM)
	}
	require.NotNil(t, listings[1].PetFriendly)
	assert.True(t, *listings[1].PetFriendly)
	assert.Nil(t, listings[2].Furnished)
}

func TestLoadFixturesValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no landlord", "listings:\n  - title: A\n    rent_xlm: 1\n", "listing 0: landlord_id is required"},
		{"no title", "landlord_id: u\nlistings:\n  - rent_xlm: 1\n", "listing 0: title is required"},
		{"zero rent", "landlord_id: u\nlistings:\n  - title: A\n", "listing 0: rent_xlm must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFixtures([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}

	_, err := loadFixtures([]byte("listings: ["))
	assert.Error(t, err)
}

func TestLoadFixturesPerListingLandlord(t *testing.T) {
	listings, err := loadFixtures([]byte("landlord_id: shared\nlistings:\n  - title: A\n    rent_xlm: 1\n  - title: B\n    rent_xlm: 2\n    landlord_id: own\n"))
	require.NoError(t, err)
	assert.Equal(t, "shared", listings[0].LandlordID)
	assert.Equal(t, "own", listings[1].LandlordID)
}

func TestSeedWritesListings(t *testing.T) {
	repo := database.NewMockRepository()
	listings := []database.Listing{
		{LandlordID: "u-1", Title: "A", RentXLM: 100},
		{LandlordID: "u-1", Title: "B", RentXLM: 200},
	}

	n, err := seed(context.Background(), repo, listings)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, total, err := repo.SearchListings(context.Background(), database.ListingFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, found, 2)
}

func TestSeedStopsAtFirstFailure(t *testing.T) {
	repo := database.NewMockRepository()
	repo.ErrorOnNextCall = errors.New("boom")

	n, err := seed(context.Background(), repo, []database.Listing{{LandlordID: "u-1", Title: "A", RentXLM: 1}})
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), `create listing "A"`)
}
