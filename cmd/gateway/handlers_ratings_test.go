package main

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payeasy/payeasy-api/internal/database"
	"github.com/payeasy/payeasy-api/internal/ratings"
)

func TestSubmitRatingRequiresSession(t *testing.T) {
	g := newTestGateway(t)
	rr := g.do(t, http.MethodPost, "/api/ratings", `{"ratee_id":"b","rating":5}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Zero(t, g.repo.Calls("CreateRating"))
}

func TestSubmitRatingVerified(t *testing.T) {
	g := newTestGateway(t)
	g.repo.AddRentAgreement("lease-1")

	rr := g.do(t, http.MethodPost, "/api/ratings",
		`{"ratee_id":"landlord","rating":4,"review_text":"Quick repairs","interaction_id":"lease-1"}`,
		g.tokenFor(t, "tenant"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeJSON(t, rr)
	assert.Equal(t, true, body["is_verified"])
	assert.Equal(t, "tenant", body["rater_id"])
	assert.Equal(t, "published", body["status"])
}

func TestSubmitRatingValidationErrors(t *testing.T) {
	g := newTestGateway(t)
	token := g.tokenFor(t, "tenant")

	first := g.do(t, http.MethodPost, "/api/ratings", `{"ratee_id":"tenant","rating":7,"review_text":"ok"}`, token)
	second := g.do(t, http.MethodPost, "/api/ratings", `{"ratee_id":"tenant","rating":7,"review_text":"ok"}`, token)
	require.Equal(t, http.StatusBadRequest, first.Code)
	assert.JSONEq(t, `{"errors":[
		{"field":"ratee_id","message":"You cannot rate yourself."},
		{"field":"rating","message":"Rating must be between 1 and 5."},
		{"field":"review_text","message":"Review must be at least 3 characters."}
	]}`, first.Body.String())
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestSubmitRatingDuplicate(t *testing.T) {
	g := newTestGateway(t)
	token := g.tokenFor(t, "tenant")
	payload := `{"ratee_id":"landlord","rating":5,"interaction_id":"pay-7"}`

	require.Equal(t, http.StatusCreated, g.do(t, http.MethodPost, "/api/ratings", payload, token).Code)
	rr := g.do(t, http.MethodPost, "/api/ratings", payload, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, ratings.DuplicateRatingMessage, decodeJSON(t, rr)["error"])
}

func TestListRatings(t *testing.T) {
	g := newTestGateway(t)
	for _, v := range []int{5, 5, 4} {
		g.repo.AddRating(database.Rating{RaterID: "r", RateeID: "landlord", Rating: v, Status: database.RatingPublished})
	}

	rr := g.do(t, http.MethodGet, "/api/ratings?ratee_id=landlord", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeJSON(t, rr)
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, 3.0, meta["total"])
	assert.Equal(t, 4.7, meta["average"])
	assert.Equal(t, map[string]interface{}{"1": 0.0, "2": 0.0, "3": 0.0, "4": 1.0, "5": 2.0}, meta["distribution"])
	assert.Len(t, body["ratings"], 3)
}

func TestListRatingsBadRequests(t *testing.T) {
	g := newTestGateway(t)
	assert.Equal(t, http.StatusBadRequest, g.do(t, http.MethodGet, "/api/ratings", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, g.do(t, http.MethodGet, "/api/ratings?ratee_id=x&min_rating=high", "", "").Code)
}

func TestUserStatsAccess(t *testing.T) {
	g := newTestGateway(t)
	g.repo.SetUserStats("u1", database.UserStats{ListingsCount: 4, ActiveAgreementsCount: 1})

	rr := g.do(t, http.MethodGet, "/api/users/u1/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Unauthorized", decodeJSON(t, rr)["error"])

	rr = g.do(t, http.MethodGet, "/api/users/u1/stats", "", g.tokenFor(t, "u2"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", decodeJSON(t, rr)["code"])

	rr = g.do(t, http.MethodGet, "/api/users/u1/stats", "", g.tokenFor(t, "u1"))
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeJSON(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 4.0, body["data"].(map[string]interface{})["listings_count"])
}

func TestSearchListingsHandler(t *testing.T) {
	g := newTestGateway(t)
	g.repo.AddListing(database.Listing{Title: "Loft", RentXLM: 300, Bedrooms: 2, Status: database.ListingActive})
	g.repo.AddListing(database.Listing{Title: "Studio", RentXLM: 150, Bedrooms: 1, Status: database.ListingActive})

	q := url.Values{"bedrooms": {"2"}, "sortBy": {"price"}}
	rr := g.do(t, http.MethodGet, "/api/listings/search?"+q.Encode(), "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeJSON(t, rr)
	assert.Equal(t, 1.0, body["total"])
	assert.Equal(t, 1.0, body["page"])
	assert.Equal(t, 12.0, body["limit"])
	assert.Equal(t, 1.0, body["totalPages"])

	rr = g.do(t, http.MethodGet, "/api/listings/search?minPrice=cheap", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
