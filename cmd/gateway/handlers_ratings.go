package main

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/payeasy/payeasy-api/internal/database"
	"github.com/payeasy/payeasy-api/internal/errors"
	"github.com/payeasy/payeasy-api/internal/httputil"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/metrics"
	"github.com/payeasy/payeasy-api/internal/middleware"
	"github.com/payeasy/payeasy-api/internal/ratings"
)

func submitRatingHandler(svc *ratings.Service, m *metrics.Metrics, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := httputil.ReadRequestBody(r)
		if err != nil {
			m.RecordRating("invalid")
			httputil.WriteServiceError(w, nil, errors.Validation(errors.CodeInvalidBody, "Invalid JSON body"))
			return
		}

		rating, err := svc.Submit(r.Context(), middleware.GetUserID(r.Context()), body)
		var verr *ratings.ValidationError
		switch {
		case stderrors.As(err, &verr):
			m.RecordRating("invalid")
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": verr.Errors})
			return
		case errors.HasCode(err, errors.CodeDuplicateRating):
			m.RecordRating("duplicate")
			httputil.WriteServiceError(w, nil, err)
			return
		case err != nil:
			m.RecordRating("error")
			httputil.WriteServiceError(w, logger.WithContext(r.Context()), err)
			return
		}

		if rating.IsVerified {
			m.RecordRating("verified")
		} else {
			m.RecordRating("unverified")
		}
		httputil.WriteJSON(w, http.StatusCreated, rating)
	}
}

func listRatingsHandler(svc *ratings.Service, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := database.RatingFilter{
			RateeID:   strings.TrimSpace(q.Get("ratee_id")),
			ListingID: strings.TrimSpace(q.Get("listing_id")),
		}
		if raw := strings.TrimSpace(q.Get("min_rating")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				httputil.WriteServiceError(w, nil, errors.Validation(errors.CodeValidation, "min_rating must be an integer"))
				return
			}
			filter.MinRating = n
		}

		res, err := svc.List(r.Context(), filter)
		if err != nil {
			httputil.WriteServiceError(w, logger.WithContext(r.Context()), err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}
