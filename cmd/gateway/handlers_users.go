package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payeasy/payeasy-api/internal/httputil"
	"github.com/payeasy/payeasy-api/internal/listings"
	"github.com/payeasy/payeasy-api/internal/logging"
	"github.com/payeasy/payeasy-api/internal/middleware"
	"github.com/payeasy/payeasy-api/internal/userstats"
)

func userStatsHandler(svc *userstats.Service, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := mux.Vars(r)["id"]
		stats, err := svc.Get(r.Context(), middleware.GetUserID(r.Context()), userID)
		if err != nil {
			httputil.WriteServiceError(w, logger.WithContext(r.Context()), err)
			return
		}
		httputil.WriteSuccess(w, stats)
	}
}

func searchListingsHandler(svc *listings.Service, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := listings.ParseQuery(r.URL.Query())
		if err != nil {
			httputil.WriteServiceError(w, nil, err)
			return
		}
		page, err := svc.Search(r.Context(), q)
		if err != nil {
			httputil.WriteServiceError(w, logger.WithContext(r.Context()), err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, page)
	}
}
