package controllers

import (
	"net/http"

	"github.com/serviplace/serviplace-backend/api/responses"
	"github.com/serviplace/serviplace-backend/internal/history"
	"github.com/serviplace/serviplace-backend/pkg/logger"
)

// ListCustomerHistory pages through a customer's activity feed, newest first.
func ListCustomerHistory(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := parsePathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
