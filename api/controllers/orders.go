package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serviplace/serviplace-backend/api/middleware"
	"github.com/serviplace/serviplace-backend/api/responses"
	"github.com/serviplace/serviplace-backend/api/validators"
	"github.com/serviplace/serviplace-backend/internal/orders"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	pkgerrors "github.com/serviplace/serviplace-backend/pkg/errors"
	"github.com/serviplace/serviplace-backend/pkg/logger"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
)

type createOrderRequest struct {
	CustomerID      string          `json:"customer_id" validate:"required,uuid"`
	TechnicianID    *string         `json:"technician_id,omitempty" validate:"omitempty,uuid"`
	SubContractorID *string         `json:"sub_contractor_id,omitempty" validate:"omitempty,uuid"`
	TotalAmount     decimal.Decimal `json:"total_amount" validate:"required"`
	Currency        string          `json:"currency,omitempty"`
	Notes           *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type transitionOrderRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type cancelOrderRequest struct {
	Reason          string `json:"reason" validate:"required,max=500"`
	CancelledBy     string `json:"cancelled_by" validate:"required,oneof=customer installer admin"`
	RefundRequested bool   `json:"refund_requested,omitempty"`
}

type confirmRefundRequest struct {
	PaymentTxID string `json:"payment_tx_id" validate:"required,max=128"`
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer_id must be a uuid"))
			return
		}
		technicianID, err := parseOptionalUUID(req.TechnicianID, "technician_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subContractorID, err := parseOptionalUUID(req.SubContractorID, "sub_contractor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), orders.CreateOrderInput{
			CustomerID:      customerID,
			TechnicianID:    technicianID,
			SubContractorID: subContractorID,
			TotalAmount:     req.TotalAmount,
			Currency:        enums.Currency(req.Currency),
			Notes:           req.Notes,
			ActorID:         middleware.ActorIDFromContext(r.Context()),
			ActorRole:       middleware.ActorRoleFromContext(r.Context()),
		})
		if pkgerrors.IsPartialFailure(err) {
			responses.WriteSuccessWarning(w, http.StatusCreated, order, err)
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func GetOrderByNumber(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderNumber := chi.URLParam(r, "orderNumber")
		order, err := svc.GetOrderByNumber(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters orders.Filters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customer_id must be a uuid"))
				return
			}
			filters.CustomerID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("technician_id")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "technician_id must be a uuid"))
				return
			}
			filters.TechnicianID = &id
		}

		list, err := svc.ListOrders(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListCustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.ListOrdersByCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func TransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.TransitionStatus(r.Context(), orders.TransitionInput{
			OrderID:   orderID,
			NewStatus: enums.OrderStatus(req.Status),
			Note:      req.Note,
			ActorID:   middleware.ActorIDFromContext(r.Context()),
			ActorRole: middleware.ActorRoleFromContext(r.Context()),
		})
		if pkgerrors.IsPartialFailure(err) {
			responses.WriteSuccessWarning(w, http.StatusOK, order, err)
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), orders.CancelInput{
			OrderID:         orderID,
			Reason:          req.Reason,
			CancelledBy:     enums.CancelledBy(req.CancelledBy),
			ActorID:         middleware.ActorIDFromContext(r.Context()),
			ActorRole:       middleware.ActorRoleFromContext(r.Context()),
			RefundRequested: req.RefundRequested,
		})
		if pkgerrors.IsPartialFailure(err) {
			responses.WriteSuccessWarning(w, http.StatusOK, order, err)
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ConfirmOrderRefund(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req confirmRefundRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmRefund(r.Context(), orders.ConfirmRefundInput{
			OrderID:     orderID,
			PaymentTxID: req.PaymentTxID,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
			ActorRole:   middleware.ActorRoleFromContext(r.Context()),
		})
		if pkgerrors.IsPartialFailure(err) {
			responses.WriteSuccessWarning(w, http.StatusOK, order, err)
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	return parsePathUUID(r, "orderId")
}

func parsePathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, param+" must be a uuid")
	}
	return id, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a uuid")
	}
	return &id, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
