package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/api/responses"
	"github.com/fsamadov/tezbazar-backend/api/validators"
	"github.com/fsamadov/tezbazar-backend/internal/orders"
	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
)

// ListAllOrders returns every order, newest first. Admin surface.
func ListAllOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type updateStatusPayload struct {
	Status        string  `json:"status" validate:"required"`
	PackerComment *string `json:"packerComment,omitempty" validate:"omitempty,max=1000"`
}

// UpdateOrderStatus transitions an order along the fulfillment path.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.Transition(r.Context(), orderID, status, payload.PackerComment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type bulkStatusPayload struct {
	OrderIDs []string `json:"orderIds" validate:"required,min=1,max=100,dive,uuid"`
	Status   string   `json:"status" validate:"required"`
}

// BulkUpdateStatus applies one status to several orders. Each order is
// processed independently; the response carries the orders that changed.
func BulkUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		ids := make([]uuid.UUID, 0, len(payload.OrderIDs))
		for _, raw := range payload.OrderIDs {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id in orderIds"))
				return
			}
			ids = append(ids, id)
		}

		updated, err := svc.TransitionMany(r.Context(), ids, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"updated": updated,
			"count":   len(updated),
		})
	}
}

// DeleteOrder removes an order. Admin surface.
func DeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
