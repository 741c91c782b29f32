package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jmcastellanos/tienda-backend/api/middleware"
	"github.com/jmcastellanos/tienda-backend/api/responses"
	"github.com/jmcastellanos/tienda-backend/api/validators"
	"github.com/jmcastellanos/tienda-backend/internal/reservations"
	pkgerrors "github.com/jmcastellanos/tienda-backend/pkg/errors"
	"github.com/jmcastellanos/tienda-backend/pkg/logger"
)

type stockItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type reserveStockRequest struct {
	Items []stockItemRequest `json:"items" validate:"required,min=1,dive"`
}

type reserveStockResponse struct {
	Reservations []reservations.ReserveResult `json:"reservations"`
	Errors       []reservations.ReserveResult `json:"errors"`
}

// ReserveStock places holds for every requested item. Items that fail the
// availability guard come back in errors; the call is 400 when any item failed
// and 201 when every hold was placed.
func ReserveStock(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload reserveStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := parseStockItems(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Reserve(r.Context(), reservations.ReserveInput{
			Identity: identityFromRequest(r),
			Items:    items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := reserveStockResponse{
			Reservations: []reservations.ReserveResult{},
			Errors:       []reservations.ReserveResult{},
		}
		for _, result := range results {
			if result.Reserved {
				resp.Reservations = append(resp.Reservations, result)
			} else {
				resp.Errors = append(resp.Errors, result)
			}
		}

		status := http.StatusCreated
		if len(resp.Errors) > 0 {
			status = http.StatusBadRequest
		}
		responses.WriteSuccessStatus(w, status, resp)
	}
}

type releaseStockRequest struct {
	ReservationIDs []string `json:"reservationIds,omitempty" validate:"omitempty,dive,uuid"`
}

// ReleaseStock returns held units to the pool, by explicit reservation ids or
// by the caller's identity. Releasing nothing is still a success.
func ReleaseStock(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload releaseStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := parseUUIDList(payload.ReservationIDs, "invalid reservation id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		released, err := svc.Release(r.Context(), reservations.ReleaseInput{
			ReservationIDs: ids,
			Identity:       identityFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"releasedCount": released})
	}
}

type settleStockRequest struct {
	ReservationIDs []string           `json:"reservationIds,omitempty" validate:"omitempty,dive,uuid"`
	Items          []stockItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type settleOutcome struct {
	ReservationID *uuid.UUID `json:"reservationId,omitempty"`
	ProductID     uuid.UUID  `json:"productId"`
	Quantity      int        `json:"quantity"`
	Reason        string     `json:"reason,omitempty"`
}

type settleStockResponse struct {
	Results []settleOutcome `json:"results"`
	Errors  []settleOutcome `json:"errors"`
}

// SettleStock converts reservations into confirmed sales, or in direct mode
// deducts stock without a prior hold. Reservation mode settles item by item:
// 200 when everything settled, 207 on a mix, 400 when nothing did.
func SettleStock(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var payload settleStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		hasIDs := len(payload.ReservationIDs) > 0
		hasItems := len(payload.Items) > 0
		if hasIDs == hasItems {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "provide either reservationIds or items, not both"))
			return
		}

		if hasItems {
			settleDirect(w, r, svc, logg, payload.Items)
			return
		}

		ids, err := parseUUIDList(payload.ReservationIDs, "invalid reservation id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Settle(r.Context(), ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := settleStockResponse{Results: []settleOutcome{}, Errors: []settleOutcome{}}
		for _, result := range results {
			result := result
			outcome := settleOutcome{
				ProductID: result.ProductID,
				Quantity:  result.Quantity,
				Reason:    result.Reason,
			}
			if result.ReservationID != uuid.Nil {
				id := result.ReservationID
				outcome.ReservationID = &id
			}
			if result.Settled {
				resp.Results = append(resp.Results, outcome)
			} else {
				resp.Errors = append(resp.Errors, outcome)
			}
		}

		status := http.StatusOK
		switch {
		case len(resp.Results) == 0:
			status = http.StatusBadRequest
		case len(resp.Errors) > 0:
			status = http.StatusMultiStatus
		}
		responses.WriteSuccessStatus(w, status, resp)
	}
}

func settleDirect(w http.ResponseWriter, r *http.Request, svc reservations.Service, logg *logger.Logger, raw []stockItemRequest) {
	items, err := parseStockItems(raw)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	if err := svc.DeductDirect(r.Context(), items); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	resp := settleStockResponse{Results: make([]settleOutcome, len(items)), Errors: []settleOutcome{}}
	for i, item := range items {
		resp.Results[i] = settleOutcome{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	responses.WriteSuccessStatus(w, http.StatusOK, resp)
}

// CleanupReservations triggers one expiry sweep over the configured batch.
// The guarded status transition keeps it safe next to the scheduled sweeper.
func CleanupReservations(svc reservations.Service, batchSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		cleaned, err := svc.Sweep(r.Context(), batchSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reservation sweep failed").
					WithDetails(map[string]int{"cleaned": cleaned}))
			return
		}

		responses.WriteSuccess(w, map[string]int{"cleaned": cleaned})
	}
}

func identityFromRequest(r *http.Request) reservations.Identity {
	var identity reservations.Identity
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		identity.SessionID = &sessionID
	}
	if cookieID := middleware.CookieIDFromContext(r.Context()); cookieID != "" {
		identity.CookieID = &cookieID
	}
	return identity
}

func parseStockItems(raw []stockItemRequest) ([]reservations.ReserveItem, error) {
	items := make([]reservations.ReserveItem, len(raw))
	for i, item := range raw {
		productID, err := uuid.Parse(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items[i] = reservations.ReserveItem{ProductID: productID, Quantity: item.Quantity}
	}
	return items, nil
}

func parseUUIDList(values []string, msg string) ([]uuid.UUID, error) {
	result := make([]uuid.UUID, 0, len(values))
	for _, raw := range values {
		if raw == "" {
			continue
		}
		parsed, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
		}
		result = append(result, parsed)
	}
	return result, nil
}
