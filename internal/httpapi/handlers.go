package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"yardgate/internal/actor"
	"yardgate/internal/api"
	"yardgate/internal/booking"
	"yardgate/internal/events"
)

// EventLister serves a booking's transition history.
type EventLister interface {
	ListByBooking(ctx context.Context, bookingID string) ([]events.Record, error)
}

type BookingHandlers struct {
	Engine *booking.Engine
	Events EventLister
}

// bookingView is a booking plus the caller's freshly derived permission set.
// Every booking leaving the API carries one so UI affordances can never
// drift from what the engine will accept.
type bookingView struct {
	*booking.Booking
	Permissions booking.PermissionSet `json:"permissions"`
}

func view(b *booking.Booking, a actor.Actor) bookingView {
	return bookingView{Booking: b, Permissions: booking.Derive(b, a)}
}

type CreateBookingRequest struct {
	VehicleNumber string     `json:"vehicle_number" validate:"required"`
	DriverName    string     `json:"driver_name"`
	SupplierName  string     `json:"supplier_name"`
	BoxCount      int        `json:"box_count" validate:"required,gt=0"`
	WeightTons    string     `json:"weight_tons"`
	EntryDatetime *time.Time `json:"entry_datetime"`
}

func (h BookingHandlers) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var req CreateBookingRequest
	if !api.DecodeJSONBody(w, r, &req) {
		return
	}
	weight, ok := parseWeight(w, req.WeightTons)
	if !ok {
		return
	}

	b, err := h.Engine.Create(r.Context(), a, booking.CreateParams{
		VehicleNumber: req.VehicleNumber,
		DriverName:    req.DriverName,
		SupplierName:  req.SupplierName,
		BoxCount:      req.BoxCount,
		WeightTons:    weight,
		EntryDatetime: req.EntryDatetime,
	})
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": view(b, a)})
}

func (h BookingHandlers) List(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var f booking.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := booking.ParseStatus(s)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
			return
		}
		f.Status = &status
	}
	if s := r.URL.Query().Get("pending_approval"); s != "" {
		pending := s == "true" || s == "1"
		f.PendingApproval = &pending
	}
	f.Query = r.URL.Query().Get("q")

	items, err := h.Engine.List(r.Context(), f)
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	views := make([]bookingView, 0, len(items))
	for _, b := range items {
		views = append(views, view(b, a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (h BookingHandlers) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	b, err := h.Engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": view(b, a)})
}

type EditBookingRequest struct {
	VehicleNumber *string    `json:"vehicle_number"`
	DriverName    *string    `json:"driver_name"`
	SupplierName  *string    `json:"supplier_name"`
	BoxCount      *int       `json:"box_count" validate:"omitempty,gt=0"`
	WeightTons    *string    `json:"weight_tons"`
	EntryDatetime *time.Time `json:"entry_datetime"`
}

func (h BookingHandlers) Edit(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var req EditBookingRequest
	if !api.DecodeJSONBody(w, r, &req) {
		return
	}
	params := booking.EditParams{
		VehicleNumber: req.VehicleNumber,
		DriverName:    req.DriverName,
		SupplierName:  req.SupplierName,
		BoxCount:      req.BoxCount,
		EntryDatetime: req.EntryDatetime,
	}
	if req.WeightTons != nil {
		weight, ok := parseWeight(w, *req.WeightTons)
		if !ok {
			return
		}
		params.WeightTons = &weight
	}

	b, err := h.Engine.Edit(r.Context(), a, chi.URLParam(r, "id"), params)
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": view(b, a)})
}

func (h BookingHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	if err := h.Engine.Delete(r.Context(), a, chi.URLParam(r, "id")); err != nil {
		api.WriteBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h BookingHandlers) Receive(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.Engine.Receive)
}

func (h BookingHandlers) Unreceive(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.Engine.Unreceive)
}

func (h BookingHandlers) StartOffloading(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.Engine.StartOffloading)
}

func (h BookingHandlers) Exit(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.Engine.Exit)
}

func (h BookingHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.Engine.Approve)
}

type RejectRequest struct {
	RejectionReason string `json:"rejection_reason" validate:"required"`
	RejectionNotes  string `json:"rejection_notes" validate:"max=500"`
}

func (h BookingHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var req RejectRequest
	if !api.DecodeJSONBody(w, r, &req) {
		return
	}

	b, err := h.Engine.Reject(r.Context(), a, chi.URLParam(r, "id"), booking.RejectionReason(req.RejectionReason), req.RejectionNotes)
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": view(b, a)})
}

type CompleteOffloadingRequest struct {
	ActualBoxCount int    `json:"actual_box_count" validate:"required,gt=0"`
	Notes          string `json:"notes" validate:"max=500"`
}

func (h BookingHandlers) CompleteOffloading(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var req CompleteOffloadingRequest
	if !api.DecodeJSONBody(w, r, &req) {
		return
	}

	b, err := h.Engine.CompleteOffloading(r.Context(), a, chi.URLParam(r, "id"), req.ActualBoxCount, req.Notes)
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": view(b, a)})
}

type RejectApprovalRequest struct {
	Notes string `json:"notes" validate:"required,max=500"`
}

func (h BookingHandlers) RejectApproval(w http.ResponseWriter, r *http.Request) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	var req RejectApprovalRequest
	if !api.DecodeJSONBody(w, r, &req) {
		return
	}

	b, err := h.Engine.RejectApproval(r.Context(), a, chi.URLParam(r, "id"), req.Notes)
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": view(b, a)})
}

func (h BookingHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.ActorFromContext(r.Context()); !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	id := chi.URLParam(r, "id")
	// Ensure the booking exists before disclosing history.
	if _, err := h.Engine.Get(r.Context(), id); err != nil {
		api.WriteBookingError(w, err)
		return
	}

	items := []events.Record{}
	if h.Events != nil {
		recs, err := h.Events.ListByBooking(r.Context(), id)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
			return
		}
		if recs != nil {
			items = recs
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h BookingHandlers) simpleTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, actor.Actor, string) (*booking.Booking, error)) {
	a, ok := api.ActorFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
		return
	}

	b, err := op(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		api.WriteBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": view(b, a)})
}

func parseWeight(w http.ResponseWriter, raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Zero, true
	}
	weight, err := decimal.NewFromString(raw)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid weight_tons")
		return decimal.Zero, false
	}
	return weight, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
