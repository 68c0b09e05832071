package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/saree-booking/internal/appointment"
)

type handlers struct {
	bookings *appointment.BookingService
	catalog  *appointment.Catalog
	logger   *slog.Logger
}

func (h *handlers) listServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List(r.Context()))
}

func (h *handlers) availability(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")

	slots, err := h.bookings.Availability(r.Context(), serviceID, date)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		ServiceID: serviceID,
		Date:      date,
		Slots:     slots,
	})
}

func (h *handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req appointment.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, BookingResponse{Error: "could not parse JSON"})
		return
	}

	appt, err := h.bookings.RequestBooking(r.Context(), req)
	if err != nil {
		handleBookingError(w, err)
		return
	}

	services := h.catalog.List(r.Context())
	resp := toAppointmentResponse(*appt, appointment.NameOf(services, appt.ServiceID))
	writeJSON(w, http.StatusCreated, BookingResponse{OK: &resp})
}

// handleBookingError keeps "slot taken" apart from technical failure; the
// backend error itself is never shown to the customer.
func handleBookingError(w http.ResponseWriter, err error) {
	var vErr *appointment.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, BookingResponse{Error: vErr.Error(), Field: vErr.Field})
	case errors.Is(err, appointment.ErrSlotConflict):
		writeJSON(w, http.StatusConflict, BookingResponse{Conflict: true, Message: msgSlotUnavailable})
	default:
		writeJSON(w, http.StatusInternalServerError, BookingResponse{Error: msgBookingFailed})
	}
}

func (h *handlers) createService(w http.ResponseWriter, r *http.Request) {
	var svc appointment.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}

	created, err := h.catalog.Create(r.Context(), svc)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) updateService(w http.ResponseWriter, r *http.Request) {
	var svc appointment.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	svc.ID = chi.URLParam(r, "id")

	if err := h.catalog.Update(r.Context(), svc); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.bookings.ListAppointments(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	services := h.catalog.List(r.Context())
	resp := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		resp = append(resp, toAppointmentResponse(a, appointment.NameOf(services, a.ServiceID)))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) updateAppointment(w http.ResponseWriter, r *http.Request) {
	var upd appointment.AppointmentUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.bookings.UpdateAppointmentStatus(r.Context(), id, upd); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.audit(r, "admin updated appointment", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.bookings.DeleteAppointment(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.audit(r, "admin deleted appointment", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.bookings.Summary(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// audit records which admin changed an appointment.
func (h *handlers) audit(r *http.Request, msg, id string) {
	h.logger.InfoContext(r.Context(), msg,
		slog.String("appointment_id", id),
		slog.String("admin", AdminSubject(r.Context())),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

func (h *handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *appointment.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_failed", vErr.Error())
	case errors.Is(err, appointment.ErrServiceExists):
		writeError(w, http.StatusConflict, "service_exists", "a service with this id already exists")
	case errors.Is(err, appointment.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backend_unavailable", msgInternal)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
			slog.Any("err", err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", msgInternal)
	}
}
