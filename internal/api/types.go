package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hackgods/saree-booking/internal/appointment"
)

const (
	msgSlotUnavailable = "This time slot is already booked. Please choose another time."
	msgBookingFailed   = "Could not complete booking, please try again."
	msgInternal        = "Something went wrong, please try again."
)

type AppointmentResponse struct {
	ID              string                        `json:"id"`
	ServiceID       string                        `json:"service_id"`
	ServiceName     string                        `json:"service_name,omitempty"`
	CustomerName    string                        `json:"customer_name"`
	Phone           string                        `json:"phone"`
	AppointmentDate string                        `json:"appointment_date"`
	AppointmentTime string                        `json:"appointment_time"`
	Notes           string                        `json:"notes,omitempty"`
	AdminNotes      string                        `json:"admin_notes,omitempty"`
	Status          appointment.AppointmentStatus `json:"status"`
	CreatedAt       time.Time                     `json:"created_at"`
	SareeImage      string                        `json:"saree_image,omitempty"`
	FabricType      string                        `json:"fabric_type,omitempty"`
	PleatingType    string                        `json:"pleating_type,omitempty"`
	WaistSize       string                        `json:"waist_size,omitempty"`
	PickupMethod    string                        `json:"pickup_method,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment, serviceName string) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		ServiceID:       a.ServiceID,
		ServiceName:     serviceName,
		CustomerName:    a.CustomerName,
		Phone:           a.Phone,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Notes:           a.Notes,
		AdminNotes:      a.AdminNotes,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		SareeImage:      a.SareeImage,
		FabricType:      a.FabricType,
		PleatingType:    a.PleatingType,
		WaistSize:       a.WaistSize,
		PickupMethod:    a.PickupMethod,
	}
}

// BookingResponse carries exactly one of OK, Conflict or Error.
type BookingResponse struct {
	OK       *AppointmentResponse `json:"ok,omitempty"`
	Conflict bool                 `json:"conflict,omitempty"`
	Message  string               `json:"message,omitempty"`
	Error    string               `json:"error,omitempty"`
	Field    string               `json:"field,omitempty"`
}

type AvailabilityResponse struct {
	ServiceID string                         `json:"service_id"`
	Date      string                         `json:"date"`
	Slots     []appointment.SlotAvailability `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
