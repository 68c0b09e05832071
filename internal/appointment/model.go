package appointment

import (
	"time"
)

type AppointmentStatus string

const (
	StatusBooked     AppointmentStatus = "Booked"
	StatusReceived   AppointmentStatus = "Received"
	StatusInProgress AppointmentStatus = "In Progress"
	StatusCompleted  AppointmentStatus = "Completed"
	StatusDelivered  AppointmentStatus = "Delivered"
	// StatusCancelled releases the slot for rebooking.
	StatusCancelled AppointmentStatus = "Cancelled"
)

// Statuses lists every appointment status in lifecycle order.
var Statuses = []AppointmentStatus{
	StatusBooked,
	StatusReceived,
	StatusInProgress,
	StatusCompleted,
	StatusDelivered,
	StatusCancelled,
}

func (s AppointmentStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// OccupiesSlot reports whether an appointment in this status blocks new
// bookings for the same service, date and time.
func (s AppointmentStatus) OccupiesSlot() bool {
	return s != StatusCancelled
}

type ServiceStatus string

const (
	ServiceActive   ServiceStatus = "Active"
	ServiceInactive ServiceStatus = "Inactive"
)

func (s ServiceStatus) Valid() bool {
	return s == ServiceActive || s == ServiceInactive
}

// UnknownServiceName is shown for appointments whose service was deleted.
const UnknownServiceName = "Unknown Service"

type Service struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	PriceRange  string        `json:"price_range"`
	Status      ServiceStatus `json:"status"`
}

type Appointment struct {
	ID              string            `json:"id"`
	ServiceID       string            `json:"service_id"`
	CustomerName    string            `json:"customer_name"`
	Phone           string            `json:"phone"`
	AppointmentDate string            `json:"appointment_date"`
	AppointmentTime string            `json:"appointment_time"`
	Notes           string            `json:"notes,omitempty"`
	AdminNotes      string            `json:"admin_notes,omitempty"`
	Status          AppointmentStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`

	// Saree details captured at booking time. Older remote schemas may not
	// have columns for these.
	SareeImage   string `json:"saree_image,omitempty"`
	FabricType   string `json:"fabric_type,omitempty"`
	PleatingType string `json:"pleating_type,omitempty"`
	WaistSize    string `json:"waist_size,omitempty"`
	PickupMethod string `json:"pickup_method,omitempty"`
}

// Minimal returns a copy holding only the required fields.
func (a Appointment) Minimal() Appointment {
	return Appointment{
		ID:              a.ID,
		ServiceID:       a.ServiceID,
		CustomerName:    a.CustomerName,
		Phone:           a.Phone,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
	}
}

// SameSlot reports whether a targets the same service, date and time label.
// Labels are compared verbatim.
func (a Appointment) SameSlot(serviceID, date, timeLabel string) bool {
	return a.ServiceID == serviceID &&
		a.AppointmentDate == date &&
		a.AppointmentTime == timeLabel
}

// AppointmentUpdate is a partial update; nil fields are left untouched.
type AppointmentUpdate struct {
	Status     *AppointmentStatus `json:"status,omitempty"`
	AdminNotes *string            `json:"admin_notes,omitempty"`
}

func (u AppointmentUpdate) Empty() bool {
	return u.Status == nil && u.AdminNotes == nil
}

func (u AppointmentUpdate) apply(a *Appointment) {
	if u.Status != nil {
		a.Status = *u.Status
	}
	if u.AdminNotes != nil {
		a.AdminNotes = *u.AdminNotes
	}
}

// SlotAvailability is one entry of a day's slot list for a service.
type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Summary is the per-status breakdown shown on the admin dashboard.
type Summary struct {
	Total    int                       `json:"total"`
	ByStatus map[AppointmentStatus]int `json:"by_status"`
}

// DefaultTimeSlots are the bookable time labels offered each day.
var DefaultTimeSlots = []string{
	"10:00 AM", "11:00 AM", "12:00 PM", "01:00 PM",
	"03:00 PM", "04:00 PM", "05:00 PM", "06:00 PM",
}

// DefaultCatalog is served when the configured backend cannot list services.
var DefaultCatalog = []Service{
	{
		ID:          "srv-fold-01",
		Name:        "Pre-Built Saree Folding & Pleating",
		Description: "Bring your saree and have it professionally box or floppy pleated by our experts.",
		Image:       "https://picsum.photos/400/300?random=20",
		PriceRange:  "₹50 - ₹100",
		Status:      ServiceActive,
	},
	{
		ID:          "srv-drape-01",
		Name:        "Bridal Saree Draping",
		Description: "Complete bridal drape with pinning, pleat setting and pallu styling.",
		Image:       "https://picsum.photos/400/300?random=21",
		PriceRange:  "₹500 - ₹1500",
		Status:      ServiceActive,
	},
}

func defaultCatalog() []Service {
	out := make([]Service, len(DefaultCatalog))
	copy(out, DefaultCatalog)
	return out
}
