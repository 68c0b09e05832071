package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSlotConflict is the expected outcome when the requested slot is
	// already held. Callers should ask the customer for another time.
	ErrSlotConflict = errors.New("slot already booked")
	// ErrSlotBusy means another request held the slot lock for the whole
	// lock wait. The waiter is not told whether the holder went on to book:
	// if the holder failed, the slot may still be free, and a retry can win it.
	// Keep the lock wait above the longest critical section to make that rare.
	ErrSlotBusy = fmt.Errorf("%w: slot is being booked by another request", ErrSlotConflict)
)

// ValidationError reports caller-supplied data that failed a check. It never
// reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.Field + " is required"
	}
	return e.Field + ": " + e.Reason
}

// StoreError is a technical failure in the appointment store, including
// timeouts. It is never retried automatically.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// BookingRequest is a customer's booking form.
type BookingRequest struct {
	ServiceID       string `json:"service_id"`
	CustomerName    string `json:"customer_name"`
	Phone           string `json:"phone"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	Notes           string `json:"notes,omitempty"`

	SareeImage   string `json:"saree_image,omitempty"`
	FabricType   string `json:"fabric_type,omitempty"`
	PleatingType string `json:"pleating_type,omitempty"`
	WaistSize    string `json:"waist_size,omitempty"`
	PickupMethod string `json:"pickup_method,omitempty"`
}

func (r BookingRequest) normalized() BookingRequest {
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.AppointmentDate = strings.TrimSpace(r.AppointmentDate)
	r.AppointmentTime = strings.TrimSpace(r.AppointmentTime)
	r.Notes = strings.TrimSpace(r.Notes)
	return r
}

func (r BookingRequest) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"service_id", r.ServiceID},
		{"customer_name", r.CustomerName},
		{"phone", r.Phone},
		{"appointment_date", r.AppointmentDate},
		{"appointment_time", r.AppointmentTime},
	}
	for _, f := range required {
		if f.value == "" {
			return &ValidationError{Field: f.field}
		}
	}
	return nil
}

type BookingService struct {
	store  *Store
	locker Locker
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewBookingService(store *Store, locker Locker, logger *slog.Logger) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		store:  store,
		locker: locker,
		logger: logger,
		now:    time.Now,
		newID:  newAppointmentID,
	}
}

func newAppointmentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RequestBooking reserves a slot for a customer.
//
// The conflict check and the insert run under a per-slot lock and always
// read current store state. Returns ErrSlotConflict when the slot is held,
// *ValidationError for bad input and *StoreError for technical failures.
func (s *BookingService) RequestBooking(ctx context.Context, req BookingRequest) (*Appointment, error) {
	req = req.normalized()
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.checkBookable(ctx, req.ServiceID); err != nil {
		return nil, err
	}

	key := SlotKey(req.ServiceID, req.AppointmentDate, req.AppointmentTime)
	var created Appointment

	err := s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		// Inside the critical section re-read every appointment for this slot
		existing, err := s.store.ListAppointments(lockCtx)
		if err != nil {
			return &StoreError{Op: "list appointments", Err: err}
		}
		for _, a := range existing {
			if a.SameSlot(req.ServiceID, req.AppointmentDate, req.AppointmentTime) && a.Status.OccupiesSlot() {
				return ErrSlotConflict
			}
		}

		appt := Appointment{
			ID:              s.newID(),
			ServiceID:       req.ServiceID,
			CustomerName:    req.CustomerName,
			Phone:           req.Phone,
			AppointmentDate: req.AppointmentDate,
			AppointmentTime: req.AppointmentTime,
			Notes:           req.Notes,
			Status:          StatusBooked,
			CreatedAt:       s.now().UTC(),
			SareeImage:      req.SareeImage,
			FabricType:      req.FabricType,
			PleatingType:    req.PleatingType,
			WaistSize:       req.WaistSize,
			PickupMethod:    req.PickupMethod,
		}

		saved, err := s.store.InsertAppointment(lockCtx, appt)
		if err != nil {
			return &StoreError{Op: "insert appointment", Err: err}
		}
		created = saved
		return nil
	})

	if err != nil {
		var storeErr *StoreError
		switch {
		case errors.Is(err, ErrSlotConflict):
			s.logger.InfoContext(ctx, "slot unavailable",
				slog.String("slot", key),
				slog.Bool("busy", errors.Is(err, ErrSlotBusy)),
			)
			return nil, err
		case errors.As(err, &storeErr):
			s.logger.ErrorContext(ctx, "booking failed", slog.String("slot", key), slog.Any("err", err))
			return nil, storeErr
		default:
			s.logger.ErrorContext(ctx, "slot lock failed", slog.String("slot", key), slog.Any("err", err))
			return nil, &StoreError{Op: "lock slot", Err: err}
		}
	}

	s.logger.InfoContext(ctx, "appointment booked",
		slog.String("appointment_id", created.ID),
		slog.String("slot", key),
	)
	return &created, nil
}

func (s *BookingService) checkBookable(ctx context.Context, serviceID string) error {
	svc, ok, err := s.store.LookupService(ctx, serviceID)
	if err != nil {
		s.logger.ErrorContext(ctx, "service lookup failed", slog.String("service_id", serviceID), slog.Any("err", err))
		return &StoreError{Op: "list services", Err: err}
	}
	if !ok {
		return &ValidationError{Field: "service_id", Reason: "unknown service"}
	}
	if svc.Status != ServiceActive {
		return &ValidationError{Field: "service_id", Reason: "service is not accepting bookings"}
	}
	return nil
}

// UpdateAppointmentStatus applies an admin edit. Any status may follow any
// status and the slot is not re-validated.
func (s *BookingService) UpdateAppointmentStatus(ctx context.Context, id string, upd AppointmentUpdate) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id"}
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *upd.Status)}
	}
	if upd.Empty() {
		return nil
	}

	if err := s.store.UpdateAppointment(ctx, id, upd); err != nil {
		s.logger.ErrorContext(ctx, "update appointment failed", slog.String("appointment_id", id), slog.Any("err", err))
		return &StoreError{Op: "update appointment", Err: err}
	}

	attrs := []any{slog.String("appointment_id", id)}
	if upd.Status != nil {
		attrs = append(attrs, slog.String("status", string(*upd.Status)))
	}
	s.logger.InfoContext(ctx, "appointment updated", attrs...)
	return nil
}

// DeleteAppointment removes an appointment permanently. Confirmation is the
// caller's job.
func (s *BookingService) DeleteAppointment(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id"}
	}
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "delete appointment failed", slog.String("appointment_id", id), slog.Any("err", err))
		return &StoreError{Op: "delete appointment", Err: err}
	}
	s.logger.InfoContext(ctx, "appointment deleted", slog.String("appointment_id", id))
	return nil
}

// ListAppointments returns every appointment, newest first.
func (s *BookingService) ListAppointments(ctx context.Context) ([]Appointment, error) {
	appts, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list appointments", Err: err}
	}
	return appts, nil
}

// Availability marks each of the day's time slots as free or taken for a
// service.
func (s *BookingService) Availability(ctx context.Context, serviceID, date string) ([]SlotAvailability, error) {
	serviceID = strings.TrimSpace(serviceID)
	date = strings.TrimSpace(date)
	if serviceID == "" {
		return nil, &ValidationError{Field: "service_id"}
	}
	if date == "" {
		return nil, &ValidationError{Field: "date"}
	}

	appts, err := s.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool)
	for _, a := range appts {
		if a.ServiceID == serviceID && a.AppointmentDate == date && a.Status.OccupiesSlot() {
			taken[a.AppointmentTime] = true
		}
	}

	out := make([]SlotAvailability, 0, len(DefaultTimeSlots))
	for _, t := range DefaultTimeSlots {
		out = append(out, SlotAvailability{Time: t, Available: !taken[t]})
	}
	return out, nil
}

// Summary counts appointments per status.
func (s *BookingService) Summary(ctx context.Context) (Summary, error) {
	appts, err := s.ListAppointments(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: len(appts), ByStatus: make(map[AppointmentStatus]int, len(Statuses))}
	for _, st := range Statuses {
		sum.ByStatus[st] = 0
	}
	for _, a := range appts {
		sum.ByStatus[a.Status]++
	}
	return sum, nil
}
