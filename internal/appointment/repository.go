package appointment

import (
	"context"
	"errors"
)

var (
	ErrBackendUnavailable = errors.New("persistence backend unavailable")
	ErrSchemaMismatch     = errors.New("backend rejected record shape")
	ErrServiceExists      = errors.New("service id already exists")

	// ErrDuplicateRecord is a unique violation on anything but the service catalog.
	ErrDuplicateRecord = errors.New("record already exists")
)

// Repository is a single persistence backend. Implementations do durable
// storage only; booking rules live in BookingService.
//
// Updating or deleting an id that does not exist is not an error.
type Repository interface {
	ListServices(ctx context.Context) ([]Service, error)
	CreateService(ctx context.Context, svc Service) (Service, error)
	UpdateService(ctx context.Context, svc Service) error
	DeleteService(ctx context.Context, id string) error

	ListAppointments(ctx context.Context) ([]Appointment, error)
	// InsertAppointment writes a record as-is, without conflict checks.
	InsertAppointment(ctx context.Context, appt Appointment) (Appointment, error)
	UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) error
	DeleteAppointment(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}
