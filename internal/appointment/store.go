package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Store is the appointment store used by the booking and catalog layers.
// It wraps the one Repository selected at startup and applies the policy
// shared by every backend: default catalog on read failure, one reduced
// retry on schema mismatch, newest-first appointment ordering.
type Store struct {
	repo   Repository
	logger *slog.Logger
}

// NewStore wraps repo. A nil repo yields a store with no backend: reads of
// the catalog return DefaultCatalog and every write fails with
// ErrBackendUnavailable.
func NewStore(repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, logger: logger}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.repo == nil {
		return ErrBackendUnavailable
	}
	return s.repo.Ping(ctx)
}

// ListServices never fails. Backend errors are logged and the built-in
// catalog is returned instead.
func (s *Store) ListServices(ctx context.Context) []Service {
	if s.repo == nil {
		return defaultCatalog()
	}
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list services failed, serving default catalog", slog.Any("err", err))
		return defaultCatalog()
	}
	if services == nil {
		services = []Service{}
	}
	return services
}

// LookupService finds a service in the stored catalog. Unlike ListServices
// it reports backend failures instead of falling back to the defaults.
func (s *Store) LookupService(ctx context.Context, id string) (Service, bool, error) {
	if s.repo == nil {
		return Service{}, false, ErrBackendUnavailable
	}
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return Service{}, false, err
	}
	for _, svc := range services {
		if svc.ID == id {
			return svc, true, nil
		}
	}
	return Service{}, false, nil
}

func (s *Store) CreateService(ctx context.Context, svc Service) (Service, error) {
	if svc.ID == "" {
		return Service{}, &ValidationError{Field: "id"}
	}
	if s.repo == nil {
		return Service{}, ErrBackendUnavailable
	}
	return s.repo.CreateService(ctx, svc)
}

func (s *Store) UpdateService(ctx context.Context, svc Service) error {
	if s.repo == nil {
		return ErrBackendUnavailable
	}
	return s.repo.UpdateService(ctx, svc)
}

func (s *Store) DeleteService(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrBackendUnavailable
	}
	return s.repo.DeleteService(ctx, id)
}

// ListAppointments returns every appointment, newest CreatedAt first.
func (s *Store) ListAppointments(ctx context.Context) ([]Appointment, error) {
	if s.repo == nil {
		return nil, ErrBackendUnavailable
	}
	appts, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].CreatedAt.After(appts[j].CreatedAt)
	})
	return appts, nil
}

// InsertAppointment writes appt. If the backend rejects the record shape it
// retries once with only the required fields, so a booking survives an
// outdated remote schema at the cost of its optional details.
func (s *Store) InsertAppointment(ctx context.Context, appt Appointment) (Appointment, error) {
	if s.repo == nil {
		return Appointment{}, ErrBackendUnavailable
	}

	saved, err := s.repo.InsertAppointment(ctx, appt)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, ErrSchemaMismatch) {
		return Appointment{}, err
	}

	s.logger.WarnContext(ctx, "appointment rejected by backend schema, retrying with required fields only",
		slog.String("appointment_id", appt.ID),
		slog.Any("err", err),
	)

	saved, retryErr := s.repo.InsertAppointment(ctx, appt.Minimal())
	if retryErr != nil {
		return Appointment{}, fmt.Errorf("insert minimal appointment: %w", retryErr)
	}
	return saved, nil
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) error {
	if s.repo == nil {
		return ErrBackendUnavailable
	}
	return s.repo.UpdateAppointment(ctx, id, upd)
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrBackendUnavailable
	}
	return s.repo.DeleteAppointment(ctx, id)
}
