package appointment

import (
	"context"
	"io"
	"log/slog"
)

// fakeRepo delegates to an in-memory BlobRepository unless a func field
// overrides the call.
type fakeRepo struct {
	base *BlobRepository

	listServicesFn      func(ctx context.Context) ([]Service, error)
	listAppointmentsFn  func(ctx context.Context) ([]Appointment, error)
	insertAppointmentFn func(ctx context.Context, appt Appointment) (Appointment, error)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{base: NewBlobRepository(NewMemoryBlobs())}
}

func (f *fakeRepo) ListServices(ctx context.Context) ([]Service, error) {
	if f.listServicesFn != nil {
		return f.listServicesFn(ctx)
	}
	return f.base.ListServices(ctx)
}

func (f *fakeRepo) CreateService(ctx context.Context, svc Service) (Service, error) {
	return f.base.CreateService(ctx, svc)
}

func (f *fakeRepo) UpdateService(ctx context.Context, svc Service) error {
	return f.base.UpdateService(ctx, svc)
}

func (f *fakeRepo) DeleteService(ctx context.Context, id string) error {
	return f.base.DeleteService(ctx, id)
}

func (f *fakeRepo) ListAppointments(ctx context.Context) ([]Appointment, error) {
	if f.listAppointmentsFn != nil {
		return f.listAppointmentsFn(ctx)
	}
	return f.base.ListAppointments(ctx)
}

func (f *fakeRepo) InsertAppointment(ctx context.Context, appt Appointment) (Appointment, error) {
	if f.insertAppointmentFn != nil {
		return f.insertAppointmentFn(ctx, appt)
	}
	return f.base.InsertAppointment(ctx, appt)
}

func (f *fakeRepo) UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) error {
	return f.base.UpdateAppointment(ctx, id, upd)
}

func (f *fakeRepo) DeleteAppointment(ctx context.Context, id string) error {
	return f.base.DeleteAppointment(ctx, id)
}

func (f *fakeRepo) Ping(ctx context.Context) error {
	return f.base.Ping(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
