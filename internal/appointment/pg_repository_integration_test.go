package appointment_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/saree-booking/internal/appointment"
	"github.com/hackgods/saree-booking/internal/db"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("SAREE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SAREE_TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolConfig{MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE appointments, services`)
	require.NoError(t, err)
	return pool
}

func TestPgRepository_BookingRoundTrip(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	repo := appointment.NewPgRepository(pool)
	store := appointment.NewStore(repo, nil)
	catalog := appointment.NewCatalog(store, nil)
	bookings := appointment.NewBookingService(store, appointment.NewPgAdvisoryLocker(pool, time.Second), nil)

	empty, err := repo.ListServices(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	noAppts, err := repo.ListAppointments(ctx)
	require.NoError(t, err)
	assert.NotNil(t, noAppts)

	for _, svc := range appointment.DefaultCatalog {
		_, err := catalog.Create(ctx, svc)
		require.NoError(t, err)
	}
	_, err = catalog.Create(ctx, appointment.DefaultCatalog[0])
	require.ErrorIs(t, err, appointment.ErrServiceExists)

	services := catalog.List(ctx)
	require.Len(t, services, len(appointment.DefaultCatalog))
	assert.Equal(t, appointment.DefaultCatalog[0].ID, services[0].ID)

	appt, err := bookings.RequestBooking(ctx, appointment.BookingRequest{
		ServiceID:       "srv-fold-01",
		CustomerName:    "Asha",
		Phone:           "555-1111",
		AppointmentDate: "2025-06-01",
		AppointmentTime: "10:00 AM",
		FabricType:      "Silk",
	})
	require.NoError(t, err)
	assert.Equal(t, "Silk", appt.FabricType)

	// A repeated appointment id is a duplicate record, not a duplicate service.
	_, err = repo.InsertAppointment(ctx, *appt)
	require.ErrorIs(t, err, appointment.ErrDuplicateRecord)
	assert.NotErrorIs(t, err, appointment.ErrServiceExists)

	_, err = bookings.RequestBooking(ctx, appointment.BookingRequest{
		ServiceID:       "srv-fold-01",
		CustomerName:    "Priya",
		Phone:           "555-2222",
		AppointmentDate: "2025-06-01",
		AppointmentTime: "10:00 AM",
	})
	require.ErrorIs(t, err, appointment.ErrSlotConflict)

	notes := "ready for pickup"
	delivered := appointment.StatusDelivered
	require.NoError(t, bookings.UpdateAppointmentStatus(ctx, appt.ID, appointment.AppointmentUpdate{Status: &delivered, AdminNotes: &notes}))

	appts, err := bookings.ListAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, appointment.StatusDelivered, appts[0].Status)
	assert.Equal(t, notes, appts[0].AdminNotes)

	require.NoError(t, catalog.Delete(ctx, "srv-fold-01"))
	require.NoError(t, catalog.Delete(ctx, "srv-fold-01"))
	appts, err = bookings.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestPgAdvisoryLocker_ConcurrentBookings(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	store := appointment.NewStore(appointment.NewPgRepository(pool), nil)
	for _, svc := range appointment.DefaultCatalog {
		_, err := store.CreateService(ctx, svc)
		require.NoError(t, err)
	}

	// Two services sharing one database stand in for two API processes.
	services := []*appointment.BookingService{
		appointment.NewBookingService(store, appointment.NewPgAdvisoryLocker(pool, 5*time.Second), nil),
		appointment.NewBookingService(store, appointment.NewPgAdvisoryLocker(pool, 5*time.Second), nil),
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		failures  atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := services[i%2].RequestBooking(ctx, appointment.BookingRequest{
				ServiceID:       "srv-drape-01",
				CustomerName:    fmt.Sprintf("Customer %d", i),
				Phone:           "555",
				AppointmentDate: "2025-07-01",
				AppointmentTime: "04:00 PM",
			})
			switch {
			case err == nil:
				successes.Add(1)
			case !errors.Is(err, appointment.ErrSlotConflict):
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.Zero(t, failures.Load())
}
