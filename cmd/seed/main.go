package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/saree-booking/internal/app"
	"github.com/hackgods/saree-booking/internal/appointment"
	"github.com/hackgods/saree-booking/internal/config"
	"github.com/hackgods/saree-booking/internal/logging"
)

var fabrics = []string{"Silk", "Cotton", "Georgette", "Chiffon", "Banarasi", "Kanjivaram"}

var pleatings = []string{"Box Pleats", "Knife Pleats", "Front Pleats"}

var pickups = []string{"Drop-off", "Home Pickup"}

func main() {
	count := flag.Int("appointments", 50, "number of fake appointments to create")
	days := flag.Int("days", 14, "spread appointments over this many upcoming days")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", slog.Any("err", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, "seed")
	logger.Info("seed starting", slog.String("store_backend", cfg.StoreBackend))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, *count, *days, logger); err != nil {
		logger.Error("seed failed", slog.Any("err", err))
		cancel()
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func run(ctx context.Context, cfg config.Config, count, days int, logger *slog.Logger) error {
	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backends: %w", err)
	}
	defer deps.Close(logger)

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedServices(ctx, deps.Catalog, logger); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	if err := seedAppointments(ctx, deps.Bookings, deps.Catalog, count, days, logger); err != nil {
		return fmt.Errorf("seed appointments: %w", err)
	}
	return nil
}

// seedServices persists the default catalog so admins can edit it.
func seedServices(ctx context.Context, catalog *appointment.Catalog, logger *slog.Logger) error {
	for _, svc := range appointment.DefaultCatalog {
		_, err := catalog.Create(ctx, svc)
		if errors.Is(err, appointment.ErrServiceExists) {
			continue
		}
		if err != nil {
			return err
		}
	}
	logger.Info("services seeded", slog.Int("count", len(appointment.DefaultCatalog)))
	return nil
}

func seedAppointments(ctx context.Context, bookings *appointment.BookingService, catalog *appointment.Catalog, count, days int, logger *slog.Logger) error {
	if days <= 0 {
		days = 1
	}

	var serviceIDs []string
	for _, svc := range catalog.List(ctx) {
		if svc.Status == appointment.ServiceActive {
			serviceIDs = append(serviceIDs, svc.ID)
		}
	}
	if len(serviceIDs) == 0 {
		return errors.New("no active services")
	}

	booked, taken := 0, 0
	today := time.Now()
	for i := 0; i < count; i++ {
		req := appointment.BookingRequest{
			ServiceID:       serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)],
			CustomerName:    gofakeit.Name(),
			Phone:           gofakeit.Phone(),
			AppointmentDate: today.AddDate(0, 0, gofakeit.Number(1, days)).Format("2006-01-02"),
			AppointmentTime: appointment.DefaultTimeSlots[gofakeit.Number(0, len(appointment.DefaultTimeSlots)-1)],
			FabricType:      fabrics[gofakeit.Number(0, len(fabrics)-1)],
			PleatingType:    pleatings[gofakeit.Number(0, len(pleatings)-1)],
			WaistSize:       gofakeit.Numerify("## in"),
			PickupMethod:    pickups[gofakeit.Number(0, len(pickups)-1)],
		}

		_, err := bookings.RequestBooking(ctx, req)
		switch {
		case errors.Is(err, appointment.ErrSlotConflict):
			taken++
		case err != nil:
			return err
		default:
			booked++
		}
	}

	logger.Info("appointments seeded",
		slog.Int("booked", booked),
		slog.Int("slot_taken", taken),
	)
	return nil
}
