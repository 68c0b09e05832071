package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"

	"github.com/hackgods/saree-booking/internal/appointment"
	"github.com/hackgods/saree-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Days         int
	BookingRatio float64
	ReadRatio    float64
	UpdateRatio  float64
	AdminToken   string
}

// DataPool tracks what the simulation has booked so far.
type DataPool struct {
	ServiceIDs []string
	Dates      []string

	mu       sync.RWMutex
	bookedBy map[string]int
	ids      []string
}

func (dp *DataPool) AddBooking(slot, id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookedBy[slot]++
	dp.ids = append(dp.ids, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.ids) == 0 {
		return "", false
	}
	return dp.ids[rng.Intn(len(dp.ids))], true
}

// DoubleBooked counts slots that accepted more than one booking.
func (dp *DataPool) DoubleBooked() int {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	n := 0
	for _, c := range dp.bookedBy {
		if c > 1 {
			n++
		}
	}
	return n
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	logger  *slog.Logger
	metrics Metrics
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"), "simulate")

	cfg := loadConfig()
	if cfg.Workers <= 0 || cfg.Duration <= 0 || cfg.Days <= 0 {
		logger.Error("invalid config: SIM_WORKERS, SIM_DURATION and SIM_DAYS must be > 0")
		os.Exit(1)
	}

	logger.Info("simulator starting",
		slog.String("api", cfg.APIBaseURL),
		slog.Duration("duration", cfg.Duration),
		slog.Int("workers", cfg.Workers),
		slog.Int("days", cfg.Days),
	)

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := sim.loadDataPool(ctx)
	cancel()
	if err != nil {
		logger.Error("load data pool", slog.Any("err", err))
		os.Exit(1)
	}
	sim.pool = pool

	logger.Info("loaded",
		slog.Int("services", len(pool.ServiceIDs)),
		slog.Int("slots", len(pool.ServiceIDs)*len(pool.Dates)*len(appointment.DefaultTimeSlots)),
	)

	sim.Run()
	sim.PrintReport()

	if pool.DoubleBooked() > 0 {
		os.Exit(2)
	}
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Days:         getInt("SIM_DAYS", 3),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.6),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		UpdateRatio:  getFloat("SIM_UPDATE_RATIO", 0.1),
		AdminToken:   os.Getenv("SIM_ADMIN_TOKEN"),
	}

	if cfg.AdminToken == "" {
		cfg.UpdateRatio = 0
	}

	total := cfg.BookingRatio + cfg.ReadRatio + cfg.UpdateRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ReadRatio /= total
		cfg.UpdateRatio /= total
	}
	return cfg
}

func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/services", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list services: status %d", resp.StatusCode)
	}

	var services []appointment.Service
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}

	pool := &DataPool{bookedBy: make(map[string]int)}
	for _, svc := range services {
		if svc.Status == appointment.ServiceActive {
			pool.ServiceIDs = append(pool.ServiceIDs, svc.ID)
		}
	}
	if len(pool.ServiceIDs) == 0 {
		return nil, fmt.Errorf("no active services")
	}

	today := time.Now()
	for d := 1; d <= s.config.Days; d++ {
		pool.Dates = append(pool.Dates, today.AddDate(0, 0, d).Format("2006-01-02"))
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.ReadRatio:
			s.doAvailability(ctx, rng)
		default:
			s.doStatusUpdate(ctx, rng)
		}
	}
}

func (s *Simulator) pick(rng *rand.Rand) (serviceID, date, timeLabel string) {
	serviceID = s.pool.ServiceIDs[rng.Intn(len(s.pool.ServiceIDs))]
	date = s.pool.Dates[rng.Intn(len(s.pool.Dates))]
	timeLabel = appointment.DefaultTimeSlots[rng.Intn(len(appointment.DefaultTimeSlots))]
	return serviceID, date, timeLabel
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	serviceID, date, timeLabel := s.pick(rng)

	body, _ := json.Marshal(appointment.BookingRequest{
		ServiceID:       serviceID,
		CustomerName:    gofakeit.Name(),
		Phone:           gofakeit.Phone(),
		AppointmentDate: date,
		AppointmentTime: timeLabel,
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if ctx.Err() != nil {
		return
	}

	success, conflict := false, false
	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var out struct {
				OK struct {
					ID string `json:"id"`
				} `json:"ok"`
			}
			if json.NewDecoder(resp.Body).Decode(&out) == nil && out.OK.ID != "" {
				s.pool.AddBooking(appointment.SlotKey(serviceID, date, timeLabel), out.OK.ID)
			}
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	serviceID, date, _ := s.pick(rng)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/services/%s/availability?date=%s", s.config.APIBaseURL, serviceID, date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if ctx.Err() != nil {
		return
	}

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Availability.Record(latency, success, false)
}

// progressStatuses never include Cancelled, so a booked slot stays held for
// the rest of the run.
var progressStatuses = []appointment.AppointmentStatus{
	appointment.StatusReceived,
	appointment.StatusInProgress,
	appointment.StatusCompleted,
	appointment.StatusDelivered,
}

func (s *Simulator) doStatusUpdate(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}

	status := progressStatuses[rng.Intn(len(progressStatuses))]
	body, _ := json.Marshal(appointment.AppointmentUpdate{Status: &status})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/appointments/%s", s.config.APIBaseURL, id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.AdminToken)

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if ctx.Err() != nil {
		return
	}

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusNoContent
	}

	s.metrics.StatusUpdate.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + rule())
	fmt.Println("SIMULATION REPORT")
	fmt.Println(rule())
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Availability", &s.metrics.Availability)
	printOperationReport("Status update", &s.metrics.StatusUpdate)

	fmt.Printf("Double-booked slots: %d\n", s.pool.DoubleBooked())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
