package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/agenda"
	"github.com/hackgods/clinic-scheduling/internal/apiclient"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	JWTSecret    string
	Timezone     string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ChangeRatio  float64
	ReadRatio    float64
	PatientLimit int
	DaysAhead    int
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeConflict
	outcomeError
)

// DataPool holds the doctors and patients the workers book against.
type DataPool struct {
	Doctors  []uuid.UUID
	Patients []uuid.UUID
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *apiclient.Client
	loc     *time.Location
	logger  zerolog.Logger
	metrics Metrics
}

func main() {
	cfg := SimConfig{}

	cmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Drive concurrent reception sessions against the scheduling API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateConfig(&cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.APIBaseURL, "api", envOr("SIM_API_BASE_URL", "http://localhost:8080"), "API base URL")
	f.StringVar(&cfg.JWTSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "secret used to mint a bearer token")
	f.StringVar(&cfg.Timezone, "timezone", envOr("CLINIC_TIMEZONE", "America/Sao_Paulo"), "clinic timezone")
	f.DurationVar(&cfg.Duration, "duration", 30*time.Second, "how long to run")
	f.IntVar(&cfg.Workers, "workers", 10, "concurrent sessions")
	f.Float64Var(&cfg.BookingRatio, "booking-ratio", 0.5, "share of booking operations")
	f.Float64Var(&cfg.ChangeRatio, "change-ratio", 0.2, "share of confirm/cancel/complete/reschedule operations")
	f.Float64Var(&cfg.ReadRatio, "read-ratio", 0.3, "share of read operations")
	f.IntVar(&cfg.PatientLimit, "patients", 100, "patients loaded into the pool")
	f.IntVar(&cfg.DaysAhead, "days", 14, "booking horizon in days")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func validateConfig(cfg *SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.DaysAhead <= 0 {
		return fmt.Errorf("--days must be > 0")
	}

	total := cfg.BookingRatio + cfg.ChangeRatio + cfg.ReadRatio
	if total <= 0 {
		return fmt.Errorf("at least one ratio must be > 0")
	}
	cfg.BookingRatio /= total
	cfg.ChangeRatio /= total
	cfg.ReadRatio /= total
	return nil
}

func run(ctx context.Context, cfg SimConfig) error {
	log := logger.New("dev", "info").With().Str("service", "simulate").Logger()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	client := apiclient.New(cfg.APIBaseURL)
	if cfg.JWTSecret != "" {
		token, err := auth.IssueToken([]byte(cfg.JWTSecret), "simulator", "reception", cfg.Duration+time.Hour)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		client.SetToken(token)
	}

	pool, err := loadDataPool(ctx, client, cfg)
	if err != nil {
		return fmt.Errorf("load data pool: %w", err)
	}
	log.Info().Int("doctors", len(pool.Doctors)).Int("patients", len(pool.Patients)).Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   pool,
		client: client,
		loc:    loc,
		logger: log,
	}
	sim.Run(ctx)
	sim.metrics.Report(os.Stdout, cfg.Duration, cfg.Workers)
	return nil
}

func loadDataPool(ctx context.Context, client *apiclient.Client, cfg SimConfig) (*DataPool, error) {
	pool := &DataPool{}

	doctors, err := client.ListDoctors(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	for _, d := range doctors {
		pool.Doctors = append(pool.Doctors, d.ID)
	}

	patients, _, err := client.ListPatients(ctx, "", cfg.PatientLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for _, p := range patients {
		pool.Patients = append(pool.Patients, p.ID)
	}

	if len(pool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded")
	}
	if len(pool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	return pool, nil
}

func (s *Simulator) Run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

// worker plays one reception session with its own agenda.
func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))
	ag := agenda.New(s.client, s.loc, s.logger)

	for ctx.Err() == nil {
		r := faker.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, ag, faker)
		case r < s.config.BookingRatio+s.config.ChangeRatio:
			s.doChange(ctx, ag, faker)
		default:
			s.doRead(ctx, ag, faker)
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, ag *agenda.Agenda, faker *gofakeit.Faker) {
	doctorID := s.pool.Doctors[faker.Number(0, len(s.pool.Doctors)-1)]
	date := civil.DateOf(time.Now().In(s.loc)).AddDays(faker.Number(1, s.config.DaysAhead))

	start := time.Now()
	err := ag.LoadSlots(ctx, doctorID, date)
	s.metrics.Slots.Record(time.Since(start), classify(err))
	if err != nil {
		return
	}

	slots := ag.Slots()
	if len(slots) == 0 {
		return
	}
	slot := slots[faker.Number(0, len(slots)-1)]

	req := appointment.CreateRequest{
		PatientID:   s.pool.Patients[faker.Number(0, len(s.pool.Patients)-1)],
		DoctorID:    doctorID,
		Date:        date,
		Time:        &slot,
		Reason:      faker.Sentence(4),
		SessionType: appointment.SessionTypes[faker.Number(0, len(appointment.SessionTypes)-1)],
	}

	start = time.Now()
	_, err = ag.Create(ctx, req)
	s.metrics.Booking.Record(time.Since(start), classify(err))
}

func (s *Simulator) doChange(ctx context.Context, ag *agenda.Agenda, faker *gofakeit.Faker) {
	appts := ag.Appointments()
	if len(appts) == 0 {
		return
	}
	target := appts[faker.Number(0, len(appts)-1)]

	start := time.Now()
	var err error
	var om *OperationMetrics

	switch faker.Number(0, 3) {
	case 0:
		om = &s.metrics.Confirm
		_, err = ag.Confirm(ctx, target.ID)
	case 1:
		om = &s.metrics.Cancel
		_, err = ag.Cancel(ctx, target.ID, appointment.CancelRequest{Reason: faker.Sentence(3)})
	case 2:
		om = &s.metrics.Complete
		_, err = ag.Complete(ctx, target.ID)
	default:
		om = &s.metrics.Reschedule
		newStart := civil.MustTime("08:00").Add(30 * faker.Number(0, 19))
		_, err = ag.Reschedule(ctx, target.ID, appointment.RescheduleRequest{
			NewDate:      target.Date.AddDays(7),
			NewStartTime: &newStart,
			Reason:       "remarcação",
		})
	}

	om.Record(time.Since(start), classify(err))
}

func (s *Simulator) doRead(ctx context.Context, ag *agenda.Agenda, faker *gofakeit.Faker) {
	start := time.Now()
	var err error

	if faker.Bool() {
		_, err = s.client.CountByStatus(ctx)
	} else {
		patientID := s.pool.Patients[faker.Number(0, len(s.pool.Patients)-1)]
		err = ag.Refresh(ctx, appointment.ListFilter{PatientID: &patientID, Limit: 20})
	}

	s.metrics.Reads.Record(time.Since(start), classify(err))
}

// classify buckets an outcome; losing a race for a slot or a status change is
// expected under load and counted apart from failures.
func classify(err error) outcome {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, availability.ErrSlotConflict),
		errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, appointment.ErrConcurrentUpdate),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrPastDate):
		return outcomeConflict
	case apperr.KindOf(err) == apperr.Conflict:
		return outcomeConflict
	default:
		return outcomeError
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
