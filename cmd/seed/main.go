package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/therapy"
)

type seedOptions struct {
	dsn      string
	doctors  int
	patients int
	packages int
}

func main() {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Fill the database with fake doctors, patients and therapy packages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.dsn == "" {
				return fmt.Errorf("POSTGRES_DSN is required")
			}
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dsn, "dsn", os.Getenv("POSTGRES_DSN"), "postgres connection string")
	cmd.Flags().IntVar(&opts.doctors, "doctors", 12, "number of doctors")
	cmd.Flags().IntVar(&opts.patients, "patients", 2000, "number of patients")
	cmd.Flags().IntVar(&opts.packages, "packages", 300, "number of therapy packages")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts seedOptions) error {
	log := logger.New("dev", "info").With().Str("service", "seed").Logger()
	log.Info().Msg("seed starting")

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connCtx, opts.dsn, 4)
	if err == nil {
		err = db.Migrate(connCtx, pool)
	}
	cancel()
	if err != nil {
		return fmt.Errorf("prepare postgres: %w", err)
	}
	defer pool.Close()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	clinicSvc := clinic.NewService(clinic.NewPgRepository(pool), zerolog.Nop())
	doctors, err := seedDoctors(ctx, clinicSvc, faker, opts.doctors, log)
	if err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}

	patients, err := seedPatients(ctx, pool, faker, opts.patients, log)
	if err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	packageSvc := therapy.NewService(therapy.NewPgRepository(pool), zerolog.Nop())
	if err := seedPackages(ctx, packageSvc, faker, doctors, patients, opts.packages, log); err != nil {
		return fmt.Errorf("seed packages: %w", err)
	}

	log.Info().Msg("seed complete")
	return nil
}

// weeklyHours gives each doctor a morning block on most weekdays and an
// afternoon block on some.
func weeklyHours(faker *gofakeit.Faker) availability.WeeklyAvailability {
	weekly := availability.WeeklyAvailability{}
	for day := time.Monday; day <= time.Friday; day++ {
		var ranges []availability.TimeRange
		if faker.Number(0, 9) < 8 {
			ranges = append(ranges, availability.TimeRange{Start: civil.MustTime("08:00"), End: civil.MustTime("12:00")})
		}
		if faker.Bool() {
			ranges = append(ranges, availability.TimeRange{Start: civil.MustTime("13:30"), End: civil.MustTime("18:00")})
		}
		if len(ranges) > 0 {
			weekly[day] = ranges
		}
	}
	return weekly
}

func seedDoctors(ctx context.Context, svc *clinic.Service, faker *gofakeit.Faker, count int, log zerolog.Logger) ([]clinic.Doctor, error) {
	log.Info().Int("count", count).Msg("seeding doctors")

	doctors := make([]clinic.Doctor, 0, count)
	for i := 0; i < count; i++ {
		specialty := appointment.SessionTypes[i%len(appointment.SessionTypes)]
		d, err := svc.CreateDoctor(ctx, clinic.DoctorRequest{
			FullName:           faker.Name(),
			Specialty:          string(specialty),
			Email:              faker.Email(),
			WeeklyAvailability: weeklyHours(faker),
		})
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, *d)
	}

	log.Info().Msg("doctors seeded")
	return doctors, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, count int, log zerolog.Logger) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			birth := faker.DateRange(time.Now().AddDate(-80, 0, 0), time.Now().AddDate(-2, 0, 0))
			specialty := appointment.SessionTypes[faker.Number(0, len(appointment.SessionTypes)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, full_name, email, phone, birth_date, specialties, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			`, id, faker.Name(), faker.Email(), faker.Phone(), birth, []string{string(specialty)})
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return ids, nil
}

func seedPackages(ctx context.Context, svc *therapy.Service, faker *gofakeit.Faker, doctors []clinic.Doctor, patients []uuid.UUID, count int, log zerolog.Logger) error {
	if len(doctors) == 0 || len(patients) == 0 {
		return nil
	}
	log.Info().Int("count", count).Msg("seeding therapy packages")

	methods := []therapy.PaymentMethod{therapy.PaymentCash, therapy.PaymentPix, therapy.PaymentCard}

	for i := 0; i < count; i++ {
		doctor := doctors[faker.Number(0, len(doctors)-1)]
		sessions := []int{4, 8, 10, 12}[faker.Number(0, 3)]
		value := float64(sessions) * faker.Float64Range(120, 250)

		pkg, err := svc.CreatePackage(ctx, therapy.CreatePackageRequest{
			PatientID:      patients[faker.Number(0, len(patients)-1)],
			ProfessionalID: doctor.ID,
			SessionType:    doctor.Specialty,
			TotalSessions:  sessions,
			TotalValue:     float64(int(value)),
		})
		if err != nil {
			return err
		}

		if faker.Bool() {
			_, err := svc.AddPayment(ctx, therapy.AddPaymentRequest{
				PackageID: pkg.ID,
				Amount:    float64(int(value / 2)),
				Method:    methods[faker.Number(0, len(methods)-1)],
				Notes:     "entrada",
			})
			if err != nil {
				return err
			}
		}
	}

	log.Info().Msg("therapy packages seeded")
	return nil
}
