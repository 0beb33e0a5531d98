package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const doctorColumns = `id, full_name, specialty, email, weekly_availability, active, created_at, updated_at`

const patientColumns = `p.id, p.full_name, p.email, p.phone, p.birth_date, p.specialties,
	COALESCE((SELECT array_agg(tp.id::text ORDER BY tp.created_at) FROM therapy_packages tp WHERE tp.patient_id = p.id), '{}'),
	p.created_at, p.updated_at`

// Doctors

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var weekly []byte

	err := row.Scan(&d.ID, &d.FullName, &d.Specialty, &d.Email, &weekly, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.WeeklyAvailability = availability.WeeklyAvailability{}
	if len(weekly) > 0 {
		if err := json.Unmarshal(weekly, &d.WeeklyAvailability); err != nil {
			return nil, fmt.Errorf("decode weekly availability: %w", err)
		}
	}
	return &d, nil
}

func encodeWeekly(w availability.WeeklyAvailability) ([]byte, error) {
	if w == nil {
		w = availability.WeeklyAvailability{}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode weekly availability: %w", err)
	}
	return data, nil
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	weekly, err := encodeWeekly(d.WeeklyAvailability)
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, full_name, specialty, email, weekly_availability, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+doctorColumns,
		d.ID, d.FullName, d.Specialty, d.Email, weekly, d.Active)

	created, err := scanDoctor(row)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	*d = *created
	return nil
}

func (r *PgRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE (NOT $1 OR active)
		ORDER BY full_name
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) error {
	weekly, err := encodeWeekly(d.WeeklyAvailability)
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET full_name = $2,
		    specialty = $3,
		    email = $4,
		    weekly_availability = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+doctorColumns,
		d.ID, d.FullName, d.Specialty, d.Email, weekly, d.Active)

	updated, err := scanDoctor(row)
	if err != nil {
		return err
	}
	*d = *updated
	return nil
}

// Patients

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var birth *time.Time
	var packageIDs []string

	err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &birth, &p.Specialties, &packageIDs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if birth != nil {
		d := civil.DateOf(*birth)
		p.BirthDate = &d
	}
	if p.Specialties == nil {
		p.Specialties = []string{}
	}
	p.PackageIDs = make([]uuid.UUID, 0, len(packageIDs))
	for _, raw := range packageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse package id %q: %w", raw, err)
		}
		p.PackageIDs = append(p.PackageIDs, id)
	}
	return &p, nil
}

func birthDateArg(d *civil.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.In(time.UTC)
	return &t
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Specialties == nil {
		p.Specialties = []string{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, full_name, email, phone, birth_date, specialties, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`, p.ID, p.FullName, p.Email, p.Phone, birthDateArg(p.BirthDate), p.Specialties)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}

	created, err := r.GetPatient(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *PgRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients p WHERE p.id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context, f PatientFilter) ([]Patient, int, error) {
	pattern := "%" + f.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM patients p
		WHERE $1 = '' OR p.full_name ILIKE $2 OR p.email ILIKE $2
	`, f.Search, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients p
		WHERE $1 = '' OR p.full_name ILIKE $2 OR p.email ILIKE $2
		ORDER BY p.full_name
		LIMIT $3 OFFSET $4
	`, f.Search, pattern, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET full_name = $2,
		    email = $3,
		    phone = $4,
		    birth_date = $5,
		    specialties = $6,
		    updated_at = now()
		WHERE id = $1
	`, p.ID, p.FullName, p.Email, p.Phone, birthDateArg(p.BirthDate), p.Specialties)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}

	updated, err := r.GetPatient(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *updated
	return nil
}
