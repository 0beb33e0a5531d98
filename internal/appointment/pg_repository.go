package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/civil"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, doctor_id, date, start_time, end_time, duration,
	clinical_status, operational_status, session_type, service_type, payment_amount, payment_method,
	package_id, notes, reason, canceled_reason, canceled_at, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	var start, end string // end_time is derived, kept in the table for queries

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&date,
		&start,
		&end,
		&a.Duration,
		&a.ClinicalStatus,
		&a.OperationalStatus,
		&a.SessionType,
		&a.ServiceType,
		&a.PaymentAmount,
		&a.PaymentMethod,
		&a.PackageID,
		&a.Notes,
		&a.Reason,
		&a.CanceledReason,
		&a.CanceledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = civil.DateOf(date)
	if a.Time, err = civil.ParseTimeOfDay(start); err != nil {
		return nil, err
	}
	a.EndTime = a.Time.Add(a.Duration)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrUnknownReference.Wrap(err)
	}
	return err
}

// Interface methods

func (r *PgRepository) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, date, start_time, end_time, duration,
			clinical_status, operational_status, session_type, service_type, payment_amount,
			payment_method, package_id, notes, reason, canceled_reason, canceled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, '', NULL, now(), now())
		RETURNING `+appointmentColumns,
		a.ID, a.PatientID, a.DoctorID, a.Date.In(time.UTC), a.Time.String(), a.EndTime.String(), a.Duration,
		a.ClinicalStatus, a.OperationalStatus, a.SessionType, a.ServiceType, a.PaymentAmount,
		a.PaymentMethod, a.PackageID, a.Notes, a.Reason)

	created, err := scanAppointment(row)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", mapWriteError(err))
	}
	*a = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) Update(ctx context.Context, a *Appointment, expected StatusPair) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    date = $3,
		    start_time = $4,
		    end_time = $5,
		    duration = $6,
		    clinical_status = $7,
		    operational_status = $8,
		    session_type = $9,
		    payment_amount = $10,
		    payment_method = $11,
		    notes = $12,
		    reason = $13,
		    canceled_reason = $14,
		    canceled_at = $15,
		    updated_at = now()
		WHERE id = $1
		  AND operational_status = $16
		  AND clinical_status = $17
		RETURNING `+appointmentColumns,
		a.ID, a.DoctorID, a.Date.In(time.UTC), a.Time.String(), a.EndTime.String(), a.Duration,
		a.ClinicalStatus, a.OperationalStatus, a.SessionType, a.PaymentAmount, a.PaymentMethod,
		a.Notes, a.Reason, a.CanceledReason, a.CanceledAt,
		expected.Operational, expected.Clinical)

	updated, err := scanAppointment(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("update appointment: %w", mapWriteError(err))
	}

	// No row matched: either it is gone or its status moved underneath us.
	if _, getErr := r.GetByID(ctx, a.ID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrConcurrentUpdate
}

func (r *PgRepository) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("(operational_status = $%[1]d OR clinical_status = $%[1]d)", f.Status)
	}
	if f.DoctorID != nil {
		add("doctor_id = $%d", *f.DoctorID)
	}
	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.SessionType != "" {
		add("session_type = $%d", f.SessionType)
	}
	if f.StartDate != nil {
		add("date >= $%d", f.StartDate.In(time.UTC))
	}
	if f.EndDate != nil {
		add("date <= $%d", f.EndDate.In(time.UTC))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM appointments%s
		ORDER BY date, start_time, id
		LIMIT $%d OFFSET $%d
	`, appointmentColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	result, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PgRepository) ListByDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND date = $2
		ORDER BY start_time
	`, doctorID, date.In(time.UTC))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CountByStatus(ctx context.Context) (StatusCounts, error) {
	counts := StatusCounts{
		Operational: make(map[OperationalStatus]int),
		Clinical:    make(map[ClinicalStatus]int),
	}

	rows, err := r.pool.Query(ctx, `
		SELECT operational_status, clinical_status, count(*)
		FROM appointments
		GROUP BY operational_status, clinical_status
	`)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var op OperationalStatus
		var cl ClinicalStatus
		var n int
		if err := rows.Scan(&op, &cl, &n); err != nil {
			return counts, err
		}
		counts.Operational[op] += n
		counts.Clinical[cl] += n
		counts.Total += n
	}
	return counts, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

// PublishPending hands unpublished events to publish in id order and marks the
// ones that succeeded. Rows are locked so concurrent relays skip each other.
func (r *PgRepository) PublishPending(ctx context.Context, limit int, publish func(ev EventLog) error) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, event_type, appointment_id, payload, created_at
		FROM event_logs
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, err
	}

	var pending []EventLog
	for rows.Next() {
		var ev EventLog
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.AppointmentID, &ev.Payload, &ev.CreatedAt); err != nil {
			rows.Close()
			return 0, err
		}
		pending = append(pending, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var published []int64
	for _, ev := range pending {
		if err := publish(ev); err != nil {
			// keep ordering: stop at the first failure, retry on next run
			break
		}
		published = append(published, ev.ID)
	}

	if len(published) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE event_logs SET published_at = now() WHERE id = ANY($1)
		`, published); err != nil {
			return 0, fmt.Errorf("mark events published: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(published), nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
