package therapy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const packageColumns = `id, patient_id, professional_id, session_type, total_sessions, sessions_done,
	total_value, total_paid, sessions, payments, created_at, updated_at`

func scanPackage(row pgx.Row) (*Package, error) {
	var p Package
	var sessions, payments []byte

	err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.ProfessionalID,
		&p.SessionType,
		&p.TotalSessions,
		&p.SessionsDone,
		&p.TotalValue,
		&p.TotalPaid,
		&sessions,
		&payments,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	if len(sessions) > 0 {
		if err := json.Unmarshal(sessions, &p.Sessions); err != nil {
			return nil, fmt.Errorf("decode package sessions: %w", err)
		}
	}
	if len(payments) > 0 {
		if err := json.Unmarshal(payments, &p.Payments); err != nil {
			return nil, fmt.Errorf("decode package payments: %w", err)
		}
	}
	return &p, nil
}

func encodeEmbedded(p *Package) (sessions, payments []byte, err error) {
	if p.Sessions == nil {
		p.Sessions = []Session{}
	}
	if p.Payments == nil {
		p.Payments = []Payment{}
	}
	sessions, err = json.Marshal(p.Sessions)
	if err != nil {
		return nil, nil, fmt.Errorf("encode package sessions: %w", err)
	}
	payments, err = json.Marshal(p.Payments)
	if err != nil {
		return nil, nil, fmt.Errorf("encode package payments: %w", err)
	}
	return sessions, payments, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Package) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	sessions, payments, err := encodeEmbedded(p)
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO therapy_packages (id, patient_id, professional_id, session_type, total_sessions,
			sessions_done, total_value, total_paid, sessions, payments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+packageColumns,
		p.ID, p.PatientID, p.ProfessionalID, p.SessionType, p.TotalSessions,
		p.SessionsDone, p.TotalValue, p.TotalPaid, sessions, payments)

	created, err := scanPackage(row)
	if err != nil {
		return fmt.Errorf("insert therapy package: %w", err)
	}
	*p = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Package, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM therapy_packages WHERE id = $1`, id)
	return scanPackage(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Package, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+packageColumns+`
		FROM therapy_packages
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(p *Package) error) (*Package, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+packageColumns+` FROM therapy_packages WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPackage(row)
	if err != nil {
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	sessions, payments, err := encodeEmbedded(p)
	if err != nil {
		return nil, err
	}

	row = tx.QueryRow(ctx, `
		UPDATE therapy_packages
		SET sessions_done = $2,
		    total_paid = $3,
		    sessions = $4,
		    payments = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+packageColumns,
		p.ID, p.SessionsDone, p.TotalPaid, sessions, payments)

	updated, err := scanPackage(row)
	if err != nil {
		return nil, fmt.Errorf("update therapy package: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}
