package clinic

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error

	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context, f PatientFilter) ([]Patient, int, error)
	UpdatePatient(ctx context.Context, p *Patient) error
}
