package therapy

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists packages. Mutate runs fn against a locked copy of the
// package and stores the result atomically; an error from fn aborts the write.
type Repository interface {
	Create(ctx context.Context, p *Package) error
	GetByID(ctx context.Context, id uuid.UUID) (*Package, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Package, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(p *Package) error) (*Package, error)
}
