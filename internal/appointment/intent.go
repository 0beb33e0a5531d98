package appointment

import (
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

// BookingIntent says what kind of booking is being made. The concrete types
// are IndividualSession, PackageSession and Evaluation.
type BookingIntent interface {
	ServiceType() ServiceType
	isBookingIntent()
}

type IndividualSession struct{}

func (IndividualSession) ServiceType() ServiceType { return ServiceIndividualSession }
func (IndividualSession) isBookingIntent()         {}

type Evaluation struct{}

func (Evaluation) ServiceType() ServiceType { return ServiceEvaluation }
func (Evaluation) isBookingIntent()         {}

// PackageSession consumes one session of PackageID when completed.
type PackageSession struct {
	PackageID uuid.UUID
}

func (PackageSession) ServiceType() ServiceType { return ServicePackageSession }
func (PackageSession) isBookingIntent()         {}

// NewBookingIntent validates the service type / package combination.
// An empty service type is an individual session; "session" is its legacy name.
func NewBookingIntent(serviceType ServiceType, packageID *uuid.UUID) (BookingIntent, error) {
	hasPackage := packageID != nil && *packageID != uuid.Nil

	switch serviceType {
	case ServicePackageSession:
		if !hasPackage {
			return nil, apperr.MissingField("packageId")
		}
		return PackageSession{PackageID: *packageID}, nil
	case ServiceEvaluation:
		if hasPackage {
			return nil, apperr.InvalidValue("packageId", "evaluations cannot use a therapy package")
		}
		return Evaluation{}, nil
	case "", ServiceSession, ServiceIndividualSession:
		if hasPackage {
			return nil, apperr.InvalidValue("packageId", "only package sessions can use a therapy package")
		}
		return IndividualSession{}, nil
	default:
		return nil, apperr.InvalidValue("serviceType", serviceType)
	}
}
