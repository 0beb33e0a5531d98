package appointment

import (
	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no_show"
)

var ErrInvalidAction = apperr.New(apperr.Validation, "invalid_action", "invalid status action")

// DefaultStatus is the pair every appointment starts with.
var DefaultStatus = StatusPair{Operational: OperationalScheduled, Clinical: ClinicalPending}

// ResolveStatus maps an action to the resulting status pair. Create, complete,
// cancel and no_show ignore current. Update keeps both axes of current and only
// fills an axis the caller left empty with its default; values must be valid.
func ResolveStatus(action Action, current StatusPair) (StatusPair, error) {
	switch action {
	case ActionCreate:
		return DefaultStatus, nil
	case ActionComplete:
		return StatusPair{Operational: OperationalPaid, Clinical: ClinicalCompleted}, nil
	case ActionCancel:
		return StatusPair{Operational: OperationalCanceled, Clinical: ClinicalCanceled}, nil
	case ActionNoShow:
		return StatusPair{Operational: OperationalNoShow, Clinical: ClinicalNoShow}, nil
	case ActionUpdate:
		next := current
		if next.Operational == "" {
			next.Operational = DefaultStatus.Operational
		}
		if next.Clinical == "" {
			next.Clinical = DefaultStatus.Clinical
		}
		if !next.Operational.Valid() {
			return StatusPair{}, apperr.InvalidValue("operationalStatus", next.Operational)
		}
		if !next.Clinical.Valid() {
			return StatusPair{}, apperr.InvalidValue("clinicalStatus", next.Clinical)
		}
		return next, nil
	default:
		return StatusPair{}, ErrInvalidAction.WithMessage("invalid status action %q", action)
	}
}
