package availability

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/civil"
)

const DefaultGranularity = 30 * time.Minute

var (
	ErrSlotFetch    = apperr.New(apperr.Request, "slot_fetch_failed", "could not load available slots")
	ErrSlotConflict = apperr.New(apperr.Conflict, "slot_conflict", "time slot is already booked")
)

// ScheduleSource provides the weekly working hours of a doctor.
type ScheduleSource interface {
	WeeklyAvailability(ctx context.Context, doctorID uuid.UUID) (WeeklyAvailability, error)
}

// BookingSource lists the slot-blocking (non-canceled) appointments of a doctor on a date.
type BookingSource interface {
	ListBookings(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]Booking, error)
}

type Service struct {
	schedules   ScheduleSource
	bookings    BookingSource
	granularity int
	logger      zerolog.Logger
}

func NewService(schedules ScheduleSource, bookings BookingSource, granularity time.Duration, logger zerolog.Logger) *Service {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	return &Service{
		schedules:   schedules,
		bookings:    bookings,
		granularity: int(granularity / time.Minute),
		logger:      logger.With().Str("component", "availability").Logger(),
	}
}

// AvailableSlots returns the bookable start times for doctorID on date in
// ascending order. It is recomputed on every call.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date civil.Date) ([]civil.TimeOfDay, error) {
	weekly, err := s.schedules.WeeklyAvailability(ctx, doctorID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, err
		}
		return nil, ErrSlotFetch.Wrap(err)
	}

	ranges := weekly.RangesFor(date.Weekday())
	if len(ranges) == 0 {
		return []civil.TimeOfDay{}, nil
	}

	bookings, err := s.bookings.ListBookings(ctx, doctorID, date)
	if err != nil {
		return nil, ErrSlotFetch.Wrap(err)
	}

	slots := Subtract(Candidates(ranges, s.granularity), bookings)

	s.logger.Debug().
		Str("doctor_id", doctorID.String()).
		Str("date", date.String()).
		Int("bookings", len(bookings)).
		Int("slots", len(slots)).
		Msg("computed available slots")

	return slots, nil
}

// CheckConflict fails with ErrSlotConflict when [start, start+duration) overlaps
// any booking of the doctor on date other than exclude.
func (s *Service) CheckConflict(ctx context.Context, doctorID uuid.UUID, date civil.Date, start civil.TimeOfDay, duration int, exclude uuid.UUID) error {
	bookings, err := s.bookings.ListBookings(ctx, doctorID, date)
	if err != nil {
		return ErrSlotFetch.Wrap(err)
	}

	for _, b := range bookings {
		if b.AppointmentID == exclude {
			continue
		}
		if b.Overlaps(start, duration) {
			return ErrSlotConflict.WithMessage("doctor already has an appointment at %s on %s", b.Start, date)
		}
	}
	return nil
}

// Candidates lays out slot starts every granularity minutes inside each range.
// A candidate is kept only if a full granularity step fits before the range end.
func Candidates(ranges []TimeRange, granularity int) []civil.TimeOfDay {
	if granularity <= 0 {
		granularity = int(DefaultGranularity / time.Minute)
	}

	seen := make(map[civil.TimeOfDay]struct{})
	var out []civil.TimeOfDay
	for _, r := range ranges {
		for t := r.Start; t.Add(granularity) <= r.End; t = t.Add(granularity) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Subtract removes candidates that fall within [booking start, booking end).
func Subtract(candidates []civil.TimeOfDay, bookings []Booking) []civil.TimeOfDay {
	out := make([]civil.TimeOfDay, 0, len(candidates))
	for _, c := range candidates {
		taken := false
		for _, b := range bookings {
			if c >= b.Start && c < b.End() {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, c)
		}
	}
	return out
}
