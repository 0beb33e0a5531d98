package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/civil"
)

// TimeRange is a half-open working interval [Start, End) within one day.
type TimeRange struct {
	Start civil.TimeOfDay `json:"start"`
	End   civil.TimeOfDay `json:"end"`
}

func (r TimeRange) Validate() error {
	if r.End <= r.Start {
		return fmt.Errorf("range %s-%s ends before it starts", r.Start, r.End)
	}
	return nil
}

// WeeklyAvailability holds the working ranges of a doctor per weekday.
// It is serialized with lowercase weekday names as keys.
type WeeklyAvailability map[time.Weekday][]TimeRange

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func (w WeeklyAvailability) RangesFor(day time.Weekday) []TimeRange {
	if w == nil {
		return nil
	}
	return w[day]
}

func (w WeeklyAvailability) Validate() error {
	for day, ranges := range w {
		for _, r := range ranges {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("%s: %w", strings.ToLower(day.String()), err)
			}
		}
	}
	return nil
}

func (w WeeklyAvailability) MarshalJSON() ([]byte, error) {
	out := make(map[string][]TimeRange, len(w))
	for day, ranges := range w {
		out[strings.ToLower(day.String())] = ranges
	}
	return json.Marshal(out)
}

func (w *WeeklyAvailability) UnmarshalJSON(data []byte) error {
	var raw map[string][]TimeRange
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make(WeeklyAvailability, len(raw))
	for name, ranges := range raw {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown weekday %q", name)
		}
		result[day] = append(result[day], ranges...)
	}
	*w = result
	return nil
}

// Booking is an existing appointment that occupies part of a doctor's day.
type Booking struct {
	AppointmentID uuid.UUID
	Start         civil.TimeOfDay
	Duration      int // minutes
}

func (b Booking) End() civil.TimeOfDay {
	d := b.Duration
	if d <= 0 {
		d = 1
	}
	return b.Start.Add(d)
}

// Overlaps reports whether [start, start+duration) intersects the booking.
func (b Booking) Overlaps(start civil.TimeOfDay, duration int) bool {
	if duration <= 0 {
		duration = 1
	}
	return start < b.End() && b.Start < start.Add(duration)
}
