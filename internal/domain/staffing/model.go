package staffing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assignment statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
	StatusCompleted = "completed"
)

// Assignment maps to the staff_assignments table. An assignment binds a
// specialist to a service area for a date interval; a nil EndDate means the
// assignment is open-ended.
type Assignment struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	SpecialistName         string     `db:"specialist_name" json:"specialist_name"`
	Specialization         string     `db:"specialization" json:"specialization"`
	AreaNumber             string     `db:"area_number" json:"area_number"`
	AreaType               string     `db:"area_type" json:"area_type"`
	Department             string     `db:"department" json:"department"`
	StartDate              time.Time  `db:"start_date" json:"start_date"`
	EndDate                *time.Time `db:"end_date" json:"end_date,omitempty"`
	ReceptionHoursPerDay   int        `db:"reception_hours_per_day" json:"reception_hours_per_day"`
	ReceptionMinutesPerDay int        `db:"reception_minutes_per_day" json:"reception_minutes_per_day"`
	AreaHoursPerDay        int        `db:"area_hours_per_day" json:"area_hours_per_day"`
	AreaMinutesPerDay      int        `db:"area_minutes_per_day" json:"area_minutes_per_day"`
	Status                 string     `db:"status" json:"status"`
	Notes                  *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// IsCurrent reports whether the assignment covers the given day. Dates are
// compared by calendar day in the input's location, not by truncated instants.
func (a *Assignment) IsCurrent(today time.Time) bool {
	day := dateOnly(today)
	if day.Before(dateOnly(a.StartDate)) {
		return false
	}
	if a.EndDate != nil && day.After(dateOnly(*a.EndDate)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysAssigned returns the number of days covered so far, counting from the
// start date up to the end date or today, whichever is earlier.
func (a *Assignment) DaysAssigned(today time.Time) int {
	until := today
	if a.EndDate != nil && a.EndDate.Before(today) {
		until = *a.EndDate
	}
	days := int(until.Sub(a.StartDate).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// TotalWorkMinutesPerDay returns the combined daily reception and area work time.
func (a *Assignment) TotalWorkMinutesPerDay() int {
	return a.ReceptionHoursPerDay*60 + a.ReceptionMinutesPerDay +
		a.AreaHoursPerDay*60 + a.AreaMinutesPerDay
}

// ReceptionTimeFormatted returns the daily reception time as "HH:MM".
func (a *Assignment) ReceptionTimeFormatted() string {
	return fmt.Sprintf("%02d:%02d", a.ReceptionHoursPerDay, a.ReceptionMinutesPerDay)
}

// Interval is a date range with an optional open end.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// Overlaps reports whether two assignment intervals share at least one day.
// An open-ended interval extends to infinity.
func Overlaps(a, b Interval) bool {
	if a.End != nil {
		// a is bounded: b must start no later than a ends and end no
		// earlier than a starts.
		if b.Start.After(*a.End) {
			return false
		}
		return b.End == nil || !b.End.Before(a.Start)
	}
	// a is open-ended: anything ending on or after a's start overlaps.
	return b.End == nil || !b.End.Before(a.Start)
}

// Stats aggregates assignment counts by status.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
	Suspended int `json:"suspended"`
	Completed int `json:"completed"`
}
