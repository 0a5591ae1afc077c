package flow

// EventKind labels a calendar event for editor styling only.
// It has no effect on matching.
type EventKind string

const (
	EventKindOpen   EventKind = "open"
	EventKindClosed EventKind = "closed"
)

// Event is one named time-window rule of a calendar node.
//
// Exactly one of two matching modes applies, selected by Recurring:
//   - recurring: Weekdays + [StartTime, EndTime) in the node's timezone
//   - date range: [StartDate, EndDate] inclusive, with an optional
//     [StartTime, EndTime) window when AllDay is false
type Event struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name"`
	Kind      EventKind `json:"kind" validate:"omitempty,oneof=open closed"`
	Recurring bool      `json:"recurring"`

	// Recurring mode. Weekdays are lowercase three-letter names (mon..sun).
	Weekdays []string `json:"weekdays,omitempty" validate:"dive,weekday"`

	// Time-of-day window, "15:04" wall clock. Start inclusive, end exclusive.
	StartTime string `json:"start_time,omitempty" validate:"omitempty,clock_time"`
	EndTime   string `json:"end_time,omitempty" validate:"omitempty,clock_time"`

	// Date-range mode, "2006-01-02" local dates, both inclusive.
	StartDate string `json:"start_date,omitempty" validate:"omitempty,calendar_date"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,calendar_date"`
	AllDay    bool   `json:"all_day,omitempty"`
}
