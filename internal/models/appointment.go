package models

import (
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
)

// Appointment is one committed unit of clinic calendar occupancy. Rows are
// never deleted; completion and cancellation are terminal statuses.
type Appointment struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	PatientKey  string `gorm:"size:255;not null;index" json:"patient_key"`
	ServiceName string `gorm:"size:100" json:"service_name,omitempty"`

	Date      calendar.Date      `gorm:"not null;index" json:"date"`
	StartTime calendar.TimeOfDay `gorm:"column:start_minute;not null" json:"start_time"`
	// EndTime is StartTime + DurationMinutes + BufferMinutes, stored so the
	// database can enforce non-overlap on its own.
	EndTime calendar.TimeOfDay `gorm:"column:end_minute;not null" json:"end_time"`

	DurationMinutes int `gorm:"not null" json:"duration_minutes"`
	BufferMinutes   int `gorm:"not null;default:0" json:"buffer_minutes"`

	Status string `gorm:"size:20;not null;default:'booked';index" json:"status"`

	CancellationReason string      `gorm:"size:40" json:"cancellation_reason,omitempty"`
	CancellationNote   string      `gorm:"size:255" json:"cancellation_note,omitempty"`
	CancelledBy        string      `gorm:"size:255" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	Completion         *Completion `gorm:"serializer:json;type:jsonb" json:"completion,omitempty"`

	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
}

// Completion is the record of services rendered, supplied by the caller
// when the visit is closed.
type Completion struct {
	Services []string `json:"services"`
	Notes    string   `json:"notes,omitempty"`
}
