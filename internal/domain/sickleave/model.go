package sickleave

import (
	"time"

	"github.com/google/uuid"
)

// Sick leave statuses.
const (
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusCancelled = "cancelled"
	StatusExtension = "extension"
)

// SickLeave maps to the sick_leaves table. A leave opened as a continuation
// of another one carries the parent id and status "extension".
type SickLeave struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientAddress      *string    `db:"patient_address" json:"patient_address,omitempty"`
	ReceiveDate         time.Time  `db:"receive_date" json:"receive_date"`
	ReceiveTime         *string    `db:"receive_time" json:"receive_time,omitempty"`
	ActualDatetime      *time.Time `db:"actual_datetime" json:"actual_datetime,omitempty"`
	ReceivedFrom        *string    `db:"received_from" json:"received_from,omitempty"`
	IsRepeat            bool       `db:"is_repeat" json:"is_repeat"`
	WorkplaceName       *string    `db:"workplace_name" json:"workplace_name,omitempty"`
	DisabilityStartDate time.Time  `db:"disability_start_date" json:"disability_start_date"`
	DisabilityEndDate   *time.Time `db:"disability_end_date" json:"disability_end_date,omitempty"`
	Status              string     `db:"status" json:"status"`
	Reason              *string    `db:"reason" json:"reason,omitempty"`
	WorkCapacity        *string    `db:"work_capacity" json:"work_capacity,omitempty"`
	Area                *string    `db:"area" json:"area,omitempty"`
	Specialization      *string    `db:"specialization" json:"specialization,omitempty"`
	Specialist          *string    `db:"specialist" json:"specialist,omitempty"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	IsPrimary           bool       `db:"is_primary" json:"is_primary"`
	ParentID            *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Stats aggregates sick leave counts by status.
type Stats struct {
	Total     int `json:"total"`
	Open      int `json:"open"`
	Closed    int `json:"closed"`
	Cancelled int `json:"cancelled"`
	Extension int `json:"extension"`
}
