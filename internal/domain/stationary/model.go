package stationary

import (
	"time"

	"github.com/google/uuid"
)

// Asset statuses.
const (
	StatusRegistered = "registered"
	StatusConfirmed  = "confirmed"
	StatusRefused    = "refused"
	StatusCancelled  = "cancelled"
)

// Delivery statuses.
const (
	DeliveryReceivedAutomatically = "received_automatically"
	DeliveryPending               = "pending_delivery"
	DeliveryDelivered             = "delivered"
)

// Asset maps to the stationary_assets table. A stationary asset tracks a
// hospital stay: the stay period is open while StayPeriodEnd is nil, and
// StayOutcome records how the stay ended. BGAssetID is the upstream bureau
// identifier and is unique when present.
type Asset struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	BGAssetID       *string    `db:"bg_asset_id" json:"bg_asset_id,omitempty"`
	CardNumber      *string    `db:"card_number" json:"card_number,omitempty"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	ReceiveDate     time.Time  `db:"receive_date" json:"receive_date"`
	ReceiveTime     *string    `db:"receive_time" json:"receive_time,omitempty"`
	ActualDatetime  *time.Time `db:"actual_datetime" json:"actual_datetime,omitempty"`
	ReceivedFrom    *string    `db:"received_from" json:"received_from,omitempty"`
	IsRepeat        bool       `db:"is_repeat" json:"is_repeat"`
	StayPeriodStart time.Time  `db:"stay_period_start" json:"stay_period_start"`
	StayPeriodEnd   *time.Time `db:"stay_period_end" json:"stay_period_end,omitempty"`
	StayOutcome     *string    `db:"stay_outcome" json:"stay_outcome,omitempty"`
	Diagnosis       string     `db:"diagnosis" json:"diagnosis"`
	Area            string     `db:"area" json:"area"`
	Specialization  string     `db:"specialization" json:"specialization"`
	Specialist      string     `db:"specialist" json:"specialist"`
	Note            *string    `db:"note" json:"note,omitempty"`
	Status          string     `db:"status" json:"status"`
	DeliveryStatus  string     `db:"delivery_status" json:"delivery_status"`
	HasConfirm      bool       `db:"has_confirm" json:"has_confirm"`
	HasFiles        bool       `db:"has_files" json:"has_files"`
	HasRefusal      bool       `db:"has_refusal" json:"has_refusal"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// StayOpen reports whether the hospital stay is still running.
func (a *Asset) StayOpen() bool {
	return a.StayPeriodEnd == nil
}

// Stats aggregates asset counts by status.
type Stats struct {
	Total      int `json:"total"`
	Registered int `json:"registered"`
	Confirmed  int `json:"confirmed"`
	Refused    int `json:"refused"`
	Cancelled  int `json:"cancelled"`
}

// ImportRecord is one entry of a bureau stationary export file.
type ImportRecord struct {
	BGAssetID       string `json:"bg_asset_id"`
	CardNumber      string `json:"card_number"`
	PatientIIN      string `json:"patient_iin"`
	ReceiveDate     string `json:"receive_date"`
	ReceiveTime     string `json:"receive_time"`
	ReceivedFrom    string `json:"received_from"`
	StayPeriodStart string `json:"stay_period_start"`
	StayPeriodEnd   string `json:"stay_period_end"`
	Diagnosis       string `json:"diagnosis"`
	Area            string `json:"area"`
	Specialization  string `json:"specialization"`
	Specialist      string `json:"specialist"`
}

// ImportResult summarizes a bulk import run.
type ImportResult struct {
	Imported         int `json:"imported"`
	SkippedExisting  int `json:"skipped_existing"`
	SkippedNoPatient int `json:"skipped_no_patient"`
}
