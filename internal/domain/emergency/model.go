package emergency

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

// Outcomes.
const (
	OutcomeHospitalized     = "hospitalized"
	OutcomeTreatedAtHome    = "treated_at_home"
	OutcomeRefusedTreatment = "refused_treatment"
	OutcomeDeath            = "death"
	OutcomeTransferred      = "transferred"
)

// Diagnosis is one entry of an asset's diagnosis list, stored as jsonb.
// Type is "primary" or "secondary".
type Diagnosis struct {
	Type string `json:"type"`
	Code string `json:"code"`
	Name string `json:"name"`
	Note string `json:"note,omitempty"`
}

// Asset maps to the emergency_assets table. BGAssetID is the upstream
// ambulance bureau identifier and is unique when present.
type Asset struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	BGAssetID      *string     `db:"bg_asset_id" json:"bg_asset_id,omitempty"`
	PatientID      uuid.UUID   `db:"patient_id" json:"patient_id"`
	PatientAddress *string     `db:"patient_address" json:"patient_address,omitempty"`
	IsNotAttached  bool        `db:"is_not_attached" json:"is_not_attached"`
	ReceiveDate    time.Time   `db:"receive_date" json:"receive_date"`
	ReceiveTime    *string     `db:"receive_time" json:"receive_time,omitempty"`
	ActualDatetime *time.Time  `db:"actual_datetime" json:"actual_datetime,omitempty"`
	ReceivedFrom   *string     `db:"received_from" json:"received_from,omitempty"`
	IsRepeat       bool        `db:"is_repeat" json:"is_repeat"`
	Outcome        *string     `db:"outcome" json:"outcome,omitempty"`
	Diagnoses      []Diagnosis `db:"diagnoses" json:"diagnoses,omitempty"`
	DiagnosisNote  *string     `db:"diagnosis_note" json:"diagnosis_note,omitempty"`
	Status         string      `db:"status" json:"status"`
	DeliveryStatus string      `db:"delivery_status" json:"delivery_status"`
	HasConfirm     bool        `db:"has_confirm" json:"has_confirm"`
	HasFiles       bool        `db:"has_files" json:"has_files"`
	HasRefusal     bool        `db:"has_refusal" json:"has_refusal"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// PrimaryDiagnosis returns the first primary entry of the diagnosis list.
func (a *Asset) PrimaryDiagnosis() *Diagnosis {
	for i := range a.Diagnoses {
		if a.Diagnoses[i].Type == "primary" {
			return &a.Diagnoses[i]
		}
	}
	return nil
}

// Stats aggregates asset counts by status.
type Stats struct {
	Total      int `json:"total"`
	Registered int `json:"registered"`
	Confirmed  int `json:"confirmed"`
	Refused    int `json:"refused"`
	Cancelled  int `json:"cancelled"`
}

// ImportRecord is one entry of an ambulance bureau export file.
type ImportRecord struct {
	BGAssetID      string      `json:"bg_asset_id"`
	PatientIIN     string      `json:"patient_iin"`
	PatientAddress string      `json:"patient_address"`
	ReceiveDate    string      `json:"receive_date"`
	ReceiveTime    string      `json:"receive_time"`
	ReceivedFrom   string      `json:"received_from"`
	Diagnoses      []Diagnosis `json:"diagnoses"`
}

// ImportResult summarizes a bulk import run.
type ImportResult struct {
	Imported         int `json:"imported"`
	SkippedExisting  int `json:"skipped_existing"`
	SkippedNoPatient int `json:"skipped_no_patient"`
}
