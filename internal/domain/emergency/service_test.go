package emergency

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/domain/patient"
	"github.com/medrec/registry/internal/platform/apperr"
)

type mockRepo struct {
	assets map[uuid.UUID]*Asset
}

func newMockRepo() *mockRepo {
	return &mockRepo{assets: make(map[uuid.UUID]*Asset)}
}

func (m *mockRepo) Create(_ context.Context, a *Asset) error {
	a.ID = uuid.New()
	m.assets[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Asset, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, apperr.NotFound("emergency asset %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetByBGAssetID(_ context.Context, bgAssetID string) (*Asset, error) {
	for _, a := range m.assets {
		if a.BGAssetID != nil && *a.BGAssetID == bgAssetID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("emergency asset with bg id %s not found", bgAssetID)
}

func (m *mockRepo) Update(_ context.Context, a *Asset) error {
	m.assets[a.ID] = a
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.assets, id)
	return nil
}

func (m *mockRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Asset, int, error) {
	var items []*Asset
	for _, a := range m.assets {
		if s := params["status"]; s != "" && a.Status != s {
			continue
		}
		items = append(items, a)
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Asset, int, error) {
	var items []*Asset
	for _, a := range m.assets {
		if a.PatientID == patientID {
			items = append(items, a)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) CountByStatus(_ context.Context) (*Stats, error) {
	stats := &Stats{}
	for _, a := range m.assets {
		stats.Total++
		switch a.Status {
		case StatusRegistered:
			stats.Registered++
		case StatusConfirmed:
			stats.Confirmed++
		case StatusRefused:
			stats.Refused++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

type mockPatients struct {
	patients map[uuid.UUID]*patient.Patient
}

func newMockPatients() *mockPatients {
	return &mockPatients{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatients) add(iin, clinicID string) *patient.Patient {
	p := &patient.Patient{ID: uuid.New(), IIN: iin, LastName: "Test", FirstName: "Patient"}
	if clinicID != "" {
		p.AttachmentData = map[string]interface{}{"attached_clinic_id": clinicID}
	}
	m.patients[p.ID] = p
	return p
}

func (m *mockPatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	return p, nil
}

func (m *mockPatients) GetByIIN(_ context.Context, iin string) (*patient.Patient, error) {
	for _, p := range m.patients {
		if p.IIN == iin {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient with iin %s not found", iin)
}

func (m *mockPatients) Attach(_ context.Context, id uuid.UUID, clinicID string) error {
	if p, ok := m.patients[id]; ok {
		if p.AttachmentData == nil {
			p.AttachmentData = map[string]interface{}{}
		}
		p.AttachmentData["attached_clinic_id"] = clinicID
	}
	return nil
}

type mockOrgs struct {
	codes map[string]bool
}

func (m *mockOrgs) ExistsByCode(_ context.Context, code string) (bool, error) {
	return m.codes[code], nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService() (*Service, *mockRepo, *mockPatients) {
	repo := newMockRepo()
	patients := newMockPatients()
	orgs := &mockOrgs{codes: map[string]bool{"org-1": true, "org-2": true}}
	return NewService(repo, patients, orgs), repo, patients
}

func registeredAsset(patientID uuid.UUID) *Asset {
	return &Asset{
		PatientID:   patientID,
		ReceiveDate: date(2026, 3, 1),
	}
}

func TestCreate_ByIIN(t *testing.T) {
	svc, repo, patients := newTestService()
	p := patients.add("880101300123", "")

	a := &Asset{ReceiveDate: date(2026, 3, 1)}
	if err := svc.Create(context.Background(), a, "880101300123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PatientID != p.ID {
		t.Errorf("expected patient %s, got %s", p.ID, a.PatientID)
	}
	if a.Status != StatusRegistered {
		t.Errorf("expected status registered, got %q", a.Status)
	}
	if a.DeliveryStatus != DeliveryReceivedAutomatically {
		t.Errorf("expected delivery received_automatically, got %q", a.DeliveryStatus)
	}
	if len(repo.assets) != 1 {
		t.Errorf("expected 1 stored asset, got %d", len(repo.assets))
	}
}

func TestCreate_UnknownIIN(t *testing.T) {
	svc, _, _ := newTestService()
	a := &Asset{ReceiveDate: date(2026, 3, 1)}
	err := svc.Create(context.Background(), a, "000000000000")
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreate_MissingReceiveDate(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")
	err := svc.Create(context.Background(), &Asset{PatientID: p.ID}, "")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_DuplicateBGAssetID(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	bgID := "bg-42"
	first := registeredAsset(p.ID)
	first.BGAssetID = &bgID
	if err := svc.Create(context.Background(), first, ""); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := registeredAsset(p.ID)
	second.BGAssetID = &bgID
	err := svc.Create(context.Background(), second, "")
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreate_UnknownOutcome(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	outcome := "vanished"
	a := registeredAsset(p.ID)
	a.Outcome = &outcome
	err := svc.Create(context.Background(), a, "")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := registeredAsset(p.ID)
	a.DeliveryStatus = DeliveryPending
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Confirm(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("expected status confirmed, got %q", got.Status)
	}
	if !got.HasConfirm {
		t.Error("expected has_confirm set")
	}
	if got.DeliveryStatus != DeliveryDelivered {
		t.Errorf("expected delivery delivered, got %q", got.DeliveryStatus)
	}

	if _, err := svc.Confirm(context.Background(), a.ID); !apperr.IsValidation(err) {
		t.Errorf("expected validation error on double confirm, got %v", err)
	}
}

func TestRefuse(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Refuse(context.Background(), a.ID, "patient declined visit")
	if err != nil {
		t.Fatalf("refuse: %v", err)
	}
	if got.Status != StatusRefused {
		t.Errorf("expected status refused, got %q", got.Status)
	}
	if !got.HasRefusal {
		t.Error("expected has_refusal set")
	}
	if got.DiagnosisNote == nil || !strings.HasPrefix(*got.DiagnosisNote, "Refusal: patient declined visit") {
		t.Errorf("expected refusal note, got %v", got.DiagnosisNote)
	}
}

func TestRefuse_RequiresReason(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Refuse(context.Background(), a.ID, ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRefuse_OnlyRegistered(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Refuse(context.Background(), a.ID, "too late"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "org-1")

	a := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, err := svc.Transfer(context.Background(), a.ID, "org-2", true)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got.Status != StatusRegistered {
		t.Errorf("expected status registered after transfer, got %q", got.Status)
	}
	if got.DeliveryStatus != DeliveryPending {
		t.Errorf("expected delivery pending_delivery, got %q", got.DeliveryStatus)
	}
	if got.HasConfirm {
		t.Error("expected has_confirm cleared after transfer")
	}
	if got.ActualDatetime == nil {
		t.Error("expected actual_datetime set")
	}
	if got.DiagnosisNote == nil || !strings.Contains(*got.DiagnosisNote, "Transferred to organization org-2") {
		t.Errorf("expected transfer note, got %v", got.DiagnosisNote)
	}
	if p.AttachedClinicID() != "org-2" {
		t.Errorf("expected patient attached to org-2, got %q", p.AttachedClinicID())
	}
}

func TestTransfer_UnknownOrganization(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "org-1")

	a := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transfer(context.Background(), a.ID, "org-9", false); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestTransfer_KeepsAttachmentWhenNotRequested(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "org-1")

	a := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Transfer(context.Background(), a.ID, "org-2", false); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if p.AttachedClinicID() != "org-1" {
		t.Errorf("expected attachment untouched, got %q", p.AttachedClinicID())
	}
}

func TestUpdate_CancelledIsImmutable(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := registeredAsset(p.ID)
	a.Status = StatusCancelled
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(context.Background(), a.ID, &Asset{Status: StatusConfirmed}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_PrependsDiagnosisNote(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	first := "Initial observation"
	a := registeredAsset(p.ID)
	a.DiagnosisNote = &first
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	note := "Follow-up complaint"
	got, err := svc.Update(context.Background(), a.ID, &Asset{DiagnosisNote: &note})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := "Follow-up complaint\nInitial observation"
	if got.DiagnosisNote == nil || *got.DiagnosisNote != want {
		t.Errorf("expected note %q, got %v", want, got.DiagnosisNote)
	}
}

func TestImportFromFile(t *testing.T) {
	svc, repo, patients := newTestService()
	attached := patients.add("880101300123", "org-1")
	patients.add("990202400456", "")

	existingID := "bg-1"
	existing := registeredAsset(attached.ID)
	existing.BGAssetID = &existingID
	if err := svc.Create(context.Background(), existing, ""); err != nil {
		t.Fatalf("seed existing: %v", err)
	}

	payload := `[
		{"bg_asset_id": "bg-1", "patient_iin": "880101300123", "receive_date": "2026-03-02"},
		{"bg_asset_id": "bg-2", "patient_iin": "880101300123", "receive_date": "2026-03-02",
		 "receive_time": "14:30", "received_from": "103",
		 "diagnoses": [{"type": "primary", "code": "J06.9", "name": "Acute URI"}]},
		{"bg_asset_id": "bg-3", "patient_iin": "990202400456", "receive_date": "2026-03-03"},
		{"bg_asset_id": "bg-4", "patient_iin": "111111111111", "receive_date": "2026-03-03"}
	]`

	result, err := svc.ImportFromFile(context.Background(), strings.NewReader(payload))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", result.Imported)
	}
	if result.SkippedExisting != 1 {
		t.Errorf("expected 1 skipped existing, got %d", result.SkippedExisting)
	}
	if result.SkippedNoPatient != 1 {
		t.Errorf("expected 1 skipped for unknown patient, got %d", result.SkippedNoPatient)
	}

	imported, err := repo.GetByBGAssetID(context.Background(), "bg-2")
	if err != nil {
		t.Fatalf("lookup imported: %v", err)
	}
	if imported.Status != StatusRegistered || imported.DeliveryStatus != DeliveryReceivedAutomatically {
		t.Errorf("unexpected imported state: %s / %s", imported.Status, imported.DeliveryStatus)
	}
	if pd := imported.PrimaryDiagnosis(); pd == nil || pd.Code != "J06.9" {
		t.Errorf("expected primary diagnosis J06.9, got %v", pd)
	}
	if imported.IsNotAttached {
		t.Error("expected attached patient to import as attached")
	}

	unattached, err := repo.GetByBGAssetID(context.Background(), "bg-3")
	if err != nil {
		t.Fatalf("lookup bg-3: %v", err)
	}
	if !unattached.IsNotAttached {
		t.Error("expected patient without attachment to import as not attached")
	}
}

func TestImportFromFile_Malformed(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ImportFromFile(context.Background(), strings.NewReader("not json")); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPrimaryDiagnosis(t *testing.T) {
	a := &Asset{Diagnoses: []Diagnosis{
		{Type: "secondary", Code: "E11"},
		{Type: "primary", Code: "I10"},
	}}
	if pd := a.PrimaryDiagnosis(); pd == nil || pd.Code != "I10" {
		t.Errorf("expected primary I10, got %v", pd)
	}
	if pd := (&Asset{}).PrimaryDiagnosis(); pd != nil {
		t.Errorf("expected nil for empty list, got %v", pd)
	}
}

func TestStats(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	for i := 0; i < 3; i++ {
		if err := svc.Create(context.Background(), registeredAsset(p.ID), ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	confirmed := registeredAsset(p.ID)
	if err := svc.Create(context.Background(), confirmed, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Confirm(context.Background(), confirmed.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Registered != 3 || stats.Confirmed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
