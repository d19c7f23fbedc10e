package stationary

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
		return nil, apperr.NotFound("stationary asset %s not found", id)
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
	return nil, apperr.NotFound("stationary asset with bg id %s not found", bgAssetID)
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
		if params["open_stay"] == "true" && a.StayPeriodEnd != nil {
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

func admittedAsset(patientID uuid.UUID) *Asset {
	return &Asset{
		PatientID:       patientID,
		ReceiveDate:     date(2026, 4, 1),
		StayPeriodStart: date(2026, 4, 1),
		Diagnosis:       "K35.8 Acute appendicitis",
	}
}

func TestCreate_ByIIN(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(uuid.Nil)
	if err := svc.Create(context.Background(), a, "880101300123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PatientID != p.ID {
		t.Errorf("expected patient %s, got %s", p.ID, a.PatientID)
	}
	if a.Status != StatusRegistered || a.DeliveryStatus != DeliveryReceivedAutomatically {
		t.Errorf("unexpected defaults: %s / %s", a.Status, a.DeliveryStatus)
	}
	if !a.StayOpen() {
		t.Error("expected stay to be open")
	}
}

func TestCreate_MissingDiagnosis(t *testing.T) {
	svc, _, patients := newTestService()
	patients.add("880101300123", "")

	a := admittedAsset(uuid.Nil)
	a.Diagnosis = ""
	err := svc.Create(context.Background(), a, "880101300123")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_StayEndBeforeStart(t *testing.T) {
	svc, _, patients := newTestService()
	patients.add("880101300123", "")

	a := admittedAsset(uuid.Nil)
	end := date(2026, 3, 30)
	a.StayPeriodEnd = &end
	err := svc.Create(context.Background(), a, "880101300123")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_DuplicateBGAssetID(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	bg := "bg-7"
	first := admittedAsset(p.ID)
	first.BGAssetID = &bg
	if err := svc.Create(context.Background(), first, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := admittedAsset(p.ID)
	second.BGAssetID = &bg
	err := svc.Create(context.Background(), second, "")
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(p.ID)
	a.DeliveryStatus = DeliveryPending
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Confirm(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != StatusConfirmed || !got.HasConfirm {
		t.Errorf("unexpected state after confirm: %+v", got)
	}
	if got.DeliveryStatus != DeliveryDelivered {
		t.Errorf("expected pending delivery resolved, got %q", got.DeliveryStatus)
	}

	if _, err := svc.Confirm(context.Background(), a.ID); !apperr.IsValidation(err) {
		t.Errorf("expected second confirm rejected, got %v", err)
	}
}

func TestUpdate_CancelledIsImmutable(t *testing.T) {
	svc, repo, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.assets[a.ID].Status = StatusCancelled

	_, err := svc.Update(context.Background(), a.ID, &Asset{Diagnosis: "Z00.0"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_DischargeSetsOutcome(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	end := date(2026, 4, 10)
	outcome := "recovered"
	got, err := svc.Update(context.Background(), a.ID, &Asset{StayPeriodEnd: &end, StayOutcome: &outcome})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.StayOpen() {
		t.Error("expected stay closed after discharge")
	}
	if got.StayOutcome == nil || *got.StayOutcome != "recovered" {
		t.Errorf("expected outcome recorded, got %v", got.StayOutcome)
	}
}

func TestUpdate_RejectsStayEndBeforeStart(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	end := date(2026, 3, 1)
	_, err := svc.Update(context.Background(), a.ID, &Asset{StayPeriodEnd: &end})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_ReplacesNote(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(p.ID)
	first := "admitted through ER"
	a.Note = &first
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	second := "moved to ward 3"
	got, err := svc.Update(context.Background(), a.ID, &Asset{Note: &second})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Note == nil || *got.Note != "moved to ward 3" {
		t.Errorf("expected note replaced, got %v", got.Note)
	}
}

func TestTransfer(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "org-1")

	a := admittedAsset(p.ID)
	a.Status = StatusConfirmed
	a.HasConfirm = true
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Transfer(context.Background(), a.ID, "org-2", "specialized care", true)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got.Status != StatusRegistered || got.DeliveryStatus != DeliveryPending {
		t.Errorf("unexpected state after transfer: %s / %s", got.Status, got.DeliveryStatus)
	}
	if got.HasConfirm {
		t.Error("expected confirmation reset on transfer")
	}
	if got.Note == nil || !strings.Contains(*got.Note, "org-2") || !strings.Contains(*got.Note, "specialized care") {
		t.Errorf("expected transfer note with reason, got %v", got.Note)
	}
	if p.AttachmentData["attached_clinic_id"] != "org-2" {
		t.Errorf("expected patient re-attached to org-2, got %v", p.AttachmentData["attached_clinic_id"])
	}
}

func TestTransfer_UnknownOrganization(t *testing.T) {
	svc, _, patients := newTestService()
	p := patients.add("880101300123", "")

	a := admittedAsset(p.ID)
	if err := svc.Create(context.Background(), a, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Transfer(context.Background(), a.ID, "org-9", "", false)
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestImportFromFile(t *testing.T) {
	svc, repo, patients := newTestService()
	patients.add("880101300123", "org-1")

	existing := "bg-1"
	seeded := admittedAsset(uuid.New())
	seeded.BGAssetID = &existing
	repo.assets[uuid.New()] = seeded

	data := `[
		{"bg_asset_id": "bg-1", "patient_iin": "880101300123", "receive_date": "2026-04-01",
		 "stay_period_start": "2026-04-01", "diagnosis": "K35.8"},
		{"bg_asset_id": "bg-2", "patient_iin": "880101300123", "receive_date": "2026-04-02",
		 "stay_period_start": "2026-04-02", "stay_period_end": "2026-04-09",
		 "card_number": "C-120", "diagnosis": "J18.9", "area": "12", "specialist": "Omarova"},
		{"bg_asset_id": "bg-3", "patient_iin": "000000000000", "receive_date": "2026-04-03",
		 "stay_period_start": "2026-04-03", "diagnosis": "I21.9"}
	]`

	result, err := svc.ImportFromFile(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 || result.SkippedExisting != 1 || result.SkippedNoPatient != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	imported, err := repo.GetByBGAssetID(context.Background(), "bg-2")
	if err != nil {
		t.Fatalf("imported asset not stored: %v", err)
	}
	if imported.CardNumber == nil || *imported.CardNumber != "C-120" {
		t.Errorf("expected card number kept, got %v", imported.CardNumber)
	}
	if imported.StayOpen() {
		t.Error("expected closed stay for bg-2")
	}
}

func TestImportFromFile_Malformed(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ImportFromFile(context.Background(), strings.NewReader(`{"not": "a list"`))
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, repo, patients := newTestService()
	p := patients.add("880101300123", "")

	for _, status := range []string{StatusRegistered, StatusRegistered, StatusConfirmed} {
		a := admittedAsset(p.ID)
		a.Status = status
		repo.assets[uuid.New()] = a
	}

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Registered != 2 || stats.Confirmed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
