package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/quotations/repository"
	"autoparts_quotes_backend/internal/quotations/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

type fakeRepo struct {
	Repository
	created  []repository.QuotationWithVehicle
	existing []bool
	stored   map[uuid.UUID]repository.QuotationWithVehicle
	setParts []quotedoc.Part
	status   string
	updated  []repository.Quotation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stored: map[uuid.UUID]repository.QuotationWithVehicle{}}
}

func (f *fakeRepo) CreateWithVehicle(_ context.Context, _ tenancy.Scope, q repository.Quotation, v repository.Vehicle, existing bool) (repository.QuotationWithVehicle, error) {
	q.VehicleID = v.ID
	out := repository.QuotationWithVehicle{Quotation: q, Vehicle: v}
	f.created = append(f.created, out)
	f.existing = append(f.existing, existing)
	f.stored[q.ID] = out
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, _ tenancy.Scope, id uuid.UUID) (repository.QuotationWithVehicle, error) {
	q, ok := f.stored[id]
	if !ok {
		return repository.QuotationWithVehicle{}, apperr.NotFound("quotation not found")
	}
	return q, nil
}

func (f *fakeRepo) SetParts(_ context.Context, _ tenancy.Scope, _ uuid.UUID, parts []quotedoc.Part, status string) error {
	f.setParts = parts
	f.status = status
	return nil
}

func (f *fakeRepo) UpdateWithVehicle(_ context.Context, _ tenancy.Scope, q repository.Quotation, v *repository.Vehicle) (repository.QuotationWithVehicle, error) {
	f.updated = append(f.updated, q)
	current, ok := f.stored[q.ID]
	if !ok {
		return repository.QuotationWithVehicle{}, apperr.NotFound("quotation not found")
	}
	current.Parts = q.Parts
	current.Description = q.Description
	current.Status = q.Status
	if v != nil {
		id := current.Vehicle.ID
		current.Vehicle = *v
		current.Vehicle.ID = id
	}
	f.stored[q.ID] = current
	return current, nil
}

type upperExpander struct{}

func (upperExpander) Expand(_ context.Context, _ tenancy.Scope, text string) (string, error) {
	return strings.ReplaceAll(text, "PCHQ", "PARACHOQUE"), nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func vehicleInput() *transport.VehicleInput {
	plate := "abc-1234"
	return &transport.VehicleInput{Brand: "Fiat", Model: "Uno", Plate: &plate}
}

func TestCreateManualQuotation(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, nil, bus, logger.Nop())
	scope := tenancy.ForUser(uuid.New())

	resp, err := svc.Create(context.Background(), scope, transport.CreateQuotationRequest{
		InputType: repository.InputManual,
		Vehicle:   vehicleInput(),
		Parts: []transport.PartInput{
			{Operation: "replace", Code: "a1", Description: "Farol", Condition: "new", Quantity: 2},
			{Operation: "replace_paint", Code: "b2", Description: "Porta", Condition: "genuine", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Status != repository.StatusPending || len(resp.Parts) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Parts[0].Code != "A1" || resp.Parts[1].Index != 1 {
		t.Fatalf("unexpected parts %+v", resp.Parts)
	}
	if resp.Vehicle.Plate == nil || *resp.Vehicle.Plate != "ABC1234" {
		t.Fatalf("plate not normalized: %v", resp.Vehicle.Plate)
	}
	if repo.existing[0] {
		t.Fatalf("inline vehicle must be created, not updated")
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected QuotationCreated, got %d events", len(bus.events))
	}
	if ev, ok := bus.events[0].(events.QuotationCreated); !ok || ev.PartCount != 2 {
		t.Fatalf("unexpected event %#v", bus.events[0])
	}
}

func TestCreateWithExistingVehicleUpdatesIt(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, logger.Nop())
	vehicleID := uuid.New()

	resp, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), transport.CreateQuotationRequest{
		InputType: repository.InputManual,
		VehicleID: &vehicleID,
		Vehicle:   vehicleInput(),
		Parts:     []transport.PartInput{{Operation: "replace", Code: "a1", Description: "Farol", Condition: "new", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !repo.existing[0] || resp.Vehicle.ID != vehicleID {
		t.Fatalf("existing vehicle not reused: %+v", resp.Vehicle)
	}
}

func TestCreateRequiresVehicle(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, logger.Nop())
	_, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), transport.CreateQuotationRequest{InputType: repository.InputManual})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateManualRejectsEmptyParts(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, logger.Nop())
	_, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), transport.CreateQuotationRequest{
		InputType: repository.InputManual,
		Vehicle:   vehicleInput(),
		Parts:     []transport.PartInput{{Operation: "replace", Code: " ", Description: "Farol", Condition: "new", Quantity: 1}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestCreateBulkExpandsAbbreviations(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, upperExpander{}, nil, logger.Nop())

	resp, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), transport.CreateQuotationRequest{
		InputType: repository.InputBulk,
		Vehicle:   vehicleInput(),
		BulkText:  "T C1 PCHQ DIANT nova 1 R$ 100,00\nlixo",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(resp.Parts) != 1 || resp.Parts[0].Description != "PARACHOQUE DIANT" {
		t.Fatalf("unexpected parts %+v", resp.Parts)
	}
	if resp.InputType != repository.InputBulk {
		t.Fatalf("unexpected input type %s", resp.InputType)
	}
}

func TestCreateBulkWithoutValidLines(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, logger.Nop())
	_, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), transport.CreateQuotationRequest{
		InputType: repository.InputBulk,
		Vehicle:   vehicleInput(),
		BulkText:  "nothing useful here",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateReportUsesPlaceholderPart(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, logger.Nop())
	resp, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), transport.CreateQuotationRequest{
		InputType:  repository.InputReport,
		Vehicle:    vehicleInput(),
		ReportText: "Troca do para-choque\ne farol esquerdo",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(resp.Parts) != 1 || resp.Parts[0].Quantity != 1 || resp.Parts[0].Description != reportPartDescription {
		t.Fatalf("unexpected parts %+v", resp.Parts)
	}
	if resp.Description == nil || !strings.Contains(*resp.Description, "farol esquerdo") {
		t.Fatalf("report text not stored as description: %v", resp.Description)
	}
}

func TestParseBulkPreview(t *testing.T) {
	svc := New(newFakeRepo(), upperExpander{}, nil, logger.Nop())
	resp, err := svc.ParseBulk(context.Background(), tenancy.ForUser(uuid.New()), "C1 PCHQ nova 1 R$ 10\nbad")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.Parts) != 1 || resp.Skipped != 1 || resp.Parts[0].Description != "PARACHOQUE" {
		t.Fatalf("unexpected preview %+v", resp)
	}
}

func TestUpdateResetsStatusToPending(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, logger.Nop())
	id := uuid.New()
	repo.stored[id] = repository.QuotationWithVehicle{Quotation: repository.Quotation{
		ID:     id,
		Status: repository.StatusInProgress,
		Parts:  []quotedoc.Part{{Code: "A1", Description: "Farol", Quantity: 1}},
	}}

	resp, err := svc.Update(context.Background(), tenancy.ForUser(uuid.New()), id, transport.UpdateQuotationRequest{
		Parts: []transport.PartInput{{Operation: "replace", Code: "b2", Description: "Porta", Condition: "new", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(repo.updated) != 1 || repo.updated[0].Status != repository.StatusPending {
		t.Fatalf("expected pending status to be written, got %+v", repo.updated)
	}
	if resp.Status != repository.StatusPending || len(resp.Parts) != 1 || resp.Parts[0].Code != "B2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMarkPartsPurchasedCompletesQuotation(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, nil, bus, logger.Nop())
	id := uuid.New()
	repo.stored[id] = repository.QuotationWithVehicle{Quotation: repository.Quotation{
		ID:     id,
		Status: repository.StatusInProgress,
		Parts:  []quotedoc.Part{{Description: "A"}, {Description: "B", Purchased: true}},
	}}

	resp, err := svc.MarkPartsPurchased(context.Background(), tenancy.ForUser(uuid.New()), id, []int{0})
	if err != nil {
		t.Fatalf("mark purchased: %v", err)
	}
	if resp.Status != repository.StatusCompleted || repo.status != repository.StatusCompleted {
		t.Fatalf("expected completed, got %s", resp.Status)
	}
	if !repo.setParts[0].Purchased {
		t.Fatalf("part 0 not marked")
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected QuotationCompleted event")
	}
}

func TestMarkPartsPurchasedRejectsBadIndex(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, logger.Nop())
	id := uuid.New()
	repo.stored[id] = repository.QuotationWithVehicle{Quotation: repository.Quotation{ID: id, Parts: []quotedoc.Part{{}}}}

	_, err := svc.MarkPartsPurchased(context.Background(), tenancy.ForUser(uuid.New()), id, []int{3})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
