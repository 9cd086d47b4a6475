package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/purchasing/repository"
	"autoparts_quotes_backend/internal/purchasing/transport"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type fakeRepo struct {
	quotation   repository.QuotationContext
	responded   []repository.RespondedRequest
	orders      map[uuid.UUID]repository.OrderDetail
	created     []repository.OrderDetail
	savedParts  []quotedoc.Part
	savedStatus string
	transitions []string
}

func (f *fakeRepo) GetQuotation(_ context.Context, _ tenancy.Scope, id uuid.UUID) (repository.QuotationContext, error) {
	if id != f.quotation.ID {
		return repository.QuotationContext{}, apperr.NotFound("quotation not found")
	}
	return f.quotation, nil
}

func (f *fakeRepo) ListResponded(context.Context, tenancy.Scope, uuid.UUID) ([]repository.RespondedRequest, error) {
	return f.responded, nil
}

func (f *fakeRepo) CreateOrders(_ context.Context, orders []repository.OrderDetail, _ uuid.UUID, parts []quotedoc.Part, status string) error {
	f.created = append(f.created, orders...)
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	f.savedParts = parts
	f.savedStatus = status
	f.quotation.Parts = parts
	f.quotation.Status = status
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, _ tenancy.Scope, id uuid.UUID) (repository.OrderDetail, error) {
	o, ok := f.orders[id]
	if !ok {
		return repository.OrderDetail{}, apperr.NotFound("purchase order not found")
	}
	return o, nil
}

func (f *fakeRepo) List(context.Context, repository.ListParams) (repository.ListResult, error) {
	return repository.ListResult{}, nil
}

func (f *fakeRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to string) error {
	o := f.orders[id]
	if o.Status != from {
		return apperr.Conflict("purchase order is not " + from)
	}
	o.Status = to
	f.orders[id] = o
	f.transitions = append(f.transitions, from+"->"+to)
	return nil
}

func (f *fakeRepo) UpdateDetails(_ context.Context, _ tenancy.Scope, id uuid.UUID, deliveryTime, notes *string) error {
	o := f.orders[id]
	o.DeliveryTime, o.Notes = deliveryTime, notes
	f.orders[id] = o
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, _ tenancy.Scope, id uuid.UUID) error {
	delete(f.orders, id)
	return nil
}

func (f *fakeRepo) GetWorkshop(context.Context, uuid.UUID) (*repository.Workshop, error) {
	phone := "(11) 3333-4444"
	return &repository.Workshop{Name: "Oficina Central", Phone: &phone}, nil
}

type fakeMessenger struct {
	texts   []string
	images  []string
	docs    []Document
	failDoc bool
}

func (m *fakeMessenger) SendText(_ context.Context, _ tenancy.Scope, _, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func (m *fakeMessenger) SendImage(_ context.Context, _ tenancy.Scope, _, key, _ string) error {
	m.images = append(m.images, key)
	return nil
}

func (m *fakeMessenger) SendDocument(_ context.Context, _ tenancy.Scope, _ string, doc Document) error {
	if m.failDoc {
		return errors.New("gateway timeout")
	}
	m.docs = append(m.docs, doc)
	return nil
}

type recordingBus struct {
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) { b.events = append(b.events, e) }

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func offer(idx int, desc string, qty int, price string) quotedoc.ResponsePart {
	return quotedoc.ResponsePart{
		PartIndex: idx, Description: desc, Quantity: qty, Available: true,
		Condition: quotedoc.ConditionNew, UnitPrice: dec(price), TotalPrice: quotedoc.LineTotal(dec(price), qty),
	}
}

func responded(name string, created time.Time, parts ...quotedoc.ResponsePart) repository.RespondedRequest {
	resp := quotedoc.Response{SupplierName: name, Parts: parts}
	resp.Recalculate()
	return repository.RespondedRequest{ID: uuid.New(), SupplierID: uuid.New(), SupplierName: name, CreatedAt: created, Response: resp}
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	messenger *fakeMessenger
	bus       *recordingBus
	scope     tenancy.Scope
	a, b      repository.RespondedRequest
}

// Supplier A offers Farol 100 and Grade 60; supplier B offers Farol 90,
// Grade 60 and Retrovisor 40. Nobody offers Para-choque.
func newFixture() *fixture {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := responded("Auto Peças A", base,
		offer(0, "Farol", 2, "100"),
		offer(1, "Grade", 1, "60"),
		quotedoc.ResponsePart{PartIndex: 2, Description: "Retrovisor", Quantity: 1},
	)
	b := responded("Peças B", base.Add(time.Microsecond),
		offer(0, "Farol", 2, "90"),
		offer(1, "Grade", 1, "60"),
		offer(2, "Retrovisor", 1, "40"),
	)
	plate, year := "ABC1D23", "2019/2020"
	repo := &fakeRepo{
		quotation: repository.QuotationContext{
			ID: uuid.New(), Status: "in_progress", Brand: "Fiat", Model: "Uno", Plate: &plate, Year: &year,
			Parts: []quotedoc.Part{
				{Code: "A1", Description: "Farol", Quantity: 2},
				{Code: "B2", Description: "Grade", Quantity: 1},
				{Code: "C3", Description: "Retrovisor", Quantity: 1},
				{Code: "D4", Description: "Para-choque", Quantity: 1},
			},
		},
		responded: []repository.RespondedRequest{a, b},
		orders:    map[uuid.UUID]repository.OrderDetail{},
	}
	messenger := &fakeMessenger{}
	bus := &recordingBus{}
	return &fixture{
		svc:  New(repo, messenger, bus, logger.Nop()),
		repo: repo, messenger: messenger, bus: bus,
		scope: tenancy.ForUser(uuid.New()),
		a:     a, b: b,
	}
}

func TestBestPricesPicksMinimumAndOmitsUnoffered(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.BestPrices(context.Background(), f.scope, f.repo.quotation.ID)
	if err != nil {
		t.Fatalf("best prices: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 rows, got %+v", resp.Items)
	}
	for _, bp := range resp.Items {
		if bp.Key == "para-choque" {
			t.Fatal("a part nobody offered must be absent")
		}
	}
	farol := resp.Items[0]
	if farol.SupplierID != f.b.SupplierID || !farol.UnitPrice.Equal(dec("90")) {
		t.Fatalf("expected Peças B at 90 for Farol, got %+v", farol)
	}
	if farol.OfferCount != 2 {
		t.Fatalf("expected 2 offers for Farol, got %d", farol.OfferCount)
	}
	if !resp.Total.Equal(dec("280")) {
		t.Fatalf("expected total 280, got %s", resp.Total)
	}
}

func TestBestPricesTieKeepsEarlierRequest(t *testing.T) {
	f := newFixture()
	items := BestPrices(f.repo.quotation.Parts, f.repo.responded)

	grade := items[1]
	if grade.Key != "grade" {
		t.Fatalf("unexpected row order %+v", items)
	}
	if grade.SupplierID != f.a.SupplierID {
		t.Fatalf("tie should go to the earlier request, got %s", grade.SupplierName)
	}
}

func TestBestPricesIsIdempotentAndFlagsPurchased(t *testing.T) {
	f := newFixture()
	f.repo.quotation.Parts[0].Purchased = true

	first := BestPrices(f.repo.quotation.Parts, f.repo.responded)
	second := BestPrices(f.repo.quotation.Parts, f.repo.responded)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SupplierID != second[i].SupplierID || !first[i].UnitPrice.Equal(second[i].UnitPrice) {
			t.Fatalf("row %d differs between runs", i)
		}
	}
	if !first[0].Purchased {
		t.Fatal("purchased part should be flagged but kept")
	}
}

func TestBestPricesMatchesDescriptionsLoosely(t *testing.T) {
	parts := []quotedoc.Part{{Description: "Farol  Dianteiro", Quantity: 1}}
	reqs := []repository.RespondedRequest{
		responded("A", time.Now(), offer(5, "FAROL DIANTEIRO", 1, "10")),
		responded("B", time.Now(), offer(5, "farol dianteiro ", 1, "8")),
	}
	items := BestPrices(parts, reqs)
	if len(items) != 1 || !items[0].UnitPrice.Equal(dec("8")) {
		t.Fatalf("expected one merged row at 8, got %+v", items)
	}
}

func TestGenerateFromSelectionsGroupsBySupplier(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.GenerateFromSelections(context.Background(), f.scope, f.repo.quotation.ID, transport.GenerateFromSelectionsRequest{
		Selections: []transport.Selection{
			{RequestID: f.a.ID, PartIndex: 0},
			{RequestID: f.a.ID, PartIndex: 1},
			{RequestID: f.b.ID, PartIndex: 2},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(f.repo.created) != 2 {
		t.Fatalf("expected 2 purchase orders, got %d", len(f.repo.created))
	}
	for _, o := range f.repo.created {
		sum := decimal.Zero
		for _, it := range o.Items {
			sum = sum.Add(it.TotalPrice)
		}
		if !o.TotalAmount.Equal(sum) {
			t.Fatalf("order total %s does not match items %s", o.TotalAmount, sum)
		}
	}
	if !f.repo.created[0].TotalAmount.Equal(dec("260")) || !f.repo.created[1].TotalAmount.Equal(dec("40")) {
		t.Fatalf("unexpected totals %s / %s", f.repo.created[0].TotalAmount, f.repo.created[1].TotalAmount)
	}
	if resp.QuotationCompleted {
		t.Fatal("Para-choque is still open; quotation must not complete")
	}
	for i, p := range f.repo.savedParts {
		if want := i < 3; p.Purchased != want {
			t.Fatalf("part %d purchased = %v, want %v", i, p.Purchased, want)
		}
	}
	if _, ok := f.bus.events[0].(events.PurchaseOrdersGenerated); !ok {
		t.Fatalf("unexpected event %T", f.bus.events[0])
	}
}

func TestGenerateFromSelectionsLaterPickReplacesEarlier(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GenerateFromSelections(context.Background(), f.scope, f.repo.quotation.ID, transport.GenerateFromSelectionsRequest{
		Selections: []transport.Selection{
			{RequestID: f.a.ID, PartIndex: 0},
			{RequestID: f.b.ID, PartIndex: 0},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(f.repo.created) != 1 || f.repo.created[0].SupplierID != f.b.SupplierID {
		t.Fatalf("expected a single order for Peças B, got %+v", f.repo.created)
	}
}

func TestGenerateFromSelectionsRejectsUnavailablePart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GenerateFromSelections(context.Background(), f.scope, f.repo.quotation.ID, transport.GenerateFromSelectionsRequest{
		Selections: []transport.Selection{{RequestID: f.a.ID, PartIndex: 2}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateFromBestPricesSkipsPurchasedAndCompletes(t *testing.T) {
	f := newFixture()
	f.repo.quotation.Parts = f.repo.quotation.Parts[:3]
	f.repo.quotation.Parts[1].Purchased = true

	resp, err := f.svc.GenerateFromBestPrices(context.Background(), f.scope, f.repo.quotation.ID, transport.GenerateFromBestPricesRequest{
		Descriptions: []string{"Farol", "grade", "Retrovisor"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(f.repo.created) != 1 || len(f.repo.created[0].Items) != 2 {
		t.Fatalf("expected one order for Peças B with 2 items, got %+v", f.repo.created)
	}
	if !resp.QuotationCompleted || f.repo.savedStatus != repository.QuotationCompleted {
		t.Fatalf("expected quotation completed, status %q", f.repo.savedStatus)
	}
	var completed bool
	for _, e := range f.bus.events {
		if _, ok := e.(events.QuotationCompleted); ok {
			completed = true
		}
	}
	if !completed {
		t.Fatal("expected a quotation completed event")
	}
}

func TestGenerateFromBestPricesUnknownDescription(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GenerateFromBestPrices(context.Background(), f.scope, f.repo.quotation.ID, transport.GenerateFromBestPricesRequest{
		Descriptions: []string{"Para-choque"},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func (f *fixture) pendingOrder(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := f.svc.GenerateFromSelections(context.Background(), f.scope, f.repo.quotation.ID, transport.GenerateFromSelectionsRequest{
		Selections: []transport.Selection{{RequestID: f.b.ID, PartIndex: 0}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id := resp.Orders[0].ID
	o := f.repo.orders[id]
	area, number := "11", "987654321"
	o.SupplierAreaCode, o.SupplierPhone = &area, &number
	o.CreatedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f.repo.orders[id] = o
	return id
}

func TestSendMovesThroughSendingToSent(t *testing.T) {
	f := newFixture()
	id := f.pendingOrder(t)
	photo := "vehicles/abc/front.jpg"

	resp, err := f.svc.Send(context.Background(), f.scope, id, transport.SendPurchaseOrderRequest{PhotoKey: &photo, AttachPDF: true})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Status != repository.StatusSent || resp.SentAt == nil {
		t.Fatalf("expected sent with timestamp, got %+v", resp)
	}
	if got := strings.Join(f.repo.transitions, ","); got != "pending->sending,sending->sent" {
		t.Fatalf("unexpected transitions %s", got)
	}
	if len(f.messenger.texts) != 1 || len(f.messenger.images) != 1 || len(f.messenger.docs) != 1 {
		t.Fatalf("expected text, photo and PDF, got %d/%d/%d", len(f.messenger.texts), len(f.messenger.images), len(f.messenger.docs))
	}
	if !bytes.HasPrefix(f.messenger.docs[0].Content, []byte("%PDF")) {
		t.Fatal("attached document is not a PDF")
	}
}

func TestSendFailureReturnsToPending(t *testing.T) {
	f := newFixture()
	id := f.pendingOrder(t)
	f.messenger.failDoc = true

	_, err := f.svc.Send(context.Background(), f.scope, id, transport.SendPurchaseOrderRequest{AttachPDF: true})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if f.repo.orders[id].Status != repository.StatusPending {
		t.Fatalf("expected pending after failure, got %s", f.repo.orders[id].Status)
	}
}

func TestSendRejectsAlreadySent(t *testing.T) {
	f := newFixture()
	id := f.pendingOrder(t)
	if _, err := f.svc.Send(context.Background(), f.scope, id, transport.SendPurchaseOrderRequest{}); err != nil {
		t.Fatalf("first send: %v", err)
	}

	_, err := f.svc.Send(context.Background(), f.scope, id, transport.SendPurchaseOrderRequest{})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), f.scope, id); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("sent orders cannot be deleted, got %v", err)
	}
}

func TestBuildMessageListsItemsAndTerms(t *testing.T) {
	f := newFixture()
	delivery := "2 dias"
	o := repository.OrderDetail{
		Order: repository.Order{ID: uuid.New(), TotalAmount: dec("180"), DeliveryTime: &delivery},
		Items: []repository.Item{{Description: "Farol", Quantity: 2, UnitPrice: dec("90"), TotalPrice: dec("180")}},
	}
	ws, _ := f.repo.GetWorkshop(context.Background(), uuid.Nil)

	msg := BuildMessage(o, f.repo.quotation, ws)
	for _, want := range []string{"Oficina Central", "Fiat Uno 2019/2020", "Placa ABC1D23", "2x Farol", "*Total:*", "*Prazo de entrega:* 2 dias"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Observações") {
		t.Fatal("empty notes should be omitted")
	}
}

func TestBuildComparisonHighlightsBestPrice(t *testing.T) {
	f := newFixture()

	out, err := BuildComparison(f.repo.quotation, f.repo.responded)
	if err != nil {
		t.Fatalf("build comparison: %v", err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	if v, _ := wb.GetCellValue(comparisonSheet, "D1"); v != "Auto Peças A" {
		t.Fatalf("D1 = %q", v)
	}
	if v, _ := wb.GetCellValue(comparisonSheet, "D4"); v != "-" {
		t.Fatalf("unavailable offer should be a dash, got %q", v)
	}
	bestStyle, _ := wb.GetCellStyle(comparisonSheet, "E2")
	otherStyle, _ := wb.GetCellStyle(comparisonSheet, "D2")
	if bestStyle == otherStyle {
		t.Fatal("best price cell should be styled differently")
	}
}
