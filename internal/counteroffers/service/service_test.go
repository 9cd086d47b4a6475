package service

import (
	"context"
	"strings"
	"testing"

	"autoparts_quotes_backend/internal/counteroffers/repository"
	"autoparts_quotes_backend/internal/counteroffers/transport"
	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/logger"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	request repository.RequestContext
	offers  map[uuid.UUID]repository.CounterOffer
	merged  *quotedoc.Response

	// beforeRespond runs inside Respond ahead of the merge.
	beforeRespond func()
}

func (f *fakeRepo) GetRequest(_ context.Context, _ tenancy.Scope, id uuid.UUID) (repository.RequestContext, error) {
	if id != f.request.RequestID {
		return repository.RequestContext{}, apperr.NotFound("quotation request not found")
	}
	return f.request, nil
}

func (f *fakeRepo) GetRequestPublic(ctx context.Context, id uuid.UUID) (repository.RequestContext, error) {
	return f.GetRequest(ctx, tenancy.Scope{}, id)
}

func (f *fakeRepo) Create(_ context.Context, co repository.CounterOffer) (repository.CounterOffer, error) {
	co.Status = repository.StatusPending
	f.offers[co.ID] = co
	return co, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, _ tenancy.Scope, id uuid.UUID) (repository.CounterOffer, error) {
	return f.GetPublic(ctx, id)
}

func (f *fakeRepo) GetPublic(_ context.Context, id uuid.UUID) (repository.CounterOffer, error) {
	co, ok := f.offers[id]
	if !ok {
		return repository.CounterOffer{}, apperr.NotFound("counter offer not found")
	}
	return co, nil
}

func (f *fakeRepo) ListByRequest(context.Context, tenancy.Scope, uuid.UUID) ([]repository.CounterOffer, error) {
	return nil, nil
}

func (f *fakeRepo) ListByQuotation(context.Context, tenancy.Scope, uuid.UUID) ([]repository.CounterOffer, error) {
	return nil, nil
}

func (f *fakeRepo) Respond(_ context.Context, co repository.CounterOffer, merge repository.MergeFunc) (repository.CounterOffer, error) {
	if f.offers[co.ID].Status != repository.StatusPending {
		return repository.CounterOffer{}, apperr.Conflict("this counter offer has already been answered")
	}
	if f.beforeRespond != nil {
		f.beforeRespond()
	}
	f.offers[co.ID] = co
	merged := merge(*f.request.Response)
	f.merged = &merged
	f.request.Response = &merged
	return co, nil
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

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newService() (*Service, *fakeRepo, *recordingBus) {
	area, number := "11", "987654321"
	resp := &quotedoc.Response{
		SupplierName:  "Auto Peças A",
		SupplierPhone: "11987654321",
		Parts: []quotedoc.ResponsePart{
			{PartIndex: 0, Description: "Farol", Quantity: 1, Available: true, Condition: quotedoc.ConditionNew, UnitPrice: dec("100"), TotalPrice: dec("100")},
			{PartIndex: 1, Description: "Grade", Quantity: 2, Available: true, Condition: quotedoc.ConditionUsed, UnitPrice: dec("50"), TotalPrice: dec("100")},
			{PartIndex: 2, Description: "Para-choque", Quantity: 1, Available: false},
		},
		TotalPrice: dec("200"),
	}
	repo := &fakeRepo{
		request: repository.RequestContext{
			RequestID:        uuid.New(),
			QuotationID:      uuid.New(),
			SupplierID:       uuid.New(),
			SupplierName:     "Auto Peças A",
			SupplierPhone:    &number,
			SupplierAreaCode: &area,
			Status:           "responded",
			Response:         resp,
			Brand:            "Fiat",
			Model:            "Uno",
		},
		offers: map[uuid.UUID]repository.CounterOffer{},
	}
	bus := &recordingBus{}
	return New(repo, bus, "https://app.example.com/", logger.Nop()), repo, bus
}

func TestNormalizeLineFromCounterPrice(t *testing.T) {
	l, err := NormalizeLine(repository.Line{Quantity: 2, Available: true, OriginalPrice: dec("100")}, decPtr("80"), nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !l.DiscountPercentage.Equal(dec("20")) {
		t.Fatalf("expected 20%% discount, got %s", l.DiscountPercentage)
	}
	if !l.CounterTotal.Equal(dec("160")) || !l.OriginalTotal.Equal(dec("200")) {
		t.Fatalf("unexpected totals %s / %s", l.CounterTotal, l.OriginalTotal)
	}
}

func TestNormalizeLineFromDiscount(t *testing.T) {
	l, err := NormalizeLine(repository.Line{Quantity: 1, Available: true, OriginalPrice: dec("33.33")}, nil, decPtr("10"))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !l.CounterPrice.Equal(dec("30")) {
		t.Fatalf("expected 30.00, got %s", l.CounterPrice)
	}
	if !l.DiscountPercentage.Equal(dec("10")) {
		t.Fatalf("expected discount recomputed to 10, got %s", l.DiscountPercentage)
	}
}

func TestNormalizeLineZeroOriginal(t *testing.T) {
	l, err := NormalizeLine(repository.Line{Quantity: 1, Available: true, OriginalPrice: decimal.Zero}, decPtr("5"), nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !l.DiscountPercentage.IsZero() {
		t.Fatalf("expected no discount on a zero original, got %s", l.DiscountPercentage)
	}
}

func TestNormalizeLineRejectsOutOfRangeDiscount(t *testing.T) {
	_, err := NormalizeLine(repository.Line{Quantity: 1, Available: true, OriginalPrice: dec("10")}, nil, decPtr("120"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// Round trip: a discount derived from a price maps back to the same price
// whenever the discount is a whole percentage.
func TestDiscountPriceRoundTrip(t *testing.T) {
	originals := []string{"100", "250", "80", "1000", "12.50"}
	for _, o := range originals {
		for d := 0; d <= 100; d += 5 {
			price := PriceForDiscount(dec(o), decimal.NewFromInt(int64(d)))
			back := Discount(dec(o), price)
			if !back.Equal(decimal.NewFromInt(int64(d))) {
				t.Fatalf("original %s discount %d: price %s maps back to %s", o, d, price, back)
			}
		}
	}
}

func TestCalculateSumsAvailableLines(t *testing.T) {
	svc, _, _ := newService()
	resp, err := svc.Calculate(transport.CalculateRequest{Parts: []transport.LineInput{
		{PartIndex: 0, Quantity: 1, Available: true, OriginalPrice: dec("100"), CounterPrice: decPtr("80")},
		{PartIndex: 1, Quantity: 2, Available: true, OriginalPrice: dec("50"), DiscountPercentage: decPtr("10")},
		{PartIndex: 2, Quantity: 1, Available: false, OriginalPrice: dec("40"), CounterPrice: decPtr("30")},
	}})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !resp.Total.Equal(dec("170")) {
		t.Fatalf("expected total 170, got %s", resp.Total)
	}
	if !resp.OriginalTotal.Equal(dec("200")) {
		t.Fatalf("expected original total 200, got %s", resp.OriginalTotal)
	}
}

func TestCreateSeedsFromResponseAndBuildsLinks(t *testing.T) {
	svc, repo, bus := newService()
	scope := tenancy.ForUser(uuid.New())

	out, err := svc.Create(context.Background(), scope, repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 0, CounterPrice: decPtr("80")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	parts := out.CounterOffer.Parts
	if len(parts) != 3 {
		t.Fatalf("expected every response line, got %d", len(parts))
	}
	if !parts[0].DiscountPercentage.Equal(dec("20")) {
		t.Fatalf("expected 20%% discount, got %s", parts[0].DiscountPercentage)
	}
	if !parts[1].CounterPrice.Equal(dec("50")) {
		t.Fatalf("unproposed line should keep its price, got %s", parts[1].CounterPrice)
	}
	if !out.CounterOffer.Total.Equal(dec("180")) {
		t.Fatalf("expected total 180, got %s", out.CounterOffer.Total)
	}
	wantLink := "https://app.example.com/counter-offer/" + out.CounterOffer.ID.String()
	if out.Link != wantLink {
		t.Fatalf("link = %q, want %q", out.Link, wantLink)
	}
	if !strings.HasPrefix(out.WhatsAppURL, "https://wa.me/5511987654321?text=") {
		t.Fatalf("unexpected whatsapp url %q", out.WhatsAppURL)
	}
	if strings.Contains(out.WhatsAppURL, "+") {
		t.Fatalf("spaces should be percent-encoded: %q", out.WhatsAppURL)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	if _, ok := bus.events[0].(events.CounterOfferCreated); !ok {
		t.Fatalf("unexpected event %T", bus.events[0])
	}
}

func TestCreateRejectsUnansweredRequest(t *testing.T) {
	svc, repo, _ := newService()
	repo.request.Status = "sent"
	repo.request.Response = nil

	_, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 0, CounterPrice: decPtr("80")}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsUnavailablePart(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 2, CounterPrice: decPtr("10")}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRespondAcceptMergesNegotiatedPrice(t *testing.T) {
	svc, repo, bus := newService()
	created, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 0, CounterPrice: decPtr("80")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := svc.Respond(context.Background(), created.CounterOffer.ID, transport.RespondCounterOfferRequest{
		Decisions: []transport.Decision{{PartIndex: 0, Accepted: true}},
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if out.Status != repository.StatusAccepted {
		t.Fatalf("expected accepted, got %s", out.Status)
	}

	p := repo.merged.Parts[0]
	if !p.UnitPrice.Equal(dec("80")) || !p.Negotiated {
		t.Fatalf("expected negotiated unit price 80, got %+v", p)
	}
	if !repo.merged.TotalPrice.Equal(dec("180")) {
		t.Fatalf("expected merged total 180, got %s", repo.merged.TotalPrice)
	}
	if _, ok := bus.events[len(bus.events)-1].(events.CounterOfferResponded); !ok {
		t.Fatalf("expected responded event, got %T", bus.events[len(bus.events)-1])
	}
}

func TestRespondMergesIntoLatestResponse(t *testing.T) {
	svc, repo, _ := newService()
	created, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 0, CounterPrice: decPtr("80")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Another counter offer on the same request settles part 1 while this one is answered.
	repo.beforeRespond = func() {
		latest := *repo.request.Response
		latest.Parts = append([]quotedoc.ResponsePart(nil), latest.Parts...)
		latest.Parts[1].UnitPrice = dec("40")
		latest.Parts[1].TotalPrice = dec("80")
		latest.Parts[1].Negotiated = true
		repo.request.Response = &latest
	}

	if _, err := svc.Respond(context.Background(), created.CounterOffer.ID, transport.RespondCounterOfferRequest{}); err != nil {
		t.Fatalf("respond: %v", err)
	}

	if !repo.merged.Parts[0].UnitPrice.Equal(dec("80")) || !repo.merged.Parts[0].Negotiated {
		t.Fatalf("expected part 0 negotiated at 80, got %+v", repo.merged.Parts[0])
	}
	if !repo.merged.Parts[1].UnitPrice.Equal(dec("40")) || !repo.merged.Parts[1].Negotiated {
		t.Fatalf("concurrent negotiation on part 1 was lost: %+v", repo.merged.Parts[1])
	}
	if !repo.merged.TotalPrice.Equal(dec("160")) {
		t.Fatalf("expected merged total 160, got %s", repo.merged.TotalPrice)
	}
}

func TestRespondRejectLeavesResponseUnchanged(t *testing.T) {
	svc, repo, _ := newService()
	created, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 0, CounterPrice: decPtr("80")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := svc.Respond(context.Background(), created.CounterOffer.ID, transport.RespondCounterOfferRequest{
		Decisions: []transport.Decision{{PartIndex: 0, Accepted: false}},
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if out.Status != repository.StatusPartiallyAccepted {
		t.Fatalf("expected partially accepted, got %s", out.Status)
	}
	if !out.Total.Equal(dec("100")) {
		t.Fatalf("expected accepted total 100, got %s", out.Total)
	}
	p := repo.merged.Parts[0]
	if !p.UnitPrice.Equal(dec("100")) || p.Negotiated {
		t.Fatalf("rejected line should be unchanged, got %+v", p)
	}
}

func TestRespondTwiceConflicts(t *testing.T) {
	svc, repo, _ := newService()
	created, err := svc.Create(context.Background(), tenancy.ForUser(uuid.New()), repo.request.RequestID, transport.CreateCounterOfferRequest{
		Parts: []transport.CounterLineInput{{PartIndex: 1, DiscountPercentage: decPtr("10")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Respond(context.Background(), created.CounterOffer.ID, transport.RespondCounterOfferRequest{}); err != nil {
		t.Fatalf("first respond: %v", err)
	}

	_, err = svc.Respond(context.Background(), created.CounterOffer.ID, transport.RespondCounterOfferRequest{})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	form, err := svc.GetPublic(context.Background(), created.CounterOffer.ID)
	if err != nil {
		t.Fatalf("get public: %v", err)
	}
	if !form.ReadOnly {
		t.Fatal("answered counter offer should be read-only")
	}
}
