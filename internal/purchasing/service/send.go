package service

import (
	"context"
	"fmt"
	"strings"

	"autoparts_quotes_backend/internal/events"
	"autoparts_quotes_backend/internal/purchasing/repository"
	"autoparts_quotes_backend/internal/purchasing/transport"
	"autoparts_quotes_backend/platform/apperr"
	"autoparts_quotes_backend/platform/money"
	"autoparts_quotes_backend/platform/phone"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
)

// Send delivers a pending order to its supplier. The order is held in
// sending while the gateway is called and returns to pending on failure.
func (s *Service) Send(ctx context.Context, scope tenancy.Scope, id uuid.UUID, req transport.SendPurchaseOrderRequest) (transport.PurchaseOrderResponse, error) {
	o, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return transport.PurchaseOrderResponse{}, err
	}
	switch o.Status {
	case repository.StatusSent:
		return transport.PurchaseOrderResponse{}, apperr.Conflict("purchase order has already been sent")
	case repository.StatusSending:
		return transport.PurchaseOrderResponse{}, apperr.Conflict("purchase order is being sent")
	}

	number, err := phone.NormalizeBR(deref(o.SupplierAreaCode), deref(o.SupplierPhone))
	if err != nil {
		return transport.PurchaseOrderResponse{}, apperr.Validation("supplier has no valid WhatsApp number")
	}
	q, err := s.repo.GetQuotation(ctx, scope, o.QuotationID)
	if err != nil {
		return transport.PurchaseOrderResponse{}, err
	}
	workshop, err := s.repo.GetWorkshop(ctx, o.UserID)
	if err != nil {
		return transport.PurchaseOrderResponse{}, err
	}

	if err := s.repo.TransitionStatus(ctx, o.ID, repository.StatusPending, repository.StatusSending); err != nil {
		return transport.PurchaseOrderResponse{}, err
	}

	if err := s.deliver(ctx, scope, number, o, q, workshop, req); err != nil {
		s.log.GatewayFailure("purchase_order_send", number, err)
		// The request may already be cancelled; the rollback must still land.
		if rbErr := s.repo.TransitionStatus(context.WithoutCancel(ctx), o.ID, repository.StatusSending, repository.StatusPending); rbErr != nil {
			s.log.Error("failed to reset purchase order status", "orderId", o.ID, "error", rbErr)
		}
		return transport.PurchaseOrderResponse{}, apperr.Upstream("failed to send purchase order", err)
	}

	if err := s.repo.TransitionStatus(ctx, o.ID, repository.StatusSending, repository.StatusSent); err != nil {
		return transport.PurchaseOrderResponse{}, err
	}

	now := s.now()
	o.Status = repository.StatusSent
	o.SentAt = &now
	o.UpdatedAt = now

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.PurchaseOrderSent{
			BaseEvent:   events.NewBaseEvent(),
			OrderID:     o.ID,
			QuotationID: o.QuotationID,
			SupplierID:  o.SupplierID,
			UserID:      o.UserID,
			Total:       o.TotalAmount,
			SentAt:      now,
		})
	}
	return ToResponse(o), nil
}

func (s *Service) deliver(ctx context.Context, scope tenancy.Scope, number string, o repository.OrderDetail, q repository.QuotationContext, workshop *repository.Workshop, req transport.SendPurchaseOrderRequest) error {
	if s.messenger == nil {
		return fmt.Errorf("messaging is not configured")
	}
	if err := s.messenger.SendText(ctx, scope, number, BuildMessage(o, q, workshop)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if req.PhotoKey != nil && *req.PhotoKey != "" {
		caption := fmt.Sprintf("%s %s", q.Brand, q.Model)
		if err := s.messenger.SendImage(ctx, scope, number, *req.PhotoKey, caption); err != nil {
			return fmt.Errorf("send vehicle photo: %w", err)
		}
	}
	if req.AttachPDF {
		doc, err := renderPDF(o, q, workshop)
		if err != nil {
			return err
		}
		if err := s.messenger.SendDocument(ctx, scope, number, Document{
			FileName: pdfFileName(o),
			Content:  doc,
			Caption:  "Pedido de compra " + OrderNumber(o.ID),
		}); err != nil {
			return fmt.Errorf("send purchase order PDF: %w", err)
		}
	}
	return nil
}

// OrderNumber is the short reference printed on messages and documents.
func OrderNumber(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

// BuildMessage formats the WhatsApp text for an order: workshop header,
// vehicle, itemized list, total, then delivery time and notes when set.
func BuildMessage(o repository.OrderDetail, q repository.QuotationContext, workshop *repository.Workshop) string {
	var b strings.Builder

	b.WriteString("*PEDIDO DE COMPRA* Nº " + OrderNumber(o.ID) + "\n")
	if workshop != nil {
		b.WriteString(workshop.Name + "\n")
		if addr := workshopAddress(workshop); addr != "" {
			b.WriteString(addr + "\n")
		}
		if p := deref(workshop.Phone); p != "" {
			b.WriteString("Tel: " + p + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("*Veículo:* " + vehicleLabel(q))
	if p := deref(q.Plate); p != "" {
		b.WriteString(" - Placa " + p)
	}
	b.WriteString("\n\n*Itens:*\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %dx %s - %s (%s)\n", it.Quantity, it.Description, money.FormatBRL(it.UnitPrice), money.FormatBRL(it.TotalPrice))
	}
	b.WriteString("\n*Total:* " + money.FormatBRL(o.TotalAmount))

	if d := deref(o.DeliveryTime); d != "" {
		b.WriteString("\n*Prazo de entrega:* " + d)
	}
	if n := deref(o.Notes); n != "" {
		b.WriteString("\n*Observações:* " + n)
	}
	return b.String()
}

func vehicleLabel(q repository.QuotationContext) string {
	label := strings.TrimSpace(q.Brand + " " + q.Model)
	if y := deref(q.Year); y != "" {
		label += " " + y
	}
	return label
}

func workshopAddress(w *repository.Workshop) string {
	addr := deref(w.Address)
	city := deref(w.City)
	if st := deref(w.State); st != "" {
		if city != "" {
			city += " - "
		}
		city += st
	}
	switch {
	case addr != "" && city != "":
		return addr + ", " + city
	case addr != "":
		return addr
	default:
		return city
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
