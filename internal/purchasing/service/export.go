package service

import (
	"context"
	"fmt"

	"autoparts_quotes_backend/internal/pdf"
	"autoparts_quotes_backend/internal/purchasing/repository"
	"autoparts_quotes_backend/internal/shared/quotedoc"
	"autoparts_quotes_backend/platform/phone"
	"autoparts_quotes_backend/platform/sanitize"
	"autoparts_quotes_backend/platform/tenancy"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const comparisonSheet = "Comparativo"

// PDF renders an order regardless of its status.
func (s *Service) PDF(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (string, []byte, error) {
	o, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return "", nil, err
	}
	q, err := s.repo.GetQuotation(ctx, scope, o.QuotationID)
	if err != nil {
		return "", nil, err
	}
	workshop, err := s.repo.GetWorkshop(ctx, o.UserID)
	if err != nil {
		return "", nil, err
	}
	doc, err := renderPDF(o, q, workshop)
	if err != nil {
		return "", nil, err
	}
	return pdfFileName(o), doc, nil
}

func pdfFileName(o repository.OrderDetail) string {
	return fmt.Sprintf("Pedido-%s.pdf", OrderNumber(o.ID))
}

func renderPDF(o repository.OrderDetail, q repository.QuotationContext, workshop *repository.Workshop) ([]byte, error) {
	data := pdf.PurchaseOrderData{
		OrderNumber:  OrderNumber(o.ID),
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		SentAt:       o.SentAt,
		SupplierName: o.SupplierName,
		Vehicle:      vehicleLabel(q),
		Plate:        deref(q.Plate),
		Chassis:      deref(q.Chassis),
		Total:        o.TotalAmount,
		DeliveryTime: deref(o.DeliveryTime),
		Notes:        deref(o.Notes),
	}
	if number, err := phone.NormalizeBR(deref(o.SupplierAreaCode), deref(o.SupplierPhone)); err == nil {
		data.SupplierPhone = phone.Display(number)
	}
	if workshop != nil {
		data.WorkshopName = workshop.Name
		data.WorkshopPhone = deref(workshop.Phone)
		data.WorkshopAddress = workshopAddress(workshop)
	}
	for _, it := range o.Items {
		data.Items = append(data.Items, pdf.Item{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	doc, err := pdf.GeneratePurchaseOrderPDF(data)
	if err != nil {
		return nil, fmt.Errorf("render purchase order PDF: %w", err)
	}
	return doc, nil
}

// ComparisonXLSX builds a part-by-supplier price sheet for a quotation with
// the best price of each row highlighted.
func (s *Service) ComparisonXLSX(ctx context.Context, scope tenancy.Scope, quotationID uuid.UUID) (string, []byte, error) {
	q, err := s.repo.GetQuotation(ctx, scope, quotationID)
	if err != nil {
		return "", nil, err
	}
	requests, err := s.repo.ListResponded(ctx, scope, quotationID)
	if err != nil {
		return "", nil, err
	}
	out, err := BuildComparison(q, requests)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Comparativo-%s.xlsx", sanitize.Key(vehicleLabel(q))), out, nil
}

// BuildComparison writes the comparison workbook.
func BuildComparison(q repository.QuotationContext, requests []repository.RespondedRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := comparisonSheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name comparison sheet: %w", err)
	}

	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	bestStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "#166534"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCFCE7"}},
		NumFmt: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("create best price style: %w", err)
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create price style: %w", err)
	}

	headers := []string{"Código", "Descrição", "Qtd"}
	for _, r := range requests {
		headers = append(headers, r.SupplierName)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headStyle)
	}

	best := make(map[string]uuid.UUID)
	for _, bp := range BestPrices(q.Parts, requests) {
		best[bp.Key] = bp.RequestID
	}

	for i, p := range q.Parts {
		rowNum := i + 2
		values := []any{p.Code, p.Description, p.Quantity}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}

		key := sanitize.Key(p.Description)
		for c, r := range requests {
			cell, _ := excelize.CoordinatesToCellName(len(values)+c+1, rowNum)
			rp := offerFor(r.Response, i)
			if rp == nil {
				_ = f.SetCellValue(sheet, cell, "-")
				continue
			}
			price, _ := rp.UnitPrice.Float64()
			_ = f.SetCellValue(sheet, cell, price)
			style := priceStyle
			if best[key] == r.ID {
				style = bestStyle
			}
			_ = f.SetCellStyle(sheet, cell, cell, style)
		}
	}

	totalRow := len(q.Parts) + 2
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", totalRow), "Total")
	for c, r := range requests {
		cell, _ := excelize.CoordinatesToCellName(4+c, totalRow)
		total, _ := r.Response.TotalPrice.Float64()
		_ = f.SetCellValue(sheet, cell, total)
		_ = f.SetCellStyle(sheet, cell, cell, priceStyle)
	}

	_ = f.SetColWidth(sheet, "B", "B", 40)
	if len(requests) > 0 {
		last, _ := excelize.ColumnNumberToName(3 + len(requests))
		_ = f.SetColWidth(sheet, "D", last, 18)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write comparison workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// offerFor returns the available response line for a quotation part.
func offerFor(resp quotedoc.Response, partIndex int) *quotedoc.ResponsePart {
	rp, ok := resp.PartAt(partIndex)
	if !ok || !rp.Available {
		return nil
	}
	return rp
}
