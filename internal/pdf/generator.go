// Package pdf renders purchase orders with maroto/v2. The document carries
// the workshop header, the supplier, the vehicle, the itemized parts list
// with totals, and the delivery terms.
package pdf

import (
	"fmt"
	"strings"
	"time"

	"autoparts_quotes_backend/platform/money"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// ── Colour palette ──────────────────────────────────────────────────────

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}    // near-black
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128} // gray-500
	colorAccent    = &props.Color{Red: 37, Green: 99, Blue: 235}   // blue-600
	colorTableHead = &props.Color{Red: 241, Green: 245, Blue: 249} // slate-100
	colorTableAlt  = &props.Color{Red: 249, Green: 250, Blue: 251} // gray-50
	colorGreen     = &props.Color{Red: 22, Green: 163, Blue: 74}   // green-600
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240} // slate-200
)

// ── Data struct ─────────────────────────────────────────────────────────

// Item is one line of the order.
type Item struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// PurchaseOrderData holds everything printed on a purchase order.
type PurchaseOrderData struct {
	OrderNumber string
	Status      string
	CreatedAt   time.Time
	SentAt      *time.Time

	// Workshop (sender)
	WorkshopName    string
	WorkshopPhone   string
	WorkshopAddress string

	// Supplier (recipient)
	SupplierName  string
	SupplierPhone string

	// Vehicle
	Vehicle string
	Plate   string
	Chassis string

	Items        []Item
	Total        decimal.Decimal
	DeliveryTime string
	Notes        string
}

// GeneratePurchaseOrderPDF creates the PDF document for a purchase order.
func GeneratePurchaseOrderPDF(data PurchaseOrderData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter(data)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(data)...)
	m.AddRows(separator())
	m.AddRows(row.New(6))

	m.AddRows(buildPartiesBlock(data)...)
	m.AddRows(row.New(6))

	m.AddRows(buildItemsTable(data)...)
	m.AddRows(row.New(4))

	m.AddRows(buildTotalsBlock(data)...)

	if data.DeliveryTime != "" || data.Notes != "" {
		m.AddRows(row.New(6))
		m.AddRows(buildTermsBlock(data)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// ── Header ──────────────────────────────────────────────────────────────

func buildHeader(data PurchaseOrderData) []core.Row {
	name := data.WorkshopName
	if name == "" {
		name = "Oficina"
	}
	return []core.Row{
		row.New(20).Add(
			col.New(6).Add(
				text.New(name, props.Text{Size: 14, Style: fontstyle.Bold, Color: colorPrimary, Top: 4}),
				text.New(joinParts([]string{data.WorkshopAddress, data.WorkshopPhone}, "  |  "), props.Text{
					Size:  8,
					Color: colorSecondary,
					Top:   12,
				}),
			),
			col.New(6).Add(
				text.New("PEDIDO DE COMPRA", props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Right, Color: colorAccent}),
				text.New("Nº "+data.OrderNumber, props.Text{Size: 10, Align: align.Right, Color: colorSecondary, Top: 11}),
			),
		),
	}
}

// ── Supplier / vehicle / meta ───────────────────────────────────────────

func buildPartiesBlock(data PurchaseOrderData) []core.Row {
	label := props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent}
	strong := props.Text{Size: 9, Style: fontstyle.Bold, Color: colorPrimary}
	muted := props.Text{Size: 8, Color: colorSecondary}

	vehicleDetail := joinParts([]string{prefixed("Placa: ", data.Plate), prefixed("Chassi: ", data.Chassis)}, "  |  ")
	dateLine := "Data: " + data.CreatedAt.Format("02/01/2006")
	statusLine := "Status: " + translateStatus(data.Status)
	if data.SentAt != nil {
		statusLine += " em " + data.SentAt.Format("02/01/2006 15:04")
	}

	return []core.Row{
		row.New(5).Add(
			col.New(4).Add(text.New("FORNECEDOR", label)),
			col.New(5).Add(text.New("VEÍCULO", label)),
			col.New(3).Add(text.New("PEDIDO", props.Text{Size: 7, Style: fontstyle.Bold, Color: colorAccent, Align: align.Right})),
		),
		row.New(5).Add(
			col.New(4).Add(text.New(data.SupplierName, strong)),
			col.New(5).Add(text.New(data.Vehicle, strong)),
			col.New(3).Add(text.New(dateLine, props.Text{Size: 8, Color: colorSecondary, Align: align.Right})),
		),
		row.New(5).Add(
			col.New(4).Add(text.New(data.SupplierPhone, muted)),
			col.New(5).Add(text.New(vehicleDetail, muted)),
			col.New(3).Add(text.New(statusLine, props.Text{Size: 8, Style: fontstyle.Bold, Color: statusColor(data.Status), Align: align.Right})),
		),
	}
}

// ── Line items table ────────────────────────────────────────────────────

func buildItemsTable(data PurchaseOrderData) []core.Row {
	rows := []core.Row{
		row.New(7).Add(
			col.New(12).Add(text.New("PEÇAS", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorAccent})),
		),
	}

	headerStyle := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headerStyleRight := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 1.5}

	rows = append(rows, row.New(7).Add(
		col.New(6).Add(text.New("Descrição", headerStyle)),
		col.New(1).Add(text.New("Qtd", headerStyleRight)),
		col.New(2).Add(text.New("Unitário", headerStyleRight)),
		col.New(3).Add(text.New("Total", headerStyleRight)),
	).WithStyle(&props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Bottom,
		BorderColor:     colorBorder,
	}))

	for i, item := range data.Items {
		rows = append(rows, buildItemRow(item, i))
	}
	return rows
}

func buildItemRow(item Item, idx int) core.Row {
	normalStyle := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	rightStyle := props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1}

	r := row.New(7).Add(
		col.New(6).Add(text.New(item.Description, normalStyle)),
		col.New(1).Add(text.New(fmt.Sprintf("%d", item.Quantity), rightStyle)),
		col.New(2).Add(text.New(money.FormatBRL(item.UnitPrice), rightStyle)),
		col.New(3).Add(text.New(money.FormatBRL(item.TotalPrice), rightStyle)),
	)

	if idx%2 == 0 {
		r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
	}
	return r
}

// ── Totals block ────────────────────────────────────────────────────────

func buildTotalsBlock(data PurchaseOrderData) []core.Row {
	totalStyle := props.Text{Size: 12, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 2}
	return []core.Row{
		separator(),
		row.New(3),
		row.New(10).Add(
			col.New(9).Add(text.New("TOTAL", totalStyle)),
			col.New(3).Add(text.New(money.FormatBRL(data.Total), totalStyle)),
		).WithStyle(&props.Cell{
			BackgroundColor: colorTableHead,
			BorderType:      border.Top | border.Bottom,
			BorderColor:     colorBorder,
		}),
	}
}

// ── Delivery terms and notes ────────────────────────────────────────────

func buildTermsBlock(data PurchaseOrderData) []core.Row {
	var rows []core.Row
	if data.DeliveryTime != "" {
		rows = append(rows,
			row.New(5).Add(col.New(12).Add(text.New("PRAZO DE ENTREGA", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorAccent}))),
			row.New(7).Add(col.New(12).Add(text.New(data.DeliveryTime, props.Text{Size: 8, Color: colorSecondary, Top: 1}))),
		)
	}
	if data.Notes != "" {
		rows = append(rows,
			row.New(5).Add(col.New(12).Add(text.New("OBSERVAÇÕES", props.Text{Size: 8, Style: fontstyle.Bold, Color: colorAccent}))),
			row.New(12).Add(col.New(12).Add(text.New(data.Notes, props.Text{Size: 8, Color: colorSecondary, Top: 1}))),
		)
	}
	return rows
}

// ── Footer (registered, repeats on every page) ─────────────────────────

func buildFooter(data PurchaseOrderData) core.Row {
	footerText := joinParts([]string{data.WorkshopName, data.WorkshopPhone, "Pedido " + data.OrderNumber}, "  ·  ")

	return row.New(10).Add(
		col.New(12).Add(
			text.New(footerText, props.Text{
				Size:  6.5,
				Color: colorSecondary,
				Align: align.Center,
				Top:   4,
			}),
		),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

// ── Helpers ─────────────────────────────────────────────────────────────

func separator() core.Row {
	return row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	})
}

func statusColor(status string) *props.Color {
	switch status {
	case "sent":
		return colorGreen
	case "sending":
		return colorAccent
	default:
		return colorSecondary
	}
}

func translateStatus(status string) string {
	switch status {
	case "pending":
		return "Pendente"
	case "sending":
		return "Enviando"
	case "sent":
		return "Enviado"
	default:
		return status
	}
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

func joinParts(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
