// Package purchaseorder turns an accepted quote into a purchase order PDF.
package purchaseorder

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ziadkadry99/rfqpilot/internal/quote"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

// Line is one ordered item.
type Line struct {
	Line        int
	Description string
	Quantity    float64
	UOM         string
	UnitPrice   float64
	Total       float64
}

// PurchaseOrder holds everything printed on the PDF.
type PurchaseOrder struct {
	Number           string
	Date             time.Time
	QuoteID          string
	RfqID            string
	ProjectName      string
	Buyer            user.BuyerProfile
	VendorName       string
	VendorEmail      string
	Currency         string
	Lines            []Line
	Total            float64
	PaymentTerms     string
	LeadTime         string
	Incoterm         string
	DeliveryLocation string
	Notes            string
}

// Number derives the PO number from the issue date and quote id.
func Number(quoteID string, date time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(quoteID, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("PO-%s-%s", date.Format("20060102"), short)
}

// Build assembles a purchase order from a quote and the RFQ it answers.
// Quote terms win over RFQ terms, which win over the buyer's defaults.
// r may be nil when the RFQ is no longer available.
func Build(q *quote.Quote, r *rfq.Rfq, buyer *user.BuyerProfile, date time.Time) PurchaseOrder {
	po := PurchaseOrder{
		Number:       Number(q.ID, date),
		Date:         date,
		QuoteID:      q.ID,
		RfqID:        q.RfqID,
		VendorName:   q.SupplierName,
		VendorEmail:  q.SupplierEmail,
		Currency:     q.Currency,
		Total:        q.Total,
		PaymentTerms: q.PaymentTerms,
		LeadTime:     q.LeadTime,
		Notes:        q.Notes,
	}
	if buyer != nil {
		po.Buyer = *buyer
	}

	var terms rfq.CommercialTerms
	if r != nil {
		po.ProjectName = r.ProjectName
		terms = r.CommercialTerms
	}
	po.Incoterm = firstNonEmpty(terms.Incoterm, po.Buyer.DefaultIncoterm)
	po.DeliveryLocation = terms.DeliveryLocation
	po.PaymentTerms = firstNonEmpty(po.PaymentTerms, terms.PaymentTerms)
	po.Currency = strings.ToUpper(firstNonEmpty(po.Currency, terms.Currency, po.Buyer.DefaultCurrency))

	for _, it := range q.Items {
		line := Line{
			Line:        it.Line,
			Description: fmt.Sprintf("Line %d", it.Line),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.LineTotal,
		}
		if r != nil {
			for _, ri := range r.LineItems {
				if ri.Line == it.Line {
					line.Description = describe(ri)
					line.UOM = ri.UOM
					break
				}
			}
		}
		po.Lines = append(po.Lines, line)
	}
	return po
}

func describe(it rfq.LineItem) string {
	var parts []string
	for _, p := range []string{it.ProductType, it.Grade, it.Description} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Line %d", it.Line)
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Render writes po as an A4 PDF.
func Render(po PurchaseOrder, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(po.Number, true)
	pdf.AddPage()
	// Core fonts are cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(120, 10, "PURCHASE ORDER")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(70, 5, tr("No: "+po.Number), "", 2, "R", false, 0, "")
	pdf.CellFormat(70, 5, "Date: "+po.Date.Format("02-Jan-2006"), "", 1, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(95, 8, "Vendor")
	pdf.Cell(95, 8, "Buyer")
	pdf.Ln(8)

	top := pdf.GetY()
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(90, 5, tr(block(po.VendorName, po.VendorEmail)), "", "L", false)
	vendorBottom := pdf.GetY()
	pdf.SetXY(105, top)
	pdf.MultiCell(90, 5, tr(block(po.Buyer.Company, po.Buyer.Address, po.Buyer.ContactName, po.Buyer.ContactEmail, po.Buyer.Phone)), "", "L", false)
	if pdf.GetY() < vendorBottom {
		pdf.SetY(vendorBottom)
	}
	pdf.Ln(6)

	if po.ProjectName != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 6, tr("Project: "+po.ProjectName))
		pdf.Ln(6)
	}
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(190, 6, tr(fmt.Sprintf("Quote reference: %s", po.QuoteID)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(12, 8, "Line", "1", 0, "C", true, 0, "")
	pdf.CellFormat(78, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(15, 8, "UOM", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Unit price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Line total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, l := range po.Lines {
		pdf.CellFormat(12, 8, fmt.Sprintf("%d", l.Line), "1", 0, "C", false, 0, "")
		pdf.CellFormat(78, 8, tr(truncate(l.Description, 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, strconv.FormatFloat(l.Quantity, 'f', -1, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(15, 8, tr(l.UOM), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, money(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, money(l.Total), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(155, 8, tr(strings.TrimSpace("Total "+po.Currency)))
	pdf.CellFormat(35, 8, money(po.Total), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(190, 8, "Terms")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	for _, t := range [][2]string{
		{"Payment terms", po.PaymentTerms},
		{"Lead time", po.LeadTime},
		{"Incoterm", po.Incoterm},
		{"Delivery location", po.DeliveryLocation},
	} {
		if t[1] == "" {
			continue
		}
		pdf.CellFormat(45, 6, t[0]+":", "", 0, "L", false, 0, "")
		pdf.MultiCell(145, 6, tr(t[1]), "", "L", false)
	}
	if po.Notes != "" {
		pdf.Ln(4)
		pdf.MultiCell(190, 5, tr(po.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering purchase order: %w", err)
	}
	return nil
}

func block(lines ...string) string {
	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
