package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/Simplici0/movequote/internal/estimates"
)

const pdfUTF8Family = "estimate"

type pdfWriter struct {
	pdf  *gofpdf.Fpdf
	utf8 bool
}

func (p *pdfWriter) font(size float64, bold bool) {
	if p.utf8 {
		p.pdf.SetFont(pdfUTF8Family, "", size)
		return
	}
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont("Arial", style, size)
}

// text returns s unchanged for the UTF-8 font and replaces anything outside
// ASCII for the core font, which cannot encode it.
func (p *pdfWriter) text(s string) string {
	if p.utf8 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r > 0x7e {
			return '?'
		}
		return r
	}, s)
}

func (p *pdfWriter) label(item lineItem) string {
	if p.utf8 {
		return item.Label
	}
	return item.Key
}

func (p *pdfWriter) money(n int64) string {
	if p.utf8 {
		return yen(n)
	}
	return yenASCII(n)
}

// RenderPDF writes e as an A4 estimate document to w.
func RenderPDF(w io.Writer, e estimates.Estimate, opts Options) error {
	p := &pdfWriter{pdf: gofpdf.New("P", "mm", "A4", "")}
	if opts.FontPath != "" {
		p.pdf.AddUTF8Font(pdfUTF8Family, "", opts.FontPath)
		if err := p.pdf.Error(); err != nil {
			return fmt.Errorf("load pdf font %s: %w", opts.FontPath, err)
		}
		p.utf8 = true
	}
	pdf := p.pdf
	pdf.SetTitle(p.text(title(e)), p.utf8)
	pdf.AddPage()

	p.font(18, true)
	heading := title(e)
	if !p.utf8 {
		heading = fmt.Sprintf("Estimate No.%d", e.ID)
	}
	pdf.CellFormat(0, 12, heading, "", 1, "C", false, 0, "")

	p.font(10, false)
	if opts.CompanyName != "" {
		pdf.CellFormat(0, 6, p.text(opts.CompanyName), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Date: "+issuedOn(e), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	p.font(12, true)
	customer := e.CustomerName
	if customer != "" && p.utf8 {
		customer += " 様"
	}
	pdf.CellFormat(0, 8, p.text(customer), "B", 1, "L", false, 0, "")
	if e.ProjectName != "" {
		p.font(10, false)
		pdf.CellFormat(0, 6, p.text(e.ProjectName), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{90, 20, 40, 40}
	p.font(10, true)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Item", "Qty", "Unit", "Amount"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	p.font(10, false)
	for _, item := range lineItems(e) {
		pdf.CellFormat(widths[0], 7, p.text(p.label(item)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		unit, amount := "", ""
		if !item.HeadsOnly {
			unit, amount = p.money(item.Unit), p.money(item.Amount)
		}
		pdf.CellFormat(widths[2], 7, unit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, amount, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	totals := []struct {
		label string
		value int64
	}{
		{"Subtotal", e.Subtotal},
		{fmt.Sprintf("Tax (%s)", taxPercent(e.TaxRate)), e.TaxAmount},
		{"Total", e.TotalAmount},
	}
	for i, t := range totals {
		p.font(11, i == len(totals)-1)
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 7, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, p.money(t.value), "1", 1, "R", false, 0, "")
	}

	if notes := strings.TrimSpace(e.Notes); notes != "" {
		pdf.Ln(6)
		p.font(10, true)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		p.font(10, false)
		pdf.MultiCell(0, 5, p.text(notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render estimate pdf: %w", err)
	}
	return nil
}
