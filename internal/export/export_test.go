package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/movequote/internal/estimates"
	"github.com/Simplici0/movequote/internal/pricing"
)

func sampleEstimate() estimates.Estimate {
	e := estimates.Estimate{
		ID:               7,
		CustomerName:     "山田太郎",
		ProjectName:      "山田様 引越し",
		Vehicle:          pricing.VehicleSelection{Type: "2t車", Operation: pricing.OperationFullDay, Area: "A", Count: 1},
		VehicleUnitPrice: 30000,
		Staff:            pricing.StaffQuantities{Leader: 1, M2FullDay: 2, TempFullDay: 1},
		Services:         pricing.ServiceLineItems{ParkingFee: 1500, HighwayFee: 3000},
		Notes:            "Elevator: none",
		CreatedAt:        "2026-10-01T09:00:00Z",
	}
	e.Breakdown = pricing.Breakdown{VehicleCost: 30000, StaffCost: 65500, ServicesCost: 4500}
	e.Totals = pricing.Totals{Subtotal: 100000, TaxRate: decimal.RequireFromString("0.10"), TaxAmount: 10000, TotalAmount: 110000}
	return e
}

func TestRenderMailListsLinesAndTotals(t *testing.T) {
	m := RenderMail(sampleEstimate(), Options{CompanyName: "MoveQuote"})

	if m.Subject != "【MoveQuote】御見積書 No.7" {
		t.Fatalf("unexpected subject %q", m.Subject)
	}
	for _, want := range []string{
		"山田太郎 様",
		"案件: 山田様 引越し",
		"発行日: 2026-10-01",
		"車両 2t車 終日 Aエリア: 30,000円",
		"リーダー: 1名",
		"M2作業員（終日）: 2名",
		"人員費: 65,500円",
		"駐車料金: 1,500円",
		"高速料金: 3,000円",
		"小計: 100,000円",
		"消費税(10%): 10,000円",
		"合計: 110,000円",
		"Elevator: none",
		"--\nMoveQuote",
	} {
		if !strings.Contains(m.Body, want) {
			t.Fatalf("mail body missing %q:\n%s", want, m.Body)
		}
	}
	if strings.Contains(m.Body, "現場責任者") {
		t.Fatalf("mail lists a role with zero heads:\n%s", m.Body)
	}
}

func TestRenderMailMultipleVehicles(t *testing.T) {
	e := sampleEstimate()
	e.Vehicle.Count = 2
	e.VehicleCost = 60000

	m := RenderMail(e, Options{})
	if !strings.Contains(m.Body, "30,000円 × 2 = 60,000円") {
		t.Fatalf("expected multiplied vehicle line:\n%s", m.Body)
	}
	if m.Subject != "御見積書 No.7" {
		t.Fatalf("unexpected subject %q", m.Subject)
	}
}

func TestRenderPDFWithCoreFont(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, sampleEstimate(), Options{CompanyName: "MoveQuote"}); err != nil {
		t.Fatalf("RenderPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRenderPDFMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, sampleEstimate(), Options{FontPath: t.TempDir() + "/missing.ttf"})
	if err == nil {
		t.Fatal("expected error for missing font file")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %d bytes", buf.Len())
	}
}
