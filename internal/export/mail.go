package export

import (
	"fmt"
	"strings"

	"github.com/Simplici0/movequote/internal/estimates"
)

// Mail is a plain-text estimate ready to paste into a mail client.
type Mail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RenderMail formats e as a mail.
func RenderMail(e estimates.Estimate, opts Options) Mail {
	var b strings.Builder

	customer := e.CustomerName
	if customer == "" {
		customer = "お客"
	}
	fmt.Fprintf(&b, "%s 様\n\n", customer)
	b.WriteString("この度はお見積りのご依頼をいただき、誠にありがとうございます。\n")
	b.WriteString("下記の通りお見積り申し上げます。\n\n")

	fmt.Fprintf(&b, "見積番号: %d\n", e.ID)
	if e.ProjectName != "" {
		fmt.Fprintf(&b, "案件: %s\n", e.ProjectName)
	}
	fmt.Fprintf(&b, "発行日: %s\n\n", issuedOn(e))

	for _, item := range lineItems(e) {
		switch {
		case item.HeadsOnly:
			fmt.Fprintf(&b, "  %s: %d名\n", item.Label, item.Quantity)
		case item.Quantity > 1:
			fmt.Fprintf(&b, "  %s: %s × %d = %s\n", item.Label, yen(item.Unit), item.Quantity, yen(item.Amount))
		default:
			fmt.Fprintf(&b, "  %s: %s\n", item.Label, yen(item.Amount))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "小計: %s\n", yen(e.Subtotal))
	fmt.Fprintf(&b, "消費税(%s): %s\n", taxPercent(e.TaxRate), yen(e.TaxAmount))
	fmt.Fprintf(&b, "合計: %s\n", yen(e.TotalAmount))

	if notes := strings.TrimSpace(e.Notes); notes != "" {
		fmt.Fprintf(&b, "\n備考:\n%s\n", notes)
	}
	if opts.CompanyName != "" {
		fmt.Fprintf(&b, "\n--\n%s\n", opts.CompanyName)
	}

	subject := title(e)
	if opts.CompanyName != "" {
		subject = fmt.Sprintf("【%s】%s", opts.CompanyName, subject)
	}
	return Mail{Subject: subject, Body: b.String()}
}
