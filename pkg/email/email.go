package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

// Configured reports whether an SMTP host has been set. Without one,
// invoice delivery is skipped and only logged.
func (s *EmailService) Configured() bool {
	return s.config.SMTPHost != ""
}

// InvoiceLine is one bill item as rendered on the invoice.
type InvoiceLine struct {
	ProductCode string
	ProductName string
	Quantity    int
	UnitPrice   string
	TaxRate     string
	Tax         string
	LineTotal   string
}

// InvoiceDenomination is one row of the change breakdown table.
type InvoiceDenomination struct {
	Value int64
	Count int
}

// InvoiceData carries everything the invoice template needs, already
// formatted; the template does no arithmetic.
type InvoiceData struct {
	BillID        string
	CustomerEmail string
	CreatedAt     time.Time
	Items         []InvoiceLine
	Subtotal      string
	TotalTax      string
	GrandTotal    string
	PaidAmount    string
	ChangeGiven   string
	Remainder     string
	Change        []InvoiceDenomination
}

// SendInvoice renders the invoice and emails it to the customer.
func (s *EmailService) SendInvoice(toEmail string, data InvoiceData) error {
	htmlContent, err := RenderInvoice(data)
	if err != nil {
		return fmt.Errorf("failed to render invoice template: %w", err)
	}

	subject := fmt.Sprintf("Your Invoice #%s", data.BillID)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

// RenderInvoice renders the HTML invoice for a bill. The preview endpoint
// serves the same markup the customer receives by mail.
func RenderInvoice(data InvoiceData) (string, error) {
	tmpl, err := template.New("invoice").Parse(invoiceTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// invoiceTemplate is the HTML template for invoices
const invoiceTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Invoice #{{.BillID}}</title>
    <style>
        body { font-family: Arial, Helvetica, sans-serif; color: #333; margin: 0; padding: 20px; }
        .invoice { max-width: 640px; margin: 0 auto; border: 1px solid #ddd; border-radius: 6px; padding: 24px; }
        .header { border-bottom: 2px solid #2c3e50; padding-bottom: 12px; margin-bottom: 16px; }
        .header h1 { margin: 0; font-size: 20px; color: #2c3e50; }
        .meta { font-size: 13px; color: #777; }
        table { width: 100%; border-collapse: collapse; margin: 16px 0; }
        th { text-align: left; font-size: 12px; text-transform: uppercase; color: #777; border-bottom: 1px solid #ddd; padding: 6px 4px; }
        td { padding: 6px 4px; border-bottom: 1px solid #f0f0f0; font-size: 14px; }
        .num { text-align: right; }
        .totals td { border: none; padding: 3px 4px; }
        .totals .label { text-align: right; color: #777; }
        .totals .grand { font-weight: bold; font-size: 16px; }
        .change-title { margin-top: 20px; font-size: 13px; text-transform: uppercase; color: #777; }
    </style>
</head>
<body>
    <div class="invoice">
        <div class="header">
            <h1>Invoice #{{.BillID}}</h1>
            <div class="meta">
                {{if .CustomerEmail}}Billed to {{.CustomerEmail}} &middot; {{end}}{{.CreatedAt.Format "02 Jan 2006 15:04"}}
            </div>
        </div>

        <table>
            <thead>
                <tr>
                    <th>Product</th>
                    <th class="num">Qty</th>
                    <th class="num">Unit Price</th>
                    <th class="num">Tax %</th>
                    <th class="num">Tax</th>
                    <th class="num">Total</th>
                </tr>
            </thead>
            <tbody>
                {{range .Items}}
                <tr>
                    <td>{{.ProductName}} ({{.ProductCode}})</td>
                    <td class="num">{{.Quantity}}</td>
                    <td class="num">{{.UnitPrice}}</td>
                    <td class="num">{{.TaxRate}}</td>
                    <td class="num">{{.Tax}}</td>
                    <td class="num">{{.LineTotal}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>

        <table class="totals">
            <tr><td class="label">Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
            <tr><td class="label">Total Tax</td><td class="num">{{.TotalTax}}</td></tr>
            <tr class="grand"><td class="label grand">Grand Total</td><td class="num grand">{{.GrandTotal}}</td></tr>
            <tr><td class="label">Paid</td><td class="num">{{.PaidAmount}}</td></tr>
            <tr><td class="label">Change Given</td><td class="num">{{.ChangeGiven}}</td></tr>
            {{if .Remainder}}<tr><td class="label">Unreturned</td><td class="num">{{.Remainder}}</td></tr>{{end}}
        </table>

        <div class="change-title">Change Breakdown</div>
        <table>
            <thead>
                <tr><th>Denomination</th><th class="num">Count</th></tr>
            </thead>
            <tbody>
                {{range .Change}}
                <tr><td>{{.Value}}</td><td class="num">{{.Count}}</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>
</body>
</html>
`
