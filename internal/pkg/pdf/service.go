// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/checkout"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// Service handles PDF generation
type Service struct {
	config config.ReceiptConfig
}

// NewService creates a new PDF service
func NewService(cfg config.ReceiptConfig) *Service {
	if cfg.WkhtmltopdfBin != "" {
		wkhtmltopdf.SetPath(cfg.WkhtmltopdfBin)
	}
	return &Service{
		config: cfg,
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	Company      CompanyInfo
	CustomerName string
	IssuedAt     time.Time
	Summary      *checkout.Summary
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Email   string
}

// NewReceiptData fills the company block from configuration.
func (s *Service) NewReceiptData(customerName string, summary *checkout.Summary) ReceiptData {
	return ReceiptData{
		Company: CompanyInfo{
			Name:    s.config.CompanyName,
			Address: s.config.CompanyAddress,
			Email:   s.config.SupportEmail,
		},
		CustomerName: customerName,
		IssuedAt:     time.Now(),
		Summary:      summary,
	}
}

// RenderReceiptHTML renders the receipt page. Only a captured payment has a
// receipt.
func (s *Service) RenderReceiptHTML(data ReceiptData) ([]byte, error) {
	if data.Summary == nil || data.Summary.Payment == nil || data.Summary.Address == nil {
		return nil, pkgerrors.NotFound("No completed payment to print")
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateReceipt renders the receipt and converts it with wkhtmltopdf.
func (s *Service) GenerateReceipt(data ReceiptData) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderReceiptHTML(data)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create PDF generator")
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create PDF")
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.Summary.Payment.OrderID}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .title { font-size: 28px; font-weight: bold; color: #2563eb; }
        .section-title { font-size: 16px; font-weight: bold; margin: 20px 0 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .total-row td { font-size: 18px; font-weight: bold; border-top: 2px solid #333; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Company.Name}}</h1>
        {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
        <div class="title">RECEIPT</div>
        <p><strong>Order:</strong> {{.Summary.Payment.OrderID}}</p>
        <p><strong>Date:</strong> {{.Summary.Payment.CapturedAt.Format "January 2, 2006 15:04"}}</p>
        <p><strong>Customer:</strong> {{.CustomerName}}</p>
    </div>

    <div class="section-title">Deliver To:</div>
    {{with .Summary.Address}}
    <p><strong>{{.FullName}}</strong></p>
    <p>{{.Address}}</p>
    {{if .Address2}}<p>{{.Address2}}</p>{{end}}
    <p>{{.City}}, {{.State}} {{.PostalCode}}</p>
    <p>{{.Country}}</p>
    <p>Phone: {{.Phone}} &middot; Email: {{.Email}}</p>
    {{end}}

    <div class="section-title">Payment:</div>
    <p>{{.Summary.Payment.Method}}{{if .Summary.Payment.CardLast4}} ({{.Summary.Payment.MaskedCard}}){{end}}</p>

    <table class="items-table">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Summary.Cart.Lines}}
            <tr>
                <td>{{.Product.Name}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">${{.Product.Price.StringFixed 2}}</td>
                <td class="num">${{.TotalPrice.StringFixed 2}}</td>
            </tr>
            {{end}}
            <tr class="total-row">
                <td colspan="3">Total ({{.Summary.Cart.TotalItems}} items)</td>
                <td class="num">${{.Summary.Cart.TotalPrice.StringFixed 2}}</td>
            </tr>
        </tbody>
    </table>

    <div class="footer">
        <p>Thank you for shopping with us!</p>
        <p>Questions about this receipt? Contact {{.Company.Email}}</p>
    </div>
</body>
</html>
`
