// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/domain/branch"
	"github.com/your-org/retail-backend/internal/domain/sale"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// GenerateInvoice generates a PDF invoice for a sale
func (s *Service) GenerateInvoice(sl *sale.Sale, br *branch.Branch) (*bytes.Buffer, error) {
	data := InvoiceData{
		Sale:    sl,
		Branch:  br,
		Summary: sl.Summary(),
		Company: CompanyInfo{
			Name:    s.config.Company.Name,
			Address: s.config.Company.Address,
			Phone:   s.config.Company.Phone,
			Email:   s.config.Company.Email,
			GSTIN:   s.config.Company.GSTIN,
		},
		InvoiceDate: sl.SaleDate.Format("02 Jan 2006"),
	}
	if sl.DueDate != nil {
		data.DueDate = sl.DueDate.Format("02 Jan 2006")
	}
	data.ItemsDiscount = decimal.Zero
	for _, item := range sl.Items {
		data.ItemsDiscount = data.ItemsDiscount.Add(item.DiscountAmount)
	}

	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data InvoiceData) (string, error) {
	tmpl := template.Must(template.New("invoice").Parse(invoiceTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	Sale          *sale.Sale            `json:"sale"`
	Branch        *branch.Branch        `json:"branch"`
	Summary       sale.FinancialSummary `json:"summary"`
	Company       CompanyInfo           `json:"company"`
	InvoiceDate   string                `json:"invoice_date"`
	DueDate       string                `json:"due_date"`
	ItemsDiscount decimal.Decimal       `json:"items_discount"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	GSTIN   string `json:"gstin"`
}

// Invoice HTML template
const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.Sale.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #333; padding-bottom: 16px; }
        .company h1 { margin: 0 0 6px 0; font-size: 22px; }
        .company p, .invoice-meta p { margin: 2px 0; font-size: 12px; }
        .invoice-meta h2 { margin: 0 0 6px 0; font-size: 18px; text-align: right; }
        .parties { display: flex; justify-content: space-between; margin-bottom: 24px; }
        .parties h3 { font-size: 13px; margin: 0 0 6px 0; text-transform: uppercase; color: #777; }
        .parties p { margin: 2px 0; font-size: 12px; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
        th { background: #f4f4f4; text-align: left; padding: 8px; font-size: 12px; border-bottom: 2px solid #ddd; }
        td { padding: 8px; font-size: 12px; border-bottom: 1px solid #eee; }
        .num { text-align: right; }
        .totals { width: 300px; margin-left: auto; }
        .totals td { border: none; padding: 4px 8px; }
        .totals .grand td { border-top: 2px solid #333; font-weight: bold; font-size: 14px; }
        .status { margin-top: 16px; font-size: 12px; }
        .notes { margin-top: 24px; font-size: 11px; color: #777; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company">
            <h1>{{.Company.Name}}</h1>
            <p>{{.Company.Address}}</p>
            <p>{{.Company.Phone}} {{if .Company.Email}}| {{.Company.Email}}{{end}}</p>
            {{if .Company.GSTIN}}<p>GSTIN: {{.Company.GSTIN}}</p>{{end}}
        </div>
        <div class="invoice-meta">
            <h2>INVOICE</h2>
            <p><strong>{{.Sale.InvoiceNumber}}</strong></p>
            <p>Date: {{.InvoiceDate}}</p>
            {{if .DueDate}}<p>Due: {{.DueDate}}</p>{{end}}
        </div>
    </div>

    <div class="parties">
        <div>
            <h3>Billed To</h3>
            <p><strong>{{.Sale.CustomerName}}</strong></p>
            {{if .Sale.CustomerAddress}}<p>{{.Sale.CustomerAddress}}</p>{{end}}
            {{if .Sale.CustomerPhone}}<p>{{.Sale.CustomerPhone}}</p>{{end}}
            {{if .Sale.CustomerGSTNumber}}<p>GSTIN: {{.Sale.CustomerGSTNumber}}</p>{{end}}
        </div>
        <div>
            <h3>Branch</h3>
            <p><strong>{{.Branch.Name}}</strong></p>
            <p>{{.Branch.FullAddress}}</p>
        </div>
    </div>

    <table>
        <thead>
            <tr>
                <th>#</th>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Unit Price</th>
                <th class="num">Discount</th>
                <th class="num">Amount</th>
            </tr>
        </thead>
        <tbody>
            {{range $i, $item := .Sale.Items}}
            <tr>
                <td>{{$item.ProductSkuID}}</td>
                <td>{{$item.ProductSku.SkuName}} ({{$item.ProductSku.SkuCode}})</td>
                <td class="num">{{$item.Quantity}}</td>
                <td class="num">{{$item.UnitPrice}}</td>
                <td class="num">{{$item.DiscountAmount}}</td>
                <td class="num">{{$item.TotalPrice}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Total</td><td class="num">{{.Sale.TotalAmount}}</td></tr>
        <tr><td>Item Discounts</td><td class="num">{{.ItemsDiscount}}</td></tr>
        <tr><td>Sale Discount</td><td class="num">{{.Sale.DiscountAmount}}</td></tr>
        <tr class="grand"><td>Final Amount</td><td class="num">{{.Sale.FinalAmount}}</td></tr>
        <tr><td>Paid</td><td class="num">{{.Sale.PaidAmount}}</td></tr>
        <tr><td>Due</td><td class="num">{{.Sale.DueAmount}}</td></tr>
    </table>

    <div class="status">
        <p>Status: <strong>{{.Summary.ClosureStatus}}</strong></p>
    </div>

    {{if .Sale.Notes}}
    <div class="notes">
        <p>{{.Sale.Notes}}</p>
    </div>
    {{end}}
</body>
</html>
`
