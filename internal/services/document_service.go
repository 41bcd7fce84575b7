package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/graficaops/envelopamento-api/internal/models"
	"github.com/graficaops/envelopamento-api/internal/storage"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	documentsSubDir = "quotes"
)

// DocumentService renders quote snapshots as PDF, printable HTML-to-PDF and XLSX
type DocumentService struct {
	currency string
	storage  *storage.LocalStorage
}

func NewDocumentService(currency string, storage *storage.LocalStorage) *DocumentService {
	return &DocumentService{currency: currency, storage: storage}
}

type quoteLineView struct {
	Name      string
	Measures  string
	Quantity  int
	Product   string
	Billable  string
	UnitPrice string
	Subtotal  string
	Services  []quoteServiceView
}

type quoteServiceView struct {
	Description string
	Value       string
}

type quotePaymentView struct {
	Method       string
	Amount       string
	Installments int
	CardMachine  string
}

type quoteView struct {
	Title        string
	Reference    string
	Preview      bool
	ClientName   string
	Date         string
	Observation  string
	Lines        []quoteLineView
	Subtotal     string
	Discount     string
	DiscountNote string
	Freight      string
	Total        string
	Payments     []quotePaymentView
}

func (s *DocumentService) buildView(q models.Quote) quoteView {
	v := quoteView{
		Preview:     q.IsPreview(),
		Observation: q.Observation,
		Subtotal:    FormatMoney(s.currency, q.Subtotal),
		Discount:    FormatMoney(s.currency, q.DiscountCalculated),
		Freight:     FormatMoney(s.currency, q.Freight),
		Total:       FormatMoney(s.currency, q.Total),
		Date:        time.Now().Format("02/01/2006"),
	}
	if q.FinalizedAt != nil {
		v.Date = q.FinalizedAt.Format("02/01/2006")
	}
	switch {
	case v.Preview:
		v.Title = "PRÉ-VISUALIZAÇÃO - documento sem valor comercial"
		v.Reference = q.ID
	case q.Code != "":
		v.Title = "Orçamento " + q.Code
		v.Reference = q.Code
	default:
		v.Title = "Orçamento"
		v.Reference = q.ID
	}
	if q.Client != nil {
		v.ClientName = q.Client.Name
	}
	if q.DiscountType == models.DiscountTypePercentage && q.Discount != 0 {
		v.DiscountNote = FormatDecimal(q.Discount, 2) + "%"
	}

	for _, p := range q.Pieces {
		pt := CalculatePiece(p)
		line := quoteLineView{
			Name:     p.DisplayName(),
			Measures: fmt.Sprintf("%s x %s", FormatDecimal(p.Part.Height, 2), FormatDecimal(p.Part.Width, 2)),
			Quantity: p.Quantity,
			Subtotal: FormatMoney(s.currency, pt.Subtotal),
		}
		if p.Product != nil {
			line.Product = p.Product.Name
			line.UnitPrice = FormatMoney(s.currency, p.Product.UnitPrice)
			line.Billable = fmt.Sprintf("%s %s", FormatDecimal(pt.Billable, 2), p.Product.UnitLabel())
		}
		for _, svc := range p.AdditionalServices {
			line.Services = append(line.Services, quoteServiceView{
				Description: svc.Description,
				Value:       FormatMoney(s.currency, svc.Value),
			})
		}
		v.Lines = append(v.Lines, line)
	}

	for _, pay := range q.Payments {
		v.Payments = append(v.Payments, quotePaymentView{
			Method:       pay.Method,
			Amount:       FormatMoney(s.currency, pay.Amount),
			Installments: pay.Installments,
			CardMachine:  pay.CardMachine,
		})
	}
	return v
}

func documentFilename(v quoteView, ext string) string {
	ref := sanitizeFilename(v.Reference)
	if v.Preview {
		return fmt.Sprintf("previa_%s.%s", ref, ext)
	}
	return fmt.Sprintf("orcamento_%s.%s", ref, ext)
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// Preview renders the on-screen PDF. Preview snapshots are labeled as non-binding.
func (s *DocumentService) Preview(ctx context.Context, snapshot models.Quote) (*Document, error) {
	return s.ExportPDF(ctx, snapshot)
}

// ExportPDF renders the quote with gofpdf
func (s *DocumentService) ExportPDF(ctx context.Context, snapshot models.Quote) (*Document, error) {
	v := s.buildView(snapshot)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(v.Title), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	if v.Preview {
		pdf.SetTextColor(200, 0, 0)
	}
	pdf.CellFormat(0, 10, tr(v.Title), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Cliente: "+v.ClientName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Data: "+v.Date), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{45, 25, 12, 40, 28, 30}
	headers := []string{"Peça", "Medidas (m)", "Qtd", "Produto", "Área/Qtd", "Subtotal"}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range v.Lines {
		cells := []string{line.Name, line.Measures, fmt.Sprintf("%d", line.Quantity), line.Product, line.Billable, line.Subtotal}
		for i, c := range cells {
			align := "L"
			if i >= 4 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		for _, svc := range line.Services {
			pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 5, tr("  + "+svc.Description), "LR", 0, "L", false, 0, "")
			pdf.CellFormat(widths[5], 5, tr(svc.Value), "LR", 1, "R", false, 0, "")
		}
	}
	pdf.Ln(4)

	summary := [][2]string{
		{"Subtotal", v.Subtotal},
		{strings.TrimSpace("Desconto " + v.DiscountNote), "- " + v.Discount},
		{"Frete", v.Freight},
	}
	for _, row := range summary {
		pdf.CellFormat(150, 6, tr(row[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, tr(row[1]), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(150, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, tr(v.Total), "", 1, "R", false, 0, "")

	if len(v.Payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Pagamentos", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, pay := range v.Payments {
			text := fmt.Sprintf("%s: %s", pay.Method, pay.Amount)
			if pay.Installments > 1 {
				text += fmt.Sprintf(" em %dx", pay.Installments)
			}
			if pay.CardMachine != "" {
				text += " (" + pay.CardMachine + ")"
			}
			pdf.CellFormat(0, 5, tr(text), "", 1, "L", false, 0, "")
		}
	}

	if v.Observation != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, tr("Observação"), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(v.Observation), "", "L", false)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return &Document{Filename: documentFilename(v, "pdf"), ContentType: contentTypePDF, Data: buf.Bytes()}, nil
}

// Print renders the printable layout from the HTML template through wkhtmltopdf
func (s *DocumentService) Print(ctx context.Context, snapshot models.Quote) (*Document, error) {
	v := s.buildView(snapshot)
	html, err := renderQuoteHTML(v)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}
	return &Document{Filename: documentFilename(v, "pdf"), ContentType: contentTypePDF, Data: pdfg.Bytes()}, nil
}

func renderQuoteHTML(v quoteView) ([]byte, error) {
	// Try path relative to project root (Prod)
	tmplPath := "internal/services/templates/quotes/quote_print.html"
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		// Try path relative to package (Test)
		tmplPath = "templates/quotes/quote_print.html"
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template (path: %s): %w", tmplPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders the quote as a spreadsheet
func (s *DocumentService) ExportXLSX(ctx context.Context, snapshot models.Quote) (*Document, error) {
	v := s.buildView(snapshot)

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orçamento"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", v.Title)
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	_ = f.SetCellValue(sheet, "A2", "Cliente")
	_ = f.SetCellValue(sheet, "B2", v.ClientName)
	_ = f.SetCellValue(sheet, "A3", "Data")
	_ = f.SetCellValue(sheet, "B3", v.Date)

	headers := []string{"Peça", "Altura (m)", "Largura (m)", "Qtd", "Produto", "Unidade", "Preço unitário", "Área (m²)", "Serviços", "Subtotal"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		_ = f.SetCellValue(sheet, cell, h)
	}
	_ = f.SetCellStyle(sheet, "A5", "J5", headerStyle)

	row := 6
	for _, p := range snapshot.Pieces {
		pt := CalculatePiece(p)
		values := []any{p.DisplayName(), p.Part.Height, p.Part.Width, p.Quantity, "", "", 0.0, pt.Area, pt.ServicesTotal, pt.Subtotal}
		if p.Product != nil {
			values[4] = p.Product.Name
			values[5] = p.Product.UnitLabel()
			values[6] = p.Product.UnitPrice
		}
		for i, val := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, val)
		}
		row++
	}

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal", snapshot.Subtotal},
		{"Desconto", snapshot.DiscountCalculated},
		{"Frete", snapshot.Freight},
		{"Total", snapshot.Total},
	}
	for _, t := range totals {
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), t.label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("J%d", row), t.value)
		row++
	}

	if len(snapshot.Payments) > 0 {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Pagamentos")
		_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
		row++
		for _, pay := range snapshot.Payments {
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), pay.Method)
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), pay.Amount)
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), pay.Installments)
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), pay.CardMachine)
			row++
		}
	}

	if v.Observation != "" {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Observação")
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), v.Observation)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return &Document{Filename: documentFilename(v, "xlsx"), ContentType: contentTypeXLSX, Data: buf.Bytes()}, nil
}

// Archive stores a finalized document and returns its relative path
func (s *DocumentService) Archive(ctx context.Context, snapshot models.Quote, doc *Document) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("document storage not configured")
	}
	return s.storage.UploadFromBytes(doc.Data, doc.Filename, documentsSubDir)
}
