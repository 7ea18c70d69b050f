package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"field-service/internal/analytics"
	"field-service/internal/model"
)

// PDFOptions controls font selection. Core PDF fonts have no Cyrillic glyphs,
// so without FontPath the text is transliterated.
type PDFOptions struct {
	// FontPath points at a UTF-8 capable TTF file.
	FontPath string
}

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	family string
	text   func(string) string
}

// WriteLedgerPDF writes a one-field report: passport, cost structure and the
// list of operations.
func WriteLedgerPDF(w io.Writer, field *model.Field, ops []model.FieldOperation, costs analytics.CostSummary, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)

	pw := &pdfWriter{pdf: pdf, family: "Arial", text: Transliterate}
	if opts.FontPath != "" {
		pdf.AddUTF8Font("ledger", "", opts.FontPath)
		pdf.AddUTF8Font("ledger", "B", opts.FontPath)
		pw.family = "ledger"
		pw.text = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}

	pdf.AddPage()

	pdf.SetFont(pw.family, "B", 16)
	pdf.SetTextColor(44, 62, 80)
	pw.cell(0, 10, "Отчёт по полю: "+field.Name, 1, "C")
	pdf.Ln(4)

	pdf.SetFont(pw.family, "", 11)
	pdf.SetTextColor(0, 0, 0)
	pw.cell(0, 7, "Культура: "+field.CurrentCrop, 1, "L")
	pw.cell(0, 7, fmt.Sprintf("Площадь: %.2f га", field.Area), 1, "L")
	pw.cell(0, 7, fmt.Sprintf("Общие затраты: %.2f руб.", costs.TotalCost), 1, "L")
	pw.cell(0, 7, fmt.Sprintf("Затраты на гектар: %.2f руб./га", costs.CostPerHectare), 1, "L")
	pdf.Ln(6)

	pdf.SetFont(pw.family, "B", 13)
	pw.cell(0, 8, "Структура затрат", 1, "L")
	pdf.SetFont(pw.family, "B", 10)
	pw.header([]float64{80, 50, 50}, []string{"Категория", "Затраты, руб.", "Доля, %"})
	pdf.SetFont(pw.family, "", 10)
	for _, b := range costs.Buckets {
		pw.row([]float64{80, 50, 50}, []string{
			b.Label,
			fmt.Sprintf("%.2f", b.Cost),
			fmt.Sprintf("%.1f", b.Percentage),
		})
	}
	pdf.Ln(6)

	pdf.SetFont(pw.family, "B", 13)
	pw.cell(0, 8, "Операции", 1, "L")
	widths := []float64{25, 55, 30, 70}
	pdf.SetFont(pw.family, "B", 10)
	pw.header(widths, []string{"Дата", "Тип работ", "Затраты", "Примечание"})
	pdf.SetFont(pw.family, "", 9)
	if len(ops) == 0 {
		pw.cell(0, 7, "Операций нет", 1, "L")
	}
	for _, op := range ops {
		cost := "-"
		if op.Cost != nil {
			cost = fmt.Sprintf("%.2f", *op.Cost)
		}
		pw.row(widths, []string{
			op.Day().Format(model.DateLayout),
			op.Type,
			cost,
			truncate(op.Notes, 45),
		})
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func (p *pdfWriter) cell(width, height float64, text string, ln int, align string) {
	p.pdf.CellFormat(width, height, p.text(text), "", ln, align, false, 0, "")
}

func (p *pdfWriter) header(widths []float64, titles []string) {
	p.pdf.SetFillColor(220, 230, 241)
	for i, title := range titles {
		p.pdf.CellFormat(widths[i], 7, p.text(title), "1", 0, "C", true, 0, "")
	}
	p.pdf.Ln(-1)
}

func (p *pdfWriter) row(widths []float64, values []string) {
	for i, v := range values {
		p.pdf.CellFormat(widths[i], 6, p.text(v), "1", 0, "L", false, 0, "")
	}
	p.pdf.Ln(-1)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate maps Cyrillic to Latin and drops other runes a core PDF font
// cannot draw.
func Transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		lower := r
		upper := false
		if r >= 'А' && r <= 'Я' || r == 'Ё' {
			upper = true
			if r == 'Ё' {
				lower = 'ё'
			} else {
				lower = r + ('а' - 'А')
			}
		}
		if latin, ok := cyrillic[lower]; ok {
			if upper && latin != "" {
				latin = strings.ToUpper(latin[:1]) + latin[1:]
			}
			b.WriteString(latin)
			continue
		}
		switch {
		case r == '…':
			b.WriteString("...")
		case r == '₽':
			b.WriteString("rub.")
		case r < 128:
			b.WriteRune(r)
		default:
			b.WriteRune('?')
		}
	}
	return b.String()
}
