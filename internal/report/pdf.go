package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"storepulse/internal/infrastructure"
)

// PDFFilename is the download name served with every exported report.
const PDFFilename = "Superstore_Analysis_Report.pdf"

const pdfTitle = "Superstore Sales Analysis Report"

// markdownMarkers are screen-rendering markers that carry no meaning in
// the flat PDF text and are stripped before layout. Longer markers come
// first so "####" is removed before "###" can match inside it.
var markdownMarkers = []string{"####", "###", "**", "*", "---"}

// Sanitize converts narrative markdown text to plain single-byte text for
// the PDF engine: markdown markers are stripped and every rune outside
// Latin-1 is replaced with '?'. Sanitize is idempotent, so text may pass
// through it more than once without further change.
func Sanitize(text string) string {
	for _, marker := range markdownMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r > 0xFF {
			b.WriteByte('?')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToPDF lays the narrative out as a paginated PDF document and returns the
// raw bytes. The document is byte-for-byte deterministic for a given
// narrative: both PDF dates are pinned to the narrative's generation time
// and catalog objects are emitted in sorted order.
func ToPDF(ctx context.Context, n *Narrative) ([]byte, error) {
	logger := infrastructure.LoggerFromContext(ctx)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreationDate(n.GeneratedAt)
	doc.SetModificationDate(n.GeneratedAt)
	doc.SetCatalogSort(true)
	doc.SetTitle(pdfTitle, false)

	doc.SetHeaderFunc(func() {
		doc.SetFont("Arial", "B", 16)
		doc.CellFormat(0, 10, pdfTitle, "", 1, "C", false, 0, "")
		doc.Ln(4)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont("Arial", "I", 8)
		doc.CellFormat(0, 10, fmt.Sprintf("Page %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	for _, section := range n.Sections {
		title := Sanitize(section.Title)
		if replaced := countReplaced(section.Title, title); replaced > 0 {
			logger.DebugContext(ctx, "replaced unencodable characters in section title",
				"section", title, "replaced", replaced)
		}
		doc.SetFont("Arial", "B", 13)
		doc.MultiCell(0, 8, title, "", "L", false)
		doc.Ln(1)

		doc.SetFont("Arial", "", 11)
		for _, line := range section.Lines {
			clean := Sanitize(line)
			if replaced := countReplaced(line, clean); replaced > 0 {
				logger.DebugContext(ctx, "replaced unencodable characters in report line",
					"section", title, "replaced", replaced)
			}
			doc.MultiCell(0, 6, clean, "", "L", false)
		}
		doc.Ln(4)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering report PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// countReplaced counts the '?' substitutions Sanitize introduced, ignoring
// question marks already present in the source text.
func countReplaced(original, sanitized string) int {
	n := strings.Count(sanitized, "?") - strings.Count(original, "?")
	if n < 0 {
		return 0
	}
	return n
}
