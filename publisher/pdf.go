package publisher

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"auto_sketch_enhancer/composer"
	"auto_sketch_enhancer/surface"
)

const (
	pageWidth = 210.0
	margin    = 15.0
)

// WritePDF renders a one-page A4 sheet: title, description, composition and the result image.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	content := pageWidth - 2*margin

	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(content, 10, tr(title), "", 1, "L", false, 0, "")
	if !r.CreatedAt.IsZero() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(content, 5, r.CreatedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 11)
	desc := r.Description
	if r.Fallback {
		desc = "The enhancement failed; the original sketch is shown unchanged."
	}
	pdf.MultiCell(content, 5, tr(desc), "", "L", false)
	pdf.Ln(2)

	if !r.Fallback {
		plan := composer.PlanFor(r.Description)
		elems := strings.Join(plan.Names(), ", ")
		if elems == "" {
			elems = "none"
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(content, 5, tr(fmt.Sprintf("Background: %s   Elements: %s", plan.Background.Name, elems)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	img := r.Result
	if r.Fallback || len(img.Data) == 0 {
		img = r.Original
	}
	if len(img.Data) > 0 {
		data, kind, err := pdfImage(img)
		if err != nil {
			return err
		}
		opts := gofpdf.ImageOptions{ImageType: kind}
		pdf.RegisterImageOptionsReader("result", opts, bytes.NewReader(data))
		side := content
		if left := 297 - margin - pdf.GetY(); left < side {
			side = left
		}
		pdf.ImageOptions("result", margin+(content-side)/2, pdf.GetY(), side, side, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// pdfImage returns bytes gofpdf can embed, converting formats it does not read to PNG.
func pdfImage(s surface.Sketch) ([]byte, string, error) {
	switch s.Format {
	case "png", "":
		return s.Data, "PNG", nil
	case "jpeg":
		return s.Data, "JPG", nil
	case "gif":
		return s.Data, "GIF", nil
	}
	img, _, err := surface.NewGGBackend().Decode(s.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s for pdf: %w", s.Format, err)
	}
	data, _, err := surface.EncodeImage(img, "png")
	if err != nil {
		return nil, "", err
	}
	return data, "PNG", nil
}
