package docingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	ltpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// DigitalPDFExtractor extracts the embedded text layer of a PDF. Implemented
// by the built-in pdfcpu-backed extractor; tests substitute stubs.
type DigitalPDFExtractor interface {
	Extract(ctx context.Context, data []byte) (*RawResult, error)
}

// pdfcpuExtractor is the default DigitalPDFExtractor. pdfcpu validates the
// document structure and reports page count and image streams; the text
// layer itself is read per page with ledongthuc/pdf.
type pdfcpuExtractor struct{}

func (pdfcpuExtractor) Extract(ctx context.Context, data []byte) (*RawResult, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, failf(ReasonCorrupt, FormatPDF, "pdfcpu read: %w", err)
	}

	res := &RawResult{
		PageCount:    pdfCtx.PageCount,
		Method:       MethodDigitalText,
		ImageStreams: detectImageStreams(pdfCtx),
	}

	reader, err := ltpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// Structure validated but the text layer is unreadable: leave the
		// text empty so the coordinator falls through to OCR.
		res.Warnings = append(res.Warnings, fmt.Sprintf("text layer unreadable: %v", err))
		return res, nil
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= reader.NumPage(); pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, timeoutFailure(FormatPDF, err)
		}
		pageText, err := extractPageText(reader, pageNr)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", pageNr, err))
			continue
		}
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	res.Text = sb.String()
	return res, nil
}

// extractPageText reads one page's plain text. ledongthuc/pdf panics on
// some malformed font dictionaries, so the panic is converted to a per-page
// error here and handled as a warning upstream.
func extractPageText(reader *ltpdf.Reader, pageNr int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction panic: %v", r)
		}
	}()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return "", nil
	}
	raw, err := page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// detectImageStreams checks whether the PDF contains image XObjects, the
// main signal that a low-text document is a scan rather than simply sparse.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback: scan the xref table for image subtype stream dicts.
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}
