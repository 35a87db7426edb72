// Package docingest extracts and cleans plain text from uploaded case
// documents of unknown quality.
//
// Supported formats:
//   - pdf  — digital text layer first (pdfcpu + ledongthuc/pdf); documents
//     that look scanned fall back to OCR page by page
//   - docx — Microsoft Word (archive/zip → word/document.xml)
//   - txt  — plain text (UTF-8, Windows-1252 fallback)
//
// Every document flows one way: bytes → raw text → normalized text →
// header/footer-filtered text → Result. Extraction can fail with a typed
// Failure; normalization and filtering are total and never fail.
//
// Usage:
//
//	pipe := docingest.New(docingest.Config{})
//	res, err := pipe.Ingest(ctx, data, docingest.FormatPDF)
//	fmt.Println(res.Metadata.WordCount, "words")
package docingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Pipeline is the document ingestion engine. It is safe for concurrent use:
// every Ingest call operates only on its own inputs.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Ingest runs the full pipeline on one document: extraction (with OCR
// fallback for scanned PDFs), normalization, then repeated-line removal.
// Word and character counts are computed over the final cleaned text. The
// only error returned is a *Failure; warnings from any stage end up in
// Result.Errors with processing complete.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, format Format) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, timeoutFailure(format, err)
	}

	raw, err := p.extract(ctx, data, format)
	if err != nil {
		return nil, err
	}

	text := Normalize(raw.Text)
	text = RemoveRepeatedLines(text, p.cfg.HeaderFooterMaxLineLength, p.cfg.HeaderFooterMinFrequency)

	res := &Result{
		Text: text,
		Metadata: Metadata{
			FileType:         format,
			FileSizeBytes:    int64(len(data)),
			PageCount:        raw.PageCount,
			ExtractionMethod: raw.Method,
			WordCount:        len(strings.Fields(text)),
			CharacterCount:   utf8.RuneCountInString(text),
		},
		Errors: raw.Warnings,
	}

	p.logger.Debug("document ingested",
		"format", format,
		"method", raw.Method,
		"pages", raw.PageCount,
		"words", res.Metadata.WordCount,
		"warnings", len(res.Errors))

	return res, nil
}

// extract routes the document to the right extractor by declared format.
func (p *Pipeline) extract(ctx context.Context, data []byte, format Format) (*RawResult, error) {
	switch format {
	case FormatPDF:
		return p.extractPDF(ctx, data)
	case FormatDocx:
		return extractDocx(data)
	case FormatTXT:
		return extractPlainText(data)
	default:
		return nil, failf(ReasonUnsupported, format, "unsupported format tag %q", format)
	}
}

// extractPDF applies the scanned-PDF fallback policy: digital extraction
// first, then OCR when the digital text layer averages fewer words per page
// than the configured threshold.
func (p *Pipeline) extractPDF(ctx context.Context, data []byte) (*RawResult, error) {
	digital, err := p.cfg.PDF.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	digitalWPP := wordsPerPage(digital)
	if digitalWPP >= p.cfg.OCRWordsPerPageThreshold {
		return digital, nil
	}

	p.logger.Debug("pdf looks scanned, attempting ocr",
		"words_per_page", digitalWPP,
		"threshold", p.cfg.OCRWordsPerPageThreshold,
		"image_streams", digital.ImageStreams,
		"pages", digital.PageCount)

	if err := p.cfg.OCR.Available(); err != nil {
		if strings.TrimSpace(digital.Text) == "" {
			// OCR is the only way to get any text out of this document.
			return nil, &Failure{Reason: ReasonEngineUnavailable, Format: FormatPDF, Err: err}
		}
		digital.Warnings = append(digital.Warnings, fmt.Sprintf(
			"%s needs ocr but the OCR engine is unavailable; keeping digital text: %v",
			scanDescription(digital), err))
		return digital, nil
	}

	ocr, err := ocrDocument(ctx, p.cfg.OCR, data, digital.PageCount, p.cfg.OCRConcurrency)
	if err != nil {
		return nil, err
	}
	// The digital extraction's warnings and page count survive the fallback.
	ocr.Warnings = append(append([]string(nil), digital.Warnings...), ocr.Warnings...)
	if ocr.PageCount == 0 {
		ocr.PageCount = digital.PageCount
	}

	ocrWPP := wordsPerPage(ocr)
	if ocrWPP < digitalWPP {
		// OCR did worse than the sparse digital layer. Keep whichever
		// output is non-empty and longer; this is a heuristic tie-break,
		// not a correctness guarantee, so say so to the caller.
		warning := fmt.Sprintf(
			"ocr produced fewer words per page than digital extraction on a %s; keeping the longer non-empty output (heuristic tie-break)",
			scanDescription(digital))
		if preferDigital(digital.Text, ocr.Text) {
			ocrOnly := ocr.Warnings[len(digital.Warnings):]
			digital.Warnings = append(digital.Warnings, ocrOnly...)
			digital.Warnings = append(digital.Warnings, warning)
			return digital, nil
		}
		ocr.Warnings = append(ocr.Warnings, warning)
	}
	return ocr, nil
}

// scanDescription classifies a sparse PDF for warning text: image streams
// are the signal separating a real scan from a document that is simply
// light on text.
func scanDescription(r *RawResult) string {
	if r.ImageStreams {
		return "scan-like document (image streams present)"
	}
	return "sparse document (no image streams)"
}

// preferDigital reports whether the digital text should win the tie-break:
// it must be non-empty and at least as long as the OCR output, or the OCR
// output must be empty.
func preferDigital(digitalText, ocrText string) bool {
	d := strings.TrimSpace(digitalText)
	o := strings.TrimSpace(ocrText)
	if o == "" {
		return d != ""
	}
	if d == "" {
		return false
	}
	return len(d) >= len(o)
}

func wordsPerPage(r *RawResult) float64 {
	pages := r.PageCount
	if pages < 1 {
		pages = 1
	}
	return float64(len(strings.Fields(r.Text))) / float64(pages)
}
