package docingest

import "log/slog"

// Config configures a Pipeline. Thresholds are explicit here rather than
// hidden constants so callers can tune the scanned-PDF heuristic and the
// header/footer filter per deployment.
type Config struct {
	// OCRWordsPerPageThreshold: a digital PDF extraction averaging fewer
	// words per page than this is treated as likely scanned and retried
	// with OCR (default: 50).
	OCRWordsPerPageThreshold float64 `json:"ocr_words_per_page_threshold" yaml:"ocr_words_per_page_threshold"`

	// HeaderFooterMaxLineLength: repeated lines longer than this (trimmed)
	// are never removed as headers/footers (default: 100).
	HeaderFooterMaxLineLength int `json:"header_footer_max_line_length" yaml:"header_footer_max_line_length"`

	// HeaderFooterMinFrequency: a line must occur at least this many times
	// to be removed as a header/footer (default: 3).
	HeaderFooterMinFrequency int `json:"header_footer_min_frequency" yaml:"header_footer_min_frequency"`

	// OCRConcurrency bounds how many pages are recognized in parallel
	// within one document (default: 2).
	OCRConcurrency int `json:"ocr_concurrency" yaml:"ocr_concurrency"`

	// PDF extracts digital text from PDF bytes. Defaults to the built-in
	// pdfcpu + ledongthuc extractor.
	PDF DigitalPDFExtractor `json:"-" yaml:"-"`

	// OCR recognizes scanned pages. Defaults to the Tesseract engine; the
	// pipeline degrades per the engine-unavailable policy when the engine
	// is not installed.
	OCR Engine `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.OCRWordsPerPageThreshold <= 0 {
		c.OCRWordsPerPageThreshold = 50
	}
	if c.HeaderFooterMaxLineLength <= 0 {
		c.HeaderFooterMaxLineLength = 100
	}
	if c.HeaderFooterMinFrequency <= 0 {
		c.HeaderFooterMinFrequency = 3
	}
	if c.OCRConcurrency <= 0 {
		c.OCRConcurrency = 2
	}
	if c.PDF == nil {
		c.PDF = pdfcpuExtractor{}
	}
	if c.OCR == nil {
		c.OCR = NewTesseractEngine(TesseractConfig{})
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
