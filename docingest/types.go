package docingest

import "fmt"

// Format identifies a declared document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatTXT  Format = "txt"
)

// Method identifies how raw text was obtained from a document.
type Method string

const (
	MethodDigitalText Method = "digital-text"
	MethodOCR         Method = "ocr"
	MethodDocxParas   Method = "docx-paragraphs"
	MethodPlainRead   Method = "plain-read"
)

// RawResult is the output of a single format extractor, before
// normalization. Page count is 0 for non-paginated formats. ImageStreams
// reports whether the source contains image XObjects; the coordinator uses
// it to tell scan-like PDFs from merely sparse ones in the warnings it
// attaches on the OCR fallback path.
type RawResult struct {
	Text         string
	PageCount    int
	Method       Method
	Warnings     []string
	ImageStreams bool
}

// Metadata describes the final cleaned text of an ingested document.
type Metadata struct {
	FileType         Format `json:"file_type"`
	FileSizeBytes    int64  `json:"file_size_bytes"`
	PageCount        int    `json:"page_count,omitempty"`
	ExtractionMethod Method `json:"extraction_method"`
	WordCount        int    `json:"word_count"`
	CharacterCount   int    `json:"character_count"`
}

// Result is the externally visible artifact of one ingestion. Errors holds
// non-fatal warnings accumulated across all stages, in order; a non-empty
// Errors list still means the document was processed.
type Result struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Errors   []string `json:"errors,omitempty"`
}

// Reason classifies a fatal extraction failure.
type Reason string

const (
	ReasonCorrupt           Reason = "corrupt"
	ReasonUnsupported       Reason = "unsupported"
	ReasonEngineUnavailable Reason = "engine_unavailable"
	ReasonTimeout           Reason = "timeout"
)

// Failure is the fatal error tier: it aborts processing of the current
// document. Anything recoverable is recorded as a warning instead.
type Failure struct {
	Reason Reason
	Format Format
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("extraction failed (%s, %s): %v", f.Format, f.Reason, f.Err)
	}
	return fmt.Sprintf("extraction failed (%s, %s)", f.Format, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

func failf(reason Reason, format Format, msg string, args ...any) *Failure {
	return &Failure{Reason: reason, Format: format, Err: fmt.Errorf(msg, args...)}
}

// timeoutFailure maps a context error at the coordinator boundary to the
// timeout failure reason.
func timeoutFailure(format Format, err error) *Failure {
	return &Failure{Reason: ReasonTimeout, Format: format, Err: err}
}

// SupportedFormats returns all declared format tags the pipeline accepts.
func SupportedFormats() []string {
	return []string{string(FormatPDF), string(FormatDocx), string(FormatTXT)}
}
