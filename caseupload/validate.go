package caseupload

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/caseingest/docingest"
)

// ValidationError rejects an upload before it reaches the pipeline. It
// carries the HTTP status the service layer should answer with.
type ValidationError struct {
	Code       string
	Message    string
	Filename   string
	HTTPStatus int
}

func (e *ValidationError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Filename, e.Message)
	}
	return e.Message
}

var windowsReservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// IsSafeFilename rejects path traversal, path separators, null bytes,
// characters invalid on common filesystems, and Windows reserved names.
func IsSafeFilename(name string) bool {
	if name == "" {
		return false
	}
	if filepath.Base(name) != name || name != strings.TrimSpace(name) {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, "\x00/\\<>:\"|?*") {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return !windowsReservedNames[strings.ToLower(stem)]
}

// ValidateUpload checks an uploaded file before ingestion: filename safety,
// extension allow-list, and size limit are fatal; a declared/detected
// content mismatch only yields warnings (the extractor decides whether the
// bytes are actually corrupt). Returns the declared format and any warnings.
func ValidateUpload(filename string, size int64, head []byte, cfg *Config) (docingest.Format, []string, error) {
	if !IsSafeFilename(filename) {
		return "", nil, &ValidationError{
			Code:       "unsafe_filename",
			Message:    "filename contains unsafe characters or path traversal",
			Filename:   filename,
			HTTPStatus: http.StatusBadRequest,
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !cfg.ExtensionAllowed(ext) {
		return "", nil, &ValidationError{
			Code:       "extension_not_allowed",
			Message:    fmt.Sprintf("extension %q is not allowed (allowed: %s)", ext, strings.Join(cfg.AllowedExtensions, ", ")),
			Filename:   filename,
			HTTPStatus: http.StatusUnsupportedMediaType,
		}
	}

	format, err := docingest.DetectFormat(filename)
	if err != nil {
		return "", nil, &ValidationError{
			Code:       "unsupported_format",
			Message:    fmt.Sprintf("no extractor for extension %q", ext),
			Filename:   filename,
			HTTPStatus: http.StatusUnsupportedMediaType,
		}
	}

	if size > cfg.MaxFileBytes() {
		return "", nil, &ValidationError{
			Code:       "file_too_large",
			Message:    fmt.Sprintf("file size %.2f MB exceeds maximum %d MB", float64(size)/(1024*1024), cfg.MaxFileMB),
			Filename:   filename,
			HTTPStatus: http.StatusRequestEntityTooLarge,
		}
	}

	return format, sniffMismatch(format, head), nil
}

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// sniffMismatch compares magic bytes against the declared format.
func sniffMismatch(format docingest.Format, head []byte) []string {
	switch format {
	case docingest.FormatPDF:
		if !bytes.HasPrefix(head, pdfMagic) {
			return []string{"declared pdf but content does not start with %PDF"}
		}
	case docingest.FormatDocx:
		if !bytes.HasPrefix(head, zipMagic) {
			return []string{"declared docx but content is not a ZIP archive"}
		}
	case docingest.FormatTXT:
		if bytes.HasPrefix(head, pdfMagic) {
			return []string{"declared txt but content looks like a PDF"}
		}
	}
	return nil
}
