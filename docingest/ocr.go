package docingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Engine recognizes text on a single page of a PDF. Implementations may be
// backed by local binaries or remote services; the pipeline only requires
// these two calls and treats everything else as the engine's concern.
type Engine interface {
	// Available reports whether the engine can be used at all. A non-nil
	// error means recognition would fail for every page.
	Available() error

	// RecognizePage returns the recognized text of one page (1-based).
	RecognizePage(ctx context.Context, pdfPath string, page int) (string, error)
}

// TesseractConfig configures the local Tesseract engine.
type TesseractConfig struct {
	TesseractPath string // tesseract binary (default: "tesseract" on PATH)
	PdftoppmPath  string // pdftoppm binary used to render pages (default: "pdftoppm")
	Language      string // recognition language (default: "eng")
	DPI           int    // render resolution (default: 300)
}

// TesseractEngine renders one PDF page to an image with pdftoppm and feeds
// it to the tesseract CLI. Each call uses its own temp directory; nothing
// is pooled or shared between pages.
type TesseractEngine struct {
	cfg TesseractConfig
}

// NewTesseractEngine creates the engine with defaults applied.
func NewTesseractEngine(cfg TesseractConfig) *TesseractEngine {
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = "tesseract"
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &TesseractEngine{cfg: cfg}
}

// Available checks that both binaries resolve on PATH.
func (e *TesseractEngine) Available() error {
	if _, err := exec.LookPath(e.cfg.TesseractPath); err != nil {
		return fmt.Errorf("tesseract not found: %w", err)
	}
	if _, err := exec.LookPath(e.cfg.PdftoppmPath); err != nil {
		return fmt.Errorf("pdftoppm not found: %w", err)
	}
	return nil
}

// RecognizePage renders the page to a grayscale PNG and runs tesseract on it.
func (e *TesseractEngine) RecognizePage(ctx context.Context, pdfPath string, page int) (string, error) {
	tmp, err := os.MkdirTemp("", "caseingest-ocr-")
	if err != nil {
		return "", fmt.Errorf("ocr temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	pg := strconv.Itoa(page)
	render := exec.CommandContext(ctx, e.cfg.PdftoppmPath,
		"-f", pg, "-l", pg,
		"-r", strconv.Itoa(e.cfg.DPI),
		"-gray", "-png",
		pdfPath, filepath.Join(tmp, "page"))
	var renderErr bytes.Buffer
	render.Stderr = &renderErr
	if err := render.Run(); err != nil {
		return "", fmt.Errorf("render page %d: %w (%s)", page, err, strings.TrimSpace(renderErr.String()))
	}

	// pdftoppm pads the page number in the output name; glob instead of
	// guessing the padding width.
	images, err := filepath.Glob(filepath.Join(tmp, "page-*.png"))
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("render page %d: no image produced", page)
	}
	sort.Strings(images)

	var out, stderr bytes.Buffer
	recognize := exec.CommandContext(ctx, e.cfg.TesseractPath,
		images[0], "stdout", "-l", e.cfg.Language)
	recognize.Stdout = &out
	recognize.Stderr = &stderr
	if err := recognize.Run(); err != nil {
		return "", fmt.Errorf("recognize page %d: %w (%s)", page, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(out.String()), nil
}

// ocrDocument runs the engine over every page of the document, bounded by
// concurrency, and reassembles the text strictly by page index regardless
// of completion order. A failed page contributes empty text and a warning;
// failure on every page is fatal.
func ocrDocument(ctx context.Context, engine Engine, data []byte, pageCount, concurrency int) (*RawResult, error) {
	if pageCount < 1 {
		pageCount = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}

	tmp, err := os.CreateTemp("", "caseingest-*.pdf")
	if err != nil {
		return nil, failf(ReasonCorrupt, FormatPDF, "ocr staging: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, failf(ReasonCorrupt, FormatPDF, "ocr staging: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, failf(ReasonCorrupt, FormatPDF, "ocr staging: %w", err)
	}

	pages := make([]string, pageCount)
	pageErrs := make([]error, pageCount)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	for i := 0; i < pageCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				pageErrs[idx] = err
				return
			}
			text, err := engine.RecognizePage(ctx, tmp.Name(), idx+1)
			if err != nil {
				pageErrs[idx] = err
				return
			}
			pages[idx] = text
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, timeoutFailure(FormatPDF, err)
	}

	res := &RawResult{PageCount: pageCount, Method: MethodOCR}
	failed := 0
	var sb strings.Builder
	for i := 0; i < pageCount; i++ {
		if pageErrs[i] != nil {
			failed++
			res.Warnings = append(res.Warnings, fmt.Sprintf("ocr page %d: %v", i+1, pageErrs[i]))
			continue
		}
		if pages[i] == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pages[i])
	}
	if failed == pageCount {
		return nil, failf(ReasonCorrupt, FormatPDF, "ocr failed on all %d pages", pageCount)
	}

	res.Text = sb.String()
	return res, nil
}
