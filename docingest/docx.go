package docingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDocx parses a .docx file by reading word/document.xml from the ZIP
// archive. Paragraphs are joined with blank lines so downstream
// normalization preserves them as paragraph breaks. Docx has no fixed
// pagination, so no page count is reported.
func extractDocx(data []byte) (*RawResult, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, failf(ReasonCorrupt, FormatDocx, "open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, failf(ReasonCorrupt, FormatDocx, "word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, failf(ReasonCorrupt, FormatDocx, "open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var paragraphs []string
	var current strings.Builder
	var inParagraph bool
	var warnings []string

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err != io.EOF {
				warnings = append(warnings, fmt.Sprintf("document.xml parse stopped early: %v", err))
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	return &RawResult{
		Text:     strings.Join(paragraphs, "\n\n"),
		Method:   MethodDocxParas,
		Warnings: warnings,
	}, nil
}
