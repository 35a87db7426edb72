package docingest

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlainText decodes a plain text file. UTF-8 is attempted first; on
// invalid UTF-8 the bytes are re-decoded as Windows-1252 (a Latin-1
// superset), which accepts any byte sequence, and a warning is recorded.
func extractPlainText(data []byte) (*RawResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	res := &RawResult{Method: MethodPlainRead}
	if utf8.Valid(data) {
		res.Text = string(data)
		return res, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, failf(ReasonCorrupt, FormatTXT, "decode text: %w", err)
	}
	res.Text = string(decoded)
	res.Warnings = append(res.Warnings,
		fmt.Sprintf("text file is not valid UTF-8; decoded %d bytes as Windows-1252", len(data)))
	return res, nil
}
