// Package pdf extracts the text layer of PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the text of every page, in page order, joined with a
// single space. Pages without content contribute an empty string. Scanned
// pages without a text layer yield no text.
func ExtractText(content []byte) (text string, err error) {
	// the parser panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, " "), nil
}
