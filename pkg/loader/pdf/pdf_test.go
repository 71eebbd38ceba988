package pdf

import (
	"bytes"
	"fmt"
	"testing"
	"unicode/utf8"
)

// buildPDF writes a minimal PDF with one text line per page. The header
// carries a binary comment line, so the file is not valid UTF-8.
func buildPDF(pages ...string) []byte {
	var (
		buf     bytes.Buffer
		offsets []int
	)
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	object := func(body string) int {
		offsets = append(offsets, buf.Len())
		id := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
		return id
	}

	// Objects 1 to 3 are catalog, page tree and font; pages follow in pairs.
	var kids bytes.Buffer
	for i := range pages {
		fmt.Fprintf(&kids, "%d 0 R ", 4+2*i)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), len(pages)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractTextJoinsPages(t *testing.T) {
	content := buildPDF("Alice", "Acme")
	if utf8.Valid(content) {
		t.Fatal("test document should not be valid UTF-8")
	}

	text, err := ExtractText(content)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if want := "\nAlice \nAcme"; text != want {
		t.Fatalf("ExtractText() = %q, want %q", text, want)
	}
}

func TestExtractTextSinglePage(t *testing.T) {
	first, err := ExtractText(buildPDF("Alice"))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	second, err := ExtractText(buildPDF("Acme"))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	joined, err := ExtractText(buildPDF("Alice", "Acme"))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if joined != first+" "+second {
		t.Fatalf("pages joined as %q, want %q", joined, first+" "+second)
	}
}

func TestExtractTextInvalid(t *testing.T) {
	if _, err := ExtractText([]byte("%PDF-1.4\n\xff\xfe broken")); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}
