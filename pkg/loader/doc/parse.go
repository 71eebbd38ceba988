// Package doc extracts paragraph text from Office Open XML word documents.
package doc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const docXMLMax = 50 << 20

// ExtractText returns the text of every top-level body paragraph joined with
// "\n". Paragraphs inside tables, text boxes and other containers are not
// part of the body sequence and are skipped. Deleted revisions are dropped.
func ExtractText(content []byte) (string, error) {
	paragraphs, err := parseDocx(content)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

func openDocumentXML(content []byte) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("document.xml not found in docx")
	}
	if docFile.UncompressedSize64 > docXMLMax {
		return nil, fmt.Errorf("document.xml too large: %d bytes", docFile.UncompressedSize64)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open document.xml: %w", err)
	}
	return rc, nil
}

func parseDocx(content []byte) ([]string, error) {
	rc, err := openDocumentXML(content)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, docXMLMax))

	var (
		paragraphs []string
		stack      []string
		cur        strings.Builder
		// depth of the body paragraph being captured, 0 when outside one
		paraDepth int
		delDepth  int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, t.Name.Local)

			switch t.Name.Local {
			case "p":
				if paraDepth == 0 && parent == "body" {
					paraDepth = len(stack)
					cur.Reset()
				}
			case "del":
				delDepth++
			case "tab":
				if paraDepth > 0 && delDepth == 0 && parent == "r" {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if paraDepth > 0 && delDepth == 0 {
					cur.WriteByte('\n')
				}
			case "noBreakHyphen":
				if paraDepth > 0 && delDepth == 0 {
					cur.WriteByte('-')
				}
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			switch t.Name.Local {
			case "p":
				if paraDepth == len(stack) {
					paragraphs = append(paragraphs, cur.String())
					paraDepth = 0
				}
			case "del":
				if delDepth > 0 {
					delDepth--
				}
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if paraDepth == 0 || delDepth != 0 || len(stack) == 0 {
				continue
			}
			if stack[len(stack)-1] == "t" {
				cur.Write(t)
			}
		}
	}

	return paragraphs, nil
}
