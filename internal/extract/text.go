package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

type plainParser struct{}

func (plainParser) canParse(ext string) bool {
	return ext == ".txt" || ext == ".md" || ext == ".markdown"
}

func (plainParser) parse(_ string, data []byte) (string, error) {
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

type docxParser struct{}

func (docxParser) canParse(ext string) bool {
	return ext == ".docx"
}

var (
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	docxParaEnd  = regexp.MustCompile(`</w:p>|<w:br/>|<w:cr/>`)
	docxTab      = regexp.MustCompile(`<w:tab/>`)
	blankRunsExp = regexp.MustCompile(`\n{3,}`)
)

// parse reads word/document.xml and keeps paragraph breaks and tabs, which
// carry table structure in most specification documents.
func (docxParser) parse(_ string, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var docXML []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		docXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("document.xml not found in docx")
	}

	text := docxParaEnd.ReplaceAllString(string(docXML), "\n")
	text = docxTab.ReplaceAllString(text, "\t")
	text = xmlTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = blankRunsExp.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
