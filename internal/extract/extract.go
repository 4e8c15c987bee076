// Package extract turns uploaded RFQ source files into something the
// assistant can read: plain text for documents and spreadsheets, or an
// attachment for PDFs and images which the model reads natively.
package extract

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/rfqpilot/internal/llm"
)

// MaxFileSize is the largest upload accepted.
const MaxFileSize = 20 << 20

// ErrUnsupported indicates a binary format that cannot be read.
var ErrUnsupported = errors.New("unsupported file format")

// Result is the extracted form of one file. Exactly one of Text and
// Attachment is set.
type Result struct {
	Name       string
	Text       string
	Attachment *llm.Attachment
}

// parser converts one family of formats to text.
type parser interface {
	canParse(ext string) bool
	parse(ext string, data []byte) (string, error)
}

var parsers = []parser{
	plainParser{},
	delimitedParser{},
	xlsxParser{},
	docxParser{},
}

var attachmentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// File extracts the content of an uploaded file.
func File(name string, data []byte) (Result, error) {
	if len(data) > MaxFileSize {
		return Result{}, fmt.Errorf("%s: file is larger than %d MB", name, MaxFileSize>>20)
	}
	ext := strings.ToLower(filepath.Ext(name))
	res := Result{Name: name}

	if mime, ok := attachmentTypes[ext]; ok {
		if strings.HasPrefix(mime, "image/") {
			if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
				mime = sniffed
			}
		}
		res.Attachment = &llm.Attachment{Name: name, MIMEType: mime, Data: data}
		return res, nil
	}

	for _, p := range parsers {
		if !p.canParse(ext) {
			continue
		}
		text, err := p.parse(ext, data)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", name, err)
		}
		res.Text = text
		return res, nil
	}

	// Unknown extensions are accepted when they are readable text.
	if utf8.Valid(data) {
		res.Text = string(data)
		return res, nil
	}
	return Result{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// Combine joins extracted files into one prompt body and the list of
// attachments to send alongside it.
func Combine(results []Result) (string, []llm.Attachment) {
	var b strings.Builder
	var atts []llm.Attachment
	for _, r := range results {
		if r.Attachment != nil {
			atts = append(atts, *r.Attachment)
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", r.Name, strings.TrimSpace(r.Text))
	}
	return strings.TrimSpace(b.String()), atts
}
