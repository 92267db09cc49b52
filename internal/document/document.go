// Package document turns raw resume or job posting bytes into normalized plain text.
package document

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spigell/talentscore/internal/utils"
	"golang.org/x/net/html"
)

// Media types recognised by Extract.
const (
	MediaPDF  = "application/pdf"
	MediaHTML = "text/html"
	MediaText = "text/plain"
)

var pdfMagic = []byte("%PDF-")

// Document is raw content plus its declared media type.
type Document struct {
	Data      []byte
	MediaType string
	Name      string
}

// ExtractionError means no usable text could be obtained from a document.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	name := e.Name
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("extract text from %s: %v", name, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract returns the normalized text of doc or an *ExtractionError when the
// document is unreadable or contains no text.
func Extract(doc Document) (string, error) {
	var (
		text string
		err  error
	)

	switch Detect(doc) {
	case MediaPDF:
		text, err = pdfText(doc.Data)
	case MediaHTML:
		text, err = htmlText(doc.Data)
	default:
		text = utils.SanitizeUTF8(string(doc.Data))
	}
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}

	text = Normalize(text)
	if text == "" {
		return "", &ExtractionError{Name: doc.Name, Err: fmt.Errorf("no text content found")}
	}

	return text, nil
}

// Detect resolves the media type of doc from the declared type, the file
// extension and finally the content itself.
func Detect(doc Document) string {
	mediaType := strings.ToLower(strings.TrimSpace(doc.MediaType))
	if idx := strings.IndexByte(mediaType, ';'); idx != -1 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}

	switch {
	case mediaType == MediaPDF:
		return MediaPDF
	case mediaType == MediaHTML || mediaType == "application/xhtml+xml":
		return MediaHTML
	}

	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return MediaPDF
	case ".html", ".htm":
		return MediaHTML
	}

	if bytes.HasPrefix(doc.Data, pdfMagic) {
		return MediaPDF
	}

	return MediaText
}

var (
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	trailingWS = regexp.MustCompile(`[ \t]+\n`)
)

// Normalize collapses line endings to \n, runs of three or more newlines to a
// single blank line and trims surrounding whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingWS.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return utils.SanitizeUTF8(buf.String()), nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "table": true,
}

func htmlText(data []byte) (string, error) {
	node, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
					builder.WriteString(" ")
				}
				builder.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			builder.WriteString("\n")
		}
	}
	walk(node)

	return builder.String(), nil
}
