package document

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "blank runs", in: "a\n\n\n\n\nb\n\nc", want: "a\n\nb\n\nc"},
		{name: "trim", in: "  \n\n a \n\n", want: "a"},
		{name: "whitespace only lines", in: "a\n   \n \t \n\nb", want: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	text, err := Extract(Document{Data: []byte("Jane Doe\r\n\r\n\r\n\r\nPython developer\n"), MediaType: "text/plain; charset=utf-8"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Jane Doe\n\nPython developer" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractHTML(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>x</title><style>p{}</style></head><body>
<h1>Backend Engineer</h1><script>var a = 1;</script><p>Build <b>Go</b> services</p></body></html>`

	text, err := Extract(Document{Data: []byte(page), Name: "job.html"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Backend Engineer") || !strings.Contains(text, "Build Go services") {
		t.Fatalf("unexpected text: %q", text)
	}
	if strings.Contains(text, "var a") || strings.Contains(text, "p{}") {
		t.Fatalf("script or style leaked into text: %q", text)
	}
}

func TestExtractEmptyIsFatal(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("   \n\r\n\t "), []byte("<html><body><script>x()</script></body></html>")} {
		_, err := Extract(Document{Data: data, Name: "cv.html"})
		var extractionErr *ExtractionError
		if !errors.As(err, &extractionErr) {
			t.Fatalf("expected ExtractionError for %q, got %v", data, err)
		}
	}
}

func TestExtractBrokenPDF(t *testing.T) {
	t.Parallel()

	_, err := Extract(Document{Data: []byte("%PDF-1.4 truncated"), Name: "cv.pdf"})
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		doc  Document
		want string
	}{
		{doc: Document{MediaType: "application/pdf"}, want: MediaPDF},
		{doc: Document{Name: "CV.PDF"}, want: MediaPDF},
		{doc: Document{Data: []byte("%PDF-1.7")}, want: MediaPDF},
		{doc: Document{MediaType: "text/html; charset=utf-8"}, want: MediaHTML},
		{doc: Document{Name: "posting.htm"}, want: MediaHTML},
		{doc: Document{Name: "resume.txt", Data: []byte("hello")}, want: MediaText},
	}

	for _, tt := range tests {
		if got := Detect(tt.doc); got != tt.want {
			t.Fatalf("Detect(%+v) = %q, want %q", tt.doc, got, tt.want)
		}
	}
}
