package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// ErrExtractionFailed indicates no usable text could be pulled from a source.
var ErrExtractionFailed = errors.New("text extraction failed")

// Extractor normalizes study sources (PDFs, plain text, web pages) into a
// plain-text blob for the generation pipeline.
type Extractor struct {
	client *http.Client
}

func NewExtractor() *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// ExtractFile pulls text from an uploaded file, dispatching on extension.
func (e *Extractor) ExtractFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %v", ErrExtractionFailed, filepath.Base(path), err)
		}
		return resultText(string(data))
	default:
		return "", fmt.Errorf("%w: unsupported file type %s", ErrExtractionFailed, filepath.Ext(path))
	}
}

func (e *Extractor) extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrExtractionFailed, err)
	}
	defer file.Close()

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages rather than losing the document.
			fmt.Fprintf(os.Stderr, "skipping unreadable pdf page %d: %v\n", pageNum, err)
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return resultText(builder.String())
}

// ExtractURL fetches a web page and reduces it to plain text. Scraping stays
// deliberately crude: scripts, styles, and tags are stripped, whitespace
// collapsed.
func (e *Extractor) ExtractURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("User-Agent", "Quizium/1.0 (study material extractor)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrExtractionFailed, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch %s: status %d", ErrExtractionFailed, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrExtractionFailed, rawURL, err)
	}

	return resultText(stripHTML(string(body)))
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)\b.*?</\s*(script|style|noscript)\s*>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

func stripHTML(html string) string {
	html = scriptRe.ReplaceAllString(html, " ")
	html = tagRe.ReplaceAllString(html, " ")
	html = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	).Replace(html)
	return strings.Join(strings.Fields(html), " ")
}

func resultText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text content", ErrExtractionFailed)
	}
	return text, nil
}
