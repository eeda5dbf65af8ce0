package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractURL(t *testing.T) {
	page := `<html><head><title>Cells</title>
	<style>body { color: red }</style>
	<script>console.log("{ not content }")</script></head>
	<body><h1>Biology</h1><p>The mitochondria &amp; the cell.</p></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := NewExtractor().ExtractURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract url: %v", err)
	}
	if !strings.Contains(text, "The mitochondria & the cell.") {
		t.Errorf("text = %q", text)
	}
	if strings.Contains(text, "console.log") || strings.Contains(text, "color: red") {
		t.Errorf("script/style leaked into text: %q", text)
	}
	if strings.Contains(text, "<") {
		t.Errorf("tags leaked into text: %q", text)
	}
}

func TestExtractURLFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewExtractor()
	if _, err := e.ExtractURL(context.Background(), srv.URL); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("forbidden err = %v, want ErrExtractionFailed", err)
	}
	if _, err := e.ExtractURL(context.Background(), "http://127.0.0.1:0/nope"); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("unreachable err = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractFileText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("  plain study notes\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	text, err := NewExtractor().ExtractFile(path)
	if err != nil {
		t.Fatalf("extract file: %v", err)
	}
	if text != "plain study notes" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractFileUnsupported(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractFile("slides.pptx"); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("unsupported err = %v, want ErrExtractionFailed", err)
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := e.ExtractFile(empty); !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("empty file err = %v, want ErrExtractionFailed", err)
	}
}
