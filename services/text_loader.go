package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/internal/telemetry"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFileType is returned for extensions outside the supported
// set. It is fatal for that single file and never retried.
var ErrUnsupportedFileType = errors.New("unsupported file type: only PDF, image and txt files are supported")

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".bmp":  true,
	".gif":  true,
}

// TextLoader converts uploaded resume/SOP documents into plain text.
// PDFs use the text layer first and fall back to OCR when it is blank;
// images go straight to OCR; .txt files are read as UTF-8.
type TextLoader struct {
	ocr     *OCRClient // nil disables the OCR fallback
	metrics *telemetry.Metrics
}

func NewTextLoader(ocr *OCRClient, metrics *telemetry.Metrics) *TextLoader {
	return &TextLoader{ocr: ocr, metrics: metrics}
}

// TextFromFile extracts plain text from the file at path, dispatching on the
// extension. OCR and PDF-parse failures degrade to empty text with a log
// line, since resume/SOP text is best-effort enrichment.
func (t *TextLoader) TextFromFile(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	start := time.Now()

	switch {
	case ext == ".pdf":
		text, err := extractPDFText(path)
		if err != nil {
			logger.Warn("pdf text extraction failed", "path", path, "error", err)
			text = ""
		}
		if strings.TrimSpace(text) == "" {
			text = t.runOCR(ctx, path)
		}
		t.record("pdf", text, start)
		return text, nil

	case imageExtensions[ext]:
		text := t.runOCR(ctx, path)
		t.record("image", text, start)
		return text, nil

	case ext == ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("txt read failed", "path", path, "error", err)
			t.record("txt", "", start)
			return "", nil
		}
		t.record("txt", string(data), start)
		return string(data), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
}

func (t *TextLoader) runOCR(ctx context.Context, path string) string {
	if t.ocr == nil {
		return ""
	}
	text, err := t.ocr.ExtractTextFromFile(ctx, path)
	if err != nil {
		logger.Warn("ocr extraction failed", "path", path, "error", err)
		return ""
	}
	return text
}

func (t *TextLoader) record(kind, text string, start time.Time) {
	if t.metrics == nil {
		return
	}
	status := "ok"
	if strings.TrimSpace(text) == "" {
		status = "empty"
	}
	t.metrics.RecordTextExtraction(kind, status, time.Since(start).Seconds())
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("pdf page extraction failed", "path", path, "page", i, "error", err)
			continue
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
