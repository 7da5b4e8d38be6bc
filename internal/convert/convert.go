// Package convert extracts plain text from fetched document files by calling
// the external converters pdftotext, pandoc, and unoconv. Conversion is a
// best-effort enrichment: a failed conversion yields empty text, never a
// failed run.
package convert

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Extractor shells out to the converter appropriate for a file's extension.
type Extractor struct {
	logger *zap.Logger
}

// New constructs an Extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Text returns the plain text of the document at path, or an error when the
// extension is unsupported or the converter fails.
func (e *Extractor) Text(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.pdfText(ctx, path)
	case ".docx":
		return e.pandocText(ctx, path)
	case ".doc":
		return e.docText(ctx, path)
	default:
		return "", fmt.Errorf("no converter for %s", path)
	}
}

func (e *Extractor) pdfText(ctx context.Context, path string) (string, error) {
	e.logger.Info("converting pdf to text", zap.String("path", path))
	out, err := exec.CommandContext(ctx, "pdftotext", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext %s: %w", path, err)
	}
	return string(out), nil
}

func (e *Extractor) pandocText(ctx context.Context, path string) (string, error) {
	e.logger.Info("converting docx to text", zap.String("path", path))
	out, err := exec.CommandContext(ctx, "pandoc", "-f", "docx", "-t", "plain", path).Output()
	if err != nil {
		return "", fmt.Errorf("pandoc %s: %w", path, err)
	}
	return string(out), nil
}

// docText upgrades a legacy .doc to .docx via unoconv, then extracts from
// the converted file.
func (e *Extractor) docText(ctx context.Context, path string) (string, error) {
	e.logger.Info("converting doc to docx", zap.String("path", path))
	if out, err := exec.CommandContext(ctx, "unoconv", "-f", "docx", path).CombinedOutput(); err != nil {
		return "", fmt.Errorf("unoconv %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
	}
	converted := strings.TrimSuffix(path, ".doc") + ".docx"
	return e.pandocText(ctx, converted)
}
