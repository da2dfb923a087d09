// Package extract produces the single still image a source file
// contributes to classification: page 1 for PDFs (rasterized through
// poppler's pdftoppm), the image itself for JPG/PNG. Stateless; a pure
// function of the file's bytes.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/rfields/scanwatch/constants"
	"github.com/rfields/scanwatch/internal/common"
)

// Config holds rasterization and normalization knobs.
type Config struct {
	PdftoppmPath string
	DPI          int
	MaxWidth     int
	JPEGQuality  int
}

type Extractor struct {
	cfg    Config
	runner Runner
	// pageCount is injectable so tests don't need real PDF bytes.
	pageCount func(path string) (int, error)
	log       *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 85
	}
	return &Extractor{
		cfg:       cfg,
		runner:    execRunner{},
		pageCount: pdfPageCount,
		log:       logger,
	}
}

// Extract implements PageExtractor.
func (e *Extractor) Extract(ctx context.Context, path string) (Payload, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch ext {
	case "pdf":
		return e.extractPDF(ctx, path)
	case "jpg", "jpeg", "png":
		return e.extractImage(path)
	default:
		return Payload{}, common.Wrap(common.ErrExtraction, fmt.Sprintf("unsupported file type %q", ext), nil)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (Payload, error) {
	// Cheap structural sanity before shelling out. Parse failures are not
	// conclusive (encrypted or exotic PDFs still rasterize fine), so only
	// a definite zero-page answer is terminal here.
	if n, err := e.pageCount(path); err == nil && n == 0 {
		return Payload{}, common.Wrap(common.ErrExtraction, "pdf has zero pages", nil)
	} else if err != nil {
		e.log.Debug("pdf page count unavailable", "path", path, "error", err)
	}

	tmpDir, err := os.MkdirTemp("", "scanwatch-pp-*")
	if err != nil {
		return Payload{}, common.Wrap(common.ErrExtraction, "create temp dir", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.log.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -f 1 -l 1 -r <dpi> -jpeg <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.PdftoppmPath,
		"-f", "1", "-l", "1",
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-jpeg", path, prefix)
	if err != nil {
		return Payload{}, common.Wrap(common.ErrExtraction, "pdftoppm: "+truncate(string(errb), 512), err)
	}

	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Strings(matches)
	if len(matches) == 0 {
		return Payload{}, common.Wrap(common.ErrExtraction, "pdftoppm produced no images", nil)
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return Payload{}, common.Wrap(common.ErrExtraction, "read rendered page", err)
	}
	data, err := normalizeJPEG(raw, e.cfg.MaxWidth, e.cfg.JPEGQuality)
	if err != nil {
		return Payload{}, common.Wrap(common.ErrExtraction, "normalize rendered page", err)
	}
	return Payload{Data: data, MediaType: "image/jpeg", SourceKind: "pdf"}, nil
}

func (e *Extractor) extractImage(path string) (Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		// The stability check passed moments ago; an unreadable file now
		// means it vanished or got locked, so let a later event retry.
		return Payload{}, common.Wrap(common.ErrTransientFile, "read image", err)
	}
	data, err := normalizeJPEG(raw, e.cfg.MaxWidth, e.cfg.JPEGQuality)
	if err != nil {
		return Payload{}, common.Wrap(common.ErrExtraction, "decode image", err)
	}
	return Payload{Data: data, MediaType: "image/jpeg", SourceKind: "image"}, nil
}

func pdfPageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}
