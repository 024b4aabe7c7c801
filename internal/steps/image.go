package steps

import (
	"bytes"
	"context"
	"fmt"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/spachava753/assetflow/internal/models"
)

// OptimizeImage recompresses PNG, GIF, JPEG and SVG files. The optimized
// bytes are kept only when smaller than the input. Other file types pass
// through unchanged.
type OptimizeImage struct {
	JPEGQuality int
	svg         *minify.M
}

// NewOptimizeImage creates the image step.
func NewOptimizeImage(jpegQuality int) *OptimizeImage {
	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)
	return &OptimizeImage{JPEGQuality: jpegQuality, svg: m}
}

func (o *OptimizeImage) Name() string { return "imagemin" }

func (o *OptimizeImage) Apply(_ context.Context, f models.File) (models.File, error) {
	var (
		out []byte
		err error
	)

	switch strings.ToLower(f.Ext()) {
	case ".png":
		out, err = optimizePNG(f.Contents)
	case ".gif":
		out, err = optimizeGIF(f.Contents)
	case ".jpg", ".jpeg":
		out, err = optimizeJPEG(f.Contents, o.JPEGQuality)
	case ".svg":
		out, err = o.svg.Bytes("image/svg+xml", f.Contents)
	default:
		slog.Debug("unsupported image type, copying unchanged", "path", f.Path)
		return f, nil
	}
	if err != nil {
		return f, err
	}

	if len(out) < len(f.Contents) {
		slog.Debug("optimized image", "path", f.Path, "before", len(f.Contents), "after", len(out))
		f.Contents = out
	}
	return f, nil
}

func optimizePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding png: %w", err)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func optimizeGIF(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding gif: %w", err)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, fmt.Errorf("encoding gif: %w", err)
	}
	return buf.Bytes(), nil
}

func optimizeJPEG(data []byte, quality int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding jpeg: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
