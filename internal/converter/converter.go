package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
	"emgpipe/internal/exporter"
	"emgpipe/internal/sylk"
)

// Converter turns SYLK interchange files into CSV text.
type Converter struct {
	charset encoding.Encoding
	bom     bool
	writer  *exporter.CSVWriter
	logger  *slog.Logger
}

// New creates a Converter for the configured input charset.
func New(cfg config.ConvertConfig, logger *slog.Logger) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	charset, err := Charset(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	return &Converter{
		charset: charset,
		bom:     cfg.BOM,
		writer:  exporter.NewCSVWriter(logger),
		logger:  logger,
	}, nil
}

// Charset maps a configured encoding name to a decoder.
func Charset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		// strips a leading BOM if present
		return unicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported encoding %q", name), nil)
	}
}

// Decode reads one SYLK document from r using the converter's charset.
func (c *Converter) Decode(r io.Reader) (*sylk.Sheet, error) {
	return sylk.Decode(transform.NewReader(r, c.charset.NewDecoder()))
}

// ConvertFile decodes the SYLK file at in and writes its grid as CSV to out.
func (c *Converter) ConvertFile(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return apperrors.NewStorageError("open interchange file", err)
	}
	defer f.Close()

	sheet, err := c.Decode(f)
	if err != nil {
		return err
	}

	if err := c.writer.WriteCSV(out, exporter.WriteOptions{
		Records:   sheet.Rows(),
		BOMPrefix: c.bom,
	}); err != nil {
		return apperrors.NewStorageError("write csv", err)
	}

	c.logger.InfoContext(ctx, "Converted interchange file",
		slog.String("input", in),
		slog.String("output", out),
		slog.Int("rows", sheet.MaxRow),
		slog.Int("columns", sheet.MaxCol))

	return nil
}
