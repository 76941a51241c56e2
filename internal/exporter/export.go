package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"vitrina/internal"
	"vitrina/internal/catalog"
	"vitrina/internal/render"
	"vitrina/internal/storage"
)

const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var Formats = []string{FormatHTML, FormatJSON, FormatXLSX}

// MetadataWriter records the last export; the SQLite store implements it.
type MetadataWriter interface {
	SetMetadata(ctx context.Context, key, value string) error
}

type Exporter struct {
	outputDir string
	prices    render.PriceFormatter
	projector *render.Projector
	meta      MetadataWriter
}

type Result struct {
	Stamp string            `json:"stamp"`
	Files map[string]string `json:"files"`
}

func New(outputDir string, prices render.PriceFormatter, meta MetadataWriter) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		prices:    prices,
		projector: render.NewProjector(prices),
		meta:      meta,
	}
}

// Render produces one export document. The catalog is reconciled first and
// never modified.
func (e *Exporter) Render(c internal.Catalog, format string) ([]byte, error) {
	c = catalog.Reconcile(c)
	switch format {
	case FormatHTML:
		return e.projector.Project(c, c.Config)
	case FormatJSON:
		return catalog.MarshalTree(c)
	case FormatXLSX:
		return e.xlsx(c)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Write renders the given formats into the output directory as
// catalogo-<stamp>.<format> and records it under storage.MetaLastExport.
func (e *Exporter) Write(ctx context.Context, c internal.Catalog, stamp string, formats ...string) (Result, error) {
	if len(formats) == 0 {
		formats = Formats
	}
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return Result{}, err
	}

	res := Result{Stamp: stamp, Files: map[string]string{}}
	for _, format := range formats {
		blob, err := e.Render(c, format)
		if err != nil {
			return Result{}, fmt.Errorf("export %s: %w", format, err)
		}
		path := filepath.Join(e.outputDir, Filename(stamp, format))
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return Result{}, err
		}
		res.Files[format] = path
	}

	if e.meta != nil {
		blob, _ := json.Marshal(res)
		if err := e.meta.SetMetadata(ctx, storage.MetaLastExport, string(blob)); err != nil {
			return res, fmt.Errorf("record export: %w", err)
		}
	}
	return res, nil
}

func Filename(stamp, format string) string {
	if stamp == "" {
		return "catalogo." + format
	}
	return "catalogo-" + stamp + "." + format
}

// Stamp formats t for export filenames.
func Stamp(t time.Time) string {
	return t.Format("20060102-150405")
}

var productHeaders = []string{
	"Categoría", "Nombre", "Precio", "Precio formateado", "Descripción corta", "Descripción larga",
	"Características", "Especificaciones", "Imagen", "Icono", "ID",
}

func (e *Exporter) xlsx(c internal.Catalog) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Productos"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	for i, h := range productHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	r := 1
	for _, cat := range c.Categories {
		for _, p := range c.Products[cat.ID] {
			r++
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, r)
				_ = f.SetCellValue(sheet, cell, value)
			}
			set(1, cat.Name)
			set(2, p.Name)
			set(3, p.Price)
			set(4, e.prices.Format(p.Price))
			set(5, p.ShortDesc)
			set(6, p.LongDesc)
			set(7, strings.Join(p.Features, "\n"))
			set(8, p.Specs)
			set(9, p.Image)
			set(10, p.Icon)
			set(11, p.ID)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
