package importer

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"vitrina/internal"
	"vitrina/internal/util"
)

type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
	KindXLSX Kind = "xlsx"
	KindHTML Kind = "html"
)

var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[-=_*]{2,}$`),
	regexp.MustCompile(`(?i)^gracias`),
	regexp.MustCompile(`(?i)^(cordial )?saludos`),
	regexp.MustCompile(`(?i)^(tel|cel|whatsapp)[.:\s]`),
	regexp.MustCompile(`(?i)^e-?mail[:\s]`),
	regexp.MustCompile(`(?i)^(https?://|www\.)`),
	regexp.MustCompile(`(?i)^(precios?|lista de precios)( sujetos| v[aá]lidos| incluyen)`),
}

var (
	reLetters       = regexp.MustCompile(`\pL`)
	reDigit         = regexp.MustCompile(`\d`)
	reLeaders       = regexp.MustCompile(`[\s.…·:;|=_\-–—]+$`)
	reCurrencyTail  = regexp.MustCompile(`(?i)(?:\s*(?:\$|\bcop\b|\busd\b|\bprecio\b|\bvalor\b)\s*:?)+$`)
	reBulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•·]+|\d+[.)])\s+`)
	reHeadingSuffix = regexp.MustCompile(`:\s*$`)
)

// Parse reads product lines from a document of the given kind. Line numbers
// are assigned in document order after duplicates are dropped.
func Parse(kind Kind, content []byte) ([]internal.ImportedProduct, error) {
	var (
		items []internal.ImportedProduct
		err   error
	)
	switch kind {
	case KindText:
		items = parseText(string(content), internal.SourceText)
	case KindPDF:
		items, err = parsePDF(content)
	case KindXLSX:
		items, err = parseXLSX(content)
	case KindHTML:
		items, err = parseHTMLTables(string(content))
	default:
		return nil, fmt.Errorf("unsupported import kind: %s", kind)
	}
	if err != nil {
		return nil, err
	}

	items = dedupeItems(items)
	for i := range items {
		items[i].LineNo = i + 1
	}
	return items, nil
}

// KindFromFilename guesses the kind from the file extension.
func KindFromFilename(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return KindXLSX, true
	case strings.HasSuffix(lower, ".pdf"):
		return KindPDF, true
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return KindHTML, true
	case strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".csv"):
		return KindText, true
	}
	return "", false
}

// parseText reads "Name .... price" lines. A line without a price that ends
// with a colon starts a new category for the lines below it.
func parseText(text string, source internal.ImportSource) []internal.ImportedProduct {
	out := []internal.ImportedProduct{}
	category := ""
	lineNo := 0
	for _, line := range util.SplitLines(text) {
		lineNo++
		compact := util.NormalizeSpaces(line)
		if compact == "" || isLikelyNoise(compact) {
			continue
		}
		if heading, ok := headingOf(compact); ok {
			category = heading
			continue
		}
		item, ok := lineToProduct(source, lineNo, compact)
		if !ok {
			continue
		}
		item.Category = category
		out = append(out, item)
	}
	return out
}

func headingOf(line string) (string, bool) {
	if reDigit.MatchString(line) || !reLetters.MatchString(line) {
		return "", false
	}
	if strings.HasPrefix(line, "#") {
		return strings.TrimSpace(strings.TrimLeft(line, "#")), true
	}
	if reHeadingSuffix.MatchString(line) {
		return strings.TrimSpace(reHeadingSuffix.ReplaceAllString(line, "")), true
	}
	return "", false
}

func lineToProduct(source internal.ImportSource, lineNo int, line string) (internal.ImportedProduct, bool) {
	span, ok := util.FindLastAmount(line)
	if !ok {
		return internal.ImportedProduct{}, false
	}
	name := reBulletPrefix.ReplaceAllString(span.Prefix, "")
	name = reCurrencyTail.ReplaceAllString(name, "")
	name = reLeaders.ReplaceAllString(name, "")
	name = util.NormalizeSpaces(name)
	if !reLetters.MatchString(name) {
		return internal.ImportedProduct{}, false
	}

	price := span.Raw + span.Suffix
	return internal.ImportedProduct{
		LineNo:  lineNo,
		Source:  source,
		RawLine: line,
		Product: internal.Product{Name: name, Price: strings.TrimSpace(price), Features: []string{}},
	}, true
}

func parsePDF(content []byte) ([]internal.ImportedProduct, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return parseText(text.String(), internal.SourcePDF), nil
}

// columns maps product fields to cell positions; -1 means absent.
type columns struct {
	name, price, category, shortDesc, longDesc, features, specs, image, icon int
}

func (c columns) found() bool {
	return c.name >= 0
}

func inferColumns(headers []string) columns {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, strings.ToLower(util.NormalizeSpaces(h)))
	}
	return columns{
		name:      findHeaderIndex(norm, []string{"nombre", "producto", "artículo", "articulo", "name", "product", "item"}),
		price:     findHeaderIndex(norm, []string{"precio", "valor", "price", "costo"}),
		category:  findHeaderIndex(norm, []string{"categor", "category", "sección", "seccion"}),
		shortDesc: findHeaderIndex(norm, []string{"resumen", "corta", "short", "descripción", "descripcion", "description"}),
		longDesc:  findHeaderIndex(norm, []string{"larga", "detalle", "long"}),
		features:  findHeaderIndex(norm, []string{"caracter", "features", "beneficios"}),
		specs:     findHeaderIndex(norm, []string{"especific", "specs", "ficha"}),
		image:     findHeaderIndex(norm, []string{"imagen", "image", "foto"}),
		icon:      findHeaderIndex(norm, []string{"icono", "icon", "emoji"}),
	}
}

func (c columns) product(cells []string) (internal.Product, string) {
	p := internal.Product{
		Name:      pickCell(cells, c.name, -1),
		Price:     pickCell(cells, c.price, -1),
		ShortDesc: pickCell(cells, c.shortDesc, -1),
		LongDesc:  pickCell(cells, c.longDesc, -1),
		Specs:     strings.Join(splitList(pickCell(cells, c.specs, -1)), "\n"),
		Image:     pickCell(cells, c.image, -1),
		Icon:      pickCell(cells, c.icon, -1),
		Features:  []string{},
	}
	p.Features = append(p.Features, splitList(pickCell(cells, c.features, -1))...)
	return p, pickCell(cells, c.category, -1)
}

// splitList splits a spreadsheet cell holding a ";" or newline separated list.
func splitList(cell string) []string {
	out := []string{}
	for _, item := range strings.FieldsFunc(cell, func(r rune) bool { return r == ';' || r == '\n' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseXLSX(content []byte) ([]internal.ImportedProduct, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.ImportedProduct{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		cols := columns{name: -1}
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}
			if i < 3 && !cols.found() {
				if cols = inferColumns(cells); cols.found() {
					continue
				}
			}

			var (
				p        internal.Product
				category string
			)
			if cols.found() {
				p, category = cols.product(cells)
			} else {
				item, ok := lineToProduct(internal.SourceXLSX, i+1, strings.Join(cells, " "))
				if !ok {
					continue
				}
				p = item.Product
			}
			if strings.TrimSpace(p.Name) == "" {
				continue
			}
			if category == "" && len(f.GetSheetList()) > 1 {
				category = sheet
			}
			out = append(out, internal.ImportedProduct{
				LineNo:   i + 1,
				Source:   internal.SourceXLSX,
				RawLine:  strings.Join(cells, " | "),
				Category: category,
				Product:  p,
			})
		}
	}
	return out, nil
}

func parseHTMLTables(html string) ([]internal.ImportedProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	out := []internal.ImportedProduct{}
	lineNo := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cell.Text())
		})
		cols := inferColumns(headers)
		if !cols.found() {
			return
		}
		caption := util.NormalizeSpaces(table.Find("caption").First().Text())

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			p, category := cols.product(cells)
			if p.Name == "" {
				return
			}
			if category == "" {
				category = caption
			}
			lineNo++
			out = append(out, internal.ImportedProduct{
				LineNo:   lineNo,
				Source:   internal.SourceHTMLTable,
				RawLine:  strings.Join(cells, " | "),
				Category: category,
				Product:  p,
			})
		})
	})
	return out, nil
}

func isLikelyNoise(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func dedupeItems(items []internal.ImportedProduct) []internal.ImportedProduct {
	seen := map[string]struct{}{}
	out := make([]internal.ImportedProduct, 0, len(items))
	for _, item := range items {
		key := string(item.Source) + "|" + util.NormalizeName(item.Category) + "|" + util.NormalizeName(item.Product.Name) + "|" + item.Product.Price
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// findHeaderIndex returns the first header matching the earliest probe, so
// more specific probes go first.
func findHeaderIndex(headers []string, probes []string) int {
	for _, probe := range probes {
		for i, h := range headers {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}

// normalizeCells collapses spaces inside each cell but keeps line breaks,
// which separate list items.
func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		lines := util.SplitLines(c)
		for i := range lines {
			lines[i] = util.NormalizeSpaces(lines[i])
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return out
}
