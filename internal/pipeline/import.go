package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"vitrina/internal/catalog"
	"vitrina/internal/importer"
)

var ErrUnreadable = errors.New("unreadable document")

type ImportReport struct {
	Kind    importer.Kind `json:"kind"`
	Lines   int           `json:"lines"`
	Matched int           `json:"matched"`
	Added   int           `json:"added"`
	Updated int           `json:"updated"`
	// CategoriesCreated counts categories named by the document that did not
	// exist yet.
	CategoriesCreated int    `json:"categoriesCreated"`
	Restored          bool   `json:"restored"`
	Version           string `json:"version"`
}

// ImportDocument merges the product lines of a price list into the catalog.
// Lines naming an existing product update it.
func (s *Session) ImportDocument(ctx context.Context, kind importer.Kind, content []byte, threshold float64) (ImportReport, error) {
	items, err := importer.Parse(kind, content)
	if err != nil {
		return ImportReport{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	report := ImportReport{Kind: kind, Lines: len(items)}
	turn, err := s.Update(ctx, "import:"+string(kind), func(ed *catalog.Editor) error {
		resolved := importer.NewMatcher(ed.Snapshot(), threshold).Resolve(items)
		for _, item := range resolved {
			if item.Product.ID != "" {
				report.Matched++
			}
		}
		res, err := ed.ImportProducts(resolved)
		if err != nil {
			return err
		}
		report.Added = res.Added
		report.Updated = res.Updated
		report.CategoriesCreated = res.CategoriesCreated
		return nil
	})
	if err != nil {
		return ImportReport{}, err
	}
	report.Version = turn.Version
	s.logger.Info("document imported",
		zap.String("kind", string(kind)),
		zap.Int("lines", report.Lines),
		zap.Int("matched", report.Matched),
		zap.Int("added", report.Added),
	)
	return report, nil
}

// ImportHTML restores a previously exported catalog page. Any other HTML is
// read for product tables instead.
func (s *Session) ImportHTML(ctx context.Context, content []byte, threshold float64) (ImportReport, error) {
	restored, err := importer.ReadExported(bytes.NewReader(content))
	if errors.Is(err, importer.ErrNotExported) {
		return s.ImportDocument(ctx, importer.KindHTML, content, threshold)
	}
	if err != nil {
		return ImportReport{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	turn, err := s.Update(ctx, "import:exported", func(ed *catalog.Editor) error {
		ed.Replace(restored)
		return nil
	})
	if err != nil {
		return ImportReport{}, err
	}
	return ImportReport{
		Kind:     importer.KindHTML,
		Lines:    turn.Catalog.ProductCount(),
		Added:    turn.Catalog.ProductCount(),
		Restored: true,
		Version:  turn.Version,
	}, nil
}

// ImportJSON replaces the catalog with a JSON tree in any accepted layout.
func (s *Session) ImportJSON(ctx context.Context, r io.Reader) (Turn, error) {
	tree, err := catalog.DecodeTree(r)
	if err != nil {
		return Turn{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return s.Update(ctx, "import:json", func(ed *catalog.Editor) error {
		ed.Replace(tree)
		return nil
	})
}
