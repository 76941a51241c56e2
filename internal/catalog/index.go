package catalog

import (
	"vitrina/internal"
	"vitrina/internal/util"
)

type Location struct {
	CategoryID string
	Position   int
	Product    internal.Product
}

type Index struct {
	ByProductID        map[string]Location
	ByName             map[string][]Location
	TokenToProductIDs  map[string]map[string]struct{}
	NormalizedNameByID map[string]string
}

func BuildIndex(c internal.Catalog) *Index {
	idx := &Index{
		ByProductID:        map[string]Location{},
		ByName:             map[string][]Location{},
		TokenToProductIDs:  map[string]map[string]struct{}{},
		NormalizedNameByID: map[string]string{},
	}

	for _, cat := range c.Categories {
		for pos, p := range c.Products[cat.ID] {
			loc := Location{CategoryID: cat.ID, Position: pos, Product: p}
			idx.ByProductID[p.ID] = loc

			norm := util.NormalizeName(p.Name)
			idx.NormalizedNameByID[p.ID] = norm
			idx.ByName[norm] = append(idx.ByName[norm], loc)

			for _, token := range util.Tokenize(p.Name) {
				if _, ok := idx.TokenToProductIDs[token]; !ok {
					idx.TokenToProductIDs[token] = map[string]struct{}{}
				}
				idx.TokenToProductIDs[token][p.ID] = struct{}{}
			}
		}
	}

	return idx
}
