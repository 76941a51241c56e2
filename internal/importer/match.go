package importer

import (
	"sort"

	"vitrina/internal"
	"vitrina/internal/catalog"
	"vitrina/internal/util"
)

type Candidate struct {
	ProductID  string
	CategoryID string
	Name       string
	Score      float64
}

// Matcher finds the existing product an imported line refers to, so imports
// update products instead of duplicating them.
type Matcher struct {
	index     *catalog.Index
	threshold float64
	minGap    float64
}

func NewMatcher(c internal.Catalog, threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Matcher{index: catalog.BuildIndex(c), threshold: threshold, minGap: 0.05}
}

func (m *Matcher) Match(name string) (Candidate, bool) {
	normalized := util.NormalizeName(name)
	if normalized == "" {
		return Candidate{}, false
	}

	if exact := m.index.ByName[normalized]; len(exact) > 0 {
		// several products share the name: the first in display order wins
		loc := exact[0]
		return Candidate{ProductID: loc.Product.ID, CategoryID: loc.CategoryID, Name: loc.Product.Name, Score: 1}, true
	}

	candidates := m.Rank(normalized)
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	top := candidates[0]
	gap := top.Score
	if len(candidates) > 1 {
		gap = top.Score - candidates[1].Score
	}
	if top.Score >= m.threshold && gap >= m.minGap {
		return top, true
	}
	return Candidate{}, false
}

// Rank scores products sharing at least one token with the query, best first.
func (m *Matcher) Rank(query string) []Candidate {
	normalized := util.NormalizeName(query)
	queryTokens := util.Tokenize(normalized)
	ids := map[string]struct{}{}
	for _, token := range queryTokens {
		for id := range m.index.TokenToProductIDs[token] {
			ids[id] = struct{}{}
		}
	}

	out := make([]Candidate, 0, len(ids))
	for id := range ids {
		loc := m.index.ByProductID[id]
		candidateName := m.index.NormalizedNameByID[id]
		score := scoreName(normalized, candidateName, queryTokens, util.Tokenize(candidateName))
		out = append(out, Candidate{ProductID: id, CategoryID: loc.CategoryID, Name: loc.Product.Name, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// Resolve sets the product id of every item that matches an existing
// product. Unmatched items keep an empty id and are added as new products.
func (m *Matcher) Resolve(items []internal.ImportedProduct) []internal.ImportedProduct {
	out := make([]internal.ImportedProduct, len(items))
	for i, item := range items {
		item.Product.ID = ""
		if hit, ok := m.Match(item.Product.Name); ok {
			item.Product.ID = hit.ProductID
		}
		out[i] = item
	}
	return out
}

func scoreName(query, candidate string, queryTokens, candidateTokens []string) float64 {
	dice := util.DiceCoefficient(query, candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return dice
	}

	set := map[string]struct{}{}
	for _, t := range candidateTokens {
		set[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := set[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}
