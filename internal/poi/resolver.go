// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

package poi

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/unicode/norm"
)

// DefaultMatchThreshold is the minimum similarity a fuzzy match must reach.
const DefaultMatchThreshold = 0.6

// Normalize prepares free text for lookup: NFKC, trimmed, lowercased,
// internal whitespace collapsed to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFKC.String(s))), " ")
}

type candidate struct {
	text string // normalized, spaces removed
	id   string
}

// Resolver maps player input to a canonical POI. It is safe for concurrent
// use because it never mutates after construction.
type Resolver struct {
	catalog   *Catalog
	aliases   map[string]string
	canonical map[string]string
	fuzzy     []candidate
	metric    strutil.StringMetric
	threshold float64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithThreshold overrides the fuzzy match threshold.
func WithThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		if threshold > 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

// NewResolver indexes the catalog for lookup.
func NewResolver(c *Catalog, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		catalog:   c,
		aliases:   make(map[string]string),
		canonical: make(map[string]string),
		metric:    metrics.NewSorensenDice(),
		threshold: DefaultMatchThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}

	defs := c.All()
	for _, d := range defs {
		for _, a := range d.Aliases {
			r.aliases[a] = d.ID
		}
		r.canonical[d.ID] = d.ID
		r.canonical[Normalize(d.Name)] = d.ID
	}

	// Candidate order decides ties: canonical names, then short names, then aliases.
	for _, d := range defs {
		r.addCandidate(d.Name, d.ID)
	}
	for _, d := range defs {
		if d.ShortName != "" {
			r.addCandidate(d.ShortName, d.ID)
		}
	}
	for _, d := range defs {
		for _, a := range d.Aliases {
			r.addCandidate(a, d.ID)
		}
	}
	return r
}

func (r *Resolver) addCandidate(text, id string) {
	r.fuzzy = append(r.fuzzy, candidate{text: squash(Normalize(text)), id: id})
}

// squash removes spaces so bigram similarity is not skewed by word breaks.
func squash(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// Resolve returns the POI that input names, if any.
func (r *Resolver) Resolve(input string) (*Definition, bool) {
	key := Normalize(input)
	if key == "" {
		return nil, false
	}

	if id, ok := r.aliases[key]; ok {
		return r.catalog.Get(id)
	}
	if id, ok := r.canonical[key]; ok {
		return r.catalog.Get(id)
	}

	id, score := r.bestMatch(squash(key))
	if id == "" || score < r.threshold {
		return nil, false
	}
	return r.catalog.Get(id)
}

// Score returns the best fuzzy candidate for input and its similarity.
func (r *Resolver) Score(input string) (string, float64) {
	return r.bestMatch(squash(Normalize(input)))
}

func (r *Resolver) bestMatch(text string) (string, float64) {
	bestID := ""
	best := 0.0
	for _, c := range r.fuzzy {
		score := strutil.Similarity(text, c.text, r.metric)
		if score > best {
			best = score
			bestID = c.id
		}
	}
	return bestID, best
}
