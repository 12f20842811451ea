// Package classify decides which backend domain a free-text question
// belongs to, using disjoint keyword sets per domain.
package classify

import "strings"

// Domain identifies a backend subject area.
type Domain string

const (
	// DomainLibrary covers books, authors and publications.
	DomainLibrary Domain = "biblioteca"
	// DomainPurchases covers products, clients, purchases and stock.
	DomainPurchases Domain = "compras"
	// DomainAmbiguous means keywords from both domains matched.
	DomainAmbiguous Domain = "ambiguous"
	// DomainNone means no domain keyword matched.
	DomainNone Domain = "none"
)

// Classifier performs coarse keyword-set domain detection.
type Classifier struct {
	libraryTerms   []string
	purchasesTerms []string
}

// NewClassifier creates a classifier with the default Spanish keyword sets.
func NewClassifier() *Classifier {
	return &Classifier{
		libraryTerms: []string{
			"libro", "autor", "editorial", "publicación", "publicacion",
			"biblioteca", "escrito", "título", "titulo",
		},
		purchasesTerms: []string{
			"producto", "cliente", "compra", "stock", "comprado", "artículo", "articulo",
		},
	}
}

// Classify returns the domain for a question. A question matching keywords
// from both sets is DomainAmbiguous; matching neither is DomainNone.
// Matching is substring-based over the lower-cased question, so singular
// keywords also cover their plural forms. No side effects, no I/O.
func (c *Classifier) Classify(question string) Domain {
	q := strings.ToLower(question)

	library := containsAny(q, c.libraryTerms)
	purchases := containsAny(q, c.purchasesTerms)

	switch {
	case library && purchases:
		return DomainAmbiguous
	case library:
		return DomainLibrary
	case purchases:
		return DomainPurchases
	default:
		return DomainNone
	}
}

// Backends returns the concrete backend domains to consult for a
// classification result. DomainAmbiguous broadcasts to both, in
// library-then-purchases order; DomainNone yields nothing.
func Backends(d Domain) []Domain {
	switch d {
	case DomainLibrary:
		return []Domain{DomainLibrary}
	case DomainPurchases:
		return []Domain{DomainPurchases}
	case DomainAmbiguous:
		return []Domain{DomainLibrary, DomainPurchases}
	default:
		return nil
	}
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
