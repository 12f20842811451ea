package intent

import (
	"regexp"
	"strings"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/classify"
)

// Intent is the outcome of running the rule table over a question: the
// capability to exercise plus the parameters bound from the text.
type Intent struct {
	RuleID     string
	Domain     classify.Domain
	Capability catalog.Capability
	Params     map[string]string
	// Terminal marks intents produced by short-circuiting rules.
	Terminal bool
	// Confident is false only for the stats fallback, which fires when no
	// rule recognized the question.
	Confident bool
}

// Rule is one entry of an ordered rule table. Match receives the question
// both raw and lower-cased; most rules work on the lower-cased form, but
// quoted-term extraction preserves the original casing.
type Rule struct {
	ID         string
	Capability catalog.Capability
	// Terminal rules stop the scan when they match. Non-terminal rules
	// accumulate, so one question can yield several intents.
	Terminal bool
	Match    func(raw, lower string) (map[string]string, bool)
}

var (
	reCountBooks     = regexp.MustCompile(`cu[aá]ntos\s+libros\s+ha\s+escrito\s+([\p{L}\s]+)`)
	reListAuthors    = regexp.MustCompile(`list(?:a|ame|ar)?\s*(\d+)?\s*autores`)
	reYear           = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	reQuotedTerm     = regexp.MustCompile(`"([^"]+)"`)
	reTopAuthors     = regexp.MustCompile(`top\s*(\d+)?\s*autores`)
	reYearRange      = regexp.MustCompile(`entre\s*(\d{4})\s*y\s*(\d{4})`)
	reCountPurchases = regexp.MustCompile(`cu[aá]ntas\s+compras\s+ha\s+(?:hecho|realizado)\s+([\p{L}\s]+)`)
	reListProducts   = regexp.MustCompile(`(?:lista|muestra)\s*(\d+)?\s*productos`)
	reProductsInYear = regexp.MustCompile(`(?:comprados|compras).*en\s+(\d{4})`)
	reTopProducts    = regexp.MustCompile(`(?:top|m[aá]s)\s*(\d+)?\s*(?:productos|art[ií]culos).*comprados`)
	reClientsCountry = regexp.MustCompile(`(?:cu[aá]ntos|n[uú]mero de)\s+clientes.*pa[ií]s\s+(?:de\s+)?([\p{L}\s]+)`)
)

// libraryRules is the ordered rule table for the library domain.
func libraryRules() []Rule {
	return []Rule{
		{
			ID:         "lib-count-books-by-author",
			Capability: catalog.CapCountBooksByAuthor,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reCountBooks.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"nombre": trimName(m[1])}, true
			},
		},
		{
			ID:         "lib-random-authors",
			Capability: catalog.CapRandomAuthors,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reListAuthors.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"n": orDefault(m[1], "3")}, true
			},
		},
		{
			ID:         "lib-books-by-year",
			Capability: catalog.CapBooksByYear,
			Match: func(_, lower string) (map[string]string, bool) {
				// A year range is handled by its own rule further down.
				if reYearRange.MatchString(lower) {
					return nil, false
				}
				m := reYear.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"anio": m[1]}, true
			},
		},
		{
			ID:         "lib-authors-by-nationality",
			Capability: catalog.CapAuthorsByNationality,
			Match: func(_, lower string) (map[string]string, bool) {
				country, ok := lookupNationality(lower)
				if !ok {
					return nil, false
				}
				return map[string]string{"pais": country}, true
			},
		},
		{
			ID:         "lib-books-by-title",
			Capability: catalog.CapBooksByTitle,
			Match: func(raw, _ string) (map[string]string, bool) {
				m := reQuotedTerm.FindStringSubmatch(raw)
				if m == nil {
					return nil, false
				}
				return map[string]string{"termino": strings.TrimSpace(m[1])}, true
			},
		},
		{
			ID:         "lib-top-authors",
			Capability: catalog.CapTopAuthors,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reTopAuthors.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"n": orDefault(m[1], "3")}, true
			},
		},
		{
			ID:         "lib-books-between-years",
			Capability: catalog.CapBooksBetweenYears,
			Terminal:   true,
			Match:      matchYearRange,
		},
		{
			ID:         "lib-most-recent-book",
			Capability: catalog.CapMostRecentBook,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				if !strings.Contains(lower, "más reciente") && !strings.Contains(lower, "mas reciente") {
					return nil, false
				}
				return map[string]string{}, true
			},
		},
		{
			ID:         "lib-oldest-book",
			Capability: catalog.CapOldestBook,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				if !strings.Contains(lower, "más antiguo") && !strings.Contains(lower, "mas antiguo") {
					return nil, false
				}
				return map[string]string{}, true
			},
		},
	}
}

// purchasesRules is the ordered rule table for the purchases domain. Every
// purchases rule short-circuits.
func purchasesRules() []Rule {
	return []Rule{
		{
			ID:         "cmp-count-purchases-by-client",
			Capability: catalog.CapCountPurchasesByClient,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reCountPurchases.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"nombre": trimName(m[1])}, true
			},
		},
		{
			ID:         "cmp-random-products",
			Capability: catalog.CapRandomProducts,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reListProducts.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"n": orDefault(m[1], "3")}, true
			},
		},
		{
			ID:         "cmp-products-by-year",
			Capability: catalog.CapProductsByYear,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reProductsInYear.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"anio": m[1]}, true
			},
		},
		{
			ID:         "cmp-top-products",
			Capability: catalog.CapTopProducts,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reTopProducts.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"n": orDefault(m[1], "3")}, true
			},
		},
		{
			ID:         "cmp-clients-by-country",
			Capability: catalog.CapClientsByCountry,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				m := reClientsCountry.FindStringSubmatch(lower)
				if m == nil {
					return nil, false
				}
				return map[string]string{"pais": capitalizeWords(trimName(m[1]))}, true
			},
		},
		{
			ID:         "cmp-most-active-client",
			Capability: catalog.CapMostActiveClient,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				if !strings.Contains(lower, "cliente más activo") &&
					!strings.Contains(lower, "cliente mas activo") &&
					!strings.Contains(lower, "cliente que más ha comprado") {
					return nil, false
				}
				return map[string]string{}, true
			},
		},
		{
			ID:         "cmp-out-of-stock",
			Capability: catalog.CapOutOfStock,
			Terminal:   true,
			Match: func(_, lower string) (map[string]string, bool) {
				if !strings.Contains(lower, "sin stock") && !strings.Contains(lower, "fuera de stock") {
					return nil, false
				}
				return map[string]string{}, true
			},
		},
		{
			ID:         "cmp-products-between-years",
			Capability: catalog.CapProductsBetweenYears,
			Terminal:   true,
			Match:      matchYearRange,
		},
	}
}

// matchYearRange binds an inclusive year range, normalizing the bounds so
// desde <= hasta even when the question states them reversed.
func matchYearRange(_, lower string) (map[string]string, bool) {
	m := reYearRange.FindStringSubmatch(lower)
	if m == nil {
		return nil, false
	}
	desde, hasta := m[1], m[2]
	if desde > hasta {
		desde, hasta = hasta, desde
	}
	return map[string]string{"desde": desde, "hasta": hasta}, true
}

// trimName strips trailing question marks and whitespace from a captured
// free-text name.
func trimName(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "?¿"))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// capitalizeWords upper-cases the first letter of each word, so country
// captures like "estados unidos" render as stored ("Estados Unidos").
func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
