// Package intent turns a classified question into one or more executable
// intents by running an ordered, first-match-wins rule table per domain.
// Terminal rules stop the scan; accumulating rules let several aspects of
// the same question (a year, a nationality, a quoted title) each produce
// an intent. When nothing matches, a low-confidence stats fallback fires.
package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/classify"
)

// ErrEmptyQuery is returned for blank questions, before any rule runs.
var ErrEmptyQuery = errors.New("la consulta no puede estar vacía")

// Extractor runs the per-domain rule tables.
type Extractor struct {
	rules map[classify.Domain][]Rule
}

// NewExtractor creates an extractor with the built-in rule tables.
func NewExtractor() *Extractor {
	return &Extractor{
		rules: map[classify.Domain][]Rule{
			classify.DomainLibrary:   libraryRules(),
			classify.DomainPurchases: purchasesRules(),
		},
	}
}

// Extract runs the domain's rule table over the question and returns the
// matched intents in rule order. The result is never empty on success: if
// no rule matches, the domain's stats fallback is returned.
func (e *Extractor) Extract(domain classify.Domain, question string) ([]Intent, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuery
	}

	rules, ok := e.rules[domain]
	if !ok {
		return nil, fmt.Errorf("no hay reglas para el dominio %q", domain)
	}

	lower := strings.ToLower(question)

	var intents []Intent
	for _, r := range rules {
		params, matched := r.Match(question, lower)
		if !matched {
			continue
		}

		intents = append(intents, Intent{
			RuleID:     r.ID,
			Domain:     domain,
			Capability: r.Capability,
			Params:     params,
			Terminal:   r.Terminal,
			Confident:  true,
		})

		if r.Terminal {
			return intents, nil
		}
	}

	if len(intents) == 0 {
		return []Intent{fallbackIntent(domain)}, nil
	}

	return intents, nil
}

// fallbackIntent is the low-confidence stats intent for questions no rule
// recognized.
func fallbackIntent(domain classify.Domain) Intent {
	cap := catalog.CapLibraryStats
	id := "lib-stats-fallback"
	if domain == classify.DomainPurchases {
		cap = catalog.CapPurchasesStats
		id = "cmp-stats-fallback"
	}
	return Intent{
		RuleID:     id,
		Domain:     domain,
		Capability: cap,
		Params:     map[string]string{},
	}
}
