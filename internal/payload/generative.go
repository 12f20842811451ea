package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/intent"
	"github.com/consulta-ai/consulta/internal/observability"
)

// GenerativeBuilder asks a model to choose the backend endpoint for a
// question. Any model failure, unparseable output, or route not present in
// the catalog falls back to the deterministic builder; only an explicit
// ambiguity report from the model is surfaced as an error.
type GenerativeBuilder struct {
	completer Completer
	fallback  *DeterministicBuilder
	logger    *observability.Logger
}

// NewGenerativeBuilder creates a generative builder backed by the given
// completer.
func NewGenerativeBuilder(completer Completer, logger *observability.Logger) *GenerativeBuilder {
	if logger == nil {
		logger = observability.Nop()
	}
	return &GenerativeBuilder{
		completer: completer,
		fallback:  NewDeterministicBuilder(),
		logger:    logger,
	}
}

const systemPrompt = `Eres un selector de endpoints para una API en español.
Se te da una pregunta y la lista de endpoints disponibles. Responde SOLO con
un objeto JSON, sin texto adicional, con esta forma:
{"metodo": "GET", "ruta": "/ruta/concreta/con/valores"}
Sustituye los parámetros de la ruta por los valores extraídos de la pregunta.
Si más de un endpoint podría responder la pregunta y no puedes decidir,
responde {"ambiguo": "motivo breve"}.`

// modelChoice is the JSON shape the model is instructed to emit.
type modelChoice struct {
	Metodo  string `json:"metodo"`
	Ruta    string `json:"ruta"`
	Ambiguo string `json:"ambiguo"`
}

// Build asks the model to pick an endpoint for the question. The model's
// route must match one of the catalog's templates for the domain;
// otherwise the deterministic builder decides.
func (b *GenerativeBuilder) Build(ctx context.Context, question string, it intent.Intent) (*QueryRequest, error) {
	user := fmt.Sprintf("Pregunta: %s\n\nEndpoints disponibles:\n%s", question, catalog.PromptText(it.Domain))

	raw, err := b.completer.Complete(ctx, systemPrompt, user)
	if err != nil {
		b.logger.Warn().Err(err).Str("domain", string(it.Domain)).Msg("model completion failed, using deterministic builder")
		return b.fallback.Build(ctx, question, it)
	}

	choice, err := parseModelChoice(raw)
	if err != nil {
		b.logger.Warn().Err(err).Str("raw_output", truncate(raw, 200)).Msg("unparseable model output, using deterministic builder")
		return b.fallback.Build(ctx, question, it)
	}

	if choice.Ambiguo != "" {
		return nil, &AmbiguousEndpointError{Reason: choice.Ambiguo}
	}

	spec, ok := matchTemplate(it, choice.Ruta)
	if !ok {
		b.logger.Warn().Str("ruta", choice.Ruta).Msg("model route not in catalog, using deterministic builder")
		return b.fallback.Build(ctx, question, it)
	}

	method := strings.ToUpper(strings.TrimSpace(choice.Metodo))
	if method == "" {
		method = spec.Method
	}

	return &QueryRequest{
		Domain:      it.Domain,
		Method:      method,
		Path:        choice.Ruta,
		Capability:  spec.Capability,
		Description: spec.Description,
	}, nil
}

// parseModelChoice extracts the JSON object from the model output,
// tolerating fenced code blocks and surrounding prose.
func parseModelChoice(raw string) (*modelChoice, error) {
	s := stripCodeFences(raw)

	// Models sometimes wrap the object in explanation text. Cut to the
	// outermost braces before parsing.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	s = s[start : end+1]

	var choice modelChoice
	if err := json.Unmarshal([]byte(s), &choice); err != nil {
		return nil, fmt.Errorf("parse model choice: %w", err)
	}

	if choice.Ambiguo == "" && strings.TrimSpace(choice.Ruta) == "" {
		return nil, fmt.Errorf("model choice has no route")
	}

	choice.Ruta = strings.TrimSpace(choice.Ruta)
	if choice.Ruta != "" && !strings.HasPrefix(choice.Ruta, "/") {
		choice.Ruta = "/" + choice.Ruta
	}

	return &choice, nil
}

// stripCodeFences removes a surrounding ``` or ```json fence, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// matchTemplate checks the model's concrete route against the domain's
// path templates, treating {param} segments as wildcards. Several
// capabilities can share a template; the extracted intent's capability
// breaks the tie.
func matchTemplate(it intent.Intent, route string) (catalog.EndpointSpec, bool) {
	routeSegs := splitPath(route)

	var candidates []catalog.EndpointSpec
	for _, spec := range catalog.ForDomain(it.Domain) {
		tmplSegs := splitPath(spec.PathTemplate)
		if len(tmplSegs) != len(routeSegs) {
			continue
		}

		match := true
		for i, t := range tmplSegs {
			if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
				continue
			}
			if t != routeSegs[i] {
				match = false
				break
			}
		}
		if match {
			candidates = append(candidates, spec)
		}
	}

	for _, spec := range candidates {
		if spec.Capability == it.Capability {
			return spec, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return catalog.EndpointSpec{}, false
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Builder = (*GenerativeBuilder)(nil)
