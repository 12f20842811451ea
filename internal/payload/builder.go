// Package payload turns extracted intents into concrete backend requests.
// The deterministic builder substitutes bound parameters into the endpoint
// catalog. The generative builder asks a chat-completions model to pick
// the endpoint and falls back to the deterministic path when the model
// output cannot be used.
package payload

import (
	"context"
	"fmt"
	"strings"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/classify"
	"github.com/consulta-ai/consulta/internal/intent"
)

// QueryRequest is a fully resolved backend call.
type QueryRequest struct {
	Domain      classify.Domain
	Method      string
	Path        string
	Capability  catalog.Capability
	Description string
}

// Builder resolves an intent into a backend request. The question is
// passed alongside the intent; the deterministic builder ignores it, the
// generative builder feeds it to the model.
type Builder interface {
	Build(ctx context.Context, question string, it intent.Intent) (*QueryRequest, error)
}

// AmbiguousEndpointError is returned when the generative builder reports
// that more than one endpoint plausibly answers the question. Its reason
// is surfaced to the user instead of an answer.
type AmbiguousEndpointError struct {
	Reason string
}

func (e *AmbiguousEndpointError) Error() string {
	return "endpoint ambiguo: " + e.Reason
}

// DeterministicBuilder resolves intents purely from the endpoint catalog.
type DeterministicBuilder struct{}

// NewDeterministicBuilder creates a deterministic builder.
func NewDeterministicBuilder() *DeterministicBuilder {
	return &DeterministicBuilder{}
}

// Build looks up the intent's capability in the catalog and substitutes
// its bound parameters into the path template.
func (b *DeterministicBuilder) Build(_ context.Context, _ string, it intent.Intent) (*QueryRequest, error) {
	spec, ok := catalog.Lookup(it.Domain, it.Capability)
	if !ok {
		return nil, fmt.Errorf("capacidad %q no registrada para el dominio %q", it.Capability, it.Domain)
	}

	path := spec.Path(it.Params)
	if strings.Contains(path, "{") {
		return nil, fmt.Errorf("parámetros sin resolver en la ruta %q", path)
	}

	return &QueryRequest{
		Domain:      it.Domain,
		Method:      spec.Method,
		Path:        path,
		Capability:  spec.Capability,
		Description: spec.Description,
	}, nil
}

var _ Builder = (*DeterministicBuilder)(nil)
