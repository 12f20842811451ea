package payload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/classify"
	"github.com/consulta-ai/consulta/internal/intent"
	"github.com/consulta-ai/consulta/internal/observability"
)

func libraryIntent(cap catalog.Capability, params map[string]string) intent.Intent {
	return intent.Intent{
		RuleID:     "test",
		Domain:     classify.DomainLibrary,
		Capability: cap,
		Params:     params,
	}
}

func TestDeterministicBuildSubstitutesParams(t *testing.T) {
	b := NewDeterministicBuilder()

	req, err := b.Build(context.Background(), "", libraryIntent(catalog.CapBooksByYear, map[string]string{"anio": "1982"}))
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/libros/buscar/por-anio/1982", req.Path)
	assert.Equal(t, catalog.CapBooksByYear, req.Capability)
}

func TestDeterministicBuildEscapesPathValues(t *testing.T) {
	b := NewDeterministicBuilder()

	req, err := b.Build(context.Background(), "", libraryIntent(catalog.CapBooksByTitle, map[string]string{"termino": "casa de"}))
	require.NoError(t, err)

	assert.Equal(t, "/libros/buscar/titulo/casa%20de", req.Path)
}

func TestDeterministicBuildRejectsMissingParams(t *testing.T) {
	b := NewDeterministicBuilder()

	_, err := b.Build(context.Background(), "", libraryIntent(catalog.CapBooksByYear, map[string]string{}))
	assert.Error(t, err)
}

func TestDeterministicBuildRejectsUnknownCapability(t *testing.T) {
	b := NewDeterministicBuilder()

	_, err := b.Build(context.Background(), "", libraryIntent("no_such_capability", nil))
	assert.Error(t, err)
}

func TestGenerativeBuildUsesModelRoute(t *testing.T) {
	fake := &FakeCompleter{Response: `{"metodo": "GET", "ruta": "/libros/buscar/por-anio/1982"}`}
	b := NewGenerativeBuilder(fake, observability.Nop())

	req, err := b.Build(context.Background(), "libros de 1982",
		libraryIntent(catalog.CapBooksByYear, map[string]string{"anio": "1982"}))
	require.NoError(t, err)

	assert.Equal(t, "/libros/buscar/por-anio/1982", req.Path)
	assert.Equal(t, catalog.CapBooksByYear, req.Capability)
	require.Len(t, fake.Calls, 1)
	assert.Contains(t, fake.Calls[0][1], "libros de 1982")
}

func TestGenerativeBuildStripsCodeFences(t *testing.T) {
	fake := &FakeCompleter{Response: "```json\n{\"metodo\": \"GET\", \"ruta\": \"/stats\"}\n```"}
	b := NewGenerativeBuilder(fake, observability.Nop())

	req, err := b.Build(context.Background(), "estadísticas",
		libraryIntent(catalog.CapLibraryStats, nil))
	require.NoError(t, err)
	assert.Equal(t, "/stats", req.Path)
}

func TestGenerativeBuildAmbiguityIsSurfaced(t *testing.T) {
	fake := &FakeCompleter{Response: `{"ambiguo": "la pregunta mezcla autores y años"}`}
	b := NewGenerativeBuilder(fake, observability.Nop())

	_, err := b.Build(context.Background(), "pregunta rara",
		libraryIntent(catalog.CapBooksByYear, map[string]string{"anio": "1982"}))

	var ambErr *AmbiguousEndpointError
	require.ErrorAs(t, err, &ambErr)
	assert.Equal(t, "la pregunta mezcla autores y años", ambErr.Reason)
}

func TestGenerativeBuildFallsBackOnGarbageOutput(t *testing.T) {
	fake := &FakeCompleter{Response: "no tengo ni idea"}
	b := NewGenerativeBuilder(fake, observability.Nop())

	req, err := b.Build(context.Background(), "libros de 1982",
		libraryIntent(catalog.CapBooksByYear, map[string]string{"anio": "1982"}))
	require.NoError(t, err)

	// Deterministic fallback built the request from the catalog.
	assert.Equal(t, "/libros/buscar/por-anio/1982", req.Path)
}

func TestGenerativeBuildFallsBackOnCompleterError(t *testing.T) {
	fake := &FakeCompleter{Err: errors.New("connection refused")}
	b := NewGenerativeBuilder(fake, observability.Nop())

	req, err := b.Build(context.Background(), "libros de 1982",
		libraryIntent(catalog.CapBooksByYear, map[string]string{"anio": "1982"}))
	require.NoError(t, err)
	assert.Equal(t, "/libros/buscar/por-anio/1982", req.Path)
}

func TestGenerativeBuildFallsBackOnUnknownRoute(t *testing.T) {
	fake := &FakeCompleter{Response: `{"metodo": "GET", "ruta": "/rutas/inventadas/123"}`}
	b := NewGenerativeBuilder(fake, observability.Nop())

	req, err := b.Build(context.Background(), "libros de 1982",
		libraryIntent(catalog.CapBooksByYear, map[string]string{"anio": "1982"}))
	require.NoError(t, err)
	assert.Equal(t, "/libros/buscar/por-anio/1982", req.Path)
}
