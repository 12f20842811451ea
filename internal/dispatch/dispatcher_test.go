package dispatch

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-ai/consulta/internal/backend"
	"github.com/consulta-ai/consulta/internal/cache"
	"github.com/consulta-ai/consulta/internal/intent"
	"github.com/consulta-ai/consulta/internal/observability"
	"github.com/consulta-ai/consulta/internal/payload"
)

type fixture struct {
	dispatcher *Dispatcher
	libHits    *atomic.Int64
	compHits   *atomic.Int64
}

func newFixture(t *testing.T, builder payload.Builder) *fixture {
	t.Helper()

	var libHits, compHits atomic.Int64

	libMux := http.NewServeMux()
	libMux.HandleFunc("/autores/", func(w http.ResponseWriter, r *http.Request) {
		libHits.Add(1)
		writeJSON(t, w, []map[string]any{
			{"id": 1, "nombre": "Gabriel García Márquez", "nacionalidad": "Colombia"},
			{"id": 2, "nombre": "Isabel Allende", "nacionalidad": "Chile"},
		})
	})
	libMux.HandleFunc("/libros/autor/2", func(w http.ResponseWriter, r *http.Request) {
		libHits.Add(1)
		writeJSON(t, w, []map[string]any{
			{"id": 2, "titulo": "La casa de los espíritus", "autor_id": 2, "anio_publicacion": 1982},
			{"id": 3, "titulo": "Paula", "autor_id": 2, "anio_publicacion": 1994},
		})
	})
	libMux.HandleFunc("/libros/buscar/por-anio/1982", func(w http.ResponseWriter, r *http.Request) {
		libHits.Add(1)
		writeJSON(t, w, []map[string]any{
			{"id": 2, "titulo": "La casa de los espíritus", "autor_id": 2, "anio_publicacion": 1982},
		})
	})
	libSrv := httptest.NewServer(libMux)
	t.Cleanup(libSrv.Close)

	compMux := http.NewServeMux()
	compMux.HandleFunc("/productos/sin-stock", func(w http.ResponseWriter, r *http.Request) {
		compHits.Add(1)
		writeJSON(t, w, []map[string]any{})
	})
	compMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		compHits.Add(1)
		writeJSON(t, w, map[string]any{"clientes": 5, "productos": 8, "compras": 10})
	})
	compSrv := httptest.NewServer(compMux)
	t.Cleanup(compSrv.Close)

	logger := observability.Nop()
	lib := backend.NewClient("biblioteca", libSrv.URL, 2*time.Second, logger)
	comp := backend.NewClient("compras", compSrv.URL, 2*time.Second, logger)
	exec := backend.NewExecutor(lib, comp, logger, backend.WithRand(rand.New(rand.NewSource(1))))

	if builder == nil {
		builder = payload.NewDeterministicBuilder()
	}

	return &fixture{
		dispatcher: NewDispatcher(builder, exec, cache.NewMemoryClient(100), time.Minute, logger),
		libHits:    &libHits,
		compHits:   &compHits,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAnswerEmptyQuestionRejectedBeforeAnyBackendCall(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.dispatcher.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, intent.ErrEmptyQuery)
	assert.Zero(t, f.libHits.Load())
	assert.Zero(t, f.compHits.Load())
}

func TestAnswerCountBooksEndToEnd(t *testing.T) {
	f := newFixture(t, nil)

	answer, err := f.dispatcher.Answer(context.Background(), "¿Cuántos libros ha escrito Isabel Allende?")
	require.NoError(t, err)

	assert.Contains(t, answer, "Isabel Allende escribió 2 libro(s)")
	assert.Contains(t, answer, "La casa de los espíritus")
}

func TestAnswerNoDomainQuestion(t *testing.T) {
	f := newFixture(t, nil)

	answer, err := f.dispatcher.Answer(context.Background(), "¿qué tiempo hace hoy?")
	require.NoError(t, err)

	assert.Equal(t, msgNoDomain, answer)
	assert.Zero(t, f.libHits.Load())
	assert.Zero(t, f.compHits.Load())
}

func TestAnswerOutOfStockNinguno(t *testing.T) {
	f := newFixture(t, nil)

	answer, err := f.dispatcher.Answer(context.Background(), "¿qué productos están sin stock?")
	require.NoError(t, err)
	assert.Equal(t, "Productos sin stock: Ninguno.", answer)
}

func TestAnswerPurchasesStatsFallback(t *testing.T) {
	f := newFixture(t, nil)

	answer, err := f.dispatcher.Answer(context.Background(), "cuéntame de los clientes")
	require.NoError(t, err)
	assert.Equal(t, "Estadísticas: 5 clientes, 8 productos, 10 compras.", answer)
}

func TestAnswerCachesRepeatedQuestions(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.dispatcher.Answer(context.Background(), "¿Cuántos libros ha escrito Isabel Allende?")
	require.NoError(t, err)
	hitsAfterFirst := f.libHits.Load()

	second, err := f.dispatcher.Answer(context.Background(), "¿cuántos   libros ha escrito ISABEL ALLENDE?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, hitsAfterFirst, f.libHits.Load(), "second answer must come from cache")
}

func TestAnswerDegradesWhenBackendIsDown(t *testing.T) {
	logger := observability.Nop()
	lib := backend.NewClient("biblioteca", "http://127.0.0.1:1", 200*time.Millisecond, logger)
	comp := backend.NewClient("compras", "http://127.0.0.1:1", 200*time.Millisecond, logger)
	exec := backend.NewExecutor(lib, comp, logger)

	d := NewDispatcher(payload.NewDeterministicBuilder(), exec, nil, 0, logger)

	answer, err := d.Answer(context.Background(), "lista 3 autores")
	require.NoError(t, err)
	assert.Contains(t, answer, "no está disponible")
}

func TestAnswerSurfacesAmbiguityReport(t *testing.T) {
	fake := &payload.FakeCompleter{Response: `{"ambiguo": "podría ser por año o por autor"}`}
	f := newFixture(t, payload.NewGenerativeBuilder(fake, observability.Nop()))

	answer, err := f.dispatcher.Answer(context.Background(), "libros de 1982")
	require.NoError(t, err)

	assert.Equal(t, "⚠️ Consulta ambigua: podría ser por año o por autor", answer)
}

func TestProvisionReturnsChunksAndProvenance(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.dispatcher.Provision(context.Background(), "libros publicados en 1982")
	require.NoError(t, err)

	require.Len(t, res.Chunks, 1)
	assert.Contains(t, res.Chunks[0].Text, "La casa de los espíritus")
	assert.Contains(t, res.Chunks[0].Source, "/libros/buscar/por-anio/1982")
	assert.Equal(t, []string{"biblioteca"}, res.Provenance)
}

func TestProvisionNoDomain(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.dispatcher.Provision(context.Background(), "háblame del clima")
	assert.ErrorIs(t, err, ErrNoDomain)
}
