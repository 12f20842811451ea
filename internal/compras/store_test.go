package compras

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-ai/consulta/internal/observability"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "compras.db")
	store, err := Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Seed(ctx, nil))
	return store
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := 0
	require.NoError(t, store.Seed(ctx, func() { rows++ }))
	assert.Equal(t, SeedRowCount(), rows)

	st, err := store.Estadisticas(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Clientes: 5, Productos: 8, Compras: 10}, st)
}

func TestCountPurchasesByClientMatchesPartialName(t *testing.T) {
	store := newTestStore(t)

	total, err := store.CountPurchasesByClient(context.Background(), "maría")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestCountPurchasesByClientUnknown(t *testing.T) {
	store := newTestStore(t)

	total, err := store.CountPurchasesByClient(context.Background(), "nadie")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProductosSinStock(t *testing.T) {
	store := newTestStore(t)

	productos, err := store.ProductosSinStock(context.Background())
	require.NoError(t, err)
	require.Len(t, productos, 2)
	assert.Equal(t, "Auriculares Bluetooth", productos[0].Nombre)
	assert.Equal(t, "Hub USB-C", productos[1].Nombre)
}

func TestProductosCompradosEnAnio(t *testing.T) {
	store := newTestStore(t)

	productos, err := store.ProductosCompradosEnAnio(context.Background(), 2020)
	require.NoError(t, err)
	require.Len(t, productos, 2)
	assert.Equal(t, "Ratón inalámbrico", productos[0].Nombre)
	assert.Equal(t, "Monitor 27 pulgadas", productos[1].Nombre)
}

func TestProductosCompradosEntreEsInclusivo(t *testing.T) {
	store := newTestStore(t)

	productos, err := store.ProductosCompradosEntre(context.Background(), 2019, 2020)
	require.NoError(t, err)

	nombres := make([]string, 0, len(productos))
	for _, p := range productos {
		nombres = append(nombres, p.Nombre)
	}
	assert.Equal(t, []string{"Teclado mecánico", "Ratón inalámbrico", "Monitor 27 pulgadas", "Alfombrilla XXL"}, nombres)
}

func TestTopProductosOrdenaPorUnidades(t *testing.T) {
	store := newTestStore(t)

	top, err := store.TopProductos(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, ProductoTotal{Nombre: "Ratón inalámbrico", Total: 6}, top[0])
	assert.Equal(t, ProductoTotal{Nombre: "Teclado mecánico", Total: 3}, top[1])
}

func TestTopProductosConCeroDevuelveVacio(t *testing.T) {
	store := newTestStore(t)

	top, err := store.TopProductos(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestClientesPorPaisEsInsensibleAMayusculas(t *testing.T) {
	store := newTestStore(t)

	for _, pais := range []string{"España", "ESPAÑA", "españa"} {
		total, err := store.ClientesPorPais(context.Background(), pais)
		require.NoError(t, err)
		assert.Equal(t, 2, total, pais)
	}
}

func TestClienteMasActivo(t *testing.T) {
	store := newTestStore(t)

	ct, err := store.ClienteMasActivo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "María López García", ct.Nombre)
	assert.Equal(t, 4, ct.Total)
}

func TestClienteMasActivoSinCompras(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "vacia.db")
	store, err := Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	_, err = store.ClienteMasActivo(context.Background())
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestHandlerTopProductos(t *testing.T) {
	h := NewHandler(newTestStore(t), observability.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/productos/top/3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var top []ProductoTotal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&top))
	require.Len(t, top, 3)
	assert.Equal(t, "Ratón inalámbrico", top[0].Nombre)
}

func TestHandlerComprasDeCliente(t *testing.T) {
	h := NewHandler(newTestStore(t), observability.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/compras/cliente/juan/total")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Nombre string `json:"nombre"`
		Total  int    `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "juan", body.Nombre)
	assert.Equal(t, 2, body.Total)
}

func TestHandlerNInvalido(t *testing.T) {
	h := NewHandler(newTestStore(t), observability.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/productos/top/muchos")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerClienteMasActivoSinDatos(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "vacia.db")
	store, err := Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	h := NewHandler(store, observability.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/clientes/mas-activo")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
