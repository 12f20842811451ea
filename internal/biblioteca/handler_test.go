package biblioteca

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-ai/consulta/internal/observability"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := NewHandler(NewSeededRepository(), observability.Nop())
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestListAutoresReturnsSeededCatalog(t *testing.T) {
	srv := newTestServer(t)

	var autores []Autor
	status := getJSON(t, srv.URL+"/autores/", &autores)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, autores, 7)
	assert.Equal(t, "Gabriel García Márquez", autores[0].Nombre)
}

func TestLibrosPorAutor(t *testing.T) {
	srv := newTestServer(t)

	var libros []Libro
	status := getJSON(t, srv.URL+"/libros/autor/2", &libros)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, libros, 2)
	assert.Equal(t, "La casa de los espíritus", libros[0].Titulo)
	assert.Equal(t, "Paula", libros[1].Titulo)
}

func TestLibrosPorAnio(t *testing.T) {
	srv := newTestServer(t)

	var libros []Libro
	status := getJSON(t, srv.URL+"/libros/buscar/por-anio/1982", &libros)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, libros, 1)
	assert.Equal(t, "La casa de los espíritus", libros[0].Titulo)
}

func TestLibrosPorAnioSinResultados(t *testing.T) {
	srv := newTestServer(t)

	var libros []Libro
	status := getJSON(t, srv.URL+"/libros/buscar/por-anio/1800", &libros)

	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, libros)
}

func TestAutoresPorNacionalidadEsInsensibleAMayusculas(t *testing.T) {
	srv := newTestServer(t)

	var autores []Autor
	status := getJSON(t, srv.URL+"/autores/buscar/por-nacionalidad/CHILE", &autores)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, autores, 2)
	assert.Equal(t, "Isabel Allende", autores[0].Nombre)
	assert.Equal(t, "Pablo Neruda", autores[1].Nombre)
}

func TestBuscarPorTitulo(t *testing.T) {
	srv := newTestServer(t)

	var libros []Libro
	status := getJSON(t, srv.URL+"/libros/buscar/titulo/casa", &libros)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, libros, 1)
	assert.Equal(t, "La casa de los espíritus", libros[0].Titulo)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)

	var stats Stats
	status := getJSON(t, srv.URL+"/stats", &stats)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 7, stats.TotalAutores)
	assert.Equal(t, 8, stats.TotalLibros)
	assert.Equal(t, 2, stats.Nacionalidades["Chile"])
	assert.Equal(t, 1924, stats.AnioMasAntiguo)
	assert.Equal(t, 1994, stats.AnioMasReciente)
}

func TestGetAutorInexistente(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/autores/999", nil))
}

func TestCreateLibroConAutorInexistente(t *testing.T) {
	srv := newTestServer(t)

	body := `{"titulo": "Libro fantasma", "autor_id": 999, "anio_publicacion": 2000}`
	resp, err := http.Post(srv.URL+"/libros/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteAutorBorraSusLibros(t *testing.T) {
	repo := NewSeededRepository()

	require.NoError(t, repo.DeleteAutor(2))

	assert.Empty(t, repo.LibrosPorAutor(2))
	assert.Len(t, repo.ListLibros(), 6)
}
