package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/consulta-ai/consulta/internal/backend"
)

func chunk(text string) backend.Chunk {
	return backend.Chunk{Text: text, Source: "http://backend.local/test"}
}

func TestPrettifyNoChunks(t *testing.T) {
	assert.Equal(t, NoInformation, Prettify(nil))
	assert.Equal(t, NoInformation, Prettify([]backend.Chunk{}))
}

func TestPrettifySummarizesEmbeddedBookList(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk(
		`Libros publicados en 1982: [{"id": 2, "titulo": "La casa de los espíritus", "autor_id": 2, "anio_publicacion": 1982}]`,
	)})

	assert.Equal(t, "Libros publicados en 1982: La casa de los espíritus", got)
}

func TestPrettifyCapsPreviewAtFiveWithEllipsis(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk(
		`Libros encontrados: [` +
			`{"titulo": "Uno"}, {"titulo": "Dos"}, {"titulo": "Tres"}, ` +
			`{"titulo": "Cuatro"}, {"titulo": "Cinco"}, {"titulo": "Seis"}]`,
	)})

	assert.Equal(t, "Libros encontrados: Uno, Dos, Tres, Cuatro, Cinco, …", got)
	assert.NotContains(t, got, "Seis")
}

func TestPrettifyEmptyEmbeddedListSaysNinguno(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk("Libros publicados en 1999: []")})
	assert.Equal(t, "Libros publicados en 1999: Ninguno.", got)
}

func TestPrettifyParsesSingleQuotedPseudoJSON(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk(
		`Autores de Chile: [{'id': 2, 'nombre': 'Isabel Allende', 'nacionalidad': 'Chile'}]`,
	)})

	assert.Equal(t, "Autores de Chile: Isabel Allende", got)
}

func TestPrettifyFullTextRecordList(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk(
		`[{"titulo": "Paula"}, {"titulo": "Cien años de soledad"}]`,
	)})

	assert.Equal(t, "Encontré 2 libro(s): Paula, Cien años de soledad", got)
}

func TestPrettifyLibraryStatsRecord(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk(
		`{"total_autores": 7, "total_libros": 8}`,
	)})

	assert.Equal(t, "La biblioteca tiene 7 autores y 8 libros.", got)
}

func TestPrettifyPurchasesStatsRecord(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk(
		`{"clientes": 5, "productos": 8, "compras": 10}`,
	)})

	assert.Equal(t, "Estadísticas: 5 clientes, 8 productos, 10 compras.", got)
}

func TestPrettifyPlainTextGetsTerminalPunctuation(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk("Productos sin stock: Ninguno")})
	assert.Equal(t, "Productos sin stock: Ninguno.", got)
}

func TestPrettifyKeepsExistingPunctuation(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk("El libro más reciente es Paula (1994).")})
	assert.Equal(t, "El libro más reciente es Paula (1994).", got)
}

func TestPrettifyNumbersMultipleChunks(t *testing.T) {
	got := Prettify([]backend.Chunk{
		chunk(`Libros publicados en 1982: [{"titulo": "La casa de los espíritus"}]`),
		chunk(`Autores de Chile: [{"nombre": "Isabel Allende"}, {"nombre": "Pablo Neruda"}]`),
	})

	assert.Equal(t,
		"1. Libros publicados en 1982: La casa de los espíritus\n"+
			"2. Autores de Chile: Isabel Allende, Pablo Neruda",
		got)
}

func TestPrettifySkipsBlankChunks(t *testing.T) {
	got := Prettify([]backend.Chunk{chunk("   "), chunk("Clientes de España: 2.")})
	assert.Equal(t, "Clientes de España: 2.", got)
}
