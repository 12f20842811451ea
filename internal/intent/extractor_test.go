package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/classify"
)

func TestExtractEmptyQuestionFailsFast(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(classify.DomainLibrary, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExtractCountBooksByAuthor(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "¿Cuántos libros ha escrito Isabel Allende?")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapCountBooksByAuthor, intents[0].Capability)
	assert.Equal(t, "isabel allende", intents[0].Params["nombre"])
	assert.True(t, intents[0].Terminal)
	assert.True(t, intents[0].Confident)
}

func TestExtractRandomAuthorsDefaultsToThree(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "lista autores")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapRandomAuthors, intents[0].Capability)
	assert.Equal(t, "3", intents[0].Params["n"])
}

func TestExtractRandomAuthorsWithExplicitCount(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "listame 5 autores")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, "5", intents[0].Params["n"])
}

func TestExtractFirstMatchWinsOverLaterRules(t *testing.T) {
	e := NewExtractor()

	// Contains both the count-books pattern and a year, but the count
	// rule is terminal and fires first.
	intents, err := e.Extract(classify.DomainLibrary, "¿cuántos libros ha escrito pablo neruda desde 1950?")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, catalog.CapCountBooksByAuthor, intents[0].Capability)
}

func TestExtractAccumulatesYearNationalityAndTitle(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, `libros de autores chilenos publicados en 1982 con "casa"`)
	require.NoError(t, err)
	require.Len(t, intents, 3)

	assert.Equal(t, catalog.CapBooksByYear, intents[0].Capability)
	assert.Equal(t, "1982", intents[0].Params["anio"])

	assert.Equal(t, catalog.CapAuthorsByNationality, intents[1].Capability)
	assert.Equal(t, "Chile", intents[1].Params["pais"])

	assert.Equal(t, catalog.CapBooksByTitle, intents[2].Capability)
	assert.Equal(t, "casa", intents[2].Params["termino"])
}

func TestExtractNationalityIsCaseInsensitive(t *testing.T) {
	e := NewExtractor()

	for _, q := range []string{
		"autores CHILENOS",
		"autores de Chile",
		"autores chilenos",
	} {
		intents, err := e.Extract(classify.DomainLibrary, q)
		require.NoError(t, err, q)
		require.Len(t, intents, 1, q)
		assert.Equal(t, "Chile", intents[0].Params["pais"], q)
	}
}

func TestExtractQuotedTitlePreservesCasing(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, `libros con "La Casa"`)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, "La Casa", intents[0].Params["termino"])
}

func TestExtractYearRangeNormalizesReversedBounds(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "libros publicados entre 2020 y 2010")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapBooksBetweenYears, intents[0].Capability)
	assert.Equal(t, "2010", intents[0].Params["desde"])
	assert.Equal(t, "2020", intents[0].Params["hasta"])
}

func TestExtractRangeBeatsSingleYearRule(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "libros entre 2010 y 2020")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, catalog.CapBooksBetweenYears, intents[0].Capability)
}

func TestExtractSuperlatives(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "¿cuál es el libro más reciente?")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, catalog.CapMostRecentBook, intents[0].Capability)

	intents, err = e.Extract(classify.DomainLibrary, "¿cuál es el libro más antiguo?")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, catalog.CapOldestBook, intents[0].Capability)
}

func TestExtractLibraryFallbackStats(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainLibrary, "háblame de la biblioteca")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapLibraryStats, intents[0].Capability)
	assert.False(t, intents[0].Confident)
}

func TestExtractCountPurchasesByClient(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainPurchases, "¿Cuántas compras ha realizado María López?")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapCountPurchasesByClient, intents[0].Capability)
	assert.Equal(t, "maría lópez", intents[0].Params["nombre"])
}

func TestExtractTopProducts(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainPurchases, "top 5 productos más comprados")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapTopProducts, intents[0].Capability)
	assert.Equal(t, "5", intents[0].Params["n"])
}

func TestExtractProductsByYearRequiresPurchaseContext(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainPurchases, "productos comprados en 2022")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapProductsByYear, intents[0].Capability)
	assert.Equal(t, "2022", intents[0].Params["anio"])
}

func TestExtractOutOfStock(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainPurchases, "¿qué productos están sin stock?")
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, catalog.CapOutOfStock, intents[0].Capability)
}

func TestExtractProductsBetweenYears(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainPurchases, "productos comprados entre 2023 y 2019")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapProductsBetweenYears, intents[0].Capability)
	assert.Equal(t, "2019", intents[0].Params["desde"])
	assert.Equal(t, "2023", intents[0].Params["hasta"])
}

func TestExtractPurchasesFallbackStats(t *testing.T) {
	e := NewExtractor()

	intents, err := e.Extract(classify.DomainPurchases, "cuéntame de la tienda de productos")
	require.NoError(t, err)
	require.Len(t, intents, 1)

	assert.Equal(t, catalog.CapPurchasesStats, intents[0].Capability)
	assert.False(t, intents[0].Confident)
}
