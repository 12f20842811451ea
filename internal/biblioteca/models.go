// Package biblioteca implements the library demo backend: a small
// author/book catalog with an in-memory repository and a chi HTTP
// surface.
package biblioteca

// Autor is a library author.
type Autor struct {
	ID           int    `json:"id"`
	Nombre       string `json:"nombre"`
	Nacionalidad string `json:"nacionalidad"`
}

// Libro is a published book.
type Libro struct {
	ID              int    `json:"id"`
	Titulo          string `json:"titulo"`
	AutorID         int    `json:"autor_id"`
	AnioPublicacion int    `json:"anio_publicacion"`
}

// Stats summarizes the catalog.
type Stats struct {
	TotalAutores    int            `json:"total_autores"`
	TotalLibros     int            `json:"total_libros"`
	Nacionalidades  map[string]int `json:"nacionalidades_autores"`
	AnioMasAntiguo  int            `json:"anio_mas_antiguo"`
	AnioMasReciente int            `json:"anio_mas_reciente"`
}
