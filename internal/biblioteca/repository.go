package biblioteca

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound marks a missing author or book.
var ErrNotFound = errors.New("no encontrado")

// Repository is the catalog storage surface.
type Repository interface {
	ListAutores() []Autor
	GetAutor(id int) (Autor, error)
	CreateAutor(a Autor) Autor
	UpdateAutor(id int, a Autor) (Autor, error)
	DeleteAutor(id int) error
	AutoresPorNacionalidad(pais string) []Autor

	ListLibros() []Libro
	GetLibro(id int) (Libro, error)
	CreateLibro(l Libro) (Libro, error)
	UpdateLibro(id int, l Libro) (Libro, error)
	DeleteLibro(id int) error
	LibrosPorAutor(autorID int) []Libro
	LibrosPorAnio(anio int) []Libro
	LibrosPorTitulo(termino string) []Libro

	Stats() Stats
}

// MemoryRepository keeps the catalog in memory, guarded by a mutex.
type MemoryRepository struct {
	mu          sync.RWMutex
	autores     map[int]Autor
	libros      map[int]Libro
	nextAutorID int
	nextLibroID int
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		autores:     make(map[int]Autor),
		libros:      make(map[int]Libro),
		nextAutorID: 1,
		nextLibroID: 1,
	}
}

// NewSeededRepository creates a repository preloaded with the demo
// catalog.
func NewSeededRepository() *MemoryRepository {
	r := NewMemoryRepository()
	for _, a := range fixtureAutores() {
		r.CreateAutor(a)
	}
	for _, l := range fixtureLibros() {
		_, _ = r.CreateLibro(l)
	}
	return r
}

func fixtureAutores() []Autor {
	return []Autor{
		{Nombre: "Gabriel García Márquez", Nacionalidad: "Colombia"},
		{Nombre: "Isabel Allende", Nacionalidad: "Chile"},
		{Nombre: "Mario Vargas Llosa", Nacionalidad: "Peru"},
		{Nombre: "Jorge Luis Borges", Nacionalidad: "Argentina"},
		{Nombre: "Pablo Neruda", Nacionalidad: "Chile"},
		{Nombre: "Federico García Lorca", Nacionalidad: "España"},
		{Nombre: "Juan Ramón Giménez", Nacionalidad: "España"},
	}
}

func fixtureLibros() []Libro {
	return []Libro{
		{Titulo: "Cien años de soledad", AutorID: 1, AnioPublicacion: 1967},
		{Titulo: "El amor en los tiempos del cólera", AutorID: 1, AnioPublicacion: 1985},
		{Titulo: "La casa de los espíritus", AutorID: 2, AnioPublicacion: 1982},
		{Titulo: "Paula", AutorID: 2, AnioPublicacion: 1994},
		{Titulo: "La ciudad y los perros", AutorID: 3, AnioPublicacion: 1963},
		{Titulo: "Ficciones", AutorID: 4, AnioPublicacion: 1944},
		{Titulo: "Veinte poemas de amor y una canción desesperada", AutorID: 5, AnioPublicacion: 1924},
		{Titulo: "Romancero gitano", AutorID: 6, AnioPublicacion: 1928},
	}
}

// ListAutores returns all authors ordered by id.
func (r *MemoryRepository) ListAutores() []Autor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Autor, 0, len(r.autores))
	for _, a := range r.autores {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetAutor returns the author with the given id.
func (r *MemoryRepository) GetAutor(id int) (Autor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.autores[id]
	if !ok {
		return Autor{}, ErrNotFound
	}
	return a, nil
}

// CreateAutor stores a new author and assigns its id.
func (r *MemoryRepository) CreateAutor(a Autor) Autor {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.nextAutorID
	r.nextAutorID++
	r.autores[a.ID] = a
	return a
}

// UpdateAutor replaces an existing author.
func (r *MemoryRepository) UpdateAutor(id int, a Autor) (Autor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.autores[id]; !ok {
		return Autor{}, ErrNotFound
	}
	a.ID = id
	r.autores[id] = a
	return a, nil
}

// DeleteAutor removes an author and their books.
func (r *MemoryRepository) DeleteAutor(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.autores[id]; !ok {
		return ErrNotFound
	}
	delete(r.autores, id)
	for lid, l := range r.libros {
		if l.AutorID == id {
			delete(r.libros, lid)
		}
	}
	return nil
}

// AutoresPorNacionalidad matches nationality case-insensitively by
// substring.
func (r *MemoryRepository) AutoresPorNacionalidad(pais string) []Autor {
	needle := strings.ToLower(pais)

	out := []Autor{}
	for _, a := range r.ListAutores() {
		if strings.Contains(strings.ToLower(a.Nacionalidad), needle) {
			out = append(out, a)
		}
	}
	return out
}

// ListLibros returns all books ordered by id.
func (r *MemoryRepository) ListLibros() []Libro {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Libro, 0, len(r.libros))
	for _, l := range r.libros {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetLibro returns the book with the given id.
func (r *MemoryRepository) GetLibro(id int) (Libro, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.libros[id]
	if !ok {
		return Libro{}, ErrNotFound
	}
	return l, nil
}

// CreateLibro stores a new book. The referenced author must exist.
func (r *MemoryRepository) CreateLibro(l Libro) (Libro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.autores[l.AutorID]; !ok {
		return Libro{}, ErrNotFound
	}

	l.ID = r.nextLibroID
	r.nextLibroID++
	r.libros[l.ID] = l
	return l, nil
}

// UpdateLibro replaces an existing book.
func (r *MemoryRepository) UpdateLibro(id int, l Libro) (Libro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.libros[id]; !ok {
		return Libro{}, ErrNotFound
	}
	if _, ok := r.autores[l.AutorID]; !ok {
		return Libro{}, ErrNotFound
	}
	l.ID = id
	r.libros[id] = l
	return l, nil
}

// DeleteLibro removes a book.
func (r *MemoryRepository) DeleteLibro(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.libros[id]; !ok {
		return ErrNotFound
	}
	delete(r.libros, id)
	return nil
}

// LibrosPorAutor returns the books written by an author.
func (r *MemoryRepository) LibrosPorAutor(autorID int) []Libro {
	out := []Libro{}
	for _, l := range r.ListLibros() {
		if l.AutorID == autorID {
			out = append(out, l)
		}
	}
	return out
}

// LibrosPorAnio returns the books published in a year.
func (r *MemoryRepository) LibrosPorAnio(anio int) []Libro {
	out := []Libro{}
	for _, l := range r.ListLibros() {
		if l.AnioPublicacion == anio {
			out = append(out, l)
		}
	}
	return out
}

// LibrosPorTitulo matches titles case-insensitively by substring.
func (r *MemoryRepository) LibrosPorTitulo(termino string) []Libro {
	needle := strings.ToLower(termino)

	out := []Libro{}
	for _, l := range r.ListLibros() {
		if strings.Contains(strings.ToLower(l.Titulo), needle) {
			out = append(out, l)
		}
	}
	return out
}

// Stats summarizes the whole catalog.
func (r *MemoryRepository) Stats() Stats {
	autores := r.ListAutores()
	libros := r.ListLibros()

	s := Stats{
		TotalAutores:   len(autores),
		TotalLibros:    len(libros),
		Nacionalidades: make(map[string]int),
	}

	for _, a := range autores {
		s.Nacionalidades[a.Nacionalidad]++
	}

	for i, l := range libros {
		if i == 0 || l.AnioPublicacion < s.AnioMasAntiguo {
			s.AnioMasAntiguo = l.AnioPublicacion
		}
		if i == 0 || l.AnioPublicacion > s.AnioMasReciente {
			s.AnioMasReciente = l.AnioPublicacion
		}
	}

	return s
}

var _ Repository = (*MemoryRepository)(nil)
