package biblioteca

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/consulta-ai/consulta/internal/observability"
)

// Handler serves the library catalog over HTTP.
type Handler struct {
	repo   Repository
	logger *observability.Logger
}

// NewHandler creates a handler over the given repository.
func NewHandler(repo Repository, logger *observability.Logger) *Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Router builds the chi router for the backend.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.health)
	r.Get("/stats", h.stats)

	r.Route("/autores", func(r chi.Router) {
		r.Get("/", h.listAutores)
		r.Post("/", h.createAutor)
		r.Get("/buscar/por-nacionalidad/{pais}", h.autoresPorNacionalidad)
		r.Get("/{id}", h.getAutor)
		r.Put("/{id}", h.updateAutor)
		r.Delete("/{id}", h.deleteAutor)
	})

	r.Route("/libros", func(r chi.Router) {
		r.Get("/", h.listLibros)
		r.Post("/", h.createLibro)
		r.Get("/autor/{autorID}", h.librosPorAutor)
		r.Get("/buscar/por-anio/{anio}", h.librosPorAnio)
		r.Get("/buscar/titulo/{termino}", h.librosPorTitulo)
		r.Get("/{id}", h.getLibro)
		r.Put("/{id}", h.updateLibro)
		r.Delete("/{id}", h.deleteLibro)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "servicio": "biblioteca-api"})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.Stats())
}

func (h *Handler) listAutores(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.ListAutores())
}

func (h *Handler) getAutor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	a, err := h.repo.GetAutor(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "autor no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) createAutor(w http.ResponseWriter, r *http.Request) {
	var a Autor
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	if a.Nombre == "" {
		writeError(w, http.StatusUnprocessableEntity, "el nombre es obligatorio")
		return
	}

	created := h.repo.CreateAutor(a)
	h.logger.Info().Int("id", created.ID).Str("nombre", created.Nombre).Msg("autor creado")
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateAutor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	var a Autor
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	updated, err := h.repo.UpdateAutor(id, a)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "autor no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteAutor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	if err := h.repo.DeleteAutor(id); errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "autor no encontrado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) autoresPorNacionalidad(w http.ResponseWriter, r *http.Request) {
	pais := chi.URLParam(r, "pais")
	writeJSON(w, http.StatusOK, h.repo.AutoresPorNacionalidad(pais))
}

func (h *Handler) listLibros(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.ListLibros())
}

func (h *Handler) getLibro(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	l, err := h.repo.GetLibro(id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "libro no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) createLibro(w http.ResponseWriter, r *http.Request) {
	var l Libro
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}
	if l.Titulo == "" {
		writeError(w, http.StatusUnprocessableEntity, "el título es obligatorio")
		return
	}

	created, err := h.repo.CreateLibro(l)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusUnprocessableEntity, "el autor no existe")
		return
	}
	h.logger.Info().Int("id", created.ID).Str("titulo", created.Titulo).Msg("libro creado")
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateLibro(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	var l Libro
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	updated, err := h.repo.UpdateLibro(id, l)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "libro o autor no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteLibro(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id inválido")
		return
	}

	if err := h.repo.DeleteLibro(id); errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "libro no encontrado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) librosPorAutor(w http.ResponseWriter, r *http.Request) {
	autorID, err := pathID(r, "autorID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "id de autor inválido")
		return
	}
	writeJSON(w, http.StatusOK, h.repo.LibrosPorAutor(autorID))
}

func (h *Handler) librosPorAnio(w http.ResponseWriter, r *http.Request) {
	anio, err := strconv.Atoi(chi.URLParam(r, "anio"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "año inválido")
		return
	}
	writeJSON(w, http.StatusOK, h.repo.LibrosPorAnio(anio))
}

func (h *Handler) librosPorTitulo(w http.ResponseWriter, r *http.Request) {
	termino := chi.URLParam(r, "termino")
	writeJSON(w, http.StatusOK, h.repo.LibrosPorTitulo(termino))
}

func pathID(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
