package compras

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

// Handler serves the purchases store over HTTP.
type Handler struct {
	store  *Store
	logger *observability.Logger
}

// NewHandler creates a handler over the given store.
func NewHandler(store *Store, logger *observability.Logger) *Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Handler{store: store, logger: logger}
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

	r.Route("/productos", func(r chi.Router) {
		r.Get("/", h.productos)
		r.Get("/sin-stock", h.sinStock)
		r.Get("/top/{n}", h.topProductos)
		r.Get("/comprados/por-anio/{anio}", h.compradosEnAnio)
		r.Get("/comprados/entre/{desde}/{hasta}", h.compradosEntre)
	})

	r.Route("/clientes", func(r chi.Router) {
		r.Get("/por-pais/{pais}", h.clientesPorPais)
		r.Get("/mas-activo", h.clienteMasActivo)
	})

	r.Get("/compras/cliente/{nombre}/total", h.comprasDeCliente)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "servicio": "compras-api"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Estadisticas(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) productos(w http.ResponseWriter, r *http.Request) {
	productos, err := h.store.Productos(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productos)
}

func (h *Handler) sinStock(w http.ResponseWriter, r *http.Request) {
	productos, err := h.store.ProductosSinStock(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productos)
}

func (h *Handler) topProductos(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "n inválido")
		return
	}

	top, err := h.store.TopProductos(r.Context(), n)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *Handler) compradosEnAnio(w http.ResponseWriter, r *http.Request) {
	anio, err := strconv.Atoi(chi.URLParam(r, "anio"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "año inválido")
		return
	}

	productos, err := h.store.ProductosCompradosEnAnio(r.Context(), anio)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productos)
}

func (h *Handler) compradosEntre(w http.ResponseWriter, r *http.Request) {
	desde, err1 := strconv.Atoi(chi.URLParam(r, "desde"))
	hasta, err2 := strconv.Atoi(chi.URLParam(r, "hasta"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "rango de años inválido")
		return
	}
	if desde > hasta {
		desde, hasta = hasta, desde
	}

	productos, err := h.store.ProductosCompradosEntre(r.Context(), desde, hasta)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productos)
}

func (h *Handler) clientesPorPais(w http.ResponseWriter, r *http.Request) {
	pais := chi.URLParam(r, "pais")

	total, err := h.store.ClientesPorPais(r.Context(), pais)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pais": pais, "total": total})
}

func (h *Handler) clienteMasActivo(w http.ResponseWriter, r *http.Request) {
	ct, err := h.store.ClienteMasActivo(r.Context())
	if errors.Is(err, ErrNoResults) {
		writeError(w, http.StatusNotFound, "todavía no hay compras registradas")
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func (h *Handler) comprasDeCliente(w http.ResponseWriter, r *http.Request) {
	nombre := chi.URLParam(r, "nombre")

	total, err := h.store.CountPurchasesByClient(r.Context(), nombre)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nombre": nombre, "total": total})
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error().Err(err).Msg("consulta a la base de datos falló")
	writeError(w, http.StatusInternalServerError, "error interno")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
