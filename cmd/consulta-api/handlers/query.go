// Package handlers holds the HTTP handlers of the query router API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/dispatch"
	"github.com/consulta-ai/consulta/internal/intent"
	"github.com/consulta-ai/consulta/internal/observability"
	"github.com/consulta-ai/consulta/internal/version"
)

// QueryHandler answers questions and exposes the retrieval surface.
type QueryHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     *observability.Logger
}

// NewQueryHandler creates the handler.
func NewQueryHandler(dispatcher *dispatch.Dispatcher, logger *observability.Logger) *QueryHandler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &QueryHandler{dispatcher: dispatcher, logger: logger}
}

// QuestionRequest is the body of /answer and /provision.
type QuestionRequest struct {
	Query string `json:"query"`
}

// AnswerResponse is the body returned by /answer.
type AnswerResponse struct {
	Query     string `json:"query"`
	Respuesta string `json:"respuesta"`
}

// Answer handles POST /api/v1/answer.
func (h *QueryHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	answer, err := h.dispatcher.Answer(r.Context(), req.Query)
	if errors.Is(err, intent.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, intent.ErrEmptyQuery.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("answer failed")
		writeError(w, http.StatusInternalServerError, "error interno")
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{Query: req.Query, Respuesta: answer})
}

// Provision handles POST /api/v1/provision, returning the raw retrieval
// chunks with their provenance.
func (h *QueryHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo inválido")
		return
	}

	res, err := h.dispatcher.Provision(r.Context(), req.Query)
	if errors.Is(err, intent.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, intent.ErrEmptyQuery.Error())
		return
	}
	if errors.Is(err, dispatch.ErrNoDomain) {
		writeError(w, http.StatusUnprocessableEntity, dispatch.ErrNoDomain.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("provision failed")
		writeError(w, http.StatusBadGateway, "los servicios de datos no están disponibles")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ManifestResponse describes the service and the endpoint catalog it
// routes to.
type ManifestResponse struct {
	Servicio  string                 `json:"servicio"`
	Version   string                 `json:"version"`
	Endpoints []catalog.EndpointSpec `json:"endpoints"`
}

// Manifest handles GET /manifest.
func (h *QueryHandler) Manifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ManifestResponse{
		Servicio:  "consulta",
		Version:   version.Version,
		Endpoints: catalog.All(),
	})
}

// Health handles GET /health.
func (h *QueryHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
