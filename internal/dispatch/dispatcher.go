// Package dispatch orchestrates a question through the full pipeline:
// classify, extract, build, execute, format. Every failure past
// classification degrades into a Spanish answer text; only a blank
// question is an error to the caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/consulta-ai/consulta/internal/backend"
	"github.com/consulta-ai/consulta/internal/cache"
	"github.com/consulta-ai/consulta/internal/classify"
	"github.com/consulta-ai/consulta/internal/format"
	"github.com/consulta-ai/consulta/internal/intent"
	"github.com/consulta-ai/consulta/internal/observability"
	"github.com/consulta-ai/consulta/internal/payload"
)

// State is a pipeline stage, logged as each question moves through.
type State string

const (
	StateReceived    State = "received"
	StateClassified  State = "classified"
	StateExtracted   State = "extracted"
	StateRequested   State = "requested"
	StateResultReady State = "result_ready"
	StateFormatted   State = "formatted"
	StateFailed      State = "failed"
)

// ErrNoDomain is returned by Provision when the question matches no
// domain. Answer converts it into a user-facing message instead.
var ErrNoDomain = errors.New("no se pudo determinar el dominio de la consulta")

const (
	msgNoDomain = "No se pudo determinar el dominio de la consulta. Prueba a mencionar libros, autores, productos o compras."
	// Marker prefix for ambiguity reports surfaced verbatim.
	ambiguousMarker = "⚠️ Consulta ambigua: "
)

func msgDegraded(d classify.Domain) string {
	return fmt.Sprintf("Lo siento, el servicio de %s no está disponible en este momento.", d)
}

// Dispatcher wires the pipeline stages together.
type Dispatcher struct {
	classifier *classify.Classifier
	extractor  *intent.Extractor
	builder    payload.Builder
	executor   *backend.Executor
	answers    cache.Client
	answerTTL  time.Duration
	logger     *observability.Logger
}

// NewDispatcher creates a dispatcher. The answer cache may be nil to
// disable caching.
func NewDispatcher(builder payload.Builder, executor *backend.Executor, answers cache.Client, answerTTL time.Duration, logger *observability.Logger) *Dispatcher {
	if logger == nil {
		logger = observability.Nop()
	}

	return &Dispatcher{
		classifier: classify.NewClassifier(),
		extractor:  intent.NewExtractor(),
		builder:    builder,
		executor:   executor,
		answers:    answers,
		answerTTL:  answerTTL,
		logger:     logger,
	}
}

// Answer runs the full pipeline and returns the answer text. Blank
// questions return intent.ErrEmptyQuery; every other failure is folded
// into the returned text.
func (d *Dispatcher) Answer(ctx context.Context, question string) (string, error) {
	ctx, logger := d.requestLogger(ctx)

	if err := checkQuestion(question); err != nil {
		return "", err
	}

	logger.Debug().Str("state", string(StateReceived)).Msg("question received")

	domain := d.classifier.Classify(question)
	logger.Info().Str("state", string(StateClassified)).Str("domain", string(domain)).Msg("question classified")

	if domain == classify.DomainNone {
		return msgNoDomain, nil
	}

	key := cache.AnswerKey(string(domain), question)
	if d.answers != nil {
		if cached, err := d.answers.Get(ctx, key); err == nil {
			logger.Debug().Str("cache_key", key).Msg("answer cache hit")
			return string(cached), nil
		}
	}

	chunks, failed, userErr := d.retrieve(ctx, logger, question, domain)
	if userErr != "" {
		return userErr, nil
	}

	if len(chunks) == 0 && failed != "" {
		logger.Warn().Str("state", string(StateFailed)).Str("domain", string(failed)).Msg("no usable results")
		return msgDegraded(failed), nil
	}

	answer := format.Prettify(chunks)
	logger.Info().Str("state", string(StateFormatted)).Int("chunks", len(chunks)).Msg("answer formatted")

	if d.answers != nil {
		if err := d.answers.Set(ctx, key, []byte(answer), d.answerTTL); err != nil {
			logger.Warn().Err(err).Msg("answer cache write failed")
		}
	}

	return answer, nil
}

// ProvisionResult carries the raw retrieval for a question, before
// formatting.
type ProvisionResult struct {
	Domain     classify.Domain `json:"dominio"`
	Chunks     []backend.Chunk `json:"chunks"`
	Provenance []string        `json:"procedencia"`
}

// Provision runs the pipeline up to retrieval and returns the chunks with
// their provenance. Unlike Answer, domain and backend failures are
// returned as errors.
func (d *Dispatcher) Provision(ctx context.Context, question string) (*ProvisionResult, error) {
	ctx, logger := d.requestLogger(ctx)

	if err := checkQuestion(question); err != nil {
		return nil, err
	}

	domain := d.classifier.Classify(question)
	if domain == classify.DomainNone {
		return nil, ErrNoDomain
	}

	var (
		chunks     []backend.Chunk
		provenance []string
		lastErr    error
	)

	for _, backendDomain := range classify.Backends(domain) {
		intents, err := d.extractor.Extract(backendDomain, question)
		if err != nil {
			return nil, err
		}

		provenance = append(provenance, string(backendDomain))

		for _, it := range intents {
			req, err := d.builder.Build(ctx, question, it)
			if err != nil {
				lastErr = err
				continue
			}

			got, err := d.executor.Execute(ctx, it, req)
			if err != nil {
				lastErr = err
				continue
			}
			chunks = append(chunks, got...)
		}
	}

	if len(chunks) == 0 && lastErr != nil {
		return nil, lastErr
	}

	logger.Info().Str("domain", string(domain)).Int("chunks", len(chunks)).Msg("provision complete")

	return &ProvisionResult{
		Domain:     domain,
		Chunks:     chunks,
		Provenance: provenance,
	}, nil
}

// retrieve runs extraction, building and execution across the backend
// domains of a classification. It returns the collected chunks, the last
// domain whose backend failed, and a non-empty user-facing error text
// when the pipeline must stop (ambiguity reports).
func (d *Dispatcher) retrieve(ctx context.Context, logger *observability.Logger, question string, domain classify.Domain) ([]backend.Chunk, classify.Domain, string) {
	var (
		chunks []backend.Chunk
		failed classify.Domain
	)

	for _, backendDomain := range classify.Backends(domain) {
		intents, err := d.extractor.Extract(backendDomain, question)
		if err != nil {
			// Only blank questions fail extraction, and those were
			// rejected up front.
			logger.Error().Err(err).Str("state", string(StateFailed)).Msg("extraction failed")
			failed = backendDomain
			continue
		}

		ruleIDs := make([]string, 0, len(intents))
		for _, it := range intents {
			ruleIDs = append(ruleIDs, it.RuleID)
		}
		logger.Info().Str("state", string(StateExtracted)).Str("domain", string(backendDomain)).Strs("rules", ruleIDs).Msg("intents extracted")

		for _, it := range intents {
			req, err := d.builder.Build(ctx, question, it)
			if err != nil {
				var ambErr *payload.AmbiguousEndpointError
				if errors.As(err, &ambErr) {
					logger.Warn().Str("state", string(StateFailed)).Str("reason", ambErr.Reason).Msg("ambiguous endpoint")
					return nil, "", ambiguousMarker + ambErr.Reason
				}

				logger.Error().Err(err).Str("rule", it.RuleID).Msg("payload build failed")
				failed = backendDomain
				continue
			}

			logger.Debug().Str("state", string(StateRequested)).Str("path", req.Path).Msg("backend request built")

			got, err := d.executor.Execute(ctx, it, req)
			if err != nil {
				logger.Error().Err(err).Str("rule", it.RuleID).Str("path", req.Path).Msg("backend call failed")
				failed = backendDomain
				continue
			}

			logger.Debug().Str("state", string(StateResultReady)).Int("chunks", len(got)).Msg("backend result ready")
			chunks = append(chunks, got...)
		}
	}

	return chunks, failed, ""
}

// requestLogger ensures the context carries a request ID and returns a
// logger bound to it.
func (d *Dispatcher) requestLogger(ctx context.Context) (context.Context, *observability.Logger) {
	id := observability.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = observability.ContextWithRequestID(ctx, id)
	}
	return ctx, d.logger.WithRequest(id)
}

func checkQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return intent.ErrEmptyQuery
	}
	return nil
}
