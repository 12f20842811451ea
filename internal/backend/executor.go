package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/consulta-ai/consulta/internal/catalog"
	"github.com/consulta-ai/consulta/internal/classify"
	"github.com/consulta-ai/consulta/internal/intent"
	"github.com/consulta-ai/consulta/internal/observability"
	"github.com/consulta-ai/consulta/internal/payload"
)

// Chunk is one piece of evidence retrieved for a question, with the URL
// it came from.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Executor runs resolved requests against the backends. Capabilities that
// need more than a single call (author resolution, rankings, sampling,
// range filters) do their extra work here, client-side.
type Executor struct {
	library   *Client
	purchases *Client
	logger    *observability.Logger

	// rngMu serializes access to rng; one Executor serves concurrent
	// requests and rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Executor.
type Option func(*Executor)

// WithRand injects the random source used for sampling. Tests pass a
// seeded source for determinism.
func WithRand(r *rand.Rand) Option {
	return func(e *Executor) { e.rng = r }
}

// NewExecutor creates an executor over the two domain backends.
func NewExecutor(library, purchases *Client, logger *observability.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = observability.Nop()
	}

	e := &Executor{
		library:   library,
		purchases: purchases,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wire shapes of the demo backends.
type author struct {
	ID           int    `json:"id"`
	Nombre       string `json:"nombre"`
	Nacionalidad string `json:"nacionalidad"`
}

type book struct {
	ID      int    `json:"id"`
	Titulo  string `json:"titulo"`
	AutorID int    `json:"autor_id"`
	Anio    int    `json:"anio_publicacion"`
}

type product struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Stock  int    `json:"stock"`
}

type namedTotal struct {
	Nombre string `json:"nombre"`
	Total  int    `json:"total"`
}

// Execute runs the request for an intent and returns the retrieved
// chunks. An empty, error-free result means the question was understood
// but nothing matched.
func (e *Executor) Execute(ctx context.Context, it intent.Intent, req *payload.QueryRequest) ([]Chunk, error) {
	c := e.clientFor(it.Domain)
	if c == nil {
		return nil, fmt.Errorf("no hay backend para el dominio %q", it.Domain)
	}

	switch it.Capability {
	case catalog.CapCountBooksByAuthor:
		return e.countBooksByAuthor(ctx, c, it)
	case catalog.CapRandomAuthors:
		return e.randomAuthors(ctx, c, it)
	case catalog.CapBooksByYear:
		return e.rawListChunk(ctx, c, req.Path, fmt.Sprintf("Libros publicados en %s", it.Params["anio"]))
	case catalog.CapAuthorsByNationality:
		return e.rawListChunk(ctx, c, req.Path, fmt.Sprintf("Autores de %s", it.Params["pais"]))
	case catalog.CapBooksByTitle:
		return e.rawListChunk(ctx, c, req.Path, fmt.Sprintf("Libros con '%s'", it.Params["termino"]))
	case catalog.CapTopAuthors:
		return e.topAuthors(ctx, c, it)
	case catalog.CapBooksBetweenYears:
		return e.booksBetweenYears(ctx, c, it)
	case catalog.CapMostRecentBook:
		return e.extremeBook(ctx, c, true)
	case catalog.CapOldestBook:
		return e.extremeBook(ctx, c, false)
	case catalog.CapLibraryStats, catalog.CapPurchasesStats:
		return e.statsChunk(ctx, c)

	case catalog.CapCountPurchasesByClient:
		return e.countPurchasesByClient(ctx, c, req.Path)
	case catalog.CapRandomProducts:
		return e.randomProducts(ctx, c, it)
	case catalog.CapProductsByYear:
		return e.namedListChunk(ctx, c, req.Path, fmt.Sprintf("Productos comprados en %s", it.Params["anio"]))
	case catalog.CapTopProducts:
		return e.topProducts(ctx, c, req.Path)
	case catalog.CapClientsByCountry:
		return e.clientsByCountry(ctx, c, req.Path)
	case catalog.CapMostActiveClient:
		return e.mostActiveClient(ctx, c, req.Path)
	case catalog.CapOutOfStock:
		return e.outOfStock(ctx, c, req.Path)
	case catalog.CapProductsBetweenYears:
		return e.namedListChunk(ctx, c, req.Path,
			fmt.Sprintf("Productos comprados entre %s y %s", it.Params["desde"], it.Params["hasta"]))

	default:
		return e.genericChunk(ctx, c, req)
	}
}

func (e *Executor) clientFor(d classify.Domain) *Client {
	switch d {
	case classify.DomainLibrary:
		return e.library
	case classify.DomainPurchases:
		return e.purchases
	default:
		return nil
	}
}

// countBooksByAuthor resolves the author by name against the author list,
// then fetches that author's books. An unknown author yields no chunks.
func (e *Executor) countBooksByAuthor(ctx context.Context, c *Client, it intent.Intent) ([]Chunk, error) {
	var authors []author
	if err := c.FetchJSON(ctx, "/autores/", &authors); err != nil {
		return nil, err
	}

	wanted := strings.ToLower(it.Params["nombre"])
	var found *author
	for i := range authors {
		if strings.Contains(strings.ToLower(authors[i].Nombre), wanted) ||
			strings.Contains(wanted, strings.ToLower(authors[i].Nombre)) {
			found = &authors[i]
			break
		}
	}
	if found == nil {
		e.logger.Debug().Str("nombre", it.Params["nombre"]).Msg("author not found")
		return nil, nil
	}

	path := fmt.Sprintf("/libros/autor/%d", found.ID)
	var books []book
	if err := c.FetchJSON(ctx, path, &books); err != nil {
		return nil, err
	}

	detail, _ := json.Marshal(books)
	return []Chunk{{
		Text:   fmt.Sprintf("%s escribió %d libro(s). Detalle: %s", found.Nombre, len(books), detail),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) randomAuthors(ctx context.Context, c *Client, it intent.Intent) ([]Chunk, error) {
	var authors []author
	if err := c.FetchJSON(ctx, "/autores/", &authors); err != nil {
		return nil, err
	}

	n, _ := strconv.Atoi(it.Params["n"])
	names := make([]string, 0, len(authors))
	for _, i := range e.sampleIndexes(len(authors), n) {
		names = append(names, authors[i].Nombre)
	}

	return []Chunk{{
		Text:   "Autores al azar: " + joinOrNone(names),
		Source: c.BaseURL() + "/autores/",
	}}, nil
}

// rawListChunk fetches a JSON list and embeds it verbatim after a label.
// The formatter summarizes the embedded records.
func (e *Executor) rawListChunk(ctx context.Context, c *Client, path, label string) ([]Chunk, error) {
	var raw json.RawMessage
	if err := c.FetchJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	return []Chunk{{
		Text:   fmt.Sprintf("%s: %s", label, raw),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) topAuthors(ctx context.Context, c *Client, it intent.Intent) ([]Chunk, error) {
	var books []book
	if err := c.FetchJSON(ctx, "/libros/", &books); err != nil {
		return nil, err
	}
	var authors []author
	if err := c.FetchJSON(ctx, "/autores/", &authors); err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(authors))
	for _, b := range books {
		counts[b.AutorID]++
	}

	// Rank authors in list order so equal counts keep a stable order.
	ranked := make([]namedTotal, 0, len(authors))
	for _, a := range authors {
		if counts[a.ID] > 0 {
			ranked = append(ranked, namedTotal{Nombre: a.Nombre, Total: counts[a.ID]})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })

	n, _ := strconv.Atoi(it.Params["n"])
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}

	parts := make([]string, 0, len(ranked))
	for _, r := range ranked {
		parts = append(parts, fmt.Sprintf("%s (%d)", r.Nombre, r.Total))
	}

	return []Chunk{{
		Text:   "Top autores con más libros: " + joinOrNone(parts),
		Source: c.BaseURL() + "/libros/",
	}}, nil
}

func (e *Executor) booksBetweenYears(ctx context.Context, c *Client, it intent.Intent) ([]Chunk, error) {
	var books []book
	if err := c.FetchJSON(ctx, "/libros/", &books); err != nil {
		return nil, err
	}

	desde, _ := strconv.Atoi(it.Params["desde"])
	hasta, _ := strconv.Atoi(it.Params["hasta"])

	filtered := make([]book, 0, len(books))
	for _, b := range books {
		if b.Anio >= desde && b.Anio <= hasta {
			filtered = append(filtered, b)
		}
	}

	detail, _ := json.Marshal(filtered)
	return []Chunk{{
		Text:   fmt.Sprintf("Libros publicados entre %d y %d: %s", desde, hasta, detail),
		Source: c.BaseURL() + "/libros/",
	}}, nil
}

// extremeBook picks the newest or oldest book by publication year. Ties
// keep the first book in list order.
func (e *Executor) extremeBook(ctx context.Context, c *Client, newest bool) ([]Chunk, error) {
	var books []book
	if err := c.FetchJSON(ctx, "/libros/", &books); err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, nil
	}

	pick := books[0]
	for _, b := range books[1:] {
		if (newest && b.Anio > pick.Anio) || (!newest && b.Anio < pick.Anio) {
			pick = b
		}
	}

	adjective := "más antiguo"
	if newest {
		adjective = "más reciente"
	}

	return []Chunk{{
		Text:   fmt.Sprintf("El libro %s es %s (%d).", adjective, pick.Titulo, pick.Anio),
		Source: c.BaseURL() + "/libros/",
	}}, nil
}

func (e *Executor) statsChunk(ctx context.Context, c *Client) ([]Chunk, error) {
	var raw json.RawMessage
	if err := c.FetchJSON(ctx, "/stats", &raw); err != nil {
		return nil, err
	}

	return []Chunk{{
		Text:   string(raw),
		Source: c.BaseURL() + "/stats",
	}}, nil
}

func (e *Executor) countPurchasesByClient(ctx context.Context, c *Client, path string) ([]Chunk, error) {
	var res namedTotal
	if err := c.FetchJSON(ctx, path, &res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return []Chunk{{
		Text:   fmt.Sprintf("%s ha realizado %d compra(s).", res.Nombre, res.Total),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) randomProducts(ctx context.Context, c *Client, it intent.Intent) ([]Chunk, error) {
	var products []product
	if err := c.FetchJSON(ctx, "/productos/", &products); err != nil {
		return nil, err
	}

	n, _ := strconv.Atoi(it.Params["n"])
	names := make([]string, 0, len(products))
	for _, i := range e.sampleIndexes(len(products), n) {
		names = append(names, products[i].Nombre)
	}

	return []Chunk{{
		Text:   "Productos al azar: " + joinOrNone(names),
		Source: c.BaseURL() + "/productos/",
	}}, nil
}

// namedListChunk fetches a list of records with a nombre field and joins
// the names after a label.
func (e *Executor) namedListChunk(ctx context.Context, c *Client, path, label string) ([]Chunk, error) {
	var items []struct {
		Nombre string `json:"nombre"`
	}
	if err := c.FetchJSON(ctx, path, &items); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Nombre)
	}

	return []Chunk{{
		Text:   fmt.Sprintf("%s: %s", label, joinOrNone(names)),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) topProducts(ctx context.Context, c *Client, path string) ([]Chunk, error) {
	var ranked []namedTotal
	if err := c.FetchJSON(ctx, path, &ranked); err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(ranked))
	for _, r := range ranked {
		parts = append(parts, fmt.Sprintf("%s (%d)", r.Nombre, r.Total))
	}

	return []Chunk{{
		Text:   "Top productos más comprados: " + joinOrNone(parts),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) clientsByCountry(ctx context.Context, c *Client, path string) ([]Chunk, error) {
	var res struct {
		Pais  string `json:"pais"`
		Total int    `json:"total"`
	}
	if err := c.FetchJSON(ctx, path, &res); err != nil {
		return nil, err
	}

	return []Chunk{{
		Text:   fmt.Sprintf("Clientes de %s: %d.", res.Pais, res.Total),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) mostActiveClient(ctx context.Context, c *Client, path string) ([]Chunk, error) {
	var res namedTotal
	if err := c.FetchJSON(ctx, path, &res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return []Chunk{{
		Text:   fmt.Sprintf("El cliente más activo es %s con %d compra(s).", res.Nombre, res.Total),
		Source: c.BaseURL() + path,
	}}, nil
}

func (e *Executor) outOfStock(ctx context.Context, c *Client, path string) ([]Chunk, error) {
	var products []product
	if err := c.FetchJSON(ctx, path, &products); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Nombre)
	}

	return []Chunk{{
		Text:   "Productos sin stock: " + joinOrNone(names),
		Source: c.BaseURL() + path,
	}}, nil
}

// genericChunk handles requests whose capability has no dedicated logic,
// such as generative routes matched only by template.
func (e *Executor) genericChunk(ctx context.Context, c *Client, req *payload.QueryRequest) ([]Chunk, error) {
	var raw json.RawMessage
	if err := c.FetchJSON(ctx, req.Path, &raw); err != nil {
		return nil, err
	}

	label := req.Description
	if label == "" {
		label = "Resultado"
	}

	return []Chunk{{
		Text:   fmt.Sprintf("%s: %s", label, raw),
		Source: c.BaseURL() + req.Path,
	}}, nil
}

// sampleIndexes returns up to n distinct indexes in [0, total), in random
// order. n is clamped to the population; n <= 0 samples nothing.
func (e *Executor) sampleIndexes(total, n int) []int {
	if n <= 0 || total == 0 {
		return nil
	}
	if n > total {
		n = total
	}

	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Perm(total)[:n]
}

func joinOrNone(parts []string) string {
	if len(parts) == 0 {
		return "Ninguno"
	}
	return strings.Join(parts, ", ")
}
