// Package catalog describes the HTTP surface of the demo backends. The
// catalog is the single source of truth for which endpoints exist, which
// capability each one serves, and which path parameters it takes. The
// payload builders consume it to turn extracted intents into concrete
// requests, and the API exposes it verbatim on /manifest.
package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/consulta-ai/consulta/internal/classify"
)

// Capability names a concrete retrieval the system knows how to perform.
type Capability string

// Library capabilities.
const (
	CapCountBooksByAuthor    Capability = "count_books_by_author"
	CapRandomAuthors         Capability = "random_authors"
	CapBooksByYear           Capability = "search_books_by_year"
	CapAuthorsByNationality  Capability = "search_authors_by_nationality"
	CapBooksByTitle          Capability = "search_books_by_title"
	CapTopAuthors            Capability = "top_authors"
	CapBooksBetweenYears     Capability = "books_between_years"
	CapMostRecentBook        Capability = "most_recent_book"
	CapOldestBook            Capability = "oldest_book"
	CapLibraryStats          Capability = "library_stats"
)

// Purchases capabilities.
const (
	CapCountPurchasesByClient Capability = "count_purchases_by_client"
	CapRandomProducts         Capability = "random_products"
	CapProductsByYear         Capability = "products_by_year"
	CapTopProducts            Capability = "top_products"
	CapClientsByCountry       Capability = "clients_by_country"
	CapMostActiveClient       Capability = "most_active_client"
	CapOutOfStock             Capability = "out_of_stock"
	CapProductsBetweenYears   Capability = "products_between_years"
	CapPurchasesStats         Capability = "purchases_stats"
)

// EndpointSpec describes one backend endpoint.
type EndpointSpec struct {
	Domain       classify.Domain `json:"dominio"`
	Method       string          `json:"metodo"`
	PathTemplate string          `json:"ruta"`
	Params       []string        `json:"parametros,omitempty"`
	Capability   Capability      `json:"capacidad"`
	Description  string          `json:"descripcion"`
}

// Path substitutes the bound parameters into the endpoint's path template.
// Values are path-escaped. Missing parameters leave the placeholder in
// place so the failure is visible downstream.
func (e EndpointSpec) Path(params map[string]string) string {
	path := e.PathTemplate
	for _, p := range e.Params {
		if v, ok := params[p]; ok {
			path = strings.ReplaceAll(path, "{"+p+"}", url.PathEscape(v))
		}
	}
	return path
}

var library = []EndpointSpec{
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/autores/",
		Capability:   CapRandomAuthors,
		Description:  "Lista todos los autores de la biblioteca",
	},
	{
		// The author id is resolved against /autores/ at execution
		// time; the request starts from the author list.
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/autores/",
		Capability:   CapCountBooksByAuthor,
		Description:  "Resuelve un autor por nombre y cuenta sus libros",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/libros/buscar/por-anio/{anio}",
		Params:       []string{"anio"},
		Capability:   CapBooksByYear,
		Description:  "Busca libros publicados en un año concreto",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/autores/buscar/por-nacionalidad/{pais}",
		Params:       []string{"pais"},
		Capability:   CapAuthorsByNationality,
		Description:  "Busca autores por nacionalidad",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/libros/buscar/titulo/{termino}",
		Params:       []string{"termino"},
		Capability:   CapBooksByTitle,
		Description:  "Busca libros cuyo título contenga un término",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/libros/",
		Capability:   CapTopAuthors,
		Description:  "Lista todos los libros (base para rankings por autor)",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/libros/",
		Capability:   CapBooksBetweenYears,
		Description:  "Lista todos los libros (base para filtros por rango de años)",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/libros/",
		Capability:   CapMostRecentBook,
		Description:  "Lista todos los libros (base para el libro más reciente)",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/libros/",
		Capability:   CapOldestBook,
		Description:  "Lista todos los libros (base para el libro más antiguo)",
	},
	{
		Domain:       classify.DomainLibrary,
		Method:       "GET",
		PathTemplate: "/stats",
		Capability:   CapLibraryStats,
		Description:  "Estadísticas generales de la biblioteca",
	},
}

var purchases = []EndpointSpec{
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/compras/cliente/{nombre}/total",
		Params:       []string{"nombre"},
		Capability:   CapCountPurchasesByClient,
		Description:  "Cuenta las compras realizadas por un cliente",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/productos/",
		Capability:   CapRandomProducts,
		Description:  "Lista todos los productos",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/productos/comprados/por-anio/{anio}",
		Params:       []string{"anio"},
		Capability:   CapProductsByYear,
		Description:  "Productos comprados en un año concreto",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/productos/top/{n}",
		Params:       []string{"n"},
		Capability:   CapTopProducts,
		Description:  "Los N productos más comprados",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/clientes/por-pais/{pais}",
		Params:       []string{"pais"},
		Capability:   CapClientsByCountry,
		Description:  "Número de clientes de un país",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/clientes/mas-activo",
		Capability:   CapMostActiveClient,
		Description:  "El cliente con más compras",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/productos/sin-stock",
		Capability:   CapOutOfStock,
		Description:  "Productos sin existencias",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/productos/comprados/entre/{desde}/{hasta}",
		Params:       []string{"desde", "hasta"},
		Capability:   CapProductsBetweenYears,
		Description:  "Productos comprados entre dos años",
	},
	{
		Domain:       classify.DomainPurchases,
		Method:       "GET",
		PathTemplate: "/stats",
		Capability:   CapPurchasesStats,
		Description:  "Estadísticas generales de la tienda",
	},
}

// ForDomain returns the endpoint specs for a backend domain. The returned
// slice is a copy; callers may reorder it freely.
func ForDomain(d classify.Domain) []EndpointSpec {
	var src []EndpointSpec
	switch d {
	case classify.DomainLibrary:
		src = library
	case classify.DomainPurchases:
		src = purchases
	default:
		return nil
	}
	out := make([]EndpointSpec, len(src))
	copy(out, src)
	return out
}

// All returns every endpoint spec across both domains.
func All() []EndpointSpec {
	out := make([]EndpointSpec, 0, len(library)+len(purchases))
	out = append(out, library...)
	out = append(out, purchases...)
	return out
}

// Lookup finds the endpoint spec for a capability within a domain.
func Lookup(d classify.Domain, cap Capability) (EndpointSpec, bool) {
	for _, e := range ForDomain(d) {
		if e.Capability == cap {
			return e, true
		}
	}
	return EndpointSpec{}, false
}

// Capabilities returns the sorted capability names for a domain. Used by
// the generative builder prompt and by the manifest handler.
func Capabilities(d classify.Domain) []string {
	specs := ForDomain(d)
	names := make([]string, 0, len(specs))
	for _, e := range specs {
		names = append(names, string(e.Capability))
	}
	sort.Strings(names)
	return names
}

// PromptText renders the domain's endpoints as a compact numbered list
// suitable for inclusion in a model prompt.
func PromptText(d classify.Domain) string {
	specs := ForDomain(d)
	var b strings.Builder
	for i, e := range specs {
		fmt.Fprintf(&b, "%d. %s %s", i+1, e.Method, e.PathTemplate)
		if len(e.Params) > 0 {
			fmt.Fprintf(&b, " (parámetros: %s)", strings.Join(e.Params, ", "))
		}
		fmt.Fprintf(&b, " — %s\n", e.Description)
	}
	return b.String()
}
