// Package compras implements the purchases demo backend over database/sql,
// with SQLite for development and Postgres as the production option.
package compras

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoResults marks queries over an empty data set.
var ErrNoResults = errors.New("sin resultados")

// Producto is a catalog product.
type Producto struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Stock  int    `json:"stock"`
}

// ProductoTotal is a product with an aggregated purchase count.
type ProductoTotal struct {
	Nombre string `json:"nombre"`
	Total  int    `json:"total"`
}

// ClienteTotal is a client name with an aggregated purchase count.
type ClienteTotal struct {
	Nombre string `json:"nombre"`
	Total  int    `json:"total"`
}

// Stats summarizes the store.
type Stats struct {
	Clientes  int `json:"clientes"`
	Productos int `json:"productos"`
	Compras   int `json:"compras"`
}

// Store wraps the purchases database. Queries are written once with ?
// placeholders and rebound for Postgres.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the purchases database. driver is sqlite3 or postgres.
func Open(driver, dsn string) (*Store, error) {
	if driver != "sqlite3" && driver != "postgres" {
		return nil, fmt.Errorf("driver de base de datos no soportado: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir base de datos: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("conectar a la base de datos: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to the driver's dialect.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS clientes (
		dni TEXT PRIMARY KEY,
		nombre TEXT NOT NULL,
		apellidos TEXT NOT NULL,
		pais TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS productos (
		id INTEGER PRIMARY KEY,
		nombre TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS compras (
		id INTEGER PRIMARY KEY,
		comprador TEXT NOT NULL REFERENCES clientes(dni),
		fecha TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS compra_prod (
		compra INTEGER NOT NULL REFERENCES compras(id),
		producto INTEGER NOT NULL REFERENCES productos(id),
		cantidad INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (compra, producto)
	)`,
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("crear esquema: %w", err)
		}
	}
	return nil
}

// IsEmpty reports whether the store has no clients yet.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clientes").Scan(&n); err != nil {
		return false, fmt.Errorf("contar clientes: %w", err)
	}
	return n == 0, nil
}

// CountPurchasesByClient counts the purchases of the client whose full
// name contains nombre, case-insensitively.
func (s *Store) CountPurchasesByClient(ctx context.Context, nombre string) (int, error) {
	query := s.rebind(`
		SELECT COUNT(*)
		FROM compras c
		JOIN clientes cl ON cl.dni = c.comprador
		WHERE LOWER(cl.nombre || ' ' || cl.apellidos) LIKE '%' || LOWER(?) || '%'`)

	var total int
	if err := s.db.QueryRowContext(ctx, query, nombre).Scan(&total); err != nil {
		return 0, fmt.Errorf("contar compras de %q: %w", nombre, err)
	}
	return total, nil
}

// Productos returns the full catalog ordered by id.
func (s *Store) Productos(ctx context.Context) ([]Producto, error) {
	return s.queryProductos(ctx, "SELECT id, nombre, stock FROM productos ORDER BY id")
}

// ProductosSinStock returns the products with zero stock.
func (s *Store) ProductosSinStock(ctx context.Context) ([]Producto, error) {
	return s.queryProductos(ctx, "SELECT id, nombre, stock FROM productos WHERE stock = 0 ORDER BY id")
}

// ProductosCompradosEnAnio returns the distinct products bought in a year.
func (s *Store) ProductosCompradosEnAnio(ctx context.Context, anio int) ([]Producto, error) {
	query := s.rebind(`
		SELECT DISTINCT p.id, p.nombre, p.stock
		FROM productos p
		JOIN compra_prod cp ON cp.producto = p.id
		JOIN compras c ON c.id = cp.compra
		WHERE substr(c.fecha, 1, 4) = ?
		ORDER BY p.id`)
	return s.queryProductos(ctx, query, strconv.Itoa(anio))
}

// ProductosCompradosEntre returns the distinct products bought in the
// inclusive year range.
func (s *Store) ProductosCompradosEntre(ctx context.Context, desde, hasta int) ([]Producto, error) {
	query := s.rebind(`
		SELECT DISTINCT p.id, p.nombre, p.stock
		FROM productos p
		JOIN compra_prod cp ON cp.producto = p.id
		JOIN compras c ON c.id = cp.compra
		WHERE substr(c.fecha, 1, 4) BETWEEN ? AND ?
		ORDER BY p.id`)
	return s.queryProductos(ctx, query, strconv.Itoa(desde), strconv.Itoa(hasta))
}

func (s *Store) queryProductos(ctx context.Context, query string, args ...any) ([]Producto, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("consultar productos: %w", err)
	}
	defer rows.Close()

	productos := []Producto{}
	for rows.Next() {
		var p Producto
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Stock); err != nil {
			return nil, fmt.Errorf("leer producto: %w", err)
		}
		productos = append(productos, p)
	}
	return productos, rows.Err()
}

// TopProductos returns the n most purchased products by total units,
// breaking ties by product id.
func (s *Store) TopProductos(ctx context.Context, n int) ([]ProductoTotal, error) {
	if n <= 0 {
		return []ProductoTotal{}, nil
	}

	query := s.rebind(`
		SELECT p.nombre, SUM(cp.cantidad) AS total
		FROM productos p
		JOIN compra_prod cp ON cp.producto = p.id
		GROUP BY p.id, p.nombre
		ORDER BY total DESC, p.id
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("consultar top productos: %w", err)
	}
	defer rows.Close()

	top := []ProductoTotal{}
	for rows.Next() {
		var pt ProductoTotal
		if err := rows.Scan(&pt.Nombre, &pt.Total); err != nil {
			return nil, fmt.Errorf("leer top producto: %w", err)
		}
		top = append(top, pt)
	}
	return top, rows.Err()
}

// ClientesPorPais counts clients of a country, case-insensitively.
// SQLite's LOWER() folds ASCII only, so the parameter is folded in Go
// before binding ("ESPAÑA" must match a stored "España").
func (s *Store) ClientesPorPais(ctx context.Context, pais string) (int, error) {
	query := s.rebind("SELECT COUNT(*) FROM clientes WHERE LOWER(pais) = ?")

	var total int
	if err := s.db.QueryRowContext(ctx, query, strings.ToLower(pais)).Scan(&total); err != nil {
		return 0, fmt.Errorf("contar clientes de %q: %w", pais, err)
	}
	return total, nil
}

// ClienteMasActivo returns the client with most purchases. ErrNoResults
// when there are no purchases at all.
func (s *Store) ClienteMasActivo(ctx context.Context) (ClienteTotal, error) {
	query := `
		SELECT cl.nombre || ' ' || cl.apellidos, COUNT(*) AS total
		FROM compras c
		JOIN clientes cl ON cl.dni = c.comprador
		GROUP BY cl.dni, cl.nombre, cl.apellidos
		ORDER BY total DESC, cl.dni
		LIMIT 1`

	var ct ClienteTotal
	err := s.db.QueryRowContext(ctx, query).Scan(&ct.Nombre, &ct.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return ClienteTotal{}, ErrNoResults
	}
	if err != nil {
		return ClienteTotal{}, fmt.Errorf("consultar cliente más activo: %w", err)
	}
	return ct, nil
}

// Estadisticas returns the row counts of the three main tables.
func (s *Store) Estadisticas(ctx context.Context) (Stats, error) {
	var st Stats
	for _, q := range []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM clientes", &st.Clientes},
		{"SELECT COUNT(*) FROM productos", &st.Productos},
		{"SELECT COUNT(*) FROM compras", &st.Compras},
	} {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("consultar estadísticas: %w", err)
		}
	}
	return st, nil
}
