package compras

import (
	"context"
	"fmt"
)

type clienteRow struct {
	dni, nombre, apellidos, pais string
}

type compraRow struct {
	id        int
	comprador string
	fecha     string
}

type lineaRow struct {
	compra, producto, cantidad int
}

var seedClientes = []clienteRow{
	{"11111111A", "María", "López García", "España"},
	{"22222222B", "Juan", "Pérez Ruiz", "España"},
	{"33333333C", "Camila", "Rojas Soto", "Chile"},
	{"44444444D", "Diego", "Fernández Paz", "Argentina"},
	{"55555555E", "Lucía", "Mendoza Quispe", "Peru"},
}

var seedProductos = []Producto{
	{ID: 1, Nombre: "Teclado mecánico", Stock: 12},
	{ID: 2, Nombre: "Ratón inalámbrico", Stock: 30},
	{ID: 3, Nombre: "Monitor 27 pulgadas", Stock: 5},
	{ID: 4, Nombre: "Auriculares Bluetooth", Stock: 0},
	{ID: 5, Nombre: "Webcam HD", Stock: 8},
	{ID: 6, Nombre: "Alfombrilla XXL", Stock: 50},
	{ID: 7, Nombre: "Hub USB-C", Stock: 0},
	{ID: 8, Nombre: "Lámpara de escritorio", Stock: 14},
}

var seedCompras = []compraRow{
	{1, "11111111A", "2019-03-12"},
	{2, "11111111A", "2020-07-01"},
	{3, "22222222B", "2020-11-23"},
	{4, "33333333C", "2021-02-14"},
	{5, "11111111A", "2021-09-30"},
	{6, "44444444D", "2022-01-05"},
	{7, "22222222B", "2022-06-18"},
	{8, "55555555E", "2022-12-02"},
	{9, "33333333C", "2023-04-21"},
	{10, "11111111A", "2023-08-15"},
}

var seedLineas = []lineaRow{
	{1, 1, 1}, {1, 6, 2},
	{2, 2, 1},
	{3, 3, 1}, {3, 2, 1},
	{4, 4, 1},
	{5, 1, 1}, {5, 5, 1},
	{6, 2, 2},
	{7, 8, 1},
	{8, 7, 1}, {8, 2, 1},
	{9, 1, 1},
	{10, 2, 1}, {10, 3, 1},
}

// SeedRowCount is the number of rows Seed inserts, for progress display.
func SeedRowCount() int {
	return len(seedClientes) + len(seedProductos) + len(seedCompras) + len(seedLineas)
}

// Seed wipes the tables and loads the demo data set inside a single
// transaction. onRow, when non-nil, is invoked once per inserted row.
func (s *Store) Seed(ctx context.Context, onRow func()) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("iniciar transacción de carga: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"compra_prod", "compras", "productos", "clientes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("vaciar tabla %s: %w", table, err)
		}
	}

	row := func() {
		if onRow != nil {
			onRow()
		}
	}

	insertCliente := s.rebind("INSERT INTO clientes (dni, nombre, apellidos, pais) VALUES (?, ?, ?, ?)")
	for _, c := range seedClientes {
		if _, err := tx.ExecContext(ctx, insertCliente, c.dni, c.nombre, c.apellidos, c.pais); err != nil {
			return fmt.Errorf("insertar cliente %s: %w", c.dni, err)
		}
		row()
	}

	insertProducto := s.rebind("INSERT INTO productos (id, nombre, stock) VALUES (?, ?, ?)")
	for _, p := range seedProductos {
		if _, err := tx.ExecContext(ctx, insertProducto, p.ID, p.Nombre, p.Stock); err != nil {
			return fmt.Errorf("insertar producto %d: %w", p.ID, err)
		}
		row()
	}

	insertCompra := s.rebind("INSERT INTO compras (id, comprador, fecha) VALUES (?, ?, ?)")
	for _, c := range seedCompras {
		if _, err := tx.ExecContext(ctx, insertCompra, c.id, c.comprador, c.fecha); err != nil {
			return fmt.Errorf("insertar compra %d: %w", c.id, err)
		}
		row()
	}

	insertLinea := s.rebind("INSERT INTO compra_prod (compra, producto, cantidad) VALUES (?, ?, ?)")
	for _, l := range seedLineas {
		if _, err := tx.ExecContext(ctx, insertLinea, l.compra, l.producto, l.cantidad); err != nil {
			return fmt.Errorf("insertar línea %d/%d: %w", l.compra, l.producto, err)
		}
		row()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("confirmar carga: %w", err)
	}
	return nil
}
