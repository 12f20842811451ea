package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/consulta-ai/consulta/internal/compras"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Carga los datos de demostración en la base de compras",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := compras.Open(cfg.Compras.Driver, cfg.Compras.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return err
			}

			bar := progressbar.NewOptions(compras.SeedRowCount(),
				progressbar.OptionSetDescription("cargando datos"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			if err := store.Seed(ctx, func() { _ = bar.Add(1) }); err != nil {
				return err
			}

			st, err := store.Estadisticas(ctx)
			if err != nil {
				return err
			}

			fmt.Println(color.GreenString(
				"Base de compras cargada: %d clientes, %d productos, %d compras.",
				st.Clientes, st.Productos, st.Compras))
			return nil
		},
	}
}
