// Command consulta-cli is the terminal client of the query router: ask a
// single question, chat interactively, or seed the purchases database.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/consulta-ai/consulta/internal/backend"
	"github.com/consulta-ai/consulta/internal/cache"
	"github.com/consulta-ai/consulta/internal/config"
	"github.com/consulta-ai/consulta/internal/dispatch"
	"github.com/consulta-ai/consulta/internal/observability"
	"github.com/consulta-ai/consulta/internal/payload"
	"github.com/consulta-ai/consulta/internal/version"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg    *config.Config
	logger *observability.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "consulta",
		Short: "Enrutador de consultas en lenguaje natural",
		Long: `consulta responde preguntas en español sobre la biblioteca y la
tienda de compras, dirigiendo cada pregunta al servicio adecuado.`,
		SilenceUsage:      true,
		PersistentPreRunE: initRuntime,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "ruta del fichero de configuración YAML")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "salida en JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logs detallados")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// initRuntime loads configuration and sets up logging before any command
// runs.
func initRuntime(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	cfg = loaded

	level := "warn"
	if verbose {
		level = "debug"
	}

	logger = observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: "consulta-cli",
	})

	return nil
}

// newDispatcher builds the in-process pipeline against the configured
// backends.
func newDispatcher() *dispatch.Dispatcher {
	var builder payload.Builder = payload.NewDeterministicBuilder()
	if cfg.Builder.Mode == "generative" {
		completer := payload.NewOpenAICompleter(payload.OpenAIConfig{
			APIKey:  cfg.Builder.OpenAI.APIKey,
			BaseURL: cfg.Builder.OpenAI.BaseURL,
			Model:   cfg.Builder.OpenAI.Model,
			Timeout: cfg.Builder.OpenAI.Timeout,
		})
		builder = payload.NewGenerativeBuilder(completer, logger)
	}

	lib := backend.NewClient("biblioteca", cfg.Backends.BibliotecaURL, cfg.Backends.CallTimeout, logger)
	comp := backend.NewClient("compras", cfg.Backends.ComprasURL, cfg.Backends.CallTimeout, logger)
	exec := backend.NewExecutor(lib, comp, logger)

	return dispatch.NewDispatcher(builder, exec, cache.NewMemoryClient(cfg.Cache.MaxEntries), cfg.Cache.TTL, logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("consulta %s (%s)\n", version.Version, version.Commit)
		},
	}
}
