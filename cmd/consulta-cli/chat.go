package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/consulta-ai/consulta/internal/backend"
)

// exitWords end the chat loop.
var exitWords = map[string]bool{
	"salir": true,
	"exit":  true,
	"quit":  true,
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Conversación interactiva con el enrutador",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			checkBackends(ctx)

			dispatcher := newDispatcher()

			color.Cyan("Pregunta sobre libros, autores, productos o compras.")
			color.Cyan("Escribe 'salir' para terminar.")
			fmt.Println()

			prompt := color.New(color.FgGreen, color.Bold)
			scanner := bufio.NewScanner(os.Stdin)

			for {
				prompt.Print("tú> ")
				if !scanner.Scan() {
					break
				}

				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if exitWords[strings.ToLower(question)] {
					color.Cyan("¡Hasta luego!")
					break
				}

				s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = " pensando..."
				s.Writer = os.Stderr
				s.Start()

				answer, err := dispatcher.Answer(ctx, question)
				s.Stop()
				if err != nil {
					color.Red("Error: %v", err)
					continue
				}

				fmt.Printf("%s %s\n\n", color.MagentaString("consulta>"), answer)
			}

			return scanner.Err()
		},
	}
}

// checkBackends pings both backend health endpoints and warns about the
// ones that do not respond. The chat still starts; answers degrade per
// domain.
func checkBackends(ctx context.Context) {
	targets := []struct {
		name string
		url  string
	}{
		{"biblioteca", cfg.Backends.BibliotecaURL},
		{"compras", cfg.Backends.ComprasURL},
	}

	for _, t := range targets {
		client := backend.NewClient(t.name, t.url, 2*time.Second, logger)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.FetchJSON(pingCtx, "/health", nil)
		cancel()

		if err != nil {
			color.Yellow("aviso: el servicio de %s no responde (%s)", t.name, t.url)
		} else if verbose {
			color.Green("servicio de %s disponible", t.name)
		}
	}
}
