package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [pregunta]",
		Short: "Responde una pregunta y termina",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = " consultando..."
			s.Writer = os.Stderr
			s.Start()

			answer, err := newDispatcher().Answer(cmd.Context(), question)
			s.Stop()
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]string{
					"query":     question,
					"respuesta": answer,
				})
			}

			fmt.Println(color.CyanString(answer))
			return nil
		},
	}
}
